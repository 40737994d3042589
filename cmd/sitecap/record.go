package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitecap/internal/application/port/output"
	"sitecap/internal/config"
	"sitecap/internal/di"
	"sitecap/internal/domain/entity"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewRecordCmd creates the record command.
func NewRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record [session.yaml...]",
		Short: "Run a recording session against a website",
		Long: `Record drives the agent through one scenario and merges what it finds
into the domain's capability document.

Sessions are described either by flags or by YAML config files passed as
arguments. Flags override values from the config files.

Examples:
  # One-off session from flags
  sitecap record --url https://example.com --scenario "map the search flow"

  # Session described by a config file
  sitecap record checkout.yaml

  # Several sessions, three at a time
  sitecap record shops/*.yaml --batch 3

  # Re-record and drop elements the agent no longer mentions
  sitecap record checkout.yaml --policy prune`,
		Args: cobra.ArbitraryArgs,
		RunE: runRecordCmd,
	}

	cmd.Flags().StringP("url", "u", "", "Start URL (required unless config files are given)")
	cmd.Flags().StringP("scenario", "s", "", "What the agent should explore and record")
	cmd.Flags().String("domain", "", "Capability document key (default: host of the start URL)")
	cmd.Flags().IntP("max-turns", "t", 0, "Maximum model turns per session")
	cmd.Flags().StringP("policy", "p", "", "Merge policy for re-recorded pages: retain, prune or mark")
	cmd.Flags().String("store", "", "Capability store: a directory, a .db file or a sqlite: locator")
	cmd.Flags().Bool("headless", true, "Run the browser without a window")
	cmd.Flags().String("screenshots", "", "Directory for page screenshots (disabled when empty)")
	cmd.Flags().IntP("batch", "b", 1, "Number of concurrent sessions when several configs are given")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress per-step progress lines")
	cmd.Flags().BoolP("json", "j", false, "Print the session result as JSON")

	return cmd
}

// runRecordCmd executes the record command.
func runRecordCmd(cmd *cobra.Command, args []string) error {
	sessions, err := buildSessions(cmd, args)
	if err != nil {
		return err
	}

	batch, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	opts := di.Options{Verbose: getVerboseFlag(cmd)}
	if !quiet {
		opts.Progress = os.Stdout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(sessions) > 1 && batch > 1 {
		return runBatchRecord(ctx, sessions, batch, opts, asJSON)
	}

	var failed int
	for _, cfg := range sessions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := runSession(ctx, cfg, opts, asJSON); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Session error for %s: %v\n", cfg.Domain, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions failed", failed, len(sessions))
	}
	return nil
}

// runBatchRecord runs sessions concurrently. Per-step progress is
// disabled so the interleaved output stays readable.
func runBatchRecord(ctx context.Context, sessions []*config.Session, batch int, opts di.Options, asJSON bool) error {
	fmt.Printf("Recording %d sessions (concurrency: %d)...\n\n", len(sessions), batch)
	opts.Progress = nil

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batch)
	for _, cfg := range sessions {
		cfg := cfg
		g.Go(func() error {
			if err := runSession(ctx, cfg, opts, asJSON); err != nil {
				return fmt.Errorf("%s: %w", cfg.Domain, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// runSession wires one container, runs the session to a terminal state
// and reports the outcome.
func runSession(ctx context.Context, cfg *config.Session, opts di.Options, asJSON bool) error {
	c, err := di.NewContainer(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("Recording %s...\n", c.Domain)
	started := time.Now()

	result, recordErr := c.Recorder.Record(ctx)
	appendHistory(ctx, c, cfg, result, started)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(result)
	}

	if recordErr != nil {
		return recordErr
	}
	if result.State == entity.SessionFailed {
		return errors.New(result.Error)
	}
	return nil
}

// appendHistory records the finished session in the audit trail. The
// trail is best effort: a write failure never fails the session.
func appendHistory(ctx context.Context, c *di.Container, cfg *config.Session, result *entity.SessionResult, started time.Time) {
	if c.History == nil || result == nil {
		return
	}
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := c.History.AppendSession(hctx, output.SessionRecord{
		SessionID:  result.SessionID,
		Domain:     result.Domain,
		Scenario:   cfg.Scenario,
		State:      result.State,
		Turns:      result.Turns,
		Usage:      result.Usage,
		DurationMS: result.Duration.Milliseconds(),
		StartedAt:  started.UTC(),
	})
	if err != nil {
		c.Logger.Warn("failed to append session history", "error", err)
	}
}

func printResult(result *entity.SessionResult) {
	fmt.Printf("\nSession %s\n", result.SessionID)
	fmt.Printf("  state:    %s\n", result.State)
	fmt.Printf("  turns:    %d\n", result.Turns)
	if result.Capability != nil {
		fmt.Printf("  recorded: %d pages, %d elements\n",
			len(result.Capability.Pages), result.Capability.ElementCount())
	}
	fmt.Printf("  tokens:   %d in / %d out\n", result.Usage.Input, result.Usage.Output)
	fmt.Printf("  duration: %s\n", result.Duration.Round(time.Millisecond))
	if result.SavedPath != "" {
		fmt.Printf("  saved:    %s\n", result.SavedPath)
	}
	if result.Summary != "" {
		fmt.Printf("\n%s\n", result.Summary)
	}
	if result.Error != "" {
		fmt.Printf("\nError: %s\n", result.Error)
	}
	fmt.Println()
}

// buildSessions assembles the session configs for this invocation: one
// per config file argument, or a single flag-built session.
func buildSessions(cmd *cobra.Command, args []string) ([]*config.Session, error) {
	if len(args) == 0 {
		url, err := cmd.Flags().GetString("url")
		if err != nil {
			return nil, err
		}
		scenario, err := cmd.Flags().GetString("scenario")
		if err != nil {
			return nil, err
		}
		if url == "" || scenario == "" {
			return nil, errors.New("pass session config files, or set both --url and --scenario")
		}
		cfg := config.Default(url, scenario)
		if err := applyOverrides(cmd, cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return []*config.Session{cfg}, nil
	}

	sessions := make([]*config.Session, 0, len(args))
	for _, path := range args {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		if err := applyOverrides(cmd, cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		sessions = append(sessions, cfg)
	}
	return sessions, nil
}

// applyOverrides copies explicitly set flags onto the config. Flags the
// user did not touch leave the config file values alone.
func applyOverrides(cmd *cobra.Command, cfg *config.Session) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("domain") {
		cfg.Domain, err = flags.GetString("domain")
		if err != nil {
			return err
		}
	}
	if flags.Changed("max-turns") {
		cfg.MaxTurns, err = flags.GetInt("max-turns")
		if err != nil {
			return err
		}
	}
	if flags.Changed("policy") {
		cfg.MergePolicy, err = flags.GetString("policy")
		if err != nil {
			return err
		}
	}
	if flags.Changed("store") {
		cfg.Storage.Path, err = flags.GetString("store")
		if err != nil {
			return err
		}
	}
	if flags.Changed("headless") {
		headless, err := flags.GetBool("headless")
		if err != nil {
			return err
		}
		cfg.Browser.Headless = &headless
	}
	if flags.Changed("screenshots") {
		cfg.Output.ScreenshotDir, err = flags.GetString("screenshots")
		if err != nil {
			return err
		}
	}
	return nil
}
