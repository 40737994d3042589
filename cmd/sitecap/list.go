package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"sitecap/internal/infrastructure/logger"
	"sitecap/internal/infrastructure/store"

	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded capability documents",
		Long: `List shows every domain in the capability store with its page and
element counts. With --sessions it shows the recent session history
instead.

Examples:
  # Domains in the default store
  sitecap list

  # Domains in a SQLite store
  sitecap list --store capabilities.db

  # The last ten recording sessions
  sitecap list --sessions 10`,
		Args: cobra.NoArgs,
		RunE: runListCmd,
	}

	cmd.Flags().String("store", "", "Capability store: a directory, a .db file or a sqlite: locator")
	cmd.Flags().Int("sessions", 0, "Show the N most recent sessions instead of stored domains")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")

	return cmd
}

// runListCmd executes the list command.
func runListCmd(cmd *cobra.Command, _ []string) error {
	sessions, err := cmd.Flags().GetInt("sessions")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	if sessions > 0 {
		return listSessions(cmd, sessions, asJSON)
	}
	return listCapabilities(cmd, asJSON)
}

func listCapabilities(cmd *cobra.Command, asJSON bool) error {
	target, err := cmd.Flags().GetString("store")
	if err != nil {
		return err
	}

	st, err := store.Open(target, logger.NewNop())
	if err != nil {
		return err
	}
	defer st.Close()

	summaries, err := st.List(cmd.Context())
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No capability documents recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOMAIN\tPAGES\tELEMENTS\tUPDATED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
			s.Domain, s.Pages, s.Elements, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func listSessions(cmd *cobra.Command, limit int, asJSON bool) error {
	path, err := store.DefaultHistoryPath()
	if err != nil {
		return fmt.Errorf("locate session history: %w", err)
	}
	history, err := store.OpenSQLite(path)
	if err != nil {
		return fmt.Errorf("open session history: %w", err)
	}
	defer history.Close()

	records, err := history.RecentSessions(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tDOMAIN\tSTATE\tTURNS\tTOKENS\tDURATION")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Domain,
			r.State,
			r.Turns,
			r.Usage.Total,
			(time.Duration(r.DurationMS) * time.Millisecond).Round(time.Second),
		)
	}
	return w.Flush()
}
