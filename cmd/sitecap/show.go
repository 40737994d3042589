package main

import (
	"encoding/json"
	"fmt"
	"os"

	"sitecap/internal/domain/entity"
	"sitecap/internal/infrastructure/logger"
	"sitecap/internal/infrastructure/store"

	"github.com/spf13/cobra"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <domain>",
		Short: "Print the capability document for a domain",
		Long: `Show prints the full capability document recorded for a domain as
indented JSON. The domain is normalized the same way record normalizes
it, so "https://www.example.com/x" and "example.com" name the same
document.`,
		Args: cobra.ExactArgs(1),
		RunE: runShowCmd,
	}

	cmd.Flags().String("store", "", "Capability store: a directory, a .db file or a sqlite: locator")

	return cmd
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, args []string) error {
	domain, err := entity.NormalizeDomain(args[0])
	if err != nil {
		return err
	}

	target, err := cmd.Flags().GetString("store")
	if err != nil {
		return err
	}

	st, err := store.Open(target, logger.NewNop())
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := st.Load(cmd.Context(), domain)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("no capability recorded for %s", domain)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
