package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

// TestBuildSessions tests session config assembly from flags and files.
func TestBuildSessions(t *testing.T) {
	t.Run("requires url and scenario without config files", func(t *testing.T) {
		cmd := NewRecordCmd()
		if _, err := buildSessions(cmd, nil); err == nil {
			t.Error("expected error when neither files nor flags are given")
		}
	})

	t.Run("builds one session from flags", func(t *testing.T) {
		cmd := NewRecordCmd()
		mustSetFlag(t, cmd, "url", "https://www.example.com/shop")
		mustSetFlag(t, cmd, "scenario", "map the shop")
		mustSetFlag(t, cmd, "max-turns", "5")

		sessions, err := buildSessions(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(sessions))
		}
		if sessions[0].Domain != "example.com" {
			t.Errorf("expected domain example.com, got %q", sessions[0].Domain)
		}
		if sessions[0].MaxTurns != 5 {
			t.Errorf("expected max turns 5, got %d", sessions[0].MaxTurns)
		}
	})

	t.Run("loads config files and applies flag overrides", func(t *testing.T) {
		path := writeSessionFile(t, `
start_url: https://shop.test
scenario: record checkout
max_turns: 30
merge_policy: retain
`)

		cmd := NewRecordCmd()
		mustSetFlag(t, cmd, "policy", "prune")
		mustSetFlag(t, cmd, "store", "caps.db")

		sessions, err := buildSessions(cmd, []string{path})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(sessions))
		}
		if sessions[0].MaxTurns != 30 {
			t.Errorf("expected config max turns to survive, got %d", sessions[0].MaxTurns)
		}
		if sessions[0].MergePolicy != "prune" {
			t.Errorf("expected flag to override policy, got %q", sessions[0].MergePolicy)
		}
		if sessions[0].Storage.Path != "caps.db" {
			t.Errorf("expected store override, got %q", sessions[0].Storage.Path)
		}
	})

	t.Run("rejects invalid policy override", func(t *testing.T) {
		path := writeSessionFile(t, `
start_url: https://shop.test
scenario: record checkout
`)

		cmd := NewRecordCmd()
		mustSetFlag(t, cmd, "policy", "obliterate")

		if _, err := buildSessions(cmd, []string{path}); err == nil {
			t.Error("expected error for unknown policy")
		}
	})

	t.Run("rejects missing config file", func(t *testing.T) {
		cmd := NewRecordCmd()
		if _, err := buildSessions(cmd, []string{"does-not-exist.yaml"}); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func mustSetFlag(t *testing.T, cmd *cobra.Command, name, value string) {
	t.Helper()
	if err := cmd.Flags().Set(name, value); err != nil {
		t.Fatalf("set flag %s: %v", name, err)
	}
}

func writeSessionFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
