package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/lprior-repo/mergequeue/internal/clock"
	"github.com/lprior-repo/mergequeue/internal/queueid"
	"github.com/lprior-repo/mergequeue/internal/queuestate"
	"github.com/lprior-repo/mergequeue/internal/store"
)

// withDBFlag wraps sub in a throwaway root carrying the --db persistent
// flag that main.go's real rootCmd registers, so a subcommand can be
// exercised standalone the way it actually runs under mergequeue.
func withDBFlag(sub *cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "mergequeue", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("db", "", "")
	root.AddCommand(sub)
	return root
}

// newTestDB opens a real sqlite store at a temp path and returns that path,
// seeding one pending entry for ws.
func newTestDB(t *testing.T, ws string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.db")
	s, err := store.Open(path, clock.RealSource{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	workspace, err := queueid.ParseWorkspace(ws)
	if err != nil {
		t.Fatalf("ParseWorkspace() error = %v", err)
	}
	if _, err := s.Add(context.Background(), workspace, "", queueid.DefaultPriority, ""); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return path
}

func TestCancel_YesFlagSkipsPromptAndCancelsEntry(t *testing.T) {
	path := newTestDB(t, "ws-42")

	// writeLine prints straight to os.Stdout rather than cmd.OutOrStdout(),
	// the same posture every mergequeue subcommand takes, so success here
	// is checked against the store directly rather than captured output.
	if _, err := executeCommand(withDBFlag(newCancelCmd()), "cancel", "ws-42", "--db", path, "--yes"); err != nil {
		t.Fatalf("cancel error = %v", err)
	}

	s, err := store.Open(path, clock.RealSource{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	ws, _ := queueid.ParseWorkspace("ws-42")
	entry, err := s.Get(context.Background(), ws)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry.Status != queuestate.Cancelled {
		t.Errorf("entry status = %s, want cancelled", entry.Status)
	}
}

func TestCancel_MissingWorkspaceArgReportsHelp(t *testing.T) {
	_, err := executeCommand(withDBFlag(newCancelCmd()), "cancel", "--db", "/tmp/unused.db", "--yes")
	if err == nil {
		t.Fatal("expected error for missing workspace argument")
	}
	if !strings.Contains(err.Error(), "workspace") {
		t.Errorf("expected error to mention the missing argument, got: %v", err)
	}
}

func TestCancel_HelpIncludesArgumentHelp(t *testing.T) {
	output, err := executeCommand(newCancelCmd(), "--help")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !strings.Contains(output, "workspace") || !strings.Contains(output, "ws-42") {
		t.Errorf("expected help output to include argument help, got: %q", output)
	}
}
