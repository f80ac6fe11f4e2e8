package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestUnknownCommandError_SuggestsClosest(t *testing.T) {
	root := &cobra.Command{Use: "mergequeue"}
	root.AddCommand(&cobra.Command{Use: "enqueue"})
	root.AddCommand(&cobra.Command{Use: "cancel"})
	root.AddCommand(&cobra.Command{Use: "status"})

	err := unknownCommandError(root, "statu")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status") {
		t.Errorf("expected suggestion to mention status, got: %q", err.Error())
	}
}

func TestUnknownCommandError_SkipsHiddenAndBuiltins(t *testing.T) {
	root := &cobra.Command{Use: "mergequeue"}
	root.AddCommand(&cobra.Command{Use: "next", Hidden: true})
	root.AddCommand(&cobra.Command{Use: "help"})
	root.AddCommand(&cobra.Command{Use: "status"})

	err := unknownCommandError(root, "xyz")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "next") {
		t.Errorf("hidden command should never be suggested, got: %q", err.Error())
	}
}

func TestCollectFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "enqueue"}
	cmd.Flags().String("bead", "", "")
	cmd.Flags().String("hidden-flag", "", "")
	cmd.Flags().MarkHidden("hidden-flag")

	flags := collectFlags(cmd)

	found := map[string]bool{}
	for _, f := range flags {
		found[f] = true
	}
	if !found["bead"] {
		t.Error("expected collectFlags to include 'bead'")
	}
	if found["hidden-flag"] {
		t.Error("expected collectFlags to skip hidden flags")
	}
}

func TestFlagErrorWithSuggestions_NoMatch(t *testing.T) {
	cmd := &cobra.Command{Use: "enqueue"}
	err := flagErrorWithSuggestions(cmd, errPlain("some other error"))
	if err.Error() != "some other error" {
		t.Errorf("expected unchanged error, got %q", err.Error())
	}
}

func TestFlagErrorWithSuggestions_Nil(t *testing.T) {
	cmd := &cobra.Command{Use: "enqueue"}
	if err := flagErrorWithSuggestions(cmd, nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
