// Package main provides the entry point for the mergequeue CLI.
//
// mergequeue is a command-line tool for inspecting and driving a durable
// merge queue: agents enqueue workspaces, list and cancel entries, inspect
// status and the event log, and (through a hidden debug command) claim the
// next eligible entry under the fleet-wide processing lock. Moving an entry
// through rebase, test, and merge is not done through this CLI.
package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	qerrors "github.com/lprior-repo/mergequeue/internal/errors"
	"github.com/lprior-repo/mergequeue/internal/jsonl"
)

// Version is the current version of the mergequeue CLI tool.
const Version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		enhanced := enhanceUnknownCommandError(rootCmd, err)
		jsonl.EncodeError(os.Stderr, enhanced.Error(), qerrors.Code(enhanced).String())
		os.Exit(qerrors.ExitCode(enhanced))
	}
}

// suggestionPattern matches cobra's "Did you mean" suggestions.
var suggestionPattern = regexp.MustCompile(`Did you mean (?:this|one of these)\?\s*\n((?:\s*\w+\s*\n?)+)`)

// enhanceUnknownCommandError adds usage examples to cobra's unknown command errors.
func enhanceUnknownCommandError(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	matches := suggestionPattern.FindStringSubmatch(errStr)
	if matches == nil {
		return err
	}

	suggestions := strings.Fields(matches[1])
	if len(suggestions) == 0 {
		return err
	}

	subCmds := make(map[string]*cobra.Command)
	for _, sub := range cmd.Commands() {
		if !sub.Hidden && sub.Name() != "help" && sub.Name() != "completion" {
			subCmds[sub.Name()] = sub
		}
	}

	var usageLines []string
	for _, s := range suggestions {
		if subCmd, ok := subCmds[s]; ok && subCmd.Use != "" {
			usageLines = append(usageLines, fmt.Sprintf("  %s %s", cmd.CommandPath(), subCmd.Use))
		}
	}

	if len(usageLines) == 0 {
		return err
	}

	enhanced := errStr + "\n\nUsage:\n" + strings.Join(usageLines, "\n")
	return fmt.Errorf("%s", enhanced)
}

var rootCmd = &cobra.Command{
	Use:           "mergequeue",
	Short:         "Durable merge queue coordinator CLI",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `mergequeue linearizes workspace integrations onto a trunk branch
through a durable, crash-safe queue.

Typical workflow:
  1. Enqueue a workspace for integration:
       mergequeue enqueue ws-42 --bead BEAD-101 --priority 5

  2. Check overall queue health:
       mergequeue status
       mergequeue list --status pending

  3. Cancel an entry that's no longer needed:
       mergequeue cancel ws-42 --reason "superseded"

  Workers claim and drive entries through the library API directly
  (internal/coordinator); 'next' exposes the same claim step here only
  for manual debugging.

  Use 'mergequeue <command> --help' for details on any command.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate("mergequeue version {{.Version}}\n")

	rootCmd.PersistentFlags().String("db", "", "Path to the queue's SQLite store file (or set MERGEQUEUE_DB)")

	rootCmd.AddCommand(
		newEnqueueCmd(),
		newListCmd(),
		newCancelCmd(),
		newNextCmd(),
		newStatusCmd(),
		newEventsCmd(),
	)

	AddFuzzyMatchingRecursive(rootCmd)
}
