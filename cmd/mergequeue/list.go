package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lprior-repo/mergequeue/internal/cli"
	"github.com/lprior-repo/mergequeue/internal/queuestate"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue entries",
		Long: `List prints one JSON object per line for each matching entry, ordered
by priority, then arrival sequence, then id (FIFO within a priority).

With no --status, all non-terminal entries are listed.

Examples:
  mergequeue list
  mergequeue list --status pending
  mergequeue list --status ready_to_merge`,
		RunE: runList,
	}

	cmd.Flags().String("status", "", "Filter to one status (pending, claimed, rebasing, testing, ready_to_merge, merged, failed_terminal, cancelled)")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	statusFlag := cli.MustString(cmd, "status")
	status := queuestate.Status(statusFlag)
	if status != "" && !queuestate.IsValid(status) {
		return fmt.Errorf("invalid --status %q", statusFlag)
	}

	co, closeFn, err := openCoordinator(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := co.List(cmd.Context(), status)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := writeLine(toJSONEntry(e)); err != nil {
			return err
		}
	}
	return nil
}
