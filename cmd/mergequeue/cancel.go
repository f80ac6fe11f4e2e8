package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lprior-repo/mergequeue/internal/cli"
	"github.com/lprior-repo/mergequeue/internal/queueid"
)

var cancelArgSpecs = []cli.ArgSpec{
	{
		Name:        "workspace",
		Description: "The workspace identifier of the entry to cancel",
		Examples:    []string{"ws-42"},
		Required:    true,
	},
}

func newCancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <workspace>",
		Short: "Cancel a queue entry",
		Long: `Cancel moves a non-terminal entry to cancelled. Cancelling an
already-cancelled entry succeeds without error; cancelling any other
terminal entry (merged, failed_terminal) fails.

Prompts for confirmation on an interactive terminal unless --yes is set.

Examples:
  mergequeue cancel ws-42
  mergequeue cancel ws-42 --reason "superseded by ws-55"
  mergequeue cancel ws-42 --yes
` + argHelp(cancelArgSpecs),
		Args: cobra.ArbitraryArgs,
		RunE: runCancel,
	}

	cmd.Flags().String("reason", "", "Why this entry is being cancelled")
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runCancel(cmd *cobra.Command, args []string) error {
	if missing := cli.CheckRequiredArgs(args, cancelArgSpecs); missing != nil {
		missing.Command = "cancel"
		return missing
	}

	ws, err := queueid.ParseWorkspace(args[0])
	if err != nil {
		return err
	}

	confirmed, err := cli.ConfirmAction(cmd.OutOrStdout(), fmt.Sprintf("cancel entry %q", ws), cli.MustBool(cmd, "yes"))
	if err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("cancel of %q aborted", ws)
	}

	co, closeFn, err := openCoordinator(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	entry, err := co.Cancel(cmd.Context(), ws, cli.MustString(cmd, "reason"))
	if err != nil {
		return err
	}

	return writeLine(toJSONEntry(entry))
}
