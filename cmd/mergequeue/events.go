package main

import (
	"github.com/spf13/cobra"

	"github.com/lprior-repo/mergequeue/internal/cli"
	"github.com/lprior-repo/mergequeue/internal/events"
	"github.com/lprior-repo/mergequeue/internal/queueid"
)

var eventsArgSpecs = []cli.ArgSpec{
	{
		Name:        "workspace",
		Description: "The workspace identifier whose audit log to print",
		Examples:    []string{"ws-42"},
		Required:    true,
	},
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events <workspace>",
		Short: "Print a workspace's event audit log",
		Long: `Events prints one JSON object per line for every event recorded
against workspace's current entry, oldest first: every committed state
transition appends exactly one event here.

Examples:
  mergequeue events ws-42
` + argHelp(eventsArgSpecs),
		Args: cobra.ArbitraryArgs,
		RunE: runEvents,
	}
	return cmd
}

func runEvents(cmd *cobra.Command, args []string) error {
	if missing := cli.CheckRequiredArgs(args, eventsArgSpecs); missing != nil {
		missing.Command = "events"
		return missing
	}

	ws, err := queueid.ParseWorkspace(args[0])
	if err != nil {
		return err
	}

	co, closeFn, err := openCoordinator(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	records, err := co.Events(cmd.Context(), ws)
	if err != nil {
		return err
	}

	for _, rec := range records {
		ev, err := events.Decode(rec)
		if err != nil {
			return err
		}
		if err := writeLine(ev); err != nil {
			return err
		}
	}
	return nil
}
