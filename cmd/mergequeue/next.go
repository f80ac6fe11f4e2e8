package main

import (
	"github.com/spf13/cobra"

	"github.com/lprior-repo/mergequeue/internal/cli"
	"github.com/lprior-repo/mergequeue/internal/queueid"
)

// newNextCmd exposes the scheduler's claim step directly for manual
// debugging. Hidden the way the teacher hides internal-only commands:
// fleets drive claim/advance/heartbeat through the library API, not a CLI
// round trip per step.
func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "next",
		Short:  "Claim the next eligible entry (debug)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE:   runNext,
	}

	cmd.Flags().String("agent", "", "Agent identity claiming the entry (required)")
	cmd.MarkFlagRequired("agent")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	agent, err := queueid.ParseAgentID(cli.MustString(cmd, "agent"))
	if err != nil {
		return err
	}

	co, closeFn, err := openCoordinator(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	entry, ok, err := co.Claim(cmd.Context(), agent)
	if err != nil {
		return err
	}
	if !ok {
		return writeLine(struct {
			Claimed bool `json:"claimed"`
		}{Claimed: false})
	}

	type claimedEntry struct {
		jsonEntry
		Claimed bool `json:"claimed"`
	}
	return writeLine(claimedEntry{jsonEntry: toJSONEntry(entry), Claimed: true})
}
