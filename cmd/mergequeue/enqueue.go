package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lprior-repo/mergequeue/internal/cli"
	"github.com/lprior-repo/mergequeue/internal/queueid"
)

func newEnqueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue <workspace>",
		Short: "Add a workspace to the merge queue",
		Long: `Enqueue adds a workspace for integration onto trunk.

If a non-terminal entry already exists for the workspace, enqueue fails
with a conflict, unless --idempotency-key matches a prior call, in which
case the existing entry is returned unchanged.

Examples:
  mergequeue enqueue ws-42
  mergequeue enqueue ws-42 --bead BEAD-101 --priority 1
  mergequeue enqueue ws-42 --idempotency-key retry-abc123`,
		Args: cobra.ExactArgs(1),
		RunE: runEnqueue,
	}

	cmd.Flags().String("bead", "", "Optional issue-tracker reference")
	cmd.Flags().Int("priority", queueid.DefaultPriority, "Priority; lower values are scheduled first")
	cmd.Flags().String("idempotency-key", "", "Dedupe repeated enqueue calls for the same logical request")
	cmd.Flags().Bool("gen-idempotency-key", false, "Generate a random idempotency key and print it, for a caller that will retry this exact call")

	return cmd
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	ws, err := queueid.ParseWorkspace(args[0])
	if err != nil {
		return err
	}

	bead, err := queueid.ParseOptionalBeadID(cli.MustString(cmd, "bead"))
	if err != nil {
		return err
	}

	priority, err := queueid.ParsePriority(cli.MustInt(cmd, "priority"))
	if err != nil {
		return err
	}

	idempotencyKey := cli.MustString(cmd, "idempotency-key")
	if idempotencyKey == "" && cli.MustBool(cmd, "gen-idempotency-key") {
		idempotencyKey = uuid.NewString()
	}

	co, closeFn, err := openCoordinator(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	entry, err := co.Enqueue(cmd.Context(), ws, bead, priority, idempotencyKey)
	if err != nil {
		return err
	}

	type enqueuedEntry struct {
		jsonEntry
		IdempotencyKey string `json:"idempotency_key,omitempty"`
	}
	return writeLine(enqueuedEntry{jsonEntry: toJSONEntry(entry), IdempotencyKey: idempotencyKey})
}
