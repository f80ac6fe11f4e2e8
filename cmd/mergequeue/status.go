package main

import "github.com/spf13/cobra"

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the current queue",
		Long: `Status prints a single JSON object with per-state entry counts and
the current processing lock holder, if any.

Example:
  mergequeue status`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

type jsonStatus struct {
	Total          int    `json:"total"`
	Pending        int    `json:"pending"`
	Claimed        int    `json:"claimed"`
	Rebasing       int    `json:"rebasing"`
	Testing        int    `json:"testing"`
	ReadyToMerge   int    `json:"ready_to_merge"`
	Merged         int    `json:"merged"`
	FailedTerminal int    `json:"failed_terminal"`
	Cancelled      int    `json:"cancelled"`
	LockHolder     string `json:"lock_holder,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	co, closeFn, err := openCoordinator(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	st, err := co.Status(cmd.Context())
	if err != nil {
		return err
	}

	return writeLine(jsonStatus{
		Total:          st.Total,
		Pending:        st.Pending,
		Claimed:        st.Claimed,
		Rebasing:       st.Rebasing,
		Testing:        st.Testing,
		ReadyToMerge:   st.ReadyToMerge,
		Merged:         st.Merged,
		FailedTerminal: st.FailedTerminal,
		Cancelled:      st.Cancelled,
		LockHolder:     st.LockHolder,
	})
}
