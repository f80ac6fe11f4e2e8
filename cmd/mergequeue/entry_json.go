package main

import "github.com/lprior-repo/mergequeue/internal/store"

// jsonEntry is the line-delimited JSON shape written for a single queue
// entry, one object per stdout line per subcommand invocation.
type jsonEntry struct {
	ID               int64  `json:"id"`
	Workspace        string `json:"workspace"`
	Bead             string `json:"bead,omitempty"`
	Priority         int    `json:"priority"`
	Status           string `json:"status"`
	Owner            string `json:"owner,omitempty"`
	LeaseExpiresAt   string `json:"lease_expires_at,omitempty"`
	AddedAt          string `json:"added_at"`
	HeadSHA          string `json:"head_sha,omitempty"`
	TestedAgainstSHA string `json:"tested_against_sha,omitempty"`
	AttemptCount     int    `json:"attempt_count"`
	LastError        string `json:"last_error,omitempty"`
	MergedSHA        string `json:"merged_sha,omitempty"`
}

func toJSONEntry(e store.Entry) jsonEntry {
	je := jsonEntry{
		ID:               int64(e.ID),
		Workspace:        e.Workspace.String(),
		Bead:             e.Bead.String(),
		Priority:         int(e.Priority),
		Status:           string(e.Status),
		Owner:            e.Owner.String(),
		AddedAt:          e.AddedAt.String(),
		HeadSHA:          e.HeadSHA,
		TestedAgainstSHA: e.TestedAgainstSHA,
		AttemptCount:     e.AttemptCount,
		LastError:        e.LastError,
		MergedSHA:        e.MergedSHA,
	}
	if e.HasLease() {
		je.LeaseExpiresAt = e.LeaseExpiresAt.String()
	}
	return je
}
