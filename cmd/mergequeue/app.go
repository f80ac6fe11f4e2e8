package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lprior-repo/mergequeue/internal/cli"
	"github.com/lprior-repo/mergequeue/internal/clock"
	"github.com/lprior-repo/mergequeue/internal/config"
	"github.com/lprior-repo/mergequeue/internal/coordinator"
	"github.com/lprior-repo/mergequeue/internal/jsonl"
	"github.com/lprior-repo/mergequeue/internal/store"
)

// argHelp renders specs' per-argument help text for appending to a
// command's Long description, so positional argument docs stay in sync
// with the ArgSpecs actually enforced by CheckRequiredArgs.
func argHelp(specs []cli.ArgSpec) string {
	var sb strings.Builder
	sb.WriteString("\nArguments:\n")
	for _, spec := range specs {
		for _, line := range strings.Split(cli.FormatArgHelp(spec), "\n") {
			if line == "" {
				continue
			}
			sb.WriteString("  " + line + "\n")
		}
	}
	return sb.String()
}

// dbPath resolves the store path from --db, falling back to MERGEQUEUE_DB.
func dbPath(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = os.Getenv("MERGEQUEUE_DB")
	}
	if path == "" {
		return "", fmt.Errorf("no store path: pass --db or set MERGEQUEUE_DB")
	}
	return path, nil
}

// openCoordinator opens the store at the resolved db path and wraps it in a
// Coordinator. The returned closer must be called once the command is done.
func openCoordinator(cmd *cobra.Command) (*coordinator.Coordinator, func(), error) {
	path, err := dbPath(cmd)
	if err != nil {
		return nil, nil, err
	}

	s, err := store.Open(path, clock.RealSource{})
	if err != nil {
		return nil, nil, err
	}

	co := coordinator.New(s, nil, config.Default(), clock.RealSource{})
	return co, func() { s.Close() }, nil
}

func writeLine(v any) error {
	return jsonl.Encode(os.Stdout, v)
}
