// Package main runs the merge queue's background reclaim sweeper: a loop
// that periodically reclaims expired entry leases and, once no live work
// remains, the fleet-wide processing lock itself (spec.md §4.8-§4.9).
//
// mergequeued has no CLI surface of its own beyond flags; it runs
// unattended, so it logs through zap rather than cobra's stdout the way
// mergequeue's subcommands do.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lprior-repo/mergequeue/internal/clock"
	"github.com/lprior-repo/mergequeue/internal/config"
	"github.com/lprior-repo/mergequeue/internal/lock"
	"github.com/lprior-repo/mergequeue/internal/reclaim"
	"github.com/lprior-repo/mergequeue/internal/store"
)

func main() {
	dbPath := flag.String("db", os.Getenv("MERGEQUEUE_DB"), "Path to the queue's SQLite store file")
	interval := flag.Duration("interval", 10*time.Second, "How often to run a sweep pass")
	staleLockThreshold := flag.Duration("stale-lock-threshold", config.DefaultStaleLockThreshold,
		"How long the processing lock may sit idle, with no live work under it, before the sweeper reclaims it")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	if *dbPath == "" {
		log.Fatal("no store path: pass -db or set MERGEQUEUE_DB")
	}

	s, err := store.Open(*dbPath, clock.RealSource{})
	if err != nil {
		log.Fatalw("open store", "error", err)
	}
	defer s.Close()

	sw := reclaim.New(s, lock.NewManager(s), *staleLockThreshold)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("reclaim sweeper starting",
		"db", *dbPath,
		"interval", interval.String(),
		"lease_ttl", config.DefaultLeaseTTL.String(),
		"stale_lock_threshold", staleLockThreshold.String(),
	)

	runLoop(ctx, sw, *interval, log)
	log.Info("reclaim sweeper stopped")
}

// sweeper is the narrow slice of *reclaim.Sweeper that runLoop depends on.
type sweeper interface {
	Sweep(ctx context.Context) (reclaim.Result, error)
}

func runLoop(ctx context.Context, sw sweeper, interval time.Duration, log *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := sw.Sweep(ctx)
			if err != nil {
				log.Errorw("sweep failed", "error", err)
				continue
			}
			if result.EntriesReclaimed > 0 || result.LockReclaimed {
				log.Infow("sweep reclaimed",
					"entries_reclaimed", result.EntriesReclaimed,
					"lock_reclaimed", result.LockReclaimed,
				)
			}
		}
	}
}
