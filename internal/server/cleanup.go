// cleanup.go - Background sweep of expired download grants.
//
// Redemption is correct without this: an expired grant can never be
// consumed. The sweep only keeps the grants table from growing without
// bound.
package server

import (
	"context"
	"log"
	"time"
)

// CleanupConfig controls the grant sweep job.
type CleanupConfig struct {
	Enabled  bool
	Interval time.Duration
	Ledger   *DownloadGrantLedger
}

// StartCleanupJob runs the sweep on a ticker until ctx is cancelled.
// Runs once immediately so a restart clears backlog right away.
func StartCleanupJob(ctx context.Context, cfg CleanupConfig) {
	if !cfg.Enabled {
		log.Printf("service=cleanup msg=%q", "disabled")
		return
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Hour
	}

	log.Printf("service=cleanup msg=%q interval=%s", "starting", cfg.Interval)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	runSweep(ctx, cfg.Ledger)

	for {
		select {
		case <-ctx.Done():
			log.Printf("service=cleanup msg=%q", "shutting_down")
			return
		case <-ticker.C:
			runSweep(ctx, cfg.Ledger)
		}
	}
}

func runSweep(ctx context.Context, ledger *DownloadGrantLedger) {
	start := time.Now()
	n, err := ledger.SweepExpired(ctx)
	if err != nil {
		log.Printf("service=cleanup msg=%q err=%v", "sweep_failed", err)
		return
	}
	log.Printf("service=cleanup msg=%q removed=%d ms=%d",
		"sweep_complete", n, time.Since(start).Milliseconds())
}
