package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	RefreshInterval time.Duration // Catch-up refresh of archive views
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 15 * time.Minute,
	}
}

// Start launches the configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
//
// The catch-up refresh covers loads whose own refresh failed and
// notifications missed while the listener was down; afterRefresh runs after
// each successful refresh.
func Start(ctx context.Context, pool *pgxpool.Pool, cfg Config, afterRefresh func(), logger *slog.Logger) {
	logger.Info("Maintenance tickers started", "refresh", cfg.RefreshInterval)

	if cfg.RefreshInterval > 0 {
		t := time.NewTicker(cfg.RefreshInterval)
		defer t.Stop()
		go runLoop(ctx, t.C, func() {
			if err := RefreshMaterializedViews(ctx, pool, logger); err != nil {
				return
			}
			if afterRefresh != nil {
				afterRefresh()
			}
		})
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}
