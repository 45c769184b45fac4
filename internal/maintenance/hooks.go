// Package maintenance runs database housekeeping after archive loads.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-averages/internal/config"
)

// Views lists the materialized views derived from the archive.
var Views = []string{
	config.IndexView,
}

// RefreshMaterializedViews refreshes all materialized views after a load.
// Uses CONCURRENTLY so reads are not blocked during refresh.
func RefreshMaterializedViews(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	for _, v := range Views {
		start := time.Now()
		_, err := pool.Exec(ctx, fmt.Sprintf("REFRESH MATERIALIZED VIEW CONCURRENTLY %s", v))
		dur := time.Since(start).Round(time.Millisecond)

		if err != nil {
			logger.Warn("Failed to refresh materialized view",
				"view", v, "duration", dur, "error", err)
			return fmt.Errorf("refresh %s: %w", v, err)
		}
		logger.Info("Refreshed materialized view", "view", v, "duration", dur)
	}
	return nil
}
