// Package listener provides a Postgres LISTEN/NOTIFY consumer that keeps the
// API cache consistent with archive loads. It holds a dedicated pgx
// connection (not from the pool) listening on the `archive_loaded` channel.
//
// Every committed archive file load fires pg_notify; this consumer drops the
// cached index and every cached response of the loaded source.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/scoracle-averages/internal/cache"
	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/seed"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Invalidator drops cached entries.
type Invalidator interface {
	Delete(key string)
	DeletePrefix(prefix string) int
}

// Start opens a dedicated connection and listens on the archive_loaded
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, inv Invalidator, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, inv, logger)
		if ctx.Err() != nil {
			logger.Info("Archive listener stopped (context cancelled)")
			return
		}

		logger.Error("Archive listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, inv Invalidator, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+config.LoadedChannel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", config.LoadedChannel, err)
	}
	logger.Info("Archive listener connected", "channel", config.LoadedChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		event, dropped, err := HandlePayload(notification.Payload, inv)
		if err != nil {
			logger.Warn("Failed to parse load event",
				"payload", notification.Payload, "error", err)
			continue
		}
		logger.Info("Archive load received",
			"source", event.Source,
			"file", event.File,
			"records", event.Records,
			"run_id", event.RunID,
			"cache_dropped", dropped)
	}
}

// HandlePayload parses a load event and invalidates what it affects.
// It returns the event and the number of source entries dropped.
func HandlePayload(payload string, inv Invalidator) (seed.LoadEvent, int, error) {
	var event seed.LoadEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return event, 0, err
	}
	if event.Source == "" {
		return event, 0, fmt.Errorf("load event without source")
	}
	inv.Delete(cache.IndexKey)
	return event, inv.DeletePrefix(cache.SourcePrefix(event.Source)), nil
}
