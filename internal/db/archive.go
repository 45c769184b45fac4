package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a query matches nothing.
var ErrNotFound = errors.New("not found")

// Sources returns the archive index as a JSON array.
func (p *Pool) Sources(ctx context.Context) ([]byte, error) {
	var raw []byte
	if err := p.QueryRow(ctx, "archive_sources").Scan(&raw); err != nil {
		return nil, fmt.Errorf("archive sources: %w", err)
	}
	return raw, nil
}

// Records returns the records of source as a JSON array, teams first.
// An empty kind selects both kinds.
func (p *Pool) Records(ctx context.Context, source, kind string) ([]byte, error) {
	var raw []byte
	if err := p.QueryRow(ctx, "archive_records", source, kind).Scan(&raw); err != nil {
		return nil, fmt.Errorf("archive records: %w", err)
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	return raw, nil
}

// Record returns one record body.
func (p *Pool) Record(ctx context.Context, source, ref string) ([]byte, error) {
	var raw []byte
	err := p.QueryRow(ctx, "archive_record", source, ref).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("archive record: %w", err)
	}
	return raw, nil
}
