package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/record"
	"github.com/albapepper/scoracle-averages/internal/transform"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the archive table and index view if missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create archive schema: %w", err)
	}
	return nil
}

// ResetSource removes every record previously loaded for source.
func ResetSource(ctx context.Context, pool *pgxpool.Pool, source string) (int64, error) {
	tag, err := pool.Exec(ctx, `DELETE FROM `+config.RecordsTable+` WHERE source = $1`, source)
	if err != nil {
		return 0, fmt.Errorf("reset %s: %w", source, err)
	}
	return tag.RowsAffected(), nil
}

// LoadEvent is the JSON payload of pg_notify('archive_loaded', ...).
type LoadEvent struct {
	Source  string `json:"source"`
	File    string `json:"file"`
	Records int    `json:"records"`
	RunID   string `json:"run_id"`
}

// maxNotifyPayload is the largest payload Postgres accepts for NOTIFY.
const maxNotifyPayload = 7999

// Payload encodes e for pg_notify.
func (e LoadEvent) Payload() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal load event: %w", err)
	}
	if len(b) > maxNotifyPayload {
		return "", fmt.Errorf("load event for %s is %d bytes, over the notify limit of %d", e.File, len(b), maxNotifyPayload)
	}
	return string(b), nil
}

// archiveRow is one record as stored.
type archiveRow struct {
	Ref    string
	Kind   string
	Table  string
	Row    int
	Season *int64
	Body   []byte
}

// archiveRows flattens doc into storable rows, teams first.
func archiveRows(doc *transform.Document) ([]archiveRow, error) {
	rows := make([]archiveRow, 0, len(doc.Teams)+len(doc.People))
	add := func(kind string, recs []*record.Map) error {
		for _, rec := range recs {
			body, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal %s: %w", rec.Text("ref"), err)
			}
			n, _ := strconv.Atoi(rec.Text("_row"))
			row := archiveRow{
				Ref:   rec.Text("ref"),
				Kind:  kind,
				Table: rec.Text("_table"),
				Row:   n,
				Body:  body,
			}
			if s := transform.RecordSeason(rec); s != 0 {
				row.Season = &s
			}
			rows = append(rows, row)
		}
		return nil
	}
	if err := add(config.KindTeam, doc.Teams); err != nil {
		return nil, err
	}
	if err := add(config.KindPerson, doc.People); err != nil {
		return nil, err
	}
	return rows, nil
}

// LoadDocument upserts every record of doc in one transaction and announces
// the load on the archive_loaded channel. Rows of the same file that are
// no longer present are removed.
func LoadDocument(ctx context.Context, pool *pgxpool.Pool, doc *transform.Document, runID string, logger *slog.Logger) LoadResult {
	var result LoadResult

	rows, err := archiveRows(doc)
	if err != nil {
		result.AddErrorf("%s: %v", doc.File, err)
		return result
	}
	payload, err := LoadEvent{
		Source:  doc.Title,
		File:    doc.File,
		Records: len(rows),
		RunID:   runID,
	}.Payload()
	if err != nil {
		result.AddErrorf("%s: %v", doc.File, err)
		return result
	}

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM `+config.RecordsTable+` WHERE source = $1 AND file = $2`,
			doc.Title, doc.File); err != nil {
			return fmt.Errorf("clear file: %w", err)
		}

		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(`
				INSERT INTO `+config.RecordsTable+` (
					source, file, ref, kind, table_name, row, season, body, run_id
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8::jsonb,$9)
				ON CONFLICT (source, ref) DO UPDATE SET
					file = EXCLUDED.file,
					kind = EXCLUDED.kind,
					table_name = EXCLUDED.table_name,
					row = EXCLUDED.row,
					season = EXCLUDED.season,
					body = EXCLUDED.body,
					run_id = EXCLUDED.run_id,
					loaded_at = NOW()`,
				doc.Title, doc.File, r.Ref, r.Kind, r.Table, r.Row, r.Season, string(r.Body), runID,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for _, r := range rows {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("upsert %s: %w", r.Ref, err)
			}
		}
		if err := br.Close(); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", config.LoadedChannel, payload)
		return err
	})
	if err != nil {
		result.AddErrorf("load %s: %v", doc.File, err)
		return result
	}

	result.FilesLoaded++
	for _, r := range rows {
		if r.Kind == config.KindTeam {
			result.TeamsUpserted++
		} else {
			result.PeopleUpserted++
		}
	}
	logger.Info("Archive file loaded", "source", doc.Title, "file", doc.File, "summary", result.Summary())
	return result
}
