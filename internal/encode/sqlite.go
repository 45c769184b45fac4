package encode

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/transform"
)

const sqliteSchema = `
CREATE TABLE records (
	source     TEXT NOT NULL,
	file       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	table_name TEXT NOT NULL,
	ref        TEXT NOT NULL,
	row        INTEGER NOT NULL,
	season     INTEGER,
	body       TEXT NOT NULL,
	PRIMARY KEY (file, ref)
);
CREATE INDEX idx_records_season ON records(season);
CREATE INDEX idx_records_table ON records(kind, table_name);
`

// WriteSQLite builds a fresh SQLite database at path holding every record
// of docs, one JSON body per row. The database is built beside path and
// renamed into place.
func WriteSQLite(path string, docs []*transform.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := fillSQLite(tmp, docs); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

func fillSQLite(path string, docs []*transform.Document) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO records (source, file, kind, table_name, ref, row, season, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if err := insertRecords(stmt, doc, config.KindTeam); err != nil {
			return err
		}
		if err := insertRecords(stmt, doc, config.KindPerson); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func insertRecords(stmt *sql.Stmt, doc *transform.Document, kind string) error {
	recs := doc.People
	if kind == config.KindTeam {
		recs = doc.Teams
	}
	for _, rec := range recs {
		body, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", rec.Text("ref"), err)
		}
		var season any
		if s := transform.RecordSeason(rec); s != 0 {
			season = s
		}
		row, _ := strconv.Atoi(rec.Text("_row"))
		if _, err := stmt.Exec(doc.Title, doc.File, kind, rec.Text("_table"), rec.Text("ref"), row, season, string(body)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", rec.Text("ref"), err)
		}
	}
	return nil
}
