// Package convert drives whole workbooks through the sheet pipeline and
// hands finished documents to an output stage.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/damm"
	"github.com/albapepper/scoracle-averages/internal/transform"
	"github.com/albapepper/scoracle-averages/internal/workbook"
)

// FileReport is the outcome of one workbook.
type FileReport struct {
	RunID       string
	Path        string
	Stem        string
	Document    *transform.Document
	Diagnostics transform.Diagnostics
	Sheets      int
	Stints      int
}

// Emitter receives every successfully converted workbook.
type Emitter func(ctx context.Context, rep *FileReport) error

// Converter converts workbooks of one run. Identifier sequences continue
// across every workbook it converts.
type Converter struct {
	tables *config.Tables
	alloc  *damm.Allocator
	logger *slog.Logger
	runID  string
}

// New creates a Converter with a fresh identifier allocator.
func New(tables *config.Tables, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	return &Converter{
		tables: tables,
		alloc:  damm.NewAllocator(),
		logger: logger.With("run_id", runID),
		runID:  runID,
	}
}

// RunID identifies this run in logs.
func (c *Converter) RunID() string { return c.runID }

// Convert builds the document for one workbook's sheets. Sheets listed as
// skipped are ignored; unknown sheets are reported and ignored. Any row
// error fails the whole workbook and no document is returned, though the
// report still carries every finding.
func (c *Converter) Convert(source, file string, sheets []*transform.Sheet) (*FileReport, error) {
	rep := &FileReport{
		RunID:    c.runID,
		Stem:     strings.TrimSuffix(file, filepath.Ext(file)),
		Document: &transform.Document{Title: source, File: file},
	}
	for _, sheet := range sheets {
		if c.tables.Skipped(sheet.Name) {
			continue
		}
		spec, ok := c.tables.Table(sheet.Name)
		if !ok {
			rep.Diagnostics.AddWarning(transform.CodeUnknownSheet, sheet.Name, 0, "",
				fmt.Sprintf("unrecognized sheet %q skipped", sheet.Name))
			continue
		}
		res, err := transform.ProcessSheet(sheet, spec, c.alloc)
		if err != nil {
			rep.Document = nil
			return rep, fmt.Errorf("%s: %w", file, err)
		}
		rep.Diagnostics.Merge(res.Diagnostics)
		rep.Document.Add(res.Kind, res.Records)
		rep.Sheets++
		rep.Stints += res.Stints
	}
	if rep.Diagnostics.HasErrors() {
		rep.Document = nil
		return rep, fmt.Errorf("%s: %w", file, rep.Diagnostics.Err())
	}
	return rep, nil
}

// ConvertFile reads and converts one workbook.
func (c *Converter) ConvertFile(path, source string) (*FileReport, error) {
	sheets, err := workbook.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rep, err := c.Convert(source, filepath.Base(path), sheets)
	if rep != nil {
		rep.Path = path
	}
	return rep, err
}

// Run converts every workbook in dir and passes each document to emit.
// A failing workbook is recorded and the run continues with the next one.
func (c *Converter) Run(ctx context.Context, dir, source string, emit Emitter) *Result {
	result := &Result{}
	files, err := workbook.List(dir)
	if err != nil {
		result.AddErrorf("list %s: %v", dir, err)
		return result
	}
	if len(files) == 0 {
		c.logger.Warn("No workbooks found", "dir", dir)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			result.AddErrorf("interrupted: %v", err)
			break
		}
		log := c.logger.With("source", source, "file", filepath.Base(path))

		rep, err := c.ConvertFile(path, source)
		if rep != nil {
			rep.Diagnostics.Log(log)
			result.Warnings += len(rep.Diagnostics.Warnings)
		}
		if err != nil {
			log.Error("Workbook rejected", "error", err)
			result.FilesFailed++
			result.AddErrorf("%v", err)
			continue
		}

		if err := emit(ctx, rep); err != nil {
			log.Error("Output failed", "error", err)
			result.FilesFailed++
			result.AddErrorf("%s: %v", filepath.Base(path), err)
			continue
		}

		result.FilesConverted++
		result.Sheets += rep.Sheets
		result.Stints += rep.Stints
		result.Teams += len(rep.Document.Teams)
		result.People += len(rep.Document.People)
		log.Info("Workbook converted",
			"sheets", rep.Sheets,
			"teams", len(rep.Document.Teams),
			"people", len(rep.Document.People))
	}
	return result
}
