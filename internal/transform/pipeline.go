// Package transform turns flat worksheet rows into nested season records.
//
// A worksheet runs through column mapping, stint splitting, identifier
// assignment, value normalization and record building, in that order.
// Everything here is synchronous and free of I/O; the workbook reader and
// the encoders live in their own packages.
package transform

import (
	"strings"

	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/damm"
	"github.com/albapepper/scoracle-averages/internal/record"
)

// SheetResult is the outcome of one worksheet.
type SheetResult struct {
	Sheet    string
	Table    string
	Kind     string
	Records  []*record.Map
	Entities int
	Stints   int

	Diagnostics Diagnostics
}

// ProcessSheet converts one worksheet. Identifiers come from alloc, so
// worksheets of the same kind within a run continue one sequence.
//
// The returned error is fatal for the file: a non-integer value in an
// integer field, or an exhausted identifier space. Row-level problems are
// collected in the result's Diagnostics instead, so every bad row of the
// sheet is reported in one pass.
func ProcessSheet(sheet *Sheet, spec *config.TableSpec, alloc *damm.Allocator) (*SheetResult, error) {
	res := &SheetResult{Sheet: sheet.Name, Table: spec.Key, Kind: spec.Kind}
	diag := &res.Diagnostics

	rows := MapColumns(sheet, spec, diag)
	AssignConstants(rows, spec)
	ForwardFill(rows, fieldSeason, fieldLeague)

	entities, err := AssignIdentifiers(rows, spec, alloc.Sequence(spec.IDCategory()), sheet.Name, diag)
	if err != nil {
		return nil, err
	}

	norm := &normalizer{sheet: sheet.Name, defaultMonth: spec.DefaultMonth, diag: diag}
	family := FamilyClub
	if spec.Melt != nil {
		family = spec.Melt.Family
	}

	for _, e := range entities {
		var extra []string
		if spec.Positions != "" {
			extra = append(extra, fieldPositions)
		}
		FillGroup(e, extra...)

		stints, ok, err := collectStints(e, spec, family, norm)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		primary := e.Primary()
		rec := BuildRecord(spec, primary.Number, e.Ref, primary.Fields, stints)
		if rec == nil {
			continue
		}
		res.Records = append(res.Records, rec)
		res.Entities++
		res.Stints += len(stints)
	}
	return res, nil
}

// collectStints normalizes every row of the entity and gathers its stints.
// Continuation rows add their clubs after the named row's, and their
// statistics become the fields of the single club they name. ok is false
// when a structural problem was recorded for the entity.
func collectStints(e *Entity, spec *config.TableSpec, family string, norm *normalizer) ([]Stint, bool, error) {
	var stints []Stint
	ok := true
	for i, r := range e.Rows {
		if spec.Positions != "" {
			ExpandPositions(r.Fields, spec.Positions == config.PositionsRecode)
		}
		var aggregates []int
		if family == FamilyClub {
			aggregates = SplitClubGames(r.Fields, spec.Category)
		}
		rowStints, err := Reshape(r.Fields, family, aggregates...)
		if err != nil {
			norm.diag.AddError(&RowError{Sheet: norm.sheet, Row: r.Number, Err: err})
			ok = false
			continue
		}

		season, err := norm.season(r)
		if err != nil {
			return nil, false, err
		}
		if err := norm.fields(r.Number, r.Fields, season); err != nil {
			return nil, false, err
		}
		for _, s := range rowStints {
			if err := norm.fields(r.Number, s.Fields, season); err != nil {
				return nil, false, err
			}
		}

		if i > 0 {
			stats := stintStats(r.Fields, spec)
			if stats.Len() > 0 {
				if len(rowStints) != 1 {
					norm.diag.AddError(&RowError{Sheet: norm.sheet, Row: r.Number, Err: ErrStintMismatch})
					ok = false
					continue
				}
				stats.Range(func(k string, v record.Value) bool {
					rowStints[0].Fields.Set(k, v)
					return true
				})
			}
		}
		for _, s := range rowStints {
			s.Order = len(stints) + 1
			stints = append(stints, s)
		}
	}
	return stints, ok, nil
}

// stintStats returns the non-null statistics a continuation row carries
// for its club. Table constants and position flags describe the entity,
// not the stint, and are left out.
func stintStats(fields *record.Map, spec *config.TableSpec) *record.Map {
	out := record.NewMap()
	Group(fields, "totals_").Range(func(k string, v record.Value) bool {
		if v.IsNull() || strings.HasSuffix(k, "_POS") || isAssigned(spec, k) {
			return true
		}
		out.Set(k, v)
		return true
	})
	return out
}

// isAssigned reports whether a totals code is a table constant.
func isAssigned(spec *config.TableSpec, code string) bool {
	for k := range spec.Assign {
		if strings.TrimPrefix(k, "totals_") == code {
			return true
		}
	}
	return false
}
