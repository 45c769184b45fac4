package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/scoracle-averages/internal/api/respond"
	"github.com/albapepper/scoracle-averages/internal/cache"
	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/damm"
)

// kinds maps the public kind filter to stored record kinds.
var kinds = map[string]string{
	"":       "",
	"people": config.KindPerson,
	"teams":  config.KindTeam,
}

// ListSources returns every loaded source with its file and record counts.
// Served from the mv_archive_index materialized view.
// @Summary List archive sources
// @Description Returns loaded sources with file, team and person counts and the season range.
// @Tags archive
// @Produce json
// @Success 200 {array} map[string]interface{}
// @Router /sources [get]
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cache.IndexKey, h.cfg.CacheTTL, "No sources loaded", h.archive.Sources)
}

// GetRecords returns the records of one source.
// @Summary List records of a source
// @Description Returns every converted record of a source, teams before people.
// @Tags archive
// @Produce json
// @Param source path string true "Source name"
// @Param kind query string false "Record kind" Enums(people, teams)
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /sources/{source}/records [get]
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	kindParam := r.URL.Query().Get("kind")
	kind, ok := kinds[kindParam]
	if !ok {
		respond.WriteErrorDetail(w, http.StatusBadRequest, respond.CodeInvalidKind,
			"kind must be people or teams", kindParam)
		return
	}

	key := cache.SourceKey(source, "records", kind)
	h.serveCached(w, r, key, cache.TTLRecords, "No records for "+source,
		func(ctx context.Context) ([]byte, error) {
			return h.archive.Records(ctx, source, kind)
		})
}

// GetRecord returns one record by identifier.
// @Summary Get a record
// @Description Returns one converted record. The identifier's check digit is verified before the lookup.
// @Tags archive
// @Produce json
// @Param source path string true "Source name"
// @Param ref path string true "Record identifier, e.g. B00013"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /sources/{source}/records/{ref} [get]
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	ref := chi.URLParam(r, "ref")
	if err := damm.Validate(ref); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, respond.CodeInvalidRef,
			"Identifier failed check digit validation", err.Error())
		return
	}

	key := cache.SourceKey(source, "record", ref)
	h.serveCached(w, r, key, cache.TTLRecords, "Record "+ref+" not found in "+source,
		func(ctx context.Context) ([]byte, error) {
			return h.archive.Record(ctx, source, ref)
		})
}
