// Package respond writes the API's HTTP responses: archive bodies passed
// through from Postgres (the sources index, record lists and single
// records), conditional 304s for them, structured errors and the small
// objects built in Go for the root and health endpoints.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/albapepper/scoracle-averages/internal/cache"
)

// Error codes carried in ErrorResponse.
const (
	CodeNotFound    = "NOT_FOUND"
	CodeInvalidKind = "INVALID_KIND"
	CodeInvalidRef  = "INVALID_REF"
	CodeRateLimited = "RATE_LIMITED"
	CodeInternal    = "INTERNAL_ERROR"
)

// ErrorResponse is the standard error shape for all API errors.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	} `json:"error"`
}

// Archive is a JSON body read from the archive tables, with the ETag the
// cache computed for it.
type Archive struct {
	Data []byte
	ETag string
	TTL  time.Duration
	Hit  bool
}

// WriteArchive answers r with body. A matching If-None-Match gets a 304
// and no payload.
func WriteArchive(w http.ResponseWriter, r *http.Request, body Archive) {
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), body.ETag) {
		WriteNotModified(w, body.ETag, body.TTL)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", body.ETag)
	w.Header().Set("Vary", "Accept-Encoding")
	setCacheHeaders(w, body.TTL, body.Hit)
	w.WriteHeader(http.StatusOK)
	w.Write(body.Data)
}

// WriteNotModified sends a 304 with the matching ETag. The caching policy
// is repeated so clients keep revalidating on the same schedule.
func WriteNotModified(w http.ResponseWriter, etag string, ttl time.Duration) {
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", cacheControl(ttl))
	w.WriteHeader(http.StatusNotModified)
}

// WriteError sends a structured JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteErrorDetail(w, status, code, message, "")
}

// WriteErrorDetail sends a structured error with additional detail.
func WriteErrorDetail(w http.ResponseWriter, status int, code, message, detail string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Detail = detail
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// WriteJSONObject marshals v and writes it uncached. Used for the root
// info and the health endpoints, whose bodies are built in Go rather than
// read from the archive.
func WriteJSONObject(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func setCacheHeaders(w http.ResponseWriter, ttl time.Duration, cacheHit bool) {
	if cacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Cache-Control", cacheControl(ttl))
}

func cacheControl(ttl time.Duration) string {
	maxAge := int(ttl.Seconds())
	return fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", maxAge, maxAge/2)
}
