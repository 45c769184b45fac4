package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-averages/internal/cache"
	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/db"

	_ "github.com/albapepper/scoracle-averages/docs"
)

type fakeArchive struct {
	healthErr error
	records   map[string]string // source|kind -> JSON
	bodies    map[string]string // source|ref -> JSON
	calls     int
}

func (f *fakeArchive) HealthCheck(context.Context) error { return f.healthErr }

func (f *fakeArchive) Sources(context.Context) ([]byte, error) {
	f.calls++
	return []byte(`[{"source":"cpl","files":1}]`), nil
}

func (f *fakeArchive) Records(_ context.Context, source, kind string) ([]byte, error) {
	f.calls++
	if body, ok := f.records[source+"|"+kind]; ok {
		return []byte(body), nil
	}
	return nil, db.ErrNotFound
}

func (f *fakeArchive) Record(_ context.Context, source, ref string) ([]byte, error) {
	f.calls++
	if body, ok := f.bodies[source+"|"+ref]; ok {
		return []byte(body), nil
	}
	return nil, db.ErrNotFound
}

func testConfig() *config.Config {
	return &config.Config{
		CORSAllowOrigins:  []string{"*"},
		RateLimitEnabled:  false,
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		CacheEnabled:      true,
		CacheTTL:          5 * time.Minute,
	}
}

func newServer(t *testing.T, archive *fakeArchive, cfg *config.Config) http.Handler {
	t.Helper()
	c := cache.New(cfg.CacheEnabled)
	t.Cleanup(c.Close)
	return NewRouter(archive, c, cfg)
}

func get(t *testing.T, h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHealth(t *testing.T) {
	archive := &fakeArchive{}
	srv := newServer(t, archive, testConfig())

	rec := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))

	rec = get(t, srv, "/health/db")
	assert.Equal(t, http.StatusOK, rec.Code)

	archive.healthErr = assert.AnError
	rec = get(t, srv, "/health/db")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, srv, "/health/cache")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_keys"`)
}

func TestDocs(t *testing.T) {
	srv := newServer(t, &fakeArchive{}, testConfig())

	rec := get(t, srv, "/docs/doc.json")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Scoracle Averages API", doc.Info.Title)
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.Paths, "/sources/{source}/records/{ref}")
}

func TestSourcesCachedWithETag(t *testing.T) {
	archive := &fakeArchive{}
	srv := newServer(t, archive, testConfig())

	first := get(t, srv, "/api/v1/sources")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.JSONEq(t, `[{"source":"cpl","files":1}]`, first.Body.String())
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	second := get(t, srv, "/api/v1/sources")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	third := get(t, srv, "/api/v1/sources", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, third.Code)
	assert.Equal(t, 1, archive.calls)
}

func TestRecords(t *testing.T) {
	archive := &fakeArchive{records: map[string]string{
		"cpl|":       `[{"ref":"TS00013"},{"ref":"B00013"}]`,
		"cpl|person": `[{"ref":"B00013"}]`,
	}}
	srv := newServer(t, archive, testConfig())

	rec := get(t, srv, "/api/v1/sources/cpl/records")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"ref":"TS00013"},{"ref":"B00013"}]`, rec.Body.String())

	rec = get(t, srv, "/api/v1/sources/cpl/records?kind=people")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"ref":"B00013"}]`, rec.Body.String())

	rec = get(t, srv, "/api/v1/sources/cpl/records?kind=umpires")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_KIND", errorCode(t, rec))

	rec = get(t, srv, "/api/v1/sources/nyp/records")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestRecord(t *testing.T) {
	archive := &fakeArchive{bodies: map[string]string{
		"cpl|B00013": `{"ref":"B00013"}`,
	}}
	srv := newServer(t, archive, testConfig())

	rec := get(t, srv, "/api/v1/sources/cpl/records/B00013")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ref":"B00013"}`, rec.Body.String())

	rec = get(t, srv, "/api/v1/sources/cpl/records/B00012")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REF", errorCode(t, rec))

	rec = get(t, srv, "/api/v1/sources/cpl/records/B00021")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Hour
	srv := newServer(t, &fakeArchive{}, cfg)

	assert.Equal(t, http.StatusOK, get(t, srv, "/health").Code)
	rec := get(t, srv, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
}

func TestIPLimiterForgetsIdleVisitors(t *testing.T) {
	l := newIPLimiter(2, time.Minute)
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.Len(t, l.visitors, 1)

	now = now.Add(3 * time.Minute)
	assert.True(t, l.allow("10.0.0.2"))
	assert.Len(t, l.visitors, 1)
}
