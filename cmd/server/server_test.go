package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/chordmatch/pkg/chordmatch"
	"github.com/himanishpuri/chordmatch/pkg/chordmatch/corpus"
	"github.com/himanishpuri/chordmatch/pkg/logger"
)

func setupTestServer(t *testing.T, rateLimit int) http.Handler {
	t.Helper()

	songs := corpus.New([]corpus.Song{
		{Artist: "The Beatles", Title: "Let It Be", Chords: []string{"C", "G", "Am", "F"}, Genre: "Rock"},
		{Artist: "Bob Marley", Title: "Three Little Birds", Chords: []string{"A", "D", "E"}, Genre: "Reggae"},
		{Artist: "Oasis", Title: "Wonderwall", Chords: []string{"Em7", "G", "Dsus4", "A7sus4", "Cadd9"}, Genre: "Rock"},
	})

	service, err := chordmatch.NewService(
		chordmatch.WithCorpus(songs),
		chordmatch.WithDBPath(filepath.Join(t.TempDir(), "server.sqlite3")),
		chordmatch.WithLogger(logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { service.Close() })

	srv := NewServer(service, &ServerConfig{
		Port:           0,
		CorpusPath:     "test.csv",
		DBPath:         "server.sqlite3",
		AllowedOrigins: []string{"*"},
		RateLimit:      rateLimit,
	})
	return srv.setupRoutes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRootAndHealth(t *testing.T) {
	h := setupTestServer(t, 30)

	rec := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	root := decode[map[string]any](t, rec)
	assert.Equal(t, "Chord recommender running!", root["message"])

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestHealthMetrics(t *testing.T) {
	h := setupTestServer(t, 30)

	rec := do(t, h, http.MethodGet, "/api/health/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode[MetricsResponse](t, rec)
	assert.Equal(t, 3, m.SongCount)
	assert.Equal(t, 2, m.Corpus.Genres["Rock"])
	assert.Zero(t, m.RatingCount)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/song/0/rate", `{"rating": 3}`).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/song/2/rate", `{"rating": 5}`).Code)
	m = decode[MetricsResponse](t, do(t, h, http.MethodGet, "/api/health/metrics", ""))
	assert.Equal(t, int64(2), m.RatingCount)
}

func TestRecommendEndpoint(t *testing.T) {
	h := setupTestServer(t, 30)

	rec := do(t, h, http.MethodGet, "/recommend?chords=C,G,Am,F", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	got := decode[[]map[string]any](t, rec)
	require.Len(t, got, 3)
	assert.Equal(t, float64(0), got[0]["song_id"])
	assert.Equal(t, "The Beatles", got[0]["artist_name"])
	assert.Equal(t, "Let It Be", got[0]["song_name"])
	assert.Equal(t, []any{"C", "G", "Am", "F"}, got[0]["chord_list"])
	assert.Equal(t, "Rock", got[0]["genre"])
	assert.Nil(t, got[0]["rating_average"])
}

func TestRecommendEndpointFilters(t *testing.T) {
	h := setupTestServer(t, 30)

	got := decode[[]chordmatch.Recommendation](t, do(t, h, http.MethodGet, "/recommend?chords=G&genre=Rock", ""))
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "Rock", r.Genre)
	}

	got = decode[[]chordmatch.Recommendation](t, do(t, h, http.MethodGet, "/recommend?chords=G&title=WONDER", ""))
	require.Len(t, got, 1)
	assert.Equal(t, "Oasis", got[0].Artist)

	got = decode[[]chordmatch.Recommendation](t, do(t, h, http.MethodGet, "/recommend?chords=C&limit=1", ""))
	assert.Len(t, got, 1)

	rec := do(t, h, http.MethodGet, "/recommend?chords=C&artist=nobody", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRecommendBadLimit(t *testing.T) {
	h := setupTestServer(t, 30)

	for _, q := range []string{"limit=abc", "limit=-1"} {
		rec := do(t, h, http.MethodGet, "/recommend?chords=C&"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestRecommendUnknownGenre(t *testing.T) {
	h := setupTestServer(t, 30)

	for _, g := range []string{"Roc", "rock", "Polka"} {
		rec := do(t, h, http.MethodGet, "/recommend?chords=C&genre="+g, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, g)
	}

	rec := do(t, h, http.MethodGet, "/recommend?chords=C&genre=Other", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGenresEndpoint(t *testing.T) {
	h := setupTestServer(t, 30)

	got := decode[GenresResponse](t, do(t, h, http.MethodGet, "/genres", ""))
	assert.Equal(t, corpus.Genres(), got.Genres)
}

func TestGetSongEndpoint(t *testing.T) {
	h := setupTestServer(t, 30)

	rec := do(t, h, http.MethodGet, "/song/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	song := decode[chordmatch.SongDetail](t, rec)
	assert.Equal(t, "Wonderwall", song.Title)
	assert.Equal(t, 0, song.RatingCount)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/song/3", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/song/-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/song/abc", "").Code)
}

func TestRateSongEndpoint(t *testing.T) {
	h := setupTestServer(t, 30)

	rec := do(t, h, http.MethodPost, "/song/1/rate", `{"rating": 4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[RateSongResponse](t, rec)
	assert.Equal(t, 1, got.SongID)
	require.NotNil(t, got.RatingAverage)
	assert.InDelta(t, 4.0, *got.RatingAverage, 1e-9)
	assert.Equal(t, 1, got.RatingCount)

	rec = do(t, h, http.MethodPost, "/song/1/rate", `{"rating": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[RateSongResponse](t, rec)
	assert.InDelta(t, 3.0, *got.RatingAverage, 1e-9)

	song := decode[chordmatch.SongDetail](t, do(t, h, http.MethodGet, "/song/1", ""))
	assert.Equal(t, 2, song.RatingCount)
}

func TestRateSongEndpointErrors(t *testing.T) {
	h := setupTestServer(t, 30)

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"rating too high", "/song/0/rate", `{"rating": 6}`, http.StatusBadRequest},
		{"rating zero", "/song/0/rate", `{"rating": 0}`, http.StatusBadRequest},
		{"missing rating", "/song/0/rate", `{}`, http.StatusBadRequest},
		{"not a number", "/song/0/rate", `{"rating": "five"}`, http.StatusBadRequest},
		{"malformed json", "/song/0/rate", `{"rating":`, http.StatusBadRequest},
		{"empty body", "/song/0/rate", ``, http.StatusBadRequest},
		{"unknown song", "/song/99/rate", `{"rating": 3}`, http.StatusNotFound},
		{"bad id", "/song/x/rate", `{"rating": 3}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestRateSongRateLimited(t *testing.T) {
	h := setupTestServer(t, 2)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/song/0/rate", `{"rating": 5}`).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/song/0/rate", `{"rating": 5}`).Code)

	rec := do(t, h, http.MethodPost, "/song/0/rate", `{"rating": 5}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Reads are not throttled.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/song/0", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	h := setupTestServer(t, 30)

	req := httptest.NewRequest(http.MethodOptions, "/song/0/rate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPrometheusEndpoint(t *testing.T) {
	h := setupTestServer(t, 30)

	do(t, h, http.MethodGet, "/recommend?chords=C", "")
	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chordmatch_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/recommend"`)
}

func TestUnknownRoute(t *testing.T) {
	h := setupTestServer(t, 30)
	rec := do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartStopsOnCancel(t *testing.T) {
	service, err := chordmatch.NewService(
		chordmatch.WithCorpus(corpus.New(nil)),
		chordmatch.WithDBPath(filepath.Join(t.TempDir(), "start.sqlite3")),
		chordmatch.WithLogger(logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})),
	)
	require.NoError(t, err)
	defer service.Close()

	srv := NewServer(service, &ServerConfig{Port: 0, RateLimit: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, srv.Start(ctx))
}
