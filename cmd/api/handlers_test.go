package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/critterbyte/arcade-api/src/app/highscores"
	"github.com/critterbyte/arcade-api/src/domain/score"
	"github.com/critterbyte/arcade-api/src/domain/shared"
	"github.com/critterbyte/arcade-api/src/infra/memory"
)

type failingRepo struct{}

func (failingRepo) Insert(ctx context.Context, submission score.Submission) (*score.Entry, error) {
	return nil, fmt.Errorf("connect: %w", shared.ErrStoreUnavailable)
}

func (failingRepo) TopN(ctx context.Context, n int) ([]*score.Entry, error) {
	return nil, fmt.Errorf("connect: %w", shared.ErrStoreUnavailable)
}

func newTestServer(repo highscores.Repository) *Server {
	return NewServer(ServerConfig{
		Logger:         zap.NewNop(),
		HighScores:     highscores.NewService(repo),
		AllowedOrigins: []string{"*"},
		Registry:       prometheus.NewRegistry(),
	})
}

func submitBody(t *testing.T, initials string, scoreJSON string) *bytes.Buffer {
	t.Helper()
	return bytes.NewBufferString(fmt.Sprintf(`{"initials": %q, "score": %s}`, initials, scoreJSON))
}

func TestSubmitThenGetTopScores(t *testing.T) {
	srv := newTestServer(memory.NewScoreRepository())
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/highscores", submitBody(t, "abc", "250")))
	require.Equal(t, http.StatusOK, rec.Code)

	var created ScoreEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "ABC", created.Initials, "lowercase initials must come back uppercased")
	assert.Equal(t, int64(250), created.Score)
	assert.False(t, created.CreatedAt.IsZero())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/highscores", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []ScoreEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestGetTopScoresCapsAtTenRanked(t *testing.T) {
	srv := newTestServer(memory.NewScoreRepository())
	handler := srv.Handler()

	for i := 0; i < 12; i++ {
		rec := httptest.NewRecorder()
		body := submitBody(t, fmt.Sprintf("P%02d", i), fmt.Sprintf("%d", i*10))
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/highscores", body))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/highscores", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []ScoreEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 10)
	for i := 1; i < len(listed); i++ {
		assert.Greater(t, listed[i-1].Score, listed[i].Score)
	}
	assert.Equal(t, int64(110), listed[0].Score)
	assert.Equal(t, int64(20), listed[9].Score)
}

func TestSubmitScoreValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "initials too short", body: `{"initials": "AB", "score": 10}`},
		{name: "initials too long", body: `{"initials": "ABCD", "score": 10}`},
		{name: "negative score", body: `{"initials": "ABC", "score": -1}`},
		{name: "string score", body: `{"initials": "ABC", "score": "abc"}`},
		{name: "fractional score", body: `{"initials": "ABC", "score": 12.5}`},
		{name: "missing score", body: `{"initials": "ABC"}`},
		{name: "not json", body: `initials=ABC`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(memory.NewScoreRepository())
			handler := srv.Handler()

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/highscores", bytes.NewBufferString(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)

			// A rejected submission must leave no state behind.
			rec = httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/highscores", nil))
			var listed []ScoreEntryResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
			assert.Empty(t, listed)
		})
	}
}

func TestCheckHighScore(t *testing.T) {
	srv := newTestServer(memory.NewScoreRepository())
	handler := srv.Handler()

	check := func(t *testing.T, path string) (*httptest.ResponseRecorder, CheckHighScoreResponse) {
		t.Helper()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var resp CheckHighScoreResponse
		if rec.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		}
		return rec, resp
	}

	// Fewer than ten entries: everything qualifies, even zero.
	rec, resp := check(t, "/api/check-highscore/0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.IsTopTen)

	// Fill the board with scores 100, 90, ..., 10.
	for i := 0; i < 10; i++ {
		r := httptest.NewRecorder()
		body := submitBody(t, fmt.Sprintf("P%02d", i), fmt.Sprintf("%d", 100-i*10))
		handler.ServeHTTP(r, httptest.NewRequest(http.MethodPost, "/api/highscores", body))
		require.Equal(t, http.StatusOK, r.Code)
	}

	rec, resp = check(t, "/api/check-highscore/10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.IsTopTen, "tying the tenth score must not qualify")

	rec, resp = check(t, "/api/check-highscore/11")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.IsTopTen, "beating the tenth score must qualify")

	rec, _ = check(t, "/api/check-highscore/-3")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = check(t, "/api/check-highscore/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreFailuresReturnGenericError(t *testing.T) {
	srv := newTestServer(failingRepo{})
	handler := srv.Handler()

	paths := []struct {
		method string
		path   string
		body   *bytes.Buffer
	}{
		{http.MethodGet, "/api/highscores", nil},
		{http.MethodPost, "/api/highscores", submitBody(t, "ABC", "10")},
		{http.MethodGet, "/api/check-highscore/50", nil},
	}

	for _, p := range paths {
		var req *http.Request
		if p.body != nil {
			req = httptest.NewRequest(p.method, p.path, p.body)
		} else {
			req = httptest.NewRequest(p.method, p.path, nil)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, "%s %s", p.method, p.path)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, storeFailureMessage, resp.Error, "internal details must not leak")
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(memory.NewScoreRepository())
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
