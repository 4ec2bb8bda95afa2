package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirebot-engine/internal/events"
	"hirebot-engine/internal/store"
)

func newTestMux(t *testing.T) (*http.ServeMux, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "status.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))

	mux := NewMux(Deps{
		DB:       db.Pool,
		Hub:      events.NewHub(),
		QueueLen: func() int { return 3 },
	})
	return mux, db
}

func TestHealth(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
}

func TestUsersEndpoint(t *testing.T) {
	mux, db := newTestMux(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureUser(ctx, db.Pool, "42"))
	require.NoError(t, store.EnsureUser(ctx, db.Pool, "7"))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Users []string `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"42", "7"}, body.Users)
}

func TestQueueDepth(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Depth int `json:"depth"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Depth)
}

func TestWritesAreRejected(t *testing.T) {
	mux, _ := newTestMux(t)
	for _, path := range []string{"/health", "/users", "/queue"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}
