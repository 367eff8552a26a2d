package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lazypower/binder/internal/engine"
	"github.com/lazypower/binder/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testNowMs = 1_700_000_000_000
	dayMs     = 86_400_000
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := New(db, engine.New(nil, 2), nil, "test-version")
	srv.now = func() time.Time { return time.UnixMilli(testNowMs) }
	return srv
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

// sampleAtoms returns a 60-day-old open task and a fresh note.
func sampleAtoms() []map[string]any {
	return []map[string]any{
		{
			"id":         "old",
			"type":       "task",
			"updated_at": testNowMs - 60*dayMs,
			"created_at": testNowMs - 60*dayMs,
			"status":     "open",
			"links":      []string{},
			"content":    "write the quarterly report",
		},
		{
			"id":         "fresh",
			"type":       "note",
			"updated_at": testNowMs,
			"created_at": testNowMs,
			"status":     "open",
			"links":      []string{"old"},
			"content":    "idea",
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "GET", "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test-version", body["version"])
	assert.Equal(t, engine.CoreVersion, body["core"])
	assert.Equal(t, true, body["db"])
}

func TestRequestIDHeader(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/ping", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPingAndVersion(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "GET", "/api/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"result": "pong"}, decodeBody[map[string]string](t, w))

	w = do(t, srv, "GET", "/api/version", nil)
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeBody[map[string]string](t, w)
	assert.Equal(t, engine.CoreVersion, v["core"])
	assert.Equal(t, "test-version", v["server"])
}

func TestScoresEndpoint(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "POST", "/api/scores", map[string]any{"atoms": sampleAtoms(), "now_ms": testNowMs})
	require.Equal(t, http.StatusOK, w.Code)

	scores := decodeBody[map[string]engine.AtomScore](t, w)
	require.Len(t, scores, 2)
	assert.Greater(t, scores["old"].Staleness, 0.7)
	assert.Equal(t, 0.0, scores["fresh"].Staleness)
	assert.Nil(t, scores["fresh"].PriorityTier, "notes have no priority tier")
	require.NotNil(t, scores["old"].PriorityTier)
}

func TestScoresDefaultsToServerClock(t *testing.T) {
	srv := testServer(t)

	withNow := do(t, srv, "POST", "/api/scores", map[string]any{"atoms": sampleAtoms(), "now_ms": testNowMs})
	withoutNow := do(t, srv, "POST", "/api/scores", map[string]any{"atoms": sampleAtoms()})

	require.Equal(t, http.StatusOK, withoutNow.Code)
	assert.JSONEq(t, withNow.Body.String(), withoutNow.Body.String())
}

func TestScoresEmptyCollection(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "POST", "/api/scores", map[string]any{"atoms": []any{}, "now_ms": testNowMs})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestMalformedInputIsBadRequest(t *testing.T) {
	srv := testServer(t)

	missingStatus := sampleAtoms()[:1]
	delete(missingStatus[0], "status")

	cases := []struct {
		name string
		path string
		body any
	}{
		{"not json", "/api/scores", "nope"},
		{"atoms missing", "/api/scores", map[string]any{"now_ms": testNowMs}},
		{"missing field", "/api/scores", map[string]any{"atoms": missingStatus}},
		{"bad timestamp", "/api/compression", map[string]any{"atoms": []map[string]any{{
			"id": "x", "type": "task", "updated_at": -5, "created_at": 0, "status": "open",
		}}}},
		{"negative now", "/api/compression", map[string]any{"atoms": []any{}, "now_ms": -1}},
		{"inbox missing", "/api/entropy", map[string]any{"atoms": []any{}}},
		{"inbox negative", "/api/entropy", map[string]any{"atoms": []any{}, "inbox_count": -3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, srv, "POST", tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeBody[map[string]string](t, w)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestEntropyEndpoint(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "POST", "/api/entropy", map[string]any{
		"atoms":       sampleAtoms(),
		"inbox_count": 20,
		"now_ms":      testNowMs,
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[entropyResponse](t, w)
	assert.Equal(t, uint32(1), resp.OpenTasks)
	assert.Equal(t, uint32(1), resp.StaleCount)
	assert.Equal(t, uint32(20), resp.InboxCount)
	assert.Equal(t, uint32(20), resp.InboxCap)
	assert.Equal(t, uint32(30), resp.TaskCap)
	assert.Equal(t, engine.CapFull, resp.InboxStatus)
	assert.Equal(t, engine.CapOK, resp.TaskStatus)
	assert.NotEmpty(t, resp.SnapshotID)

	hist := do(t, srv, "GET", "/api/entropy/history", nil)
	require.Equal(t, http.StatusOK, hist.Code)
	snaps := decodeBody[[]store.EntropySnapshot](t, hist)
	require.Len(t, snaps, 1)
	assert.Equal(t, resp.SnapshotID, snaps[0].ID)
	assert.Equal(t, int64(testNowMs), snaps[0].ComputedAt)
	assert.InDelta(t, resp.Score, snaps[0].Score, 1e-12)
}

func TestEntropyUsesStoredCaps(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "PUT", "/api/caps", engine.CapConfig{InboxCap: 25, TaskCap: 20})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, "POST", "/api/entropy", map[string]any{"atoms": []any{}, "inbox_count": 20, "now_ms": testNowMs})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[entropyResponse](t, w)
	assert.Equal(t, uint32(25), resp.InboxCap)
	assert.Equal(t, engine.CapWarning, resp.InboxStatus)

	// Explicit caps win over stored ones.
	w = do(t, srv, "POST", "/api/entropy", map[string]any{
		"atoms": []any{}, "inbox_count": 20, "now_ms": testNowMs, "inbox_cap": 10,
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeBody[entropyResponse](t, w)
	assert.Equal(t, uint32(10), resp.InboxCap)
	assert.Equal(t, uint32(20), resp.TaskCap)
	assert.Equal(t, engine.CapFull, resp.InboxStatus)
}

func TestEntropyEmpty(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "POST", "/api/entropy", map[string]any{"atoms": []any{}, "inbox_count": 0, "now_ms": testNowMs})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[entropyResponse](t, w)
	assert.Equal(t, 0.0, resp.Score)
	assert.Equal(t, engine.LevelGreen, resp.Level)
}

func TestEntropyHistoryLimit(t *testing.T) {
	srv := testServer(t)

	for i := 0; i < 3; i++ {
		w := do(t, srv, "POST", "/api/entropy", map[string]any{
			"atoms": []any{}, "inbox_count": i, "now_ms": testNowMs + i,
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(t, srv, "GET", "/api/entropy/history?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snaps := decodeBody[[]store.EntropySnapshot](t, w)
	require.Len(t, snaps, 2)
	assert.Equal(t, uint32(2), snaps[0].InboxCount)

	w = do(t, srv, "GET", "/api/entropy/history?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompressionEndpoint(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "POST", "/api/compression", map[string]any{"atoms": sampleAtoms(), "now_ms": testNowMs})
	require.Equal(t, http.StatusOK, w.Code)

	cands := decodeBody[[]engine.CompressionCandidate](t, w)
	require.Len(t, cands, 1)
	assert.Equal(t, "old", cands[0].ID)
	assert.NotEmpty(t, cands[0].Reason)
}

func TestCompressionEmptyIsArray(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "POST", "/api/compression", map[string]any{"atoms": []any{}, "now_ms": testNowMs})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCapsEndpoints(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "GET", "/api/caps", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.DefaultCaps(), decodeBody[engine.CapConfig](t, w))

	w = do(t, srv, "PUT", "/api/caps", engine.CapConfig{InboxCap: 5, TaskCap: 30})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, "PUT", "/api/caps", engine.CapConfig{InboxCap: 12, TaskCap: 18})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, "GET", "/api/caps", nil)
	assert.Equal(t, engine.CapConfig{InboxCap: 12, TaskCap: 18}, decodeBody[engine.CapConfig](t, w))
}

func TestUnknownRoute(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "GET", "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
