package admin

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvidal/battlegrid/internal/dependencies/mocks"
	"github.com/pvidal/battlegrid/internal/services/auth"
	"github.com/pvidal/battlegrid/internal/services/match"
	"github.com/pvidal/battlegrid/internal/services/session"
	"github.com/pvidal/battlegrid/internal/storage/memory"
	"github.com/pvidal/battlegrid/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *auth.Service, *session.Registry, *match.Registry) {
	t.Helper()
	logger := testutil.NopLogger()
	authService := auth.New(memory.New(), mocks.NewMockRandom(), logger)
	sessions := session.NewRegistry(logger)
	matches := match.NewRegistry(logger)
	return New("127.0.0.1:0", logger, authService, sessions, matches), authService, sessions, matches
}

func TestHealthz(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestStatsEmpty(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, Stats{}, stats)
}

func TestStatsCountsUsersAndSessions(t *testing.T) {
	s, authService, sessions, _ := newTestServer(t)

	_, _, err := authService.Signup(context.Background(), "alice", "password123")
	require.NoError(t, err)

	c1, c2 := net.Pipe()
	t.Cleanup(func() {
		_ = c1.Close()
		_ = c2.Close()
	})
	sessions.Register(c1)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.RegisteredUsers)
	assert.Equal(t, 1, stats.Connected)
	assert.Equal(t, 0, stats.LoggedIn)
}

func TestStatsRejectsPost(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/stats", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
