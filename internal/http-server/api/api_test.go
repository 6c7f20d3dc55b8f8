package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"botadmin/impl/auth"
	"botadmin/impl/core"
	"botadmin/internal/database"
	"botadmin/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "s3cret-token"

type envelope struct {
	Data          json.RawMessage `json:"data"`
	Count         *int            `json:"count"`
	Success       bool            `json:"success"`
	StatusMessage string          `json:"status_message"`
}

type testServer struct {
	*httptest.Server
	core   *core.Core
	users  *store.Users
	access *store.Access
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := database.NewFileStore(t.TempDir())
	users := store.NewUsers(docs, "users.json", log)
	access := store.NewAccess(docs, "access_codes.json", log)
	broadcasts := store.NewBroadcasts(docs, "broadcasts.json", log)
	c := core.New(users, access, broadcasts, auth.New([]int64{1}, token), log, core.Options{})

	srv := httptest.NewServer(NewRouter(log, c))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, core: c, users: users, access: access}
}

func (s *testServer) do(t *testing.T, method, path, bearer string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHealthWithoutToken(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)
}

func TestRejectsMissingOrWrongToken(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/v1/codes", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, body.Success)

	status, _ = s.do(t, http.MethodGet, "/v1/codes", "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGenerateAndListCodes(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/v1/codes?count=3&issuer=1", token)
	require.Equal(t, http.StatusCreated, status)
	require.NotNil(t, body.Count)
	assert.Equal(t, 3, *body.Count)

	status, body = s.do(t, http.MethodGet, "/v1/codes", token)
	require.Equal(t, http.StatusOK, status)
	var codes []struct {
		Code      string `json:"code"`
		CreatedBy int64  `json:"created_by"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &codes))
	require.Len(t, codes, 3)
	assert.Equal(t, int64(1), codes[0].CreatedBy)

	status, body = s.do(t, http.MethodGet, "/v1/codes?used=true", token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, *body.Count)
}

func TestGenerateCodesRejectsBadCount(t *testing.T) {
	s := newTestServer(t)
	for _, query := range []string{"count=0", "count=21", "count=abc", "count=2&issuer=x"} {
		status, body := s.do(t, http.MethodPost, "/v1/codes?"+query, token)
		assert.Equal(t, http.StatusBadRequest, status, query)
		assert.False(t, body.Success, query)
	}
}

func TestBanAndUnbanUser(t *testing.T) {
	s := newTestServer(t)
	s.users.Register(7, "mallory", "", "")
	s.access.Authorize(7)

	status, _ := s.do(t, http.MethodPost, "/v1/users/7/ban", token)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, s.access.IsBanned(7))

	status, body := s.do(t, http.MethodGet, "/v1/access", token)
	require.Equal(t, http.StatusOK, status)
	var sets struct {
		AuthorizedUsers []int64 `json:"authorized_users"`
		BannedUsers     []int64 `json:"banned_users"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &sets))
	assert.Empty(t, sets.AuthorizedUsers)
	assert.Equal(t, []int64{7}, sets.BannedUsers)

	status, _ = s.do(t, http.MethodPost, "/v1/users/7/unban", token)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, s.access.IsBanned(7))

	status, _ = s.do(t, http.MethodPost, "/v1/users/1/ban", token)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.do(t, http.MethodPost, "/v1/users/abc/ban", token)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListUsers(t *testing.T) {
	s := newTestServer(t)
	s.users.Register(7, "mallory", "Mal", "")
	s.access.Authorize(7)

	status, body := s.do(t, http.MethodGet, "/v1/users", token)
	require.Equal(t, http.StatusOK, status)
	var entries []struct {
		Id       int64  `json:"id"`
		Status   string `json:"status"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "authorized", entries[0].Status)
	assert.Equal(t, "mallory", entries[0].Username)
}

func TestDeleteUnknownBroadcast(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodDelete, "/v1/broadcasts/123.5", token)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, body.Success)

	status, body = s.do(t, http.MethodGet, "/v1/broadcasts", token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, *body.Count)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, status)
}
