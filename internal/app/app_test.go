package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/config"
	"taskhub/internal/remotetest"
)

type harness struct {
	t       *testing.T
	router  *gin.Engine
	remote  *remotetest.Server
	cookies map[string]*http.Cookie
}

func newHarness(t *testing.T, opts ...func(*config.Config)) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	remote := remotetest.New()
	t.Cleanup(remote.Close)

	var cfg config.Config
	cfg.App.Env = "test"
	cfg.App.Version = "test"
	cfg.HTTP.AllowOrigins = []string{"http://localhost:4200"}
	cfg.Remote.BaseURL = remote.URL
	for _, opt := range opts {
		opt(&cfg)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	return &harness{
		t:       t,
		router:  NewRouter(cfg, rdb, log),
		remote:  remote,
		cookies: map[string]*http.Cookie{},
	}
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(h.cookies, c.Name)
			continue
		}
		h.cookies[c.Name] = c
	}
	return w
}

func (h *harness) login(username, password string) {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": username, "password": password})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPublicEndpoints(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = h.do(http.MethodGet, "/api/v1/groups", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)
	h.remote.SeedUser("dana", "secret", true)

	w := h.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "dana", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error": "incorrect username or password"}`, w.Body.String())
	assert.Empty(t, h.cookies)
}

func TestSessionCookieAttributes(t *testing.T) {
	for _, secure := range []bool{false, true} {
		t.Run(strconv.FormatBool(secure), func(t *testing.T) {
			h := newHarness(t, func(cfg *config.Config) { cfg.HTTP.SecureCookie = secure })
			h.remote.SeedUser("dana", "secret", true)

			w := h.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "dana", "password": "secret"})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			issued := map[string]*http.Cookie{}
			for _, c := range w.Result().Cookies() {
				issued[c.Name] = c
			}
			require.Contains(t, issued, "session_id")
			require.Contains(t, issued, "user")
			assert.True(t, issued["session_id"].HttpOnly)
			assert.False(t, issued["user"].HttpOnly)
			assert.Equal(t, secure, issued["session_id"].Secure)
			assert.Equal(t, secure, issued["user"].Secure)
			assert.Equal(t, http.SameSiteLaxMode, issued["session_id"].SameSite)

			w = h.do(http.MethodPost, "/api/v1/auth/logout", nil)
			require.Equal(t, http.StatusNoContent, w.Code)
			for _, c := range w.Result().Cookies() {
				assert.Equal(t, secure, c.Secure, c.Name)
				assert.Negative(t, c.MaxAge, c.Name)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t)
	id := h.remote.SeedUser("dana", "secret", true)

	h.login("dana", "secret")
	require.Contains(t, h.cookies, "session_id")
	require.Contains(t, h.cookies, "user")
	assert.True(t, h.cookies["session_id"].HttpOnly)

	w := h.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, float64(id), me["user_id"])
	assert.Equal(t, "dana", me["username"])

	w = h.do(http.MethodPut, "/api/v1/users/"+strconv.FormatInt(id, 10), map[string]string{"username": "dana2"})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	w = h.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, "dana2", decode[map[string]any](t, w)["username"])

	w = h.do(http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, h.cookies, "both cookies are cleared")

	w = h.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGroupAndTaskFlow(t *testing.T) {
	h := newHarness(t)
	h.remote.OwnerImpliesAccess = false
	owner := h.remote.SeedUser("owner", "p", true)
	worker := h.remote.SeedUser("worker", "p", true)
	h.login("owner", "p")

	w := h.do(http.MethodPost, "/api/v1/groups", map[string]string{"name": "Launch"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	group := decode[map[string]any](t, w)
	gid := int64(group["id"].(float64))
	assert.Equal(t, float64(owner), group["owner_id"])

	w = h.do(http.MethodGet, "/api/v1/groups?q=laun", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Items []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
		Partial bool `json:"partial"`
	}](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, gid, list.Items[0].ID)
	assert.False(t, list.Partial)

	w = h.do(http.MethodPost, "/api/v1/tasks", map[string]any{"name": "Review", "group_id": gid, "assigned_to": worker})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[map[string]any](t, w)
	tid := int64(task["id"].(float64))
	assert.Equal(t, 1, h.remote.MemberCount(gid, worker))
	assert.Equal(t, worker, h.remote.TaskAssignee(tid))

	w = h.do(http.MethodGet, "/api/v1/groups/"+strconv.FormatInt(gid, 10)+"/roster", nil)
	require.Equal(t, http.StatusOK, w.Code)
	roster := decode[struct {
		Shared    []struct{ UserID int64 `json:"user_id"` } `json:"shared"`
		Available []struct{ UserID int64 `json:"user_id"` } `json:"available"`
	}](t, w)
	require.Len(t, roster.Shared, 1)
	assert.Equal(t, worker, roster.Shared[0].UserID)
	assert.Empty(t, roster.Available)

	w = h.do(http.MethodPatch, "/api/v1/tasks/"+strconv.FormatInt(tid, 10), map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "DONE", h.remote.TaskStatus(tid))

	w = h.do(http.MethodGet, "/api/v1/tasks/"+strconv.FormatInt(tid, 10), nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[map[string]any](t, w)
	assert.Equal(t, "owner", detail["assigned_by_name"])
	assert.Equal(t, "worker", detail["assigned_to_name"])

	w = h.do(http.MethodGet, "/api/v1/groups/"+strconv.FormatInt(gid, 10)+"/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decode[struct {
		Items []map[string]any `json:"items"`
	}](t, w)
	assert.Len(t, tasks.Items, 1)

	w = h.do(http.MethodDelete, "/api/v1/tasks/"+strconv.FormatInt(tid, 10), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUserAdministration(t *testing.T) {
	h := newHarness(t)
	me := h.remote.SeedUser("admin", "p", true)
	h.login("admin", "p")

	w := h.do(http.MethodPost, "/api/v1/users", map[string]any{"username": "newbie", "password": "x"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	newID := int64(created["user_id"].(float64))
	assert.Equal(t, true, created["is_active"])

	w = h.do(http.MethodPost, "/api/v1/users", map[string]any{"username": "newbie", "password": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"error": "Username is taken"}`, w.Body.String())

	w = h.do(http.MethodPost, "/api/v1/users/"+strconv.FormatInt(me, 10)+"/toggle-active", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/v1/users/"+strconv.FormatInt(newID, 10)+"/toggle-active", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(http.MethodGet, "/api/v1/users?active=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[struct {
		Items []struct{ UserID int64 `json:"user_id"` } `json:"items"`
	}](t, w)
	require.Len(t, users.Items, 1)
	assert.Equal(t, me, users.Items[0].UserID)

	w = h.do(http.MethodDelete, "/api/v1/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoteOutageMapsToBadGateway(t *testing.T) {
	h := newHarness(t)
	h.remote.SeedUser("admin", "p", true)
	h.login("admin", "p")
	h.remote.Fail(http.MethodGet, "/users/", http.StatusInternalServerError)

	w := h.do(http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
