package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/libraryhub/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingAuditor struct {
	mu     sync.Mutex
	auth   []string
	denied []string
}

func (r *recordingAuditor) LogAuth(userID uint, action, ipAddr string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auth = append(r.auth, fmt.Sprintf("%d:%s:%t", userID, action, success))
}

func (r *recordingAuditor) LogAccessDenied(userID uint, path, ipAddr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.denied = append(r.denied, fmt.Sprintf("%d:%s", userID, path))
}

type gateApp struct {
	router  *gin.Engine
	sm      *SessionManager
	svc     *Service
	auditor *recordingAuditor
}

func setupGateApp(t *testing.T) *gateApp {
	t.Helper()
	sm, svc := setupSessionManager(t)
	auditor := &recordingAuditor{}
	mw := NewMiddleware(svc, sm, auditor)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.Use(mw.Handler())

	router.POST("/test/sign-in/:id", func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))
		profile, err := svc.GetProfileByID(c.Request.Context(), uint(id))
		require.NoError(t, err)
		require.NoError(t, sm.CreateSession(c.Request, profile))
		c.Status(http.StatusNoContent)
	})
	router.GET("/test/flashes", func(c *gin.Context) {
		c.JSON(http.StatusOK, sm.PopFlashes(c.Request.Context()))
	})
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetIdentity(c).State.String())
	})
	router.GET("/dashboard", mw.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, "dashboard for %d", GetUserID(c))
	})
	router.GET("/admin", mw.RequireAdmin(), func(c *gin.Context) {
		c.String(http.StatusOK, "admin for %s", GetProfile(c).Email)
	})
	router.GET("/api/me", mw.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c)})
	})
	router.GET("/api/loans", mw.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"loans": []string{}})
	})

	return &gateApp{router: router, sm: sm, svc: svc, auditor: auditor}
}

func (a *gateApp) signIn(t *testing.T, profile *entities.Profile) []*http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/test/sign-in/%d", profile.ID), nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	return sessionCookies(rr)
}

func (a *gateApp) get(path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, withCookies(httptest.NewRequest(http.MethodGet, path, nil), cookies))
	return rr
}

func TestMiddleware_ResolvesIdentity(t *testing.T) {
	app := setupGateApp(t)
	member := createProfile(t, app.svc, "member@example.com", entities.ProfileRoleMember)

	rr := app.get("/", nil)
	assert.Equal(t, "anonymous", rr.Body.String())

	rr = app.get("/", app.signIn(t, member))
	assert.Equal(t, "authenticated", rr.Body.String())
}

func TestMiddleware_AnonymousRedirectsToLogin(t *testing.T) {
	app := setupGateApp(t)

	rr := app.get("/dashboard?tab=loans", nil)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/auth/login?next=%2Fdashboard%3Ftab%3Dloans", rr.Header().Get("Location"))
}

func TestMiddleware_AnonymousAPIGets401(t *testing.T) {
	app := setupGateApp(t)

	rr := app.get("/api/me", nil)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, rr.Header().Get("Location"))
}

func TestMiddleware_AcceptJSONGets401(t *testing.T) {
	app := setupGateApp(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddleware_AuthenticatedPassesRequireAuth(t *testing.T) {
	app := setupGateApp(t)
	member := createProfile(t, app.svc, "member@example.com", entities.ProfileRoleMember)

	rr := app.get("/dashboard", app.signIn(t, member))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, fmt.Sprintf("dashboard for %d", member.ID), rr.Body.String())
}

func TestMiddleware_LoadingNeverRedirects(t *testing.T) {
	app := setupGateApp(t)
	app.sm.Store = failingStore{}
	stale := []*http.Cookie{{Name: app.sm.Cookie.Name, Value: "stale-token"}}

	for _, path := range []string{"/dashboard", "/admin"} {
		t.Run(path, func(t *testing.T) {
			rr := app.get(path, stale)

			assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
			assert.Empty(t, rr.Header().Get("Location"))
			assert.Equal(t, "2", rr.Header().Get("Retry-After"))
			assert.Contains(t, rr.Body.String(), `http-equiv="refresh"`)
		})
	}

	t.Run("api", func(t *testing.T) {
		rr := app.get("/api/me", stale)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	})

	t.Run("public pages still render", func(t *testing.T) {
		rr := app.get("/", stale)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "loading", rr.Body.String())
	})
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	t.Run("admin is admitted", func(t *testing.T) {
		app := setupGateApp(t)
		admin := createProfile(t, app.svc, "admin@example.com", entities.ProfileRoleAdmin)

		rr := app.get("/admin", app.signIn(t, admin))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "admin for admin@example.com", rr.Body.String())
	})

	t.Run("member is redirected with a flash", func(t *testing.T) {
		app := setupGateApp(t)
		member := createProfile(t, app.svc, "member@example.com", entities.ProfileRoleMember)
		cookies := app.signIn(t, member)

		rr := app.get("/admin", cookies)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
		assert.NotContains(t, rr.Body.String(), "admin for")
		assert.Equal(t, []string{fmt.Sprintf("%d:/admin", member.ID)}, app.auditor.denied)

		rr = app.get("/test/flashes", cookies)
		var flashes []Flash
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &flashes))
		assert.Equal(t, []Flash{{Kind: FlashError, Message: MsgAccessDenied}}, flashes)
	})

	t.Run("member gets 403 from the API", func(t *testing.T) {
		app := setupGateApp(t)
		member := createProfile(t, app.svc, "member@example.com", entities.ProfileRoleMember)

		rr := app.get("/api/loans", app.signIn(t, member))

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("anonymous API gets 401", func(t *testing.T) {
		app := setupGateApp(t)

		rr := app.get("/api/loans", nil)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("demoted admin loses access without signing out", func(t *testing.T) {
		app := setupGateApp(t)
		admin := createProfile(t, app.svc, "admin@example.com", entities.ProfileRoleAdmin)
		cookies := app.signIn(t, admin)

		require.Equal(t, http.StatusOK, app.get("/admin", cookies).Code)

		err := app.svc.db.Model(&entities.Profile{}).Where("id = ?", admin.ID).
			Update("role", entities.ProfileRoleMember).Error
		require.NoError(t, err)

		rr := app.get("/admin", cookies)
		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
	})
}

func TestGetIdentity_Defaults(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, IdentityAnonymous, GetIdentity(c).State)
	assert.Zero(t, GetUserID(c))
	assert.Nil(t, GetProfile(c))

	c.Set(ContextKeyIdentity, Identity{State: IdentityLoading, UserID: 7})
	assert.Zero(t, GetUserID(c), "loading identity has no user")
}

func TestIdentityState_String(t *testing.T) {
	assert.Equal(t, "loading", IdentityLoading.String())
	assert.Equal(t, "anonymous", IdentityAnonymous.String())
	assert.Equal(t, "authenticated", IdentityAuthenticated.String())
	assert.Equal(t, "unknown", IdentityState(42).String())
}
