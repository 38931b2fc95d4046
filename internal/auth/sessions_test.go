package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/libraryhub/internal/entities"
)

func setupSessionManager(t *testing.T) (*SessionManager, *Service) {
	t.Helper()

	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	sm, err := NewSessionManager(sqlDB, testAuthConfig())
	require.NoError(t, err)

	return sm, NewService(db, testAuthConfig())
}

// failingStore simulates a session store that cannot be read.
type failingStore struct{}

func (failingStore) Find(token string) ([]byte, bool, error) {
	return nil, false, errors.New("database is locked")
}

func (failingStore) Commit(token string, b []byte, expiry time.Time) error {
	return errors.New("database is locked")
}

func (failingStore) Delete(token string) error {
	return errors.New("database is locked")
}

// sessionCookies returns the cookies set by rr so they can be replayed.
func sessionCookies(rr *httptest.ResponseRecorder) []*http.Cookie {
	return rr.Result().Cookies()
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	return req
}

func TestNewSessionManager(t *testing.T) {
	sm, _ := setupSessionManager(t)

	require.NotNil(t, sm.SessionManager)
	assert.Equal(t, "library_session", sm.Cookie.Name)
	assert.True(t, sm.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, sm.Cookie.SameSite)
	assert.False(t, sm.Cookie.Secure)
	assert.Equal(t, 24*time.Hour, sm.Lifetime)
	assert.Equal(t, 12*time.Hour, sm.IdleTimeout)
}

func TestSessionManager_SecureCookieConfig(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	cfg := testAuthConfig()
	cfg.SecureCookies = true

	sm, err := NewSessionManager(sqlDB, cfg)
	require.NoError(t, err)
	assert.True(t, sm.Cookie.Secure)
}

func TestSessionManager_CreateSessionPersistsAcrossRequests(t *testing.T) {
	sm, svc := setupSessionManager(t)
	profile := createProfile(t, svc, "reader@example.com", entities.ProfileRoleAdmin)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.POST("/login", func(c *gin.Context) {
		require.NoError(t, sm.CreateSession(c.Request, profile))
		c.Status(http.StatusNoContent)
	})
	router.GET("/whoami", func(c *gin.Context) {
		data := sm.GetSessionData(c.Request)
		if data == nil {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.JSON(http.StatusOK, data)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/login", nil))
	cookies := sessionCookies(rr)
	require.NotEmpty(t, cookies, "login should set a session cookie")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, withCookies(httptest.NewRequest(http.MethodGet, "/whoami", nil), cookies))
	require.Equal(t, http.StatusOK, rr.Code)

	var data SessionData
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &data))
	assert.Equal(t, profile.ID, data.UserID)
	assert.Equal(t, "reader@example.com", data.Email)
	assert.Equal(t, entities.ProfileRoleAdmin, data.Role)
	assert.False(t, data.LoginAt.IsZero())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "no cookie means no session")
}

func TestSessionManager_DestroySession(t *testing.T) {
	sm, svc := setupSessionManager(t)
	profile := createProfile(t, svc, "reader@example.com", entities.ProfileRoleMember)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.GET("/", func(c *gin.Context) {
		require.NoError(t, sm.CreateSession(c.Request, profile))
		assert.True(t, sm.IsAuthenticated(c.Request))

		require.NoError(t, sm.DestroySession(c.Request))
		assert.False(t, sm.IsAuthenticated(c.Request))
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSessionManager_Flashes(t *testing.T) {
	sm, _ := setupSessionManager(t)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.POST("/action", func(c *gin.Context) {
		sm.AddFlash(c.Request.Context(), FlashSuccess, "Book borrowed successfully")
		sm.AddFlash(c.Request.Context(), FlashWarning, "No copies available")
		c.Redirect(http.StatusSeeOther, "/page")
	})
	router.GET("/page", func(c *gin.Context) {
		c.JSON(http.StatusOK, sm.PopFlashes(c.Request.Context()))
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/action", nil))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	cookies := sessionCookies(rr)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, withCookies(httptest.NewRequest(http.MethodGet, "/page", nil), cookies))
	var flashes []Flash
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &flashes))
	assert.Equal(t, []Flash{
		{Kind: FlashSuccess, Message: "Book borrowed successfully"},
		{Kind: FlashWarning, Message: "No copies available"},
	}, flashes)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, withCookies(httptest.NewRequest(http.MethodGet, "/page", nil), cookies))
	assert.Equal(t, "null", rr.Body.String(), "flashes are shown once")
}

func TestSessionManager_UnloadedContextIsSafe(t *testing.T) {
	sm, _ := setupSessionManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	assert.False(t, sm.Loaded(req.Context()))
	assert.Zero(t, sm.GetUserID(req))
	assert.Empty(t, sm.GetEmail(req))
	assert.Empty(t, sm.GetRole(req))
	assert.Nil(t, sm.GetSessionData(req))
	assert.NoError(t, sm.DestroySession(req))
	assert.ErrorIs(t, sm.CreateSession(req, &entities.Profile{ID: 1}), ErrSessionUnavailable)

	sm.AddFlash(context.Background(), FlashError, "dropped")
	assert.Nil(t, sm.PopFlashes(context.Background()))

	var nilManager *SessionManager
	assert.Nil(t, nilManager.PopFlashes(context.Background()))
}

func TestSessionLoadSave_StoreFailureContinuesUnloaded(t *testing.T) {
	sm, _ := setupSessionManager(t)
	sm.Store = failingStore{}

	var loaded bool
	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.GET("/", func(c *gin.Context) {
		loaded = sm.Loaded(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.Cookie.Name, Value: "stale-token"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, loaded)
}
