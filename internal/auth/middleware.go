package auth

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	LoginPath       = "/auth/login"
	DashboardPath   = "/dashboard"
	MsgAccessDenied = "Access denied"

	loadingRetryAfter = "2"
)

const loadingPage = `<!DOCTYPE html>
<html>
<head><title>Loading</title><meta http-equiv="refresh" content="` + loadingRetryAfter + `"></head>
<body style="font-family: system-ui; max-width: 400px; margin: 100px auto; text-align: center;">
<h1>Loading&hellip;</h1>
<p>Checking your session. This page will refresh automatically.</p>
</body>
</html>`

// Auditor records authentication and access control events.
type Auditor interface {
	LogAuth(userID uint, action, ipAddr string, success bool)
	LogAccessDenied(userID uint, path, ipAddr string)
}

// Middleware resolves the request identity and gates protected routes.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	auditor        Auditor
}

// NewMiddleware creates a new authentication middleware. auditor may be nil.
func NewMiddleware(service *Service, sessionManager *SessionManager, auditor Auditor) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		auditor:        auditor,
	}
}

// Handler resolves the identity for every request and stores it in the context.
// It never blocks a request; use RequireAuth and RequireAdmin to gate routes.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyIdentity, m.resolve(c.Request))
		c.Next()
	}
}

func (m *Middleware) resolve(r *http.Request) Identity {
	if m.sessionManager == nil {
		return Identity{State: IdentityAnonymous}
	}
	if !m.sessionManager.Loaded(r.Context()) {
		return Identity{State: IdentityLoading}
	}

	data := m.sessionManager.GetSessionData(r)
	if data == nil {
		return Identity{State: IdentityAnonymous}
	}

	return Identity{
		State:  IdentityAuthenticated,
		UserID: data.UserID,
		Email:  data.Email,
		Role:   data.Role,
	}
}

// RequireAuth lets authenticated requests through. Anonymous page requests are
// redirected to the login page once; API requests get 401. While identity is
// still loading the request is answered with a retryable placeholder and never
// redirected.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.gate(c, GetIdentity(c)) {
			return
		}
		c.Next()
	}
}

// RequireAdmin re-reads the profile on every request and only admits admins.
// The role cached in the session is ignored.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if !m.gate(c, identity) {
			return
		}

		profile, err := m.service.GetProfileByID(c.Request.Context(), identity.UserID)
		if err != nil && !errors.Is(err, ErrProfileNotFound) {
			log.Printf("[AUTH] Failed to confirm role for user %d: %v", identity.UserID, err)
			m.respondLoading(c)
			return
		}

		if profile == nil || !profile.IsAdmin() {
			if m.auditor != nil {
				m.auditor.LogAccessDenied(identity.UserID, c.Request.URL.Path, c.ClientIP())
			}
			if isAPIRequest(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "insufficient permissions",
				})
				return
			}
			m.sessionManager.AddFlash(c.Request.Context(), FlashError, MsgAccessDenied)
			c.Redirect(http.StatusFound, DashboardPath)
			c.Abort()
			return
		}

		c.Set(ContextKeyProfile, profile)
		c.Next()
	}
}

// gate answers loading and anonymous requests and reports whether the request may proceed.
func (m *Middleware) gate(c *gin.Context, identity Identity) bool {
	switch identity.State {
	case IdentityAuthenticated:
		return true
	case IdentityLoading:
		m.respondLoading(c)
		return false
	}

	if isAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
		})
		return false
	}

	c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
	c.Abort()
	return false
}

func (m *Middleware) respondLoading(c *gin.Context) {
	c.Header("Retry-After", loadingRetryAfter)
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error": "session not ready, retry shortly",
		})
		return
	}
	c.Data(http.StatusServiceUnavailable, "text/html; charset=utf-8", []byte(loadingPage))
	c.Abort()
}

// isAPIRequest determines if this is an API request vs web browser request.
func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
