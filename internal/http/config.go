package http

import (
	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/backend"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/config"
)

// Auditor records the events raised by the web layer.
type Auditor interface {
	auth.Auditor
	LogCatalog(userID uint, action, description string, bookID uint, err error)
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Backend     backend.Backend
	Circulation *circulation.Service
	Auditor     Auditor

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController
	AuthConfig     config.Auth

	// CSRF protection is disabled when the secret is empty
	CSRFSecret    []byte
	SecureCookies bool

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Application info
	Version string

	// Task queue (optional)
	Tasks TaskQueue
}
