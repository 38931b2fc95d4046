package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID  = "user_id"
	SessionKeyEmail   = "email"
	SessionKeyRole    = "role"
	SessionKeyLoginAt = "login_at"
	SessionKeyFlash   = "flash"
)

func init() {
	// Register types that will be stored in sessions
	gob.Register(entities.ProfileRole(""))
	gob.Register(time.Time{})
	gob.Register([]Flash{})
}

type sessionLoadedKey struct{}

// SessionManager wraps scs.SessionManager with application-specific methods.
// Every accessor is safe to call when the session could not be loaded for the
// request; reads return zero values and writes are dropped.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)

	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "library_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// Loaded reports whether session data was loaded into ctx.
func (sm *SessionManager) Loaded(ctx context.Context) bool {
	loaded, _ := ctx.Value(sessionLoadedKey{}).(bool)
	return loaded
}

func markLoaded(ctx context.Context) context.Context {
	return context.WithValue(ctx, sessionLoadedKey{}, true)
}

// CreateSession creates a new session for a profile after successful authentication.
func (sm *SessionManager) CreateSession(r *http.Request, profile *entities.Profile) error {
	ctx := r.Context()
	if !sm.Loaded(ctx) {
		return ErrSessionUnavailable
	}

	// Renew token to prevent session fixation
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}

	// Store user ID as int to match GetInt() retrieval
	sm.Put(ctx, SessionKeyUserID, int(profile.ID))
	sm.Put(ctx, SessionKeyEmail, profile.Email)
	sm.Put(ctx, SessionKeyRole, profile.Role)
	sm.Put(ctx, SessionKeyLoginAt, time.Now())

	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	if !sm.Loaded(r.Context()) {
		return nil
	}
	return sm.Destroy(r.Context())
}

// GetUserID retrieves the profile ID from the session.
// Returns 0 if not authenticated.
func (sm *SessionManager) GetUserID(r *http.Request) uint {
	if !sm.Loaded(r.Context()) {
		return 0
	}
	return uint(sm.GetInt(r.Context(), SessionKeyUserID))
}

func (sm *SessionManager) GetEmail(r *http.Request) string {
	if !sm.Loaded(r.Context()) {
		return ""
	}
	return sm.GetString(r.Context(), SessionKeyEmail)
}

// GetRole retrieves the role recorded at sign-in. It is display data only;
// admin checks re-read the profile.
func (sm *SessionManager) GetRole(r *http.Request) entities.ProfileRole {
	if !sm.Loaded(r.Context()) {
		return ""
	}
	role, ok := sm.Get(r.Context(), SessionKeyRole).(entities.ProfileRole)
	if !ok {
		return ""
	}
	return role
}

// IsAuthenticated returns true if the request has a valid session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetUserID(r) != 0
}

// SessionData holds the session information for a request.
type SessionData struct {
	UserID  uint
	Email   string
	Role    entities.ProfileRole
	LoginAt time.Time
}

// GetSessionData retrieves all session data at once.
func (sm *SessionManager) GetSessionData(r *http.Request) *SessionData {
	userID := sm.GetUserID(r)
	if userID == 0 {
		return nil
	}

	loginAt, _ := sm.Get(r.Context(), SessionKeyLoginAt).(time.Time)

	return &SessionData{
		UserID:  userID,
		Email:   sm.GetEmail(r),
		Role:    sm.GetRole(r),
		LoginAt: loginAt,
	}
}
