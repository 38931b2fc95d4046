package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/entities"
)

// IdentityState describes how far identity resolution got for a request.
type IdentityState int

const (
	// IdentityLoading means the session store could not be read yet.
	IdentityLoading IdentityState = iota
	IdentityAnonymous
	IdentityAuthenticated
)

func (s IdentityState) String() string {
	switch s {
	case IdentityLoading:
		return "loading"
	case IdentityAnonymous:
		return "anonymous"
	case IdentityAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Identity is resolved once per request and is read-only for handlers.
type Identity struct {
	State  IdentityState
	UserID uint
	Email  string
	Role   entities.ProfileRole // as recorded at sign-in
}

func (i Identity) IsAuthenticated() bool {
	return i.State == IdentityAuthenticated
}

func (i Identity) IsLoading() bool {
	return i.State == IdentityLoading
}

// Context keys for identity data
const (
	ContextKeyIdentity = "auth_identity"
	ContextKeyProfile  = "auth_profile"
)

// GetIdentity retrieves the identity resolved by Middleware.Handler.
// Requests that never went through the middleware are anonymous.
func GetIdentity(c *gin.Context) Identity {
	if v, exists := c.Get(ContextKeyIdentity); exists {
		if identity, ok := v.(Identity); ok {
			return identity
		}
	}
	return Identity{State: IdentityAnonymous}
}

// GetUserID retrieves the authenticated profile ID, or 0.
func GetUserID(c *gin.Context) uint {
	identity := GetIdentity(c)
	if !identity.IsAuthenticated() {
		return 0
	}
	return identity.UserID
}

// GetProfile returns the profile confirmed by RequireAdmin, or nil outside admin routes.
func GetProfile(c *gin.Context) *entities.Profile {
	if v, exists := c.Get(ContextKeyProfile); exists {
		if profile, ok := v.(*entities.Profile); ok {
			return profile
		}
	}
	return nil
}
