package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/entities"
)

// AuthTemplateData holds identity info for the page header.
type AuthTemplateData struct {
	Loading   bool
	LoggedIn  bool
	IsAdmin   bool
	Email     string
	CSRFToken string
}

// GetAuthTemplateData builds header data from the resolved identity.
// IsAdmin follows the session role and only decides which links are shown;
// admin routes re-check the stored profile.
func GetAuthTemplateData(c *gin.Context) AuthTemplateData {
	identity := auth.GetIdentity(c)
	return AuthTemplateData{
		Loading:   identity.IsLoading(),
		LoggedIn:  identity.IsAuthenticated(),
		IsAdmin:   identity.IsAuthenticated() && identity.Role == entities.ProfileRoleAdmin,
		Email:     identity.Email,
		CSRFToken: auth.GetCSRFToken(c),
	}
}

// pages renders full pages and fragments with the shared header data.
type pages struct {
	sessions *auth.SessionManager
}

// data starts a template payload with the header, active nav item and pending flashes.
func (p pages) data(c *gin.Context, title, nav string) gin.H {
	return gin.H{
		"Title":   title,
		"Nav":     nav,
		"Auth":    GetAuthTemplateData(c),
		"Flashes": p.sessions.PopFlashes(c.Request.Context()),
	}
}

// flash queues a notification for the next page load.
func (p pages) flash(c *gin.Context, kind auth.FlashKind, message string) {
	p.sessions.AddFlash(c.Request.Context(), kind, message)
}

// notify renders flashes for an HTMX response without a page load.
// They are swapped into the notification area out of band.
func notify(kind auth.FlashKind, message string) []auth.Flash {
	return []auth.Flash{{Kind: kind, Message: message}}
}
