package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/auth"
)

type LandingController struct {
	pages
}

func NewLandingController(sessions *auth.SessionManager) *LandingController {
	return &LandingController{pages: pages{sessions: sessions}}
}

// LandingPage handles GET /
func (lc *LandingController) LandingPage(c *gin.Context) {
	c.HTML(http.StatusOK, "landing", lc.data(c, "Welcome", "home"))
}
