package http

import (
	"fmt"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/catalog"
)

// templateFuncs are shared by every page template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(amount float64) string {
			return fmt.Sprintf("£%.2f", amount)
		},
		"fine": func(amount *float64) string {
			if amount == nil {
				return "-"
			}
			return fmt.Sprintf("£%.2f", *amount)
		},
		"date": func(t time.Time) string {
			return t.Format("02 Jan 2006")
		},
		"card": func(card catalog.Card, csrfToken string) map[string]any {
			return map[string]any{"Card": card, "CSRFToken": csrfToken}
		},
	}
}

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	router.Use(cfg.SessionManager.SessionLoadSave())
	router.Use(cfg.AuthMiddleware.Handler())

	tmpl := template.Must(template.New("").Funcs(templateFuncs()).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)

	router.Static("/static", cfg.StaticPath)

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router)
	}

	requireAuth := cfg.AuthMiddleware.RequireAuth()
	requireAdmin := cfg.AuthMiddleware.RequireAdmin()

	health := NewHealthController(cfg.Backend, cfg.Version)
	landing := NewLandingController(cfg.SessionManager)
	inventory := NewInventoryController(cfg.Backend, cfg.Circulation, cfg.SessionManager)
	dashboard := NewDashboardController(cfg.Backend, cfg.SessionManager)
	admin := NewAdminController(cfg.Backend, cfg.Circulation, cfg.SessionManager, cfg.Auditor)
	admin.tasksEnabled = cfg.Tasks != nil
	api := NewAPIController(cfg.Backend, cfg.Circulation, cfg.Auditor)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Pages
	router.GET("/", landing.LandingPage)

	member := router.Group("", requireAuth)
	member.GET(InventoryPath, inventory.InventoryPage)
	member.GET(InventoryPath+"/search", inventory.Search)
	member.POST(InventoryPath+"/:id/borrow", inventory.Borrow)
	member.GET(auth.DashboardPath, dashboard.DashboardPage)

	adminPages := router.Group(AdminPath, requireAdmin)
	adminPages.GET("", admin.AdminPage)
	adminPages.POST("/books", admin.AddBook)
	adminPages.POST("/loans/:id/return", admin.ProcessReturn)

	// JSON API
	router.GET("/api/csrf", api.CSRFToken)

	memberAPI := router.Group("/api", requireAuth)
	memberAPI.GET("/books", api.ListBooks)
	memberAPI.GET("/categories", api.ListCategories)
	memberAPI.GET("/me", api.Me)
	memberAPI.GET("/me/loans", api.MyLoans)
	memberAPI.POST("/books/:id/borrow", api.Borrow)

	adminAPI := router.Group("/api", requireAdmin)
	adminAPI.GET("/loans", api.ListLoans)
	adminAPI.POST("/books", api.CreateBook)
	adminAPI.POST("/loans/:id/return", api.Return)

	// Task management endpoints
	if cfg.Tasks != nil {
		tasksController := NewTasksController(cfg.Tasks)
		adminAPI.POST("/admin/overdue-sweep", tasksController.RunOverdueSweep)
		adminAPI.GET("/admin/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
