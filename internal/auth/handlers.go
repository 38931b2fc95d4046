package auth

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/entities"
)

// setupMutex serializes setup requests to prevent race conditions.
var setupMutex sync.Mutex

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// afterLogin picks the landing page after sign-in.
func afterLogin(next string) string {
	if next == "/" || !isLocalPath(next) {
		return DashboardPath
	}
	return next
}

// registrationError maps profile creation errors to form messages.
func registrationError(err error) string {
	switch {
	case errors.Is(err, ErrPasswordTooShort):
		return "Password must be at least 12 characters"
	case errors.Is(err, ErrPasswordTooLong):
		return "Password exceeds maximum length of 72 characters"
	case errors.Is(err, ErrPasswordRequired):
		return "Password is required"
	case errors.Is(err, ErrEmailRequired):
		return "Email is required"
	case errors.Is(err, ErrEmailInvalid):
		return "Invalid email format"
	case errors.Is(err, ErrNameTooLong):
		return "Names must be at most 100 characters"
	case errors.Is(err, ErrProfileExists):
		return "An account with this email already exists"
	default:
		return "Failed to create account"
	}
}

// AuthController handles sign-in, sign-up, sign-out and first-run setup.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	auditor        Auditor
	templates      *template.Template
	rateLimiter    *RateLimiter
}

// NewAuthController creates a new authentication controller. Templates are read
// from <templatesPath>/auth/*.html; without them the controller answers in JSON.
func NewAuthController(service *Service, sessionManager *SessionManager, auditor Auditor, templatesPath string, cfg config.Auth) *AuthController {
	pattern := filepath.Join(templatesPath, "auth", "*.html")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		log.Printf("[AUTH] No auth templates at %s, falling back to JSON: %v", pattern, err)
		tmpl = nil
	}

	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		auditor:        auditor,
		templates:      tmpl,
		rateLimiter:    rateLimiter,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET(LoginPath, ac.LoginPage)
	router.POST(LoginPath, ac.Login)
	router.GET("/auth/register", ac.RegisterPage)
	router.POST("/auth/register", ac.Register)
	router.POST("/auth/logout", ac.Logout)
	router.GET("/setup", ac.SetupPage)
	router.POST("/setup", ac.Setup)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	next := c.Query("next")
	if GetIdentity(c).IsAuthenticated() {
		c.Redirect(http.StatusFound, afterLogin(next))
		return
	}

	hasUsers, err := ac.service.HasUsers(c.Request.Context())
	if err == nil && !hasUsers {
		c.Redirect(http.StatusFound, "/setup")
		return
	}

	ac.renderTemplate(c, http.StatusOK, "login.html", gin.H{
		"Title":     "Sign in",
		"Next":      sanitizeRedirectPath(next),
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
		"Flashes":   ac.sessionManager.PopFlashes(c.Request.Context()),
	})
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	next := c.PostForm("next")
	clientIP := c.ClientIP()

	form := gin.H{
		"Title":     "Sign in",
		"Next":      sanitizeRedirectPath(next),
		"Email":     email,
		"CSRFToken": GetCSRFToken(c),
	}

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, email); !allowed {
		c.Header("Retry-After", retryAfter.String())
		form["Error"] = "Too many login attempts. Please try again later."
		ac.renderTemplate(c, http.StatusTooManyRequests, "login.html", form)
		return
	}

	profile, err := ac.service.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		ac.rateLimiter.RecordFailure(clientIP, email)
		ac.logAuth(0, "login_failed", clientIP, false)

		form["Error"] = "Invalid email or password"
		switch {
		case errors.Is(err, ErrAccountLocked):
			form["Error"] = "Account is locked. Please try again later."
		case errors.Is(err, ErrAccountClosed):
			form["Error"] = "This account has been closed."
		}
		ac.renderTemplate(c, http.StatusUnauthorized, "login.html", form)
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP, email)

	if err := ac.sessionManager.CreateSession(c.Request, profile); err != nil {
		log.Printf("[AUTH] Failed to create session for %d: %v", profile.ID, err)
		form["Error"] = "Failed to create session"
		ac.renderTemplate(c, http.StatusServiceUnavailable, "login.html", form)
		return
	}
	ac.logAuth(profile.ID, "login", clientIP, true)

	c.Redirect(http.StatusFound, afterLogin(next))
}

// RegisterPage renders the member sign-up form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	if GetIdentity(c).IsAuthenticated() {
		c.Redirect(http.StatusFound, DashboardPath)
		return
	}
	ac.renderTemplate(c, http.StatusOK, "register.html", gin.H{
		"Title":     "Create an account",
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Register creates a member profile and signs it in.
func (ac *AuthController) Register(c *gin.Context) {
	reg, form, ok := ac.readRegistration(c, "Create an account")
	if !ok {
		ac.renderTemplate(c, http.StatusBadRequest, "register.html", form)
		return
	}

	profile, err := ac.service.Register(c.Request.Context(), reg)
	if err != nil {
		form["Error"] = registrationError(err)
		ac.renderTemplate(c, http.StatusBadRequest, "register.html", form)
		return
	}

	ac.logAuth(profile.ID, "register", c.ClientIP(), true)
	if err := ac.sessionManager.CreateSession(c.Request, profile); err != nil {
		c.Redirect(http.StatusFound, LoginPath)
		return
	}
	ac.sessionManager.AddFlash(c.Request.Context(), FlashSuccess, "Welcome! Your library card is "+profile.LibraryCardID)
	c.Redirect(http.StatusFound, DashboardPath)
}

// Logout destroys the session and returns to the landing page.
func (ac *AuthController) Logout(c *gin.Context) {
	userID := GetUserID(c)
	_ = ac.sessionManager.DestroySession(c.Request)
	if userID != 0 {
		ac.logAuth(userID, "logout", c.ClientIP(), true)
	}
	c.Redirect(http.StatusFound, "/")
}

// SetupPage renders the first administrator form. It is only reachable on an
// empty database; once anyone has registered, administrators come from create-admin.
func (ac *AuthController) SetupPage(c *gin.Context) {
	hasUsers, err := ac.service.HasUsers(c.Request.Context())
	if err != nil {
		ac.renderTemplate(c, http.StatusInternalServerError, "setup.html", gin.H{
			"Title":     "Initial Setup",
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Database error. Please try again.",
		})
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, LoginPath)
		return
	}

	ac.renderTemplate(c, http.StatusOK, "setup.html", gin.H{
		"Title":     "Initial Setup",
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Setup creates the first administrator.
// Uses a mutex to prevent race conditions where concurrent requests both pass HasUsers() check.
func (ac *AuthController) Setup(c *gin.Context) {
	setupMutex.Lock()
	defer setupMutex.Unlock()

	hasUsers, err := ac.service.HasUsers(c.Request.Context())
	if err != nil {
		ac.renderTemplate(c, http.StatusInternalServerError, "setup.html", gin.H{
			"Title":     "Initial Setup",
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Database error. Please try again.",
		})
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, LoginPath)
		return
	}

	reg, form, ok := ac.readRegistration(c, "Initial Setup")
	if !ok {
		ac.renderTemplate(c, http.StatusBadRequest, "setup.html", form)
		return
	}

	profile, err := ac.service.CreateProfile(c.Request.Context(), reg, entities.ProfileRoleAdmin)
	if err != nil {
		form["Error"] = registrationError(err)
		ac.renderTemplate(c, http.StatusBadRequest, "setup.html", form)
		return
	}

	ac.logAuth(profile.ID, "setup_admin", c.ClientIP(), true)
	_ = ac.sessionManager.CreateSession(c.Request, profile)

	c.Redirect(http.StatusFound, "/admin")
}

// readRegistration reads the shared sign-up fields and checks the password confirmation.
func (ac *AuthController) readRegistration(c *gin.Context, title string) (Registration, gin.H, bool) {
	reg := Registration{
		Email:     c.PostForm("email"),
		FirstName: c.PostForm("first_name"),
		LastName:  c.PostForm("last_name"),
		Password:  c.PostForm("password"),
	}
	form := gin.H{
		"Title":     title,
		"Email":     reg.Email,
		"FirstName": reg.FirstName,
		"LastName":  reg.LastName,
		"CSRFToken": GetCSRFToken(c),
	}
	if reg.Password != c.PostForm("confirm_password") {
		form["Error"] = "Passwords do not match"
		return reg, form, false
	}
	return reg, form, true
}

func (ac *AuthController) logAuth(userID uint, action, ip string, success bool) {
	if ac.auditor != nil {
		ac.auditor.LogAuth(userID, action, ip, success)
	}
}

// renderTemplate renders an auth template or falls back to JSON.
func (ac *AuthController) renderTemplate(c *gin.Context, status int, name string, data gin.H) {
	if ac.templates == nil {
		c.JSON(status, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		log.Printf("[AUTH] Template %s failed: %v", name, err)
	}
}
