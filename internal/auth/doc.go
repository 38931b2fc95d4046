// Package auth provides authentication and access control for the library.
//
// Members and admins sign in with an email and password. Sessions are stored
// in SQLite through scs and carried in an HttpOnly cookie. Every request gets
// an Identity in one of three states:
//   - Loading: the session store could not be read yet
//   - Anonymous: no signed-in user
//   - Authenticated: a user is signed in
//
// Gated routes never redirect a Loading request; they answer with a 503 and a
// Retry-After header instead.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<base64-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h              # Session duration
//	AUTH_BCRYPT_COST=12                    # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true               # HTTPS-only cookies
//	AUTH_MAX_LOGIN_ATTEMPTS=5              # Failed attempts before lockout
//	AUTH_LOCKOUT_DURATION=30m              # Lockout duration
//
// # Usage
//
//	authService := auth.NewService(db, cfg.Auth)
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	mw := auth.NewMiddleware(authService, sessions, auditService)
//	router.Use(sessions.SessionLoadSave(), mw.Handler())
//	router.GET("/dashboard", mw.RequireAuth(), handler)
//	router.POST("/admin/books", mw.RequireAdmin(), handler)
//
// Extract the user in handlers:
//
//	userID := auth.GetUserID(c) // 0 unless authenticated
package auth
