package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/libraryhub/internal/audit"
	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/backend"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/database"
	auditrepo "github.com/mrlokans/libraryhub/internal/database/audit"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/fines"
)

const (
	testTemplatesPath = "../../templates"
	testStaticPath    = "../../static"
	testPassword      = "correct horse battery"
)

type fakeQueue struct {
	enqueued []string
}

func (q *fakeQueue) EnqueueOverdueSweep(_ context.Context, trigger string) (string, error) {
	q.enqueued = append(q.enqueued, trigger)
	return "task-123", nil
}

func (q *fakeQueue) Status(_ context.Context, taskID string) (backlite.TaskStatus, error) {
	return backlite.TaskStatusPending, nil
}

type testApp struct {
	router      *gin.Engine
	db          *database.Database
	store       *backend.SQL
	authService *auth.Service
	circulation *circulation.Service
	queue       *fakeQueue
}

type appOption func(*RouterConfig)

func withCSRF(cfg *RouterConfig) {
	cfg.CSRFSecret = []byte("test-secret-key-32-bytes-long!!!")
}

func setupApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.Open(dbPath, logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	authCfg := config.Auth{
		SessionLifetime:  24 * time.Hour,
		BcryptCost:       4,
		MaxLoginAttempts: 5,
		RateLimitWindow:  15 * time.Minute,
		LockoutDuration:  30 * time.Minute,
	}
	sessions, err := auth.NewSessionManager(sqlDB, authCfg)
	require.NoError(t, err)

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	authService := auth.NewService(db.DB, authCfg)
	store := backend.NewSQL(db, fines.DefaultRules())
	circ := circulation.NewService(store, auditService, circulation.Config{})
	authController := auth.NewAuthController(authService, sessions, auditService, testTemplatesPath, authCfg)
	queue := &fakeQueue{}

	cfg := RouterConfig{
		Backend:        store,
		Circulation:    circ,
		Auditor:        auditService,
		AuthService:    authService,
		SessionManager: sessions,
		AuthMiddleware: auth.NewMiddleware(authService, sessions, auditService),
		AuthController: authController,
		AuthConfig:     authCfg,
		TemplatesPath:  testTemplatesPath,
		StaticPath:     testStaticPath,
		Version:        "test",
		Tasks:          queue,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	t.Cleanup(func() {
		authController.Stop()
		auditService.Wait()
		db.Close()
		os.Remove(dbPath)
	})

	return &testApp{
		router:      NewRouter(cfg),
		db:          db,
		store:       store,
		authService: authService,
		circulation: circ,
		queue:       queue,
	}
}

func (app *testApp) addBook(t *testing.T, isbn, title, author string, copies int) *entities.Book {
	t.Helper()
	book := &entities.Book{ISBN: isbn, Title: title, Author: author, TotalCopies: copies, AvailableCopies: copies}
	require.NoError(t, app.store.InsertBook(context.Background(), book))
	return book
}

func (app *testApp) createProfile(t *testing.T, email string, role entities.ProfileRole) *entities.Profile {
	t.Helper()
	profile, err := app.authService.CreateProfile(context.Background(), auth.Registration{
		Email:     email,
		FirstName: "Grace",
		LastName:  "Hopper",
		Password:  testPassword,
	}, role)
	require.NoError(t, err)
	return profile
}

func (app *testApp) book(t *testing.T, id uint) entities.Book {
	t.Helper()
	books, err := app.store.ListBooks(context.Background())
	require.NoError(t, err)
	for _, b := range books {
		if b.ID == id {
			return b
		}
	}
	t.Fatalf("book %d not found", id)
	return entities.Book{}
}

// browser keeps cookies between requests like a real client.
type browser struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func (app *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, app: app, cookies: make(map[string]*http.Cookie)}
}

// signedIn creates a profile and signs the browser in as it.
func (app *testApp) signedIn(t *testing.T, email string, role entities.ProfileRole) (*browser, *entities.Profile) {
	t.Helper()
	profile := app.createProfile(t, email, role)
	b := app.browser(t)
	w := b.postForm("/auth/login", url.Values{"email": {email}, "password": {testPassword}}, false)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	return b, profile
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, cookie := range b.cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	b.app.router.ServeHTTP(w, req)
	for _, cookie := range w.Result().Cookies() {
		b.cookies[cookie.Name] = cookie
	}
	return w
}

func (b *browser) get(path string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return b.do(req)
}

func (b *browser) postForm(path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return b.do(req)
}

func (b *browser) postJSON(path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(b.t, err)
		reader = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(http.MethodPost, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
