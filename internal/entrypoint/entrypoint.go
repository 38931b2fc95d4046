package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/audit"
	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/backend"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/database"
	auditrepo "github.com/mrlokans/libraryhub/internal/database/audit"
	"github.com/mrlokans/libraryhub/internal/database/profiles"
	"github.com/mrlokans/libraryhub/internal/fines"
	http_controllers "github.com/mrlokans/libraryhub/internal/http"
	"github.com/mrlokans/libraryhub/internal/scheduler"
	"github.com/mrlokans/libraryhub/internal/tasks"
	"github.com/mrlokans/libraryhub/internal/telemetry"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Stop background work after the last request has finished
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// FineRules converts the circulation settings into fine rules.
func FineRules(cfg config.Circulation) fines.Rules {
	return fines.Rules{
		Schedule:       fines.Schedule{PerDay: cfg.FinePerDay, Max: cfg.FineMax},
		MaxOutstanding: cfg.MaxOutstandingFines,
	}
}

// NewBackend returns the data store named by cfg.Backend.Kind. Profiles always
// come from db; the fixture backend only keeps the catalog and loans in memory.
func NewBackend(ctx context.Context, cfg *config.Config, db *database.Database) (backend.Backend, error) {
	rules := FineRules(cfg.Circulation)

	switch backend.Kind(cfg.Backend.Kind) {
	case backend.KindSQLite, "":
		return backend.NewSQL(db, rules), nil
	case backend.KindFixture:
		fixture, err := backend.NewFixtureFromFile(ctx, cfg.Backend.FixturePath, profiles.NewRepository(db.DB), rules)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixture %s: %w", cfg.Backend.FixturePath, err)
		}
		return fixture, nil
	default:
		return nil, fmt.Errorf("unknown library backend %q", cfg.Backend.Kind)
	}
}

// CSRFSecret decodes a hex session secret, falls back to the raw bytes, and
// generates a fresh one when none is configured.
func CSRFSecret(configured string) ([]byte, error) {
	if configured != "" {
		secret, err := hex.DecodeString(configured)
		if err != nil {
			// Not hex, use as raw bytes
			secret = []byte(configured)
		}
		return secret, nil
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	log.Printf("[AUTH] Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(generated)
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting LibraryHub v%s", version)
	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		log.Printf("WARNING: %v", err)
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	store, err := NewBackend(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize backend: %v", err)
	}
	log.Printf("Library backend: %s", cfg.Backend.Kind)

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	circ := circulation.NewService(store, auditService, circulation.Config{
		LoanPeriod:          cfg.Circulation.LoanPeriod,
		BorrowRatePerMinute: cfg.Circulation.BorrowRatePerMinute,
		BorrowBurst:         cfg.Circulation.BorrowBurst,
	})

	authService := auth.NewService(db.DB, cfg.Auth)

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}
	authMiddleware := auth.NewMiddleware(authService, sessionManager, auditService)
	authController := auth.NewAuthController(authService, sessionManager, auditService, cfg.UI.TemplatesPath, cfg.Auth)

	csrfSecret, err := CSRFSecret(cfg.Auth.SessionSecret)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if hasUsers, err := authService.HasUsers(ctx); err == nil && !hasUsers {
		log.Printf("No profiles found. Visit /setup or run 'libraryhub create-admin'.")
	} else if hasAdmins, err := authService.HasAdmins(ctx); err == nil && !hasAdmins {
		log.Printf("No administrators found. Run 'libraryhub create-admin' to create one.")
	}

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var maintenance *scheduler.MaintenanceScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.NewConfig(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.RegisterMaintenance(tasks.Maintenance{
			Loans:  store,
			Sweeps: auditService,
			Audit:  auditService,
		})

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		maintenance = scheduler.NewMaintenanceScheduler(taskClient, scheduler.Config{
			OverdueSweepSchedule: cfg.Scheduler.OverdueSweepSchedule,
			AuditCleanupSchedule: cfg.Scheduler.AuditCleanupSchedule,
			AuditRetentionDays:   cfg.Audit.RetentionDays,
		})
		if err := maintenance.Start(taskCtx); err != nil {
			log.Printf("[SCHEDULER] Failed to start maintenance scheduler: %v", err)
		}
	} else {
		log.Printf("Task queue disabled; overdue loans are only marked on demand")
	}

	routerCfg := http_controllers.RouterConfig{
		Backend:        store,
		Circulation:    circ,
		Auditor:        auditService,
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		AuthController: authController,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
	}
	// A nil *tasks.Client must not become a non-nil interface
	if taskClient != nil {
		routerCfg.Tasks = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		authController.Stop()
		auditService.Wait()
		if err := shutdownTelemetry(ctx); err != nil {
			log.Printf("Error flushing telemetry: %v", err)
		}
	}

	Serve(router, cfg, onShutdown)
}
