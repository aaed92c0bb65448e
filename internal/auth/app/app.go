package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kingjoy7/CharityPulse/internal/auth/domain"
	httpapi "github.com/Kingjoy7/CharityPulse/internal/auth/http"
	"github.com/Kingjoy7/CharityPulse/internal/auth/service"
	"github.com/Kingjoy7/CharityPulse/internal/auth/store"
	"github.com/Kingjoy7/CharityPulse/internal/auth/store/drivers/sqlite"
	"github.com/Kingjoy7/CharityPulse/pkg/cryptox"
	"github.com/Kingjoy7/CharityPulse/pkg/jwtx"
	"github.com/Kingjoy7/CharityPulse/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	signer   jwtx.Signer
	verifier jwtx.Verifier

	authService  *service.AuthService
	mfaService   *service.MFAService
	resetService *service.PasswordResetService
	adminService *service.AdminService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "charitypulse-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initTokenKeys(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initTokenKeys sets up the HS256 signer and verifier. Without a configured
// secret a random per-process one is used, which invalidates all outstanding
// tokens on restart.
func (app *Application) initTokenKeys() error {
	secret := []byte(app.cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		app.logger.Warn("JWT_SECRET not set, using an ephemeral secret; tokens will not survive restarts")
	}

	signer, err := jwtx.NewSignerHS256(secret)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer
	app.verifier = jwtx.NewVerifierHS256(secret, app.cfg.Issuer)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	defaultRole, ok := domain.ParseRole(app.cfg.DefaultRole, domain.RoleOrganizer)
	if !ok {
		app.logger.Warn("unknown default role, falling back to Organizer", "role", app.cfg.DefaultRole)
		defaultRole = domain.RoleOrganizer
	}

	app.authService = &service.AuthService{
		Store:            app.db,
		Signer:           app.signer,
		Issuer:           app.cfg.Issuer,
		TokenTTL:         app.cfg.TokenTTL,
		LockoutThreshold: app.cfg.LockoutThreshold,
		LockoutWindow:    app.cfg.LockoutWindow,
		DefaultRole:      defaultRole,
	}
	app.mfaService = &service.MFAService{
		Store:  app.db,
		Issuer: app.cfg.TOTPIssuer,
	}
	app.resetService = &service.PasswordResetService{
		Store:    app.db,
		TokenTTL: app.cfg.ResetTokenTTL,
		LinkBase: app.cfg.ResetLinkBase,
	}
	app.adminService = &service.AdminService{Store: app.db}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.verifier, BuildVersion, app.db, app.logger)

	router.AuthService = app.authService
	router.MFAService = app.mfaService
	router.ResetService = app.resetService
	router.AdminService = app.adminService
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}
