package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
	httpapi "github.com/bmteam/authgate/internal/auth/http"
	"github.com/bmteam/authgate/internal/auth/identity"
	"github.com/bmteam/authgate/internal/auth/service"
	"github.com/bmteam/authgate/internal/auth/session"
	"github.com/bmteam/authgate/internal/auth/store"
	"github.com/bmteam/authgate/internal/auth/store/drivers/sqlite"
	"github.com/bmteam/authgate/pkg/cryptox"
	"github.com/bmteam/authgate/pkg/jwtx"
	"github.com/bmteam/authgate/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	sessions session.Store
	signer   *jwtx.HS256

	inviteService       *service.InviteService
	sessionService      *service.SessionService
	authService         *service.AuthService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	signer, err := jwtx.NewHS256(cfg.JWTSecret, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSessions(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()

	if err := app.bootstrapOwner(); err != nil {
		_ = app.sessions.Close()
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// bootstrapOwner seeds the first account so a fresh deployment has someone
// who can mint invites. It only runs against an empty local user table.
func (app *Application) bootstrapOwner() error {
	if app.cfg.BootstrapOwnerEmail == "" || app.cfg.IdentityMode != "local" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := app.db.Users().CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing users: %w", err)
	}
	if n > 0 {
		return nil
	}

	user, err := app.authService.Identity.Create(ctx, identity.NewAccount{
		Email:    app.cfg.BootstrapOwnerEmail,
		Name:     app.cfg.BootstrapOwnerName,
		Password: app.cfg.BootstrapOwnerPassword,
		Role:     domain.RoleOwner,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap owner account: %w", err)
	}

	app.logger.Info("owner account bootstrapped", "user_id", user.ID)
	return nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("authgate starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown drains the server, stops housekeeping and closes the stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down authgate...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.sessions.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("authgate stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied")
	return nil
}

func (app *Application) initSessions() error {
	switch app.cfg.SessionBackend {
	case "redis":
		rs := session.NewRedisStore(app.cfg.RedisAddr)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			return fmt.Errorf("failed to reach redis at %s: %w", app.cfg.RedisAddr, err)
		}

		app.sessions = rs
		app.logger.Info("session backend ready", "backend", "redis", "addr", app.cfg.RedisAddr)
	default:
		app.sessions = session.NewMemoryStore()
		app.logger.Info("session backend ready", "backend", "memory")
	}
	return nil
}

func (app *Application) initServices() {
	app.inviteService = &service.InviteService{
		Store:  app.db,
		Secret: app.cfg.InviteTokenSecret,
	}

	app.sessionService = &service.SessionService{
		Store: app.sessions,
		TTL:   app.cfg.SessionTTL,
	}

	var provider identity.Provider
	if app.cfg.IdentityMode == "federated" {
		provider = identity.NewFederatedProvider(app.cfg.DirectoryURL, app.cfg.DirectoryKey)
		app.logger.Info("identity provider ready", "mode", "federated", "directory", app.cfg.DirectoryURL)
	} else {
		provider = identity.NewLocalProvider(app.db)
		app.logger.Info("identity provider ready", "mode", "local")
	}

	app.authService = &service.AuthService{
		Invites:  app.inviteService,
		Identity: provider,
		Sessions: app.sessionService,
		Signer:   app.signer,
		JWTTTL:   app.cfg.JWTTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.inviteService,
		app.sessionService,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		BuildVersion,
		app.db,
		app.sessions,
		app.logger,
	)

	router.AuthService = app.authService
	router.InviteService = app.inviteService
	router.SessionService = app.sessionService
	router.CookieSecure = app.cfg.CookieSecure
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
