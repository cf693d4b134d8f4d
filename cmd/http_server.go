package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/commandos-health/commandos/internal"
	"github.com/commandos-health/commandos/internal/accessgate"
	"github.com/commandos-health/commandos/internal/audit"
	auditPostgres "github.com/commandos-health/commandos/internal/audit/postgres"
	"github.com/commandos-health/commandos/internal/auth"
	authPostgres "github.com/commandos-health/commandos/internal/auth/postgres"
	"github.com/commandos-health/commandos/internal/badges"
	badgesPostgres "github.com/commandos-health/commandos/internal/badges/postgres"
	"github.com/commandos-health/commandos/internal/core/events"
	"github.com/commandos-health/commandos/internal/dataimport"
	dataimportPostgres "github.com/commandos-health/commandos/internal/dataimport/postgres"
	"github.com/commandos-health/commandos/internal/export"
	"github.com/commandos-health/commandos/internal/kpi"
	kpiPostgres "github.com/commandos-health/commandos/internal/kpi/postgres"
	"github.com/commandos-health/commandos/internal/links"
	linksPostgres "github.com/commandos-health/commandos/internal/links/postgres"
	"github.com/commandos-health/commandos/internal/passcode"
	"github.com/commandos-health/commandos/internal/profile"
	profilePostgres "github.com/commandos-health/commandos/internal/profile/postgres"
	"github.com/commandos-health/commandos/internal/ratelimit"
	"github.com/commandos-health/commandos/internal/securestore"
	"github.com/commandos-health/commandos/internal/transport/rest"
	"github.com/commandos-health/commandos/internal/upload"
	"github.com/commandos-health/commandos/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	GormDB   *gorm.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	Gate     *accessgate.Gate
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.Handlers,
		deps.Gate,
		deps.Config.Server.AllowedOrigins,
		deps.Config.Storage.Dir,
		deps.Logger,
	)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := internal.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Configure(config.Observability.Logging.Level, config.Observability.Logging.Format)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	encryptionKey, err := config.Security.GetEncryptionKey()
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}
	sealer, err := securestore.New(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secure store: %w", err)
	}

	// Audit pipeline: repository, event bus, alert notifiers.
	bus := events.NewEventBus(appLogger)
	auditService := audit.NewService(auditPostgres.NewAuditRepository(gormDB), bus, appLogger)

	var notifiers []audit.Notifier
	if config.Alerts.WebhookURL != "" {
		notifiers = append(notifiers, audit.NewWebhookNotifier(config.Alerts.WebhookURL, config.Alerts.WebhookTimeout))
	}
	if config.Alerts.ResendAPIKey != "" {
		notifiers = append(notifiers, audit.NewEmailNotifier(config.Alerts.ResendAPIKey, config.Alerts.EmailFrom, config.Alerts.EmailTo))
	}
	audit.RegisterNotifiers(bus, appLogger, notifiers...)

	// Identity: auth service plus the profile-backed role resolver.
	profileService := profile.NewService(profilePostgres.NewProfileRepository(gormDB), appLogger)
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(gormDB), tokenGen, config.Security.BCryptCost)
	authHandler := auth.NewHandler(authService, profileService)
	gate := accessgate.NewGate(authService, profileService, appLogger)

	// Dashboard surfaces.
	store := upload.NewDiskStore(config.Storage.Dir, config.Storage.PublicBaseURL)
	uploadService := upload.NewService(store, auditService, config.Storage.DefaultBucket, config.Storage.MaxUploadBytes, appLogger)
	exportService := export.NewService(auditService, appLogger)
	importService := dataimport.NewService(dataimportPostgres.NewStagingRepository(gormDB), auditService, sealer, appLogger)
	linksService := links.NewService(linksPostgres.NewLinkRepository(gormDB), appLogger)
	badgesService := badges.NewService(badgesPostgres.NewBadgeRepository(gormDB))
	kpiService := kpi.NewService(kpiPostgres.NewKPIRepository(gormDB), kpi.DefaultStaleTime)
	limiter := ratelimit.NewSlidingWindow(config.RateLimit.MaxRequests, config.RateLimit.Window)

	handlers := rest.Handlers{
		Auth:       authHandler,
		Profile:    profile.NewHandler(profileService),
		Export:     export.NewHandler(exportService),
		Upload:     upload.NewHandler(uploadService),
		Audit:      audit.NewHandler(auditService),
		Passcode:   passcode.NewHandler(config.Security.VerifyPasscode, limiter, auditService),
		DataImport: dataimport.NewHandler(importService),
		Links:      links.NewHandler(linksService),
		Badges:     badges.NewHandler(badgesService),
		KPI:        kpi.NewHandler(kpiService),
	}

	return &Dependencies{
		Config:   config,
		Logger:   appLogger,
		DB:       db,
		GormDB:   gormDB,
		Router:   chi.NewRouter(),
		Handlers: handlers,
		Gate:     gate,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
