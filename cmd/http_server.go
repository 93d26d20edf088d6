package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/appointment"
	appointmentPostgres "github.com/frahmantamala/dialer-dashboard/internal/appointment/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	authPostgres "github.com/frahmantamala/dialer-dashboard/internal/auth/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/calllog"
	calllogPostgres "github.com/frahmantamala/dialer-dashboard/internal/calllog/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/campaign"
	campaignPostgres "github.com/frahmantamala/dialer-dashboard/internal/campaign/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/contact"
	contactPostgres "github.com/frahmantamala/dialer-dashboard/internal/contact/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/core/events"
	"github.com/frahmantamala/dialer-dashboard/internal/dialer"
	dialerPostgres "github.com/frahmantamala/dialer-dashboard/internal/dialer/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/notification"
	"github.com/frahmantamala/dialer-dashboard/internal/registration"
	registrationPostgres "github.com/frahmantamala/dialer-dashboard/internal/registration/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/team"
	teamPostgres "github.com/frahmantamala/dialer-dashboard/internal/team/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/transport/middleware"
	"github.com/frahmantamala/dialer-dashboard/internal/transport/rest"
	"github.com/frahmantamala/dialer-dashboard/internal/user"
	userPostgres "github.com/frahmantamala/dialer-dashboard/internal/user/postgres"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
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
	Config       *internal.Config
	DB           *sqlx.DB
	Gorm         *gorm.DB
	Router       *chi.Mux
	Logger       *slog.Logger
	EventBus     *events.EventBus
	MailQueue    *notification.Queue
	Verification *registration.VerificationStore
	AuthLimiter  *middleware.RateLimiter
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	lg := deps.Logger

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	deps.MailQueue.Start()
	go deps.Verification.RunJanitor(bgCtx, time.Minute)
	if deps.AuthLimiter != nil {
		go deps.AuthLimiter.Run(bgCtx)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	lg.Info("Starting HTTP server", "address", addr, "env", deps.Config.Env)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("Received signal, shutting down...", "signal", sig)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		lg.Error("Server shutdown error", "error", err)
	}
	stopBackground()
	if err := deps.EventBus.Wait(ctx); err != nil {
		lg.Warn("event handlers still running at shutdown", "error", err)
	}
	deps.MailQueue.Shutdown(ctx)
	if err := deps.DB.Close(); err != nil {
		lg.Error("Database close error", "error", err)
	}

	lg.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gdb, err := openGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	bus := events.NewEventBus(lg)
	subscribeEventLogging(bus, lg)

	mailQueue := notification.NewQueue(notification.NewSender(config.Mail, lg), config.Mail, lg)
	mailQueue.Subscribe(bus, int(config.Security.OTPTTL/time.Minute))

	authRepo := authPostgres.NewRepository(gdb)
	tokens := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	abac := auth.NewABACPolicy(authRepo, lg)

	verification := registration.NewVerificationStore(config.Security.OTPTTL, lg)
	registrationService := registration.NewService(
		registrationPostgres.NewRepository(gdb),
		verification,
		bus,
		mailQueue,
		registration.Options{BCryptCost: config.Security.BCryptCost, MasterOTP: config.Security.MasterOTP},
		lg,
	)

	dialerService := dialer.NewService(dialer.NewClient(config.Dialer, lg), dialerPostgres.NewStore(gdb), abac, bus, lg)

	handlers := rest.Handlers{
		Auth:         auth.NewHandler(auth.NewService(authRepo, tokens, config.Security.BCryptCost, lg), lg),
		Registration: registration.NewHandler(registrationService, lg),
		Team:         team.NewHandler(team.NewService(teamPostgres.NewRepository(gdb), config.Security.BCryptCost, lg), lg),
		Campaign:     campaign.NewHandler(campaign.NewService(campaignPostgres.NewRepository(gdb), abac, lg), lg),
		Contact:      contact.NewHandler(contact.NewService(contactPostgres.NewRepository(gdb), abac, bus, lg), lg),
		CallLog:      calllog.NewHandler(calllog.NewService(calllogPostgres.NewRepository(gdb), abac, lg), lg),
		Appointment:  appointment.NewHandler(appointment.NewService(appointmentPostgres.NewRepository(gdb), abac, lg), lg),
		Dialer:       dialer.NewHandler(dialerService, lg),
		User:         user.NewHandler(user.NewService(userPostgres.NewRepository(gdb), lg), lg),
	}

	opts := rest.Options{
		AllowedOrigins: config.Server.AllowedOrigins,
		OpenAPIPath:    config.Server.OpenAPIPath,
		ABAC:           abac,
		Campaigns:      authRepo,
	}
	if config.RateLimit.Enabled {
		opts.AuthLimiter = middleware.NewRateLimiter(config.RateLimit.RPS, config.RateLimit.Burst)
	}
	if config.Server.ValidateRequests && config.Server.OpenAPIPath != "" {
		validator, err := middleware.NewOpenAPIValidator(config.Server.OpenAPIPath)
		if err != nil {
			lg.Warn("request validation disabled", "error", err)
		} else {
			opts.Validator = validator
		}
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.NewHealthHandler(db, config.Dialer.BaseURL), handlers, opts, lg)

	return &Dependencies{
		Config:       config,
		DB:           db,
		Gorm:         gdb,
		Router:       router,
		Logger:       lg,
		EventBus:     bus,
		MailQueue:    mailQueue,
		Verification: verification,
		AuthLimiter:  opts.AuthLimiter,
	}, nil
}

// initDB opens the pgx pool that sqlx and gorm share.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Open(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func openGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
}
