package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	identityapp "github.com/erp/messaging/internal/application/identity"
	mailapp "github.com/erp/messaging/internal/application/mail"
	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/infrastructure/auth"
	"github.com/erp/messaging/internal/infrastructure/cache"
	"github.com/erp/messaging/internal/infrastructure/config"
	"github.com/erp/messaging/internal/infrastructure/event"
	"github.com/erp/messaging/internal/infrastructure/logger"
	"github.com/erp/messaging/internal/infrastructure/migration"
	"github.com/erp/messaging/internal/infrastructure/persistence"
	"github.com/erp/messaging/internal/infrastructure/storage"
	"github.com/erp/messaging/internal/infrastructure/telemetry"
	"github.com/erp/messaging/internal/interfaces/http/handler"
	"github.com/erp/messaging/internal/interfaces/http/middleware"
	"github.com/erp/messaging/internal/interfaces/http/router"
	"github.com/erp/messaging/migrations"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//	@title			Messaging API
//	@version		1.0
//	@description	Document threads, messages, channels and attachments with record-level access control.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFrom(cfg.Telemetry)

	// The log bridge needs a bootstrap logger for its own errors.
	bootLog, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	logsCfg := telemetryCfg
	logsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, logsCfg, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log export", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, loggerProvider.ZapCore(cfg.App.Name, logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting messaging service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize profiling", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	metricsCfg := telemetryCfg
	metricsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled
	meterProvider, err := telemetry.NewMeterProvider(ctx, metricsCfg, cfg.Telemetry.MetricsInterval, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
			logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbSystem := "postgresql"
	if db.Driver() == persistence.DriverSQLite {
		dbSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if err := migrateSchema(db, log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Repositories
	users := persistence.NewGormUserRepository(db.DB)
	partners := persistence.NewGormPartnerRepository(db.DB)
	companies := persistence.NewGormCompanyRepository(db.DB)
	subtypes := persistence.NewGormSubtypeRepository(db.DB)
	channelRepo := persistence.NewGormChannelRepository(db.DB)
	messageRepo := persistence.NewGormMessageRepository(db.DB)
	attachmentRepo := persistence.NewGormAttachmentRepository(db.DB)
	paramRepo := persistence.NewGormParameterRepository(db.DB)

	threadCache, err := cache.NewThreadCacheFactory(cfg.Redis, cfg.Cache, cache.WithLogger(log)).CreateCache()
	if err != nil {
		log.Fatal("Failed to create thread cache", zap.Error(err))
	}
	threadCache = cache.NewGuardedThreadCache(threadCache)
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(mailapp.NewThreadCacheInvalidator(threadCache))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	objectStorage, err := storage.NewObjectStorage(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize attachment storage", zap.Error(err))
	}

	messageMetrics, err := telemetry.NewMessageMetrics(meterProvider.Meter("messaging"))
	if err != nil {
		log.Fatal("Failed to create message metrics", zap.Error(err))
	}

	// Application services
	documents := mail.NewDocumentRegistry(mail.NewChannelDocuments(channelRepo))
	messageOpts := []mailapp.MessageServiceOption{mailapp.WithMessageMetrics(messageMetrics)}
	if cfg.Mail.Hostname != "" {
		messageOpts = append(messageOpts, mailapp.WithHostname(cfg.Mail.Hostname))
	}
	messageService := mailapp.NewMessageService(messageRepo, subtypes, attachmentRepo, partners, paramRepo,
		documents, eventBus, messageOpts...)
	threadService := mailapp.NewThreadService(messageService, messageRepo, documents, threadCache, messageMetrics)
	channelService := mailapp.NewChannelService(channelRepo, partners)
	parameterService := mailapp.NewParameterService(paramRepo)
	attachmentService := mailapp.NewAttachmentService(attachmentRepo, messageRepo, documents,
		messageService.Policy(), objectStorage)
	if cfg.Storage.PresignExpiry > 0 {
		attachmentCfg := mailapp.DefaultAttachmentServiceConfig()
		attachmentCfg.DownloadURLExpiry = cfg.Storage.PresignExpiry
		attachmentService.SetConfig(attachmentCfg)
	}

	if err := mailapp.NewBootstrapper(subtypes, companies, partners, users, parameterService).Run(ctx, mailapp.SeedConfig{
		CompanyName:    cfg.Mail.CompanyName,
		AdminLogin:     cfg.Mail.AdminLogin,
		AdminPassword:  cfg.Mail.AdminPassword,
		AdminEmail:     cfg.Mail.AdminEmail,
		CatchallDomain: cfg.Mail.CatchallDomain,
		CatchallAlias:  cfg.Mail.CatchallAlias,
	}); err != nil {
		log.Fatal("Failed to bootstrap messaging data", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	revocations := newRevocationList(ctx, cfg, log)
	principals := identityapp.NewPrincipalLoader(users, partners, companies)
	authService := identityapp.NewAuthService(users, principals, jwtService, revocations, log)
	userService := identityapp.NewUserService(users, partners, principals, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.NewEngine(router.EngineConfig{
		HTTP:      cfg.HTTP,
		Tracing:   middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: cfg.Telemetry.Enabled},
		Profiling: middleware.ProfilingConfig{Enabled: profiler.IsEnabled()},
		Metrics:   middleware.HTTPMetricsConfig{MeterProvider: meterProvider, Enabled: metricsCfg.Enabled},
		Logger:    log,
	})

	authLimiter := middleware.NewRateLimiter(20, time.Minute)
	defer authLimiter.Stop()

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Revocations = revocations
	jwtConfig.Principals = principals
	jwtConfig.Logger = log

	router.RegisterAPI(engine, router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		User:       handler.NewUserHandler(userService),
		Message:    handler.NewMessageHandler(messageService),
		Thread:     handler.NewThreadHandler(threadService),
		Channel:    handler.NewChannelHandler(channelService),
		Parameter:  handler.NewParameterHandler(parameterService),
		Attachment: handler.NewAttachmentHandler(attachmentService),
		System:     handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion, db),
	}, router.APIConfig{JWT: jwtConfig, AuthLimiter: authLimiter})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Error stopping event bus", zap.Error(err))
	}
	if closer, ok := threadCache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Warn("Error closing thread cache", zap.Error(err))
		}
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	for _, shutdown := range []func(context.Context) error{
		tracerProvider.Shutdown,
		meterProvider.Shutdown,
		loggerProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			bootLog.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// migrateSchema applies the embedded migrations on PostgreSQL. SQLite is
// used for development and gets its schema from the GORM models.
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver() == persistence.DriverSQLite {
		return db.AutoMigrate()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared connection pool.
	return m.Up()
}

// newRevocationList keeps revoked token ids in Redis when the thread cache
// uses Redis, and in process memory otherwise.
func newRevocationList(ctx context.Context, cfg *config.Config, log *zap.Logger) auth.RevocationList {
	if cfg.Cache.Backend != cache.BackendRedis {
		return auth.NewMemoryRevocationList()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, token revocation is local to this instance", zap.Error(err))
		_ = client.Close()
		return auth.NewMemoryRevocationList()
	}
	return auth.NewRedisRevocationList(client)
}
