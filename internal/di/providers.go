package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-portal-backend/internal/app"
	"github.com/sandeepkv93/campus-portal-backend/internal/config"
	"github.com/sandeepkv93/campus-portal-backend/internal/database"
	"github.com/sandeepkv93/campus-portal-backend/internal/health"
	"github.com/sandeepkv93/campus-portal-backend/internal/http/handler"
	"github.com/sandeepkv93/campus-portal-backend/internal/http/middleware"
	"github.com/sandeepkv93/campus-portal-backend/internal/http/router"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/repository"
	"github.com/sandeepkv93/campus-portal-backend/internal/security"
	"github.com/sandeepkv93/campus-portal-backend/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideBoltDB,
	provideRedisClient,
	provideReadinessRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewLocalCredentialRepository,
	repository.NewOAuthRepository,
	repository.NewUploadRepository,
	provideOTPStore,
)

var SecuritySet = wire.NewSet(
	providePasswordHasher,
	provideSessionCodec,
	provideOTPTicketCodec,
	provideCookieManager,
)

var ServiceSet = wire.NewSet(
	service.NewLogNotifier,
	wire.Bind(new(service.Notifier), new(*service.LogNotifier)),
	service.NewGoogleOAuthProvider,
	wire.Bind(new(service.OAuthProvider), new(*service.GoogleOAuthProvider)),
	service.NewMinIOStorage,
	wire.Bind(new(service.ObjectStorage), new(*service.MinIOStorage)),
	service.NewOTPService,
	service.NewOAuthService,
	service.NewAuthService,
	service.NewUserService,
	service.NewRoleService,
	service.NewUploadService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.UserServiceInterface), new(*service.UserService)),
	wire.Bind(new(service.RoleServiceInterface), new(*service.RoleService)),
	wire.Bind(new(service.UploadServiceInterface), new(*service.UploadService)),
)

var HTTPSet = wire.NewSet(
	provideAuthHandler,
	handler.NewUserHandler,
	handler.NewAdminHandler,
	provideUploadHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

// MigrationRunner applies the schema and, when configured, promotes the
// bootstrap owner. It is the non-server entry point used by campusctl.
type MigrationRunner struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db}
}

func (m *MigrationRunner) DB() *gorm.DB { return m.db }

func (m *MigrationRunner) Config() *config.Config { return m.cfg }

// Run migrates the schema. The report is nil when no bootstrap owner is configured.
func (m *MigrationRunner) Run(ctx context.Context) (*database.SeedReport, error) {
	if err := database.Migrate(m.db); err != nil {
		return nil, err
	}
	if m.cfg.BootstrapOwnerEmail == "" {
		return nil, nil
	}
	report, err := database.PromoteBootstrapOwner(ctx, m.db, m.cfg.BootstrapOwnerEmail)
	if err != nil {
		return nil, fmt.Errorf("promote bootstrap owner: %w", err)
	}
	return report, nil
}

func (m *MigrationRunner) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := NewMigrationRunner(cfg, db).Run(context.Background()); err != nil {
		return nil, err
	}
	return db, nil
}

func provideBoltDB(cfg *config.Config) (*bolt.DB, error) {
	return database.OpenBolt(cfg.BoltPath)
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RedisEnabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, cfg.RedisPrefix, logger)
	return client
}

// provideOTPStore picks the backing store for one-time codes. Redis and bolt
// survive restarts; memory is for single-instance development.
func provideOTPStore(cfg *config.Config, redisClient redis.UniversalClient, boltDB *bolt.DB) (repository.OTPStore, error) {
	switch cfg.OTPStore {
	case config.OTPStoreRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("otp store %q requires redis", cfg.OTPStore)
		}
		return repository.NewRedisOTPStore(redisClient, cfg.RedisPrefix), nil
	case config.OTPStoreBolt:
		return repository.NewBoltOTPStore(boltDB)
	case config.OTPStoreMemory, "":
		return repository.NewInMemoryOTPStore(), nil
	default:
		return nil, fmt.Errorf("unknown otp store %q", cfg.OTPStore)
	}
}

func providePasswordHasher(cfg *config.Config) *security.PasswordHasher {
	return security.NewPasswordHasher(cfg.PasswordHashIterations)
}

func provideSessionCodec(cfg *config.Config) *security.SessionCodec {
	return security.NewSessionCodec(cfg.SessionSecret, cfg.SessionIssuer)
}

func provideOTPTicketCodec(cfg *config.Config) *security.OTPTicketCodec {
	return security.NewOTPTicketCodec(cfg.SessionSecret, cfg.SessionIssuer+"/otp")
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, "strict")
}

func provideAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, cfg *config.Config) *handler.AuthHandler {
	return handler.NewAuthHandler(authSvc, cookieMgr, cfg.StateSigningSecret)
}

func provideUploadHandler(uploadSvc service.UploadServiceInterface, cfg *config.Config) *handler.UploadHandler {
	return handler.NewUploadHandler(uploadSvc, cfg.UploadMaxBytes)
}

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient, codec *security.SessionCodec) router.GlobalRateLimiterFunc {
	keyFunc := middleware.SubjectOrIPKeyFunc(codec)
	if cfg.RedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RedisPrefix+":rl:api")
		return middleware.NewDistributedRateLimiterWithKey(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
			keyFunc,
		).Middleware()
	}
	return middleware.NewDistributedRateLimiterWithKey(
		middleware.NewLocalFixedWindowLimiter(),
		cfg.APIRateLimitPerMin,
		time.Minute,
		middleware.FailOpen,
		"api",
		keyFunc,
	).Middleware()
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.AuthRateLimiterFunc {
	if cfg.RedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RedisPrefix+":rl:auth")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"auth",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute, "auth").Middleware()
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	adminHandler *handler.AdminHandler,
	uploadHandler *handler.UploadHandler,
	codec *security.SessionCodec,
	globalRateLimiter router.GlobalRateLimiterFunc,
	authRateLimiter router.AuthRateLimiterFunc,
	readiness *health.ReadinessRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		AdminHandler:      adminHandler,
		UploadHandler:     uploadHandler,
		SessionCodec:      codec,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		GlobalRateLimiter: globalRateLimiter,
		AuthRateLimiter:   authRateLimiter,
		Readiness:         readiness,
		EnableOTelHTTP:    cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessRunner(
	cfg *config.Config,
	db *gorm.DB,
	boltDB *bolt.DB,
	redisClient redis.UniversalClient,
	storage *service.MinIOStorage,
) *health.ReadinessRunner {
	checkers := make([]health.Checker, 0, 4)
	checkers = append(checkers, health.NewDBChecker(db), health.NewBoltChecker(boltDB))
	if cfg.RedisEnabled {
		checkers = append(checkers, health.NewRedisChecker(redisClient))
	}
	if storage != nil {
		checkers = append(checkers, health.NewPingChecker("object_storage", storage))
	}
	return health.NewReadinessRunner(cfg.ReadinessCheckTimeout, 0, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	boltDB *bolt.DB,
	redisClient redis.UniversalClient,
	readiness *health.ReadinessRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, boltDB, redisClient, readiness)
}
