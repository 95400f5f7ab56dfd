package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/scholarhub/internal/app/auth"
	appControllers "github.com/yigit/scholarhub/internal/app/controllers"
	appJobs "github.com/yigit/scholarhub/internal/app/jobs"
	appMigrations "github.com/yigit/scholarhub/internal/app/migrations"
	appRepos "github.com/yigit/scholarhub/internal/app/repositories"
	appRoutes "github.com/yigit/scholarhub/internal/app/routes"
	appServices "github.com/yigit/scholarhub/internal/app/services"
	"github.com/yigit/scholarhub/internal/config"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/domain"
	appMiddleware "github.com/yigit/scholarhub/internal/middleware"
	pkgAuth "github.com/yigit/scholarhub/internal/pkg/auth"
	"github.com/yigit/scholarhub/internal/pkg/email"
	"github.com/yigit/scholarhub/internal/pkg/filestorage"
	"github.com/yigit/scholarhub/internal/pkg/logger"
	"github.com/yigit/scholarhub/internal/pkg/metrics"
	"github.com/yigit/scholarhub/internal/pkg/validation"
	"github.com/yigit/scholarhub/internal/pkg/websocket"
	"github.com/yigit/scholarhub/internal/seed"
)

const (
	tokenCleanupSpec = "@hourly"
	limiterSweepSpec = "@every 10m"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	FileStorage  *filestorage.LocalStorage
	Mailer       *appServices.EmailDispatcher

	AuthService         *appServices.AuthService
	UserService         appServices.UserService // Interface type
	ScholarshipService  *appServices.ScholarshipService
	ApplicationService  *appServices.ApplicationService
	PaymentService      *appServices.PaymentService
	NotificationService *appServices.NotificationService
	ReportService       *appServices.ReportService
	SettingService      *appServices.SettingService

	Handlers       appRoutes.Handlers
	AuthMiddleware *appMiddleware.AuthMiddleware
	AuthLimiter    *appMiddleware.RateLimiter
	Hub            *websocket.Hub
	Scheduler      *appJobs.Scheduler
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects, applies migrations and seeds the bootstrap admin.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Msg("Running database migrations...")
	sqlDB := database.SQLDB()
	// connections go back to the pgx pool between statements
	sqlDB.SetMaxIdleConns(0)
	migrator := appMigrations.NewMigrator(sqlDB, logger.Component("migrations"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(ctx,
		appRepos.NewUserRepository(database),
		appRepos.NewRoleRepository(database),
		seed.AdminAccount{Email: cfg.Seed.AdminEmail, Password: cfg.Seed.AdminPassword},
		lgr,
	); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	if err := validation.RegisterGinValidators(); err != nil {
		return nil, fmt.Errorf("failed to register request validators: %w", err)
	}

	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(database)
	repos := deps.Repos

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, strings.TrimRight(cfg.Server.BaseURL, "/")+"/uploads")
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.AuthzService = appAuth.NewAuthorizationService(repos.RoleRepository)
	loadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := deps.AuthzService.LoadRoles(loadCtx); err != nil {
		lgr.Warn().Err(err).Msg("Failed to load role permissions, using built-in defaults")
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  cfg.AccessTokenTTL(),
		RefreshTokenExp: cfg.RefreshTokenTTL(),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	sender := email.NewSMTPSender(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
	}, logger.Component("email"))
	if !sender.Configured() {
		lgr.Warn().Msg("SMTP not configured, emails will be logged instead of sent")
	}
	deps.Mailer = appServices.NewEmailDispatcher(repos.EmailDeliveryRepository, sender, cfg.Scheduler.EmailMaxAttempts, logger.Component("mailer"))

	deps.Hub = websocket.NewHub(logger.Component("websocket"))

	deps.NotificationService = appServices.NewNotificationService(
		repos.NotificationRepository,
		repos.UserRepository,
		deps.Mailer,
		deps.Hub,
		database,
		deps.AuthzService,
		logger.Component("notifications"),
	)
	deps.AuthService = appServices.NewAuthService(
		repos.UserRepository,
		repos.RoleRepository,
		repos.TokenRepository,
		repos.VerificationTokenRepository,
		repos.PasswordResetRepository,
		deps.Mailer,
		deps.JWTService,
		database,
		cfg.Server.BaseURL,
		logger.Component("auth"),
	)
	deps.UserService = appServices.NewUserService(
		repos.UserRepository,
		repos.RoleRepository,
		repos.TokenRepository,
		database,
		deps.AuthzService,
		logger.Component("users"),
	)
	deps.ScholarshipService = appServices.NewScholarshipService(
		repos.ScholarshipRepository,
		repos.UserRepository,
		deps.NotificationService,
		database,
		deps.AuthzService,
		logger.Component("scholarships"),
	)
	deps.PaymentService = appServices.NewPaymentService(
		repos.PaymentRepository,
		deps.NotificationService,
		database,
		deps.AuthzService,
		logger.Component("payments"),
	)
	deps.ApplicationService = appServices.NewApplicationService(
		repos.ApplicationRepository,
		repos.ScholarshipRepository,
		repos.UserRepository,
		deps.PaymentService,
		deps.NotificationService,
		deps.FileStorage,
		domain.UploadPolicy{MaxBytes: cfg.Uploads.MaxBytes, AllowedExtensions: cfg.Uploads.AllowedExtensions},
		database,
		deps.AuthzService,
		logger.Component("applications"),
	)
	deps.ReportService = appServices.NewReportService(repos.ReportRepository, deps.AuthzService, logger.Component("reports"))
	deps.SettingService = appServices.NewSettingService(repos.SettingRepository, deps.AuthzService, logger.Component("settings"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, repos.UserRepository, deps.AuthzService)
	deps.AuthLimiter = appMiddleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	wsInbound := websocket.NewMessageHandler(deps.NotificationService, logger.Component("websocket"))
	deps.Handlers = appRoutes.Handlers{
		Auth:          appControllers.NewAuthController(deps.AuthService, lgr),
		Users:         appControllers.NewUserController(deps.UserService, lgr),
		Scholarships:  appControllers.NewScholarshipController(deps.ScholarshipService, lgr),
		Applications:  appControllers.NewApplicationController(deps.ApplicationService, lgr),
		Payments:      appControllers.NewPaymentController(deps.PaymentService, lgr),
		Notifications: appControllers.NewNotificationController(deps.NotificationService, lgr),
		Reports:       appControllers.NewReportController(deps.ReportService, deps.SettingService, lgr),
		Websocket:     websocket.NewHandler(deps.Hub, wsInbound, cfg.Server.AllowedOrigins, logger.Component("websocket")),
	}

	if cfg.Scheduler.Enabled {
		deps.Scheduler = appJobs.NewScheduler(logger.Component("jobs"))
		err := deps.Scheduler.Register(appJobs.Specs{
			Deadline:   cfg.Scheduler.DeadlineSpec,
			EmailRetry: cfg.Scheduler.EmailRetrySpec,
			Tokens:     tokenCleanupSpec,
			Sweep:      limiterSweepSpec,
		}, appJobs.Targets{
			Scholarships: deps.ScholarshipService,
			Mailer:       deps.Mailer,
			Tokens:       repos.TokenRepository,
			Limiter:      deps.AuthLimiter,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule jobs: %w", err)
		}
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, database *db.PostgresDB, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Uploads.MaxBytes
	router.Use(
		appMiddleware.RequestLogger(),
		appMiddleware.Recovery(),
		metrics.GinMiddleware(),
	)

	appRoutes.SetupSwagger(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	appRoutes.SetupRouter(router,
		deps.Handlers,
		deps.AuthMiddleware,
		deps.AuthLimiter,
		func(c *gin.Context) error {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			return database.Pool.Ping(ctx)
		},
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
