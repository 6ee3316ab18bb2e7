package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"storefront/internal/analytics"
	"storefront/internal/caching"
	"storefront/internal/common"
	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/handlers"
	"storefront/internal/jobs"
	"storefront/internal/jobs/background"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/database"
	"storefront/pkg/logger"
	"storefront/pkg/mailer"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			zapLogger.Fatal("Failed to apply schema", zap.Error(err))
		}
		zapLogger.Info("Database schema applied")
	}

	redisClient := caching.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, zapLogger)
	defer redisClient.Close()
	cacheSvc := caching.NewRedisCacheService(redisClient, zapLogger)

	storage, err := services.NewMinioStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		zapLogger.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		zapLogger.Warn("Object storage bucket unavailable", zap.String("bucket", cfg.MinioBucket), zap.Error(err))
	}

	var publisher events.Publisher
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		zapLogger.Info("Kafka publisher enabled", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		publisher = events.NewNoopPublisher(zapLogger)
	}
	defer publisher.Close()

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail, err = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			zapLogger.Fatal("Failed to initialize SMTP mailer", zap.Error(err))
		}
	} else {
		zapLogger.Warn("SMTP_HOST not set, outgoing mail will only be logged")
		mail = mailer.NewLogMailer(zapLogger)
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	queue := asynq.NewClient(redisOpt)
	defer queue.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	addressRepo := repositories.NewAddressRepo(pool)
	categoryRepo := repositories.NewCategoryRepo(pool)
	brandRepo := repositories.NewBrandRepo(pool)
	productRepo := repositories.NewProductRepo(pool)
	variantRepo := repositories.NewVariantRepo(pool)
	imageRepo := repositories.NewProductImageRepo(pool)
	cartRepo := repositories.NewCartRepo(pool)
	orderRepo := repositories.NewOrderRepo(pool)
	paymentRepo := repositories.NewPaymentRepo(pool)
	reviewRepo := repositories.NewReviewRepo(pool)
	contactRepo := repositories.NewContactRepo(pool)
	statsRepo := repositories.NewStatsRepo(pool)

	// Services
	authSvc := services.NewAuthService(cacheSvc, userRepo, zapLogger, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	accountSvc := services.NewAccountService(userRepo, cacheSvc, queue, zapLogger, cfg.PublicBaseURL)
	addressSvc := services.NewAddressService(addressRepo)
	categorySvc := services.NewCategoryService(categoryRepo)
	brandSvc := services.NewBrandService(brandRepo, storage, zapLogger)
	productSvc := services.NewProductService(productRepo, variantRepo, imageRepo, categoryRepo, brandRepo, storage, cacheSvc, zapLogger)
	cartSvc := services.NewCartService(cartRepo, variantRepo, cacheSvc, zapLogger, cfg.CartSessionTTL)
	orderSvc := services.NewOrderService(orderRepo, addressRepo, cartRepo, cartSvc, cacheSvc, publisher, zapLogger)
	gateway := services.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.StripeCurrency)
	paymentSvc := services.NewPaymentService(paymentRepo, orderRepo, userRepo, gateway, queue, publisher, zapLogger, cfg.PublicBaseURL)
	reviewSvc := services.NewReviewService(reviewRepo, productRepo)
	contactSvc := services.NewContactService(contactRepo, queue, zapLogger, cfg.ContactInbox)
	analyticsSvc := analytics.NewAnalyticsService(statsRepo, variantRepo, cacheSvc, zapLogger, cfg.LowStockThreshold)

	// Task worker
	worker := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Logger:      zapLogger.Sugar(),
	})
	mux := asynq.NewServeMux()
	jobs.NewEmailHandlers(mail, zapLogger).Register(mux)
	if err := worker.Start(mux); err != nil {
		zapLogger.Fatal("Failed to start task worker", zap.Error(err))
	}
	defer worker.Shutdown()

	// Scheduled jobs
	scheduler, err := background.NewJobScheduler(background.Jobs{
		DashboardRefresh: jobs.NewDashboardRefreshService(analyticsSvc, zapLogger),
		LowStockAlerts:   jobs.NewLowStockAlertService(variantRepo, queue, zapLogger, cfg.ContactInbox, cfg.LowStockThreshold),
		StaleCartCleanup: jobs.NewStaleCartCleaner(cartRepo, zapLogger),
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create job scheduler", zap.Error(err))
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			zapLogger.Error("Failed to stop job scheduler", zap.Error(err))
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Validator = common.NewRequestValidator()

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(zapLogger))
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.BodyLimit("12M"))
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	registerRoutes(e, routeDeps{
		cfg:     cfg,
		logger:  zapLogger,
		cache:   cacheSvc,
		authSvc: authSvc,

		health:   handlers.NewHealthHandlers(pool, cacheSvc, storage, version, zapLogger),
		auth:     handlers.NewAuthHandlers(accountSvc, authSvc, cartSvc, zapLogger),
		accounts: handlers.NewAccountHandlers(accountSvc, zapLogger),
		address:  handlers.NewAddressHandlers(addressSvc, zapLogger),
		category: handlers.NewCategoryHandlers(categorySvc, zapLogger),
		brand:    handlers.NewBrandHandlers(brandSvc, zapLogger),
		product:  handlers.NewProductHandlers(productSvc, zapLogger),
		cart:     handlers.NewCartHandlers(cartSvc, zapLogger),
		order:    handlers.NewOrderHandlers(orderSvc, zapLogger),
		payment:  handlers.NewPaymentHandlers(paymentSvc, orderSvc, zapLogger),
		review:   handlers.NewReviewHandlers(reviewSvc, zapLogger),
		contact:  handlers.NewContactHandlers(contactSvc, zapLogger),
		stats:    handlers.NewStatsHandlers(analyticsSvc, zapLogger),
	})

	go func() {
		zapLogger.Info("Storefront server starting", zap.String("version", version), zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Server stopped unexpectedly", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
