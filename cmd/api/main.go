package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/pohualizcalli/academy-admin/internal/config"
	"github.com/pohualizcalli/academy-admin/internal/handler"
	"github.com/pohualizcalli/academy-admin/internal/infra/postgresql"
	"github.com/pohualizcalli/academy-admin/internal/infra/postgresql/migrations"
	infraredis "github.com/pohualizcalli/academy-admin/internal/infra/redis"
	"github.com/pohualizcalli/academy-admin/internal/middleware"
	"github.com/pohualizcalli/academy-admin/internal/objectstore"
	"github.com/pohualizcalli/academy-admin/internal/observability"
	"github.com/pohualizcalli/academy-admin/internal/queue"
	"github.com/pohualizcalli/academy-admin/internal/repository"
	"github.com/pohualizcalli/academy-admin/internal/secrets"
	"github.com/pohualizcalli/academy-admin/internal/service"
	"github.com/pohualizcalli/academy-admin/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("aws configuration failed", zap.Error(err))
	}

	store := objectstore.NewGateway(awsCfg, cfg.S3Bucket, cfg.AWSRegion, cfg.ResourcesDomain, logger)

	publisher, err := queue.NewSQSPublisher(awsCfg, cfg.SQSQueueURL, cfg.AWSRegion)
	if err != nil {
		logger.Fatal("sqs publisher initialization failed", zap.Error(err))
	}

	loader, err := secrets.NewSSMLoader(awsCfg, cfg.InternalAPIParam, cfg.AWSRegion)
	if err != nil {
		logger.Fatal("ssm loader initialization failed", zap.Error(err))
	}
	apiKeyCache := secrets.NewCache(loader)

	// Best effort: the worker surface serves 503 until a reload succeeds, and
	// the reload endpoint repairs a failed startup load without a restart.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	if err := apiKeyCache.Reload(loadCtx); err != nil {
		logger.Warn("initial api key load failed, worker surface disabled until reload", zap.Error(err))
	}
	cancelLoad()

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.UploadRateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	sessionStore, err := infraredis.NewSessionStore(rdb, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	if err != nil {
		logger.Fatal("session store initialization failed", zap.Error(err))
	}

	batchRepo := repository.NewGormBatchRepo(db)
	signatureRepo := repository.NewGormSignatureRepo(db)
	templateRepo := repository.NewGormTemplateRepo(db)
	configRepo := repository.NewGormConfigurationRepo(db)
	userRepo := repository.NewGormUserRepo(db)

	metrics := observability.NewMetrics()

	batchService := service.NewBatchService(
		batchRepo, store, publisher, metrics, logger,
		time.Duration(cfg.StuckBatchMinutes)*time.Minute,
	)
	signatureService := service.NewSignatureService(signatureRepo, store, logger)
	templateService := service.NewTemplateService(templateRepo, store, logger)
	configService := service.NewConfigurationService(configRepo)

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
		BodyLimit:    cfg.MaxUploadBytes + (1 << 20),
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	internalAuth := middleware.InternalAuth(cfg.InternalAPIHeader, apiKeyCache, logger)

	internalHandler, err := handler.NewInternalHandler(
		batchService, signatureService, templateService, configService, apiKeyCache, logger,
	)
	if err != nil {
		logger.Fatal("internal handler initialization failed", zap.Error(err))
	}
	if err := handler.RegisterInternalRoutes(app, internalHandler, internalAuth); err != nil {
		logger.Fatal("internal route registration failed", zap.Error(err))
	}

	authHandler, err := handler.NewAuthHandler(userRepo, sessionStore)
	if err != nil {
		logger.Fatal("auth handler initialization failed", zap.Error(err))
	}
	if err := handler.RegisterSessionExchangeRoutes(app.Group("/internal", internalAuth), authHandler); err != nil {
		logger.Fatal("session exchange route registration failed", zap.Error(err))
	}

	uploadLimit := middleware.UploadRateLimit(limiter, logger)
	api := app.Group("/api", middleware.Session(sessionStore, userRepo, logger))
	if err := handler.RegisterAuthRoutes(api, authHandler); err != nil {
		logger.Fatal("auth route registration failed", zap.Error(err))
	}
	if err := handler.RegisterBatchRoutes(api, batchService, int64(cfg.MaxUploadBytes), uploadLimit); err != nil {
		logger.Fatal("batch route registration failed", zap.Error(err))
	}
	if err := handler.RegisterAssetRoutes(api, signatureService, templateService, int64(cfg.MaxUploadBytes), uploadLimit); err != nil {
		logger.Fatal("asset route registration failed", zap.Error(err))
	}
	if err := handler.RegisterConfigurationRoutes(api, configService); err != nil {
		logger.Fatal("configuration route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("academy-admin api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", zap.Error(err))
	}
}
