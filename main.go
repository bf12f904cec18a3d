package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"cinebook/cmd"
	"cinebook/internal/data/repository"
	"cinebook/internal/notification"
	"cinebook/internal/usecase"
	"cinebook/internal/wire"
	"cinebook/pkg/cache"
	"cinebook/pkg/database"
	"cinebook/pkg/omdb"
	"cinebook/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db := database.Shared(config.Database)
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database schema applied")
	}

	// Optional Redis
	rdb := cache.NewRedisClient(ctx, config.Redis, logger)
	if rdb != nil {
		defer rdb.Close()
	}
	appCache := cache.New(rdb, config.App.Name+":")

	// Notifications
	var mailer notification.Mailer = notification.NewLogMailer(logger)
	if config.Email.Host != "" {
		mailer = notification.NewSMTPMailer(config.Email)
	}
	mail := notification.NewMailNotifier(mailer, config.App.Location(), logger)

	var notifier notification.Notifier = mail
	if config.RabbitMQ.URL != "" {
		publisher := notification.NewQueuePublisher(config.RabbitMQ.URL, logger)
		defer publisher.Close()
		notifier = publisher
	}
	background := notification.NewAsync(notifier, 64, 10*time.Second, logger)

	metadata := omdb.NewCachedProvider(omdb.NewClient(config.OMDb, logger), appCache, config.OMDb.CacheTTL, logger)

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, config, rdb, logger,
		usecase.WithMetadata(metadata),
		usecase.WithCache(appCache),
		usecase.WithNotifier(background),
	)

	bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := app.Service.Auth.EnsureAdmin(bootstrapCtx, config.Admin.Email, config.Admin.Password); err != nil {
		logger.Error("Failed to bootstrap admin user", zap.Error(err))
	}
	cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cmd.APIServer(gctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger)
	})
	if config.RabbitMQ.URL != "" {
		g.Go(func() error {
			return cmd.NotificationWorker(gctx, config.RabbitMQ.URL, mail, logger)
		})
	}

	err = g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), config.App.ShutdownTimeout)
	if werr := background.Wait(drainCtx); werr != nil {
		logger.Warn("Pending notifications dropped on shutdown", zap.Error(werr))
	}
	cancel()

	if err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		return
	}
	logger.Info("Application stopped")
}
