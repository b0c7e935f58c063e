package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.Open(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to redis")
	}

	var revoker service.TokenRevoker = service.NewMemoryTokenRevoker()
	if redisClient != nil {
		revoker = service.NewRedisTokenRevoker(redisClient)
	} else {
		logging.Warn().Msg("redis not configured; rate limiting disabled and logouts are local to this process")
	}

	var images service.ImageStore
	opts := server.Options{
		WriteLimiter: middleware.NewRecipeWriteRateLimiter(redisClient, cfg.RateLimitWindow, cfg.RateLimitRequests),
	}
	if cfg.S3Bucket != "" {
		s3Cfg, err := config.NewS3Config(context.Background(), cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to initialize S3")
		}
		images = service.NewS3ImageStore(s3Cfg)
	} else {
		images = service.NewLocalImageStore(cfg.MediaDir, cfg.MediaURL)
		opts.MediaDir = cfg.MediaDir
	}

	aggregator := service.NewRelationAggregator(db)
	auth := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, revoker)
	recipes := service.NewRecipeService(db, aggregator, service.NewIngredientComposer(cfg.MinIngredientAmount), images)

	srv := server.New(cfg, db, &api.Services{
		Auth:         auth,
		Users:        service.NewUserService(db, auth, aggregator, recipes),
		Recipes:      recipes,
		Relations:    service.NewRelationService(db, recipes),
		ShoppingList: service.NewShoppingListService(db),
		Catalog:      service.NewCatalogService(db),
	}, opts)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logging.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		logging.Info().Str("signal", sig.String()).Msg("received signal")
	}

	logging.Info().Msg("shutting down server")
	if err := srv.Shutdown(context.Background()); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logging.Info().Msg("server stopped")
}
