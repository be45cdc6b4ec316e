package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/visualcraft/marketplace/internal/api"
	"github.com/visualcraft/marketplace/internal/core/listing"
	"github.com/visualcraft/marketplace/internal/core/service"
	"github.com/visualcraft/marketplace/internal/core/session"
	mongodb "github.com/visualcraft/marketplace/internal/infrastructure/db/mongo"
	redisdb "github.com/visualcraft/marketplace/internal/infrastructure/db/redis"
	"github.com/visualcraft/marketplace/internal/pkg/config"
	"github.com/visualcraft/marketplace/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	log.Info().Str("uri", cfg.Mongo.URI).Msg("connecting to mongodb")
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	log.Info().Str("addr", cfg.Redis.Addr).Msg("connecting to redis")
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		_ = rdb.Close()
	}()

	// --- Repositories ---
	itemRepo := mongodb.NewItemRepository(db)
	userRepo := mongodb.NewUserRepository(db)
	categoryRepo := mongodb.NewCategoryRepository(db)
	revoker := redisdb.NewSessionRevoker(rdb)

	if err := itemRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("item index creation failed")
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}

	// --- Core ---
	cache := session.NewActorCache()
	sessions := session.NewManager(ctx, userRepo, revoker, cache, cfg.TokenTTL, log)
	defer sessions.Close()

	feed := listing.NewFeed(itemRepo, log)
	if err := feed.Reset(ctx); err != nil {
		log.Fatal().Err(err).Msg("initial feed load failed")
	}
	log.Info().Int("items", feed.Len()).Msg("listing feed primed")

	authService := service.NewAuthService(userRepo, sessions, cache, cfg.JWTSecret, cfg.TokenTTL, log)
	itemService := service.NewItemService(itemRepo, feed, log)
	adminService := service.NewAdminService(userRepo, revoker, cache, cfg.TokenTTL, log)
	if err := adminService.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("user directory subscription failed")
	}
	defer adminService.Close()

	categoryService := service.NewCategoryService(categoryRepo, log)
	if err := categoryService.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("category subscription failed")
	}
	defer categoryService.Close()

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		AuthService:     authService,
		ItemService:     itemService,
		AdminService:    adminService,
		CategoryService: categoryService,
		Feed:            feed,
		Resolver:        sessions,
		Revoker:         revoker,
		JWTSecret:       cfg.JWTSecret,
		Mongo:           db,
		Redis:           rdb,
		Log:             log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
