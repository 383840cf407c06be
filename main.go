package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/shelfmates/config"
	"github.com/kevinaaaquil/shelfmates/friends"
	"github.com/kevinaaaquil/shelfmates/handlers"
	"github.com/kevinaaaquil/shelfmates/library"
	"github.com/kevinaaaquil/shelfmates/service"
	"github.com/kevinaaaquil/shelfmates/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	if cfg.InsecureJWTSecret() {
		logger.Warn("jwt_secret_default", "hint", "set JWT_SECRET before deploying")
	}

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		logger.Error("mongodb_connect_failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			logger.Error("mongodb_disconnect_failed", "error", err)
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Error("mongodb_indexes_failed", "error", err)
		os.Exit(1)
	}

	profile := &handlers.ProfileHandler{DB: db, MaxBytes: cfg.MaxAvatarMB * 1024 * 1024}
	var avatarURLs friends.AvatarURLs
	if cfg.S3Bucket != "" {
		s3Service, err := service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			logger.Error("s3_init_failed", "error", err)
			os.Exit(1)
		}
		profile.Avatars = s3Service
		avatarURLs = s3Service
	} else {
		logger.Warn("s3_disabled", "hint", "AWS_S3_BUCKET not set; avatar uploads are off")
	}

	catalogCfg := service.CatalogConfig{
		APIKey: cfg.CatalogAPIKey,
		RPS:    cfg.CatalogRPS,
		Logger: logger,
	}
	if cfg.RedisAddr != "" {
		cache, err := service.NewRedisCatalogCache(ctx, cfg.RedisAddr, cfg.CatalogCacheTTL)
		if err != nil {
			logger.Warn("catalog_cache_disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer cache.Close()
			catalogCfg.Cache = cache
		}
	}
	catalog := service.NewCatalog(catalogCfg)

	libraries := library.NewService(library.NewSessions(), catalog, db, logger)
	friendLists := friends.NewRegistry(db, avatarURLs, logger)

	r := handlers.NewRouter(handlers.Routes{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Auth: &handlers.AuthHandler{
			DB:        db,
			JWTSecret: cfg.JWTSecret,
			Sessions:  []handlers.SessionCache{libraries, friendLists},
		},
		Catalog: &handlers.CatalogHandler{Catalog: catalog},
		Library: &handlers.LibraryHandler{Library: libraries},
		Friends: &handlers.FriendsHandler{Friends: friendLists},
		Profile: profile,
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("server_listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server_failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
}
