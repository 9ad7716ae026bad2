package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/zots0127/filebin/internal/adapter/handler"
	"github.com/zots0127/filebin/internal/adapter/middleware"
	"github.com/zots0127/filebin/internal/config"
	"github.com/zots0127/filebin/internal/infrastructure/repository"
	"github.com/zots0127/filebin/internal/infrastructure/storage"
	"github.com/zots0127/filebin/internal/session"
	"github.com/zots0127/filebin/internal/usecase"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "filebin",
	})

	// Optional .env for local development; real deployments set the
	// variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("loading configuration", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.OpenDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("opening database", "path", cfg.Database.Path, "err", err)
	}
	defer db.Close()

	blobs, err := storage.NewS3Store(ctx, storage.Config{
		Bucket:       cfg.S3.Bucket,
		Region:       cfg.S3.Region,
		AccessKey:    cfg.S3.AccessKey,
		SecretKey:    cfg.S3.SecretKey,
		Endpoint:     cfg.S3.Endpoint,
		UsePathStyle: cfg.S3.UsePathStyle,
	})
	if err != nil {
		logger.Fatal("creating blob store", "err", err)
	}

	users := repository.NewUserRepository(db)
	files := repository.NewFileRepository(db)
	codec := session.NewCodec([]byte(cfg.Session.Secret), cfg.Session.TTL.Std())
	coordinator := usecase.NewUploadCoordinator(files, blobs, logger)
	gate := middleware.NewAccessGate(codec)

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.LoadHTMLGlob(cfg.Web.TemplateGlob)
	router.Static("/static", cfg.Web.StaticPath)

	handler.RegisterRoutes(router, gate,
		handler.NewPagesHandler(users, coordinator, codec, cfg.StorageRequireOwner(), logger),
		handler.NewAPIHandler(coordinator, logger),
	)

	if ttl := cfg.Sweeper.PendingTTL.Std(); ttl > 0 {
		sweeper := usecase.NewPendingSweeper(files, blobs, ttl, cfg.Sweeper.Interval.Std(), logger)
		go sweeper.Run(ctx)
	}

	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
