package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/devanup/DocBox/internal/auth"
	"github.com/devanup/DocBox/internal/config"
	"github.com/devanup/DocBox/internal/file"
	"github.com/devanup/DocBox/internal/logger"
	"github.com/devanup/DocBox/internal/mailer"
	"github.com/devanup/DocBox/internal/metrics"
	"github.com/devanup/DocBox/internal/presigned"
	"github.com/devanup/DocBox/internal/server"
	"github.com/devanup/DocBox/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const presignedLinkTTL = 15 * time.Minute

func main() {
	_ = godotenv.Load()

	logg, err := logger.Init()
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logg.Sync()

	cfg, err := config.Load()
	if err != nil {
		logg.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logg.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		logg.Fatal("connect minio", zap.Error(err))
	}

	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		logg.Fatal("ensure bucket", zap.Error(err))
	}

	metrics.InitMetrics()

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, mailer.NewResend(cfg.Mail), cfg.Auth)

	fileRepo := file.NewRepository(dbPool)
	fileStore := file.NewMinIOStore(minioClient)
	fileService := file.NewService(fileRepo, fileStore, cfg.MinIO.Bucket)

	presignedService := presigned.NewService(minioClient, cfg.MinIO.Bucket, presignedLinkTTL)
	presignedHandler := presigned.NewHandler(presignedService, fileService)

	router := server.NewRouter(server.Dependencies{
		Config:           cfg,
		DB:               dbPool,
		ObjectStore:      minioClient,
		AuthService:      authService,
		FileService:      fileService,
		PresignedHandler: presignedHandler,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("DocBox API listening", zap.String("address", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", zap.Error(err))
	}
}
