package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/civic-cloud/lostfound/internal/config"
	dbRedis "github.com/civic-cloud/lostfound/internal/db/redis"
	logpkg "github.com/civic-cloud/lostfound/internal/logger"
	"github.com/civic-cloud/lostfound/internal/metrics"
	itemrepo "github.com/civic-cloud/lostfound/internal/repository/item"
	keywordrepo "github.com/civic-cloud/lostfound/internal/repository/keyword"
	miniostore "github.com/civic-cloud/lostfound/internal/storage/minio"
	chiTransport "github.com/civic-cloud/lostfound/internal/transport/chi"
	openaiOracle "github.com/civic-cloud/lostfound/internal/transport/openai"
	classifyuc "github.com/civic-cloud/lostfound/internal/usecase/classify"
	healthuc "github.com/civic-cloud/lostfound/internal/usecase/health"
	itemuc "github.com/civic-cloud/lostfound/internal/usecase/item"
	normalizeuc "github.com/civic-cloud/lostfound/internal/usecase/normalize"
	"github.com/civic-cloud/lostfound/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting lostfound API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:     cfg.Database.Addrs,
		Username:  cfg.Database.Username,
		Password:  cfg.Database.Password,
		DB:        cfg.Database.DB,
		OpTimeout: time.Duration(cfg.Database.OpTimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register oracle metrics explicitly (no init())
	metrics.RegisterOracleMetrics()

	// Repositories
	itemRepo := itemrepo.New(store, cfg.Storage.KeyPrefix, cfg.Database.DeleteBatchSize)
	if cfg.Database.ReindexOnStart {
		// Index schema changes require a drop-and-recreate cycle.
		if err := itemRepo.RebuildIndex(ctx); err != nil {
			logger.Fatal("Failed to rebuild search index", zap.Error(err))
		}
	} else if err := itemRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure search index", zap.Error(err))
	}
	if n, err := itemRepo.Count(ctx); err == nil {
		logger.Info("Record index ready", zap.Int("records", n))
	}
	keywordRepo := keywordrepo.New(store, cfg.Storage.KeyPrefix)

	// Image store is optional: without an endpoint the image-store route
	// answers 502 and the health report skips the check.
	var images *miniostore.Store
	if cfg.ImageStore.Endpoint != "" {
		images, err = miniostore.New(miniostore.Config{
			Endpoint:       cfg.ImageStore.Endpoint,
			PublicEndpoint: cfg.ImageStore.PublicEndpoint,
			AccessKey:      cfg.ImageStore.AccessKey,
			SecretKey:      cfg.ImageStore.SecretKey,
			Bucket:         cfg.ImageStore.Bucket,
			UseSSL:         cfg.ImageStore.UseSSL,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create image store", zap.Error(err))
		}
		if err := images.EnsureBucket(ctx); err != nil {
			logger.Fatal("Failed to ensure image bucket", zap.Error(err))
		}
		logger.Info("Image store ready", zap.String("bucket", cfg.ImageStore.Bucket))
	}

	// Classification oracle
	oracle := openaiOracle.New(&openaiOracle.Config{
		APIKey:      cfg.Oracle.APIKey,
		BaseURL:     cfg.Oracle.BaseURL,
		Model:       cfg.Oracle.Model,
		VisionModel: cfg.Oracle.VisionModel,
		Timeout:     time.Duration(cfg.Oracle.TimeoutSec) * time.Second,
		Logger:      logger,
	})

	// Use case services
	normSvc := normalizeuc.New(oracle, logger)
	itemSvc := itemuc.New(itemRepo, normSvc, keywordRepo, logger)
	classifySvc := classifyuc.New(oracle, normSvc, keywordRepo, logger)

	var imageChecker healthuc.ImageStoreChecker
	if images != nil {
		imageChecker = images
	}
	healthSvc := healthuc.New(store, oracle, imageChecker)

	// Pass nil interface (not typed nil pointer!) when images is absent.
	var imageUploads chiTransport.ImageUploader
	if images != nil {
		imageUploads = images
	}

	server := chiTransport.NewServer(
		itemSvc, classifySvc, imageUploads, keywordRepo, healthSvc,
		int64(cfg.HTTP.MaxUploadBytes), logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
