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

	"github.com/hangarops/docsense/internal/chunker"
	"github.com/hangarops/docsense/internal/config"
	dbRedis "github.com/hangarops/docsense/internal/db/redis"
	"github.com/hangarops/docsense/internal/extract"
	logpkg "github.com/hangarops/docsense/internal/logger"
	"github.com/hangarops/docsense/internal/metrics"
	analysisrepo "github.com/hangarops/docsense/internal/repository/analysis"
	statusrepo "github.com/hangarops/docsense/internal/repository/status"
	"github.com/hangarops/docsense/internal/storage"
	chiTransport "github.com/hangarops/docsense/internal/transport/chi"
	openaiProvider "github.com/hangarops/docsense/internal/transport/openai"
	analysisuc "github.com/hangarops/docsense/internal/usecase/analysis"
	answeruc "github.com/hangarops/docsense/internal/usecase/answer"
	healthuc "github.com/hangarops/docsense/internal/usecase/health"
	indexuc "github.com/hangarops/docsense/internal/usecase/index"
	"github.com/hangarops/docsense/internal/vectorindex"
	"github.com/hangarops/docsense/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docsense API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("corpus_bucket", cfg.Corpus.Bucket),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
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

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	corpus, err := storage.New(ctx, storage.Config{
		Endpoint:  cfg.Corpus.Endpoint,
		AccessKey: cfg.Corpus.AccessKey,
		SecretKey: cfg.Corpus.SecretKey,
		Bucket:    cfg.Corpus.Bucket,
		Prefix:    cfg.Corpus.Prefix,
		UseSSL:    cfg.Corpus.UseSSL,
	})
	if err != nil {
		logger.Fatal("Failed to connect to corpus storage", zap.Error(err))
	}
	logger.Info("Connected to corpus storage", zap.String("bucket", cfg.Corpus.Bucket))

	extractor := extract.New(cfg.Extraction.BaseURL, time.Duration(cfg.Extraction.TimeoutSec)*time.Second)

	providerTimeout := time.Duration(cfg.Provider.TimeoutSec) * time.Second
	embedder := openaiProvider.NewEmbedder(&openaiProvider.EmbedderConfig{
		APIKey:     cfg.Provider.APIKey,
		BaseURL:    cfg.Provider.BaseURL,
		Model:      cfg.Provider.EmbeddingModel,
		Dimensions: cfg.Provider.EmbeddingDimensions,
		Timeout:    providerTimeout,
		Logger:     logger,
	})
	completer := openaiProvider.NewCompleter(&openaiProvider.CompleterConfig{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.CompletionModel,
		Timeout: providerTimeout,
		Logger:  logger,
	})
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Provider.EmbeddingModel),
		zap.String("completion_model", cfg.Provider.CompletionModel),
	)

	// Repositories
	analysisRepo := analysisrepo.New(store)
	statusRepo := statusrepo.New(store)

	// In-memory index and chunker
	index := vectorindex.New()
	splitter := chunker.New(cfg.Pipeline.SentencesPerChunk, cfg.Pipeline.OverlapSentences)

	// Use case services
	indexSvc := indexuc.New(
		corpus, extractor, embedder, splitter, index, statusRepo,
		cfg.Pipeline.Workers, cfg.Provider.RetryAttempts,
	)
	analysisSvc := analysisuc.New(
		corpus, extractor, completer, analysisRepo,
		cfg.Pipeline.Workers, cfg.Provider.RetryAttempts,
		cfg.Pipeline.SummaryMaxTokens, cfg.Pipeline.AnalysisMaxTokens,
	)
	answerSvc := answeruc.New(
		embedder, index, statusRepo, completer,
		cfg.Pipeline.TopK, cfg.Pipeline.MinRelevance,
		cfg.Pipeline.AnswerMaxTokens, cfg.Provider.RetryAttempts,
	)
	healthSvc := healthuc.New(store, embedder, corpus, extractor)

	server := chiTransport.NewServer(indexSvc, analysisSvc, answerSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

			// Canonical log line, one per request
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
