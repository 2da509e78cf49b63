package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mathviz/internal/adapter/jobstore"
	"mathviz/internal/adapter/repo"
	"mathviz/internal/domain"
	"mathviz/internal/engine"
	"mathviz/internal/http/handlers"
	"mathviz/internal/http/httpapi"
	"mathviz/internal/infra"
	"mathviz/internal/providers/interpret"
	"mathviz/internal/render"
	"mathviz/internal/storage"
	"mathviz/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis backs both the record store and the queue. A failed ping is not
	// fatal; requests surface 503 until the connection recovers.
	redisClient, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable at startup, continuing degraded")
	}
	defer func() {
		_ = redisClient.Close()
	}()

	store := jobstore.NewRedisStore(redisClient, cfg.JobTTL)
	queue := jobstore.NewRedisQueue(redisClient, "job_queue")

	// Terminal jobs are optionally archived to PostgreSQL; without a
	// DATABASE_URL they live only in the TTL'd store.
	var archive domain.JobArchive
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("database unreachable, job archive disabled")
		} else {
			defer pool.Close()
			archive = repo.NewJobArchive(pool)
		}
	}

	var interpreter interpret.Interpreter
	if cfg.AnthropicAPIKey != "" {
		anthropic, err := interpret.NewAnthropicInterpreter(interpret.AnthropicOptions{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			BaseURL: cfg.AnthropicBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure interpreter")
		}
		interpreter = anthropic
	} else {
		logger.Warn().Msg("ANTHROPIC_API_KEY missing, natural language endpoints disabled")
	}

	publisher, err := storage.NewFilePublisher(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	eng := engine.New(store, queue, interpreter, logger)
	renderer := render.NewManimRenderer(cfg.OutputDir, cfg.RenderTimeout, logger)

	w := worker.New(worker.Config{
		Engine:    eng,
		Queue:     queue,
		Renderer:  renderer,
		Publisher: publisher,
		Archive:   archive,
		Logger:    logger,
		Poll:      cfg.WorkerPoll,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("worker stopped with error")
		}
	}()

	app := handlers.NewApp(eng, logger)
	app.Ping = func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}
	router := httpapi.NewRouter(app, httpapi.Config{
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		OutputDir:   cfg.OutputDir,
		StoragePath: cfg.StoragePath,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("worker did not stop in time")
	}
	logger.Info().Msg("server stopped")
}
