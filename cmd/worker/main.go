package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mathviz/internal/adapter/jobstore"
	"mathviz/internal/adapter/repo"
	"mathviz/internal/domain"
	"mathviz/internal/engine"
	"mathviz/internal/infra"
	"mathviz/internal/render"
	"mathviz/internal/storage"
	"mathviz/internal/worker"
)

// Standalone render worker. The API binary runs one in-process; this one
// exists for deployments that scale rendering separately.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("worker: redis connection failed")
	}
	defer func() {
		_ = redisClient.Close()
	}()

	store := jobstore.NewRedisStore(redisClient, cfg.JobTTL)
	queue := jobstore.NewRedisQueue(redisClient, "job_queue")

	var archive domain.JobArchive
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("worker: database unreachable, job archive disabled")
		} else {
			defer pool.Close()
			archive = repo.NewJobArchive(pool)
		}
	}

	publisher, err := storage.NewFilePublisher(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	eng := engine.New(store, queue, nil, logger)
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

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
