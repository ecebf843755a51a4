package bootstrap

import (
	"context"
	"fmt"

	"github.com/planlens/roomscan/internal/config"
	"github.com/planlens/roomscan/internal/core/ports"
	"github.com/planlens/roomscan/internal/core/usecase"
	"github.com/planlens/roomscan/internal/detect"
	"github.com/planlens/roomscan/internal/infrastructure/queue/nats"
	"github.com/planlens/roomscan/internal/infrastructure/repository/postgres"
	"github.com/planlens/roomscan/internal/infrastructure/resilience"
	"github.com/planlens/roomscan/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue      *nats.Queue
	Repo       ports.JobRepository
	SubmitUC   ports.JobSubmitter
	Lifecycle  *usecase.JobLifecycleManager
	Dispatcher ports.UploadSignalHandler

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewJobRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init blob storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init signal queue: %w", err)
	}

	detector := detect.NewService(detect.PreprocessOptions{
		ThresholdWindow: cfg.ThresholdWindow,
		ThresholdBias:   cfg.ThresholdBias,
	})

	submitUC := usecase.NewSubmitJobUseCase(repo, storage, queue)
	lifecycle := usecase.NewJobLifecycleManager(repo, storage, detector, cfg.JobMaxAttempts)
	dispatcher := usecase.NewDispatcher(repo, lifecycle)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		SubmitUC:   submitUC,
		Lifecycle:  lifecycle,
		Dispatcher: dispatcher,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
