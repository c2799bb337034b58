package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Worker wraps the Asynq server and optional scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts     asynq.RedisClientOpt
	Logger        *slog.Logger
	Reconcile     *ReconcileHandler
	ReconcileCron string
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 2,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.Handle(TaskRolesReconcile, cfg.Reconcile)

	var scheduler *asynq.Scheduler
	if cfg.ReconcileCron != "" {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		task, err := NewReconcileTask(ReconcilePayload{})
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(cfg.ReconcileCron, task, asynq.Queue(QueueDefault)); err != nil {
			return nil, err
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}

	<-ctx.Done()
	w.logger.Info("stopping worker")
	w.server.Shutdown()
	if w.scheduler != nil {
		w.scheduler.Shutdown()
	}
	return nil
}
