// Package jobs wires background work through Asynq: currently the role
// reconciliation sweep, both cron-scheduled and enqueued on demand.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRolesReconcile backfills roles for users found with none.
	TaskRolesReconcile = "roles:reconcile"
)

// ReconcilePayload carries the cursor a sweep resumes from. Empty means the
// whole directory.
type ReconcilePayload struct {
	Cursor string `json:"cursor"`
}

// NewReconcileTask constructs the reconciliation task.
func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRolesReconcile, data), nil
}

// Enqueuer schedules tasks from the HTTP process.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer wraps an Asynq client.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueReconcile schedules a full sweep.
func (e *Enqueuer) EnqueueReconcile(ctx context.Context) error {
	task, err := NewReconcileTask(ReconcilePayload{})
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}
