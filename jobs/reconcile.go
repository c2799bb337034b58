package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/atrium-app/atrium/internal/observability"
	"github.com/atrium-app/atrium/internal/roles"
)

// ReconcileHandler runs the roles reconciliation sweep.
type ReconcileHandler struct {
	service    *roles.Service
	metrics    *observability.Metrics
	jobMetrics *Metrics
	logger     *slog.Logger
}

// NewReconcileHandler constructs the handler. Both metric sinks may be nil.
func NewReconcileHandler(service *roles.Service, metrics *observability.Metrics, jobMetrics *Metrics, logger *slog.Logger) *ReconcileHandler {
	return &ReconcileHandler{service: service, metrics: metrics, jobMetrics: jobMetrics, logger: logger}
}

// ProcessTask executes one sweep. The sweep is idempotent per user, so a
// retried task restarting from its original cursor never double-assigns.
func (h *ReconcileHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := h.jobMetrics.Track(TaskRolesReconcile)
	report, err := h.service.Reconcile(ctx, payload.Cursor)
	err = tracker.End(err)
	h.metrics.ObserveBackfills(report.Backfilled)
	if err != nil {
		h.logger.Warn("reconcile sweep interrupted",
			slog.Int("users_seen", report.UsersSeen),
			slog.Int("backfilled", report.Backfilled),
			slog.String("resume_cursor", report.NextCursor),
			slog.Any("error", err))
		return err
	}
	h.logger.Info("reconcile sweep complete",
		slog.Int("users_seen", report.UsersSeen),
		slog.Int("backfilled", report.Backfilled))
	return nil
}
