package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mikestefanello/backlite"

	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/ingest"
	"github.com/yodhcn/kikoeru-express/internal/logging"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

// MetricsUpdater replaces the popularity metrics of a work.
type MetricsUpdater interface {
	UpdateWorkDynamicMetrics(ctx context.Context, id uint, metrics entities.WorkMetrics) error
}

// MetricsRecorder audits metrics refreshes.
type MetricsRecorder interface {
	LogMetrics(workID uint, err error)
}

// UpdateWorkMetricsTask refreshes the dynamic metrics of one work.
type UpdateWorkMetricsTask struct {
	WorkID  uint              `json:"work_id"`
	Metrics ingest.RawMetrics `json:"metrics"`
}

// Config returns the queue configuration for metrics refresh tasks.
func (t UpdateWorkMetricsTask) Config() backlite.QueueConfig {
	return queueConfig(QueueUpdateWorkMetrics)
}

// UpdateWorkMetricsProcessor creates a processor function for UpdateWorkMetricsTask.
// A work that no longer exists is not retried.
func UpdateWorkMetricsProcessor(updater MetricsUpdater, recorder MetricsRecorder, logger *log.Logger) backlite.QueueProcessor[UpdateWorkMetricsTask] {
	logger = logging.With(logger, "queue", QueueUpdateWorkMetrics)
	return func(ctx context.Context, task UpdateWorkMetricsTask) error {
		if updater == nil {
			return fmt.Errorf("metrics updater not configured")
		}

		err := updater.UpdateWorkDynamicMetrics(ctx, task.WorkID, task.Metrics.Metrics())
		if recorder != nil {
			recorder.LogMetrics(task.WorkID, err)
		}
		if errors.Is(err, storeerr.ErrNotFound) {
			logger.Warn("work gone, metrics dropped", "work", task.WorkID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("update metrics of %d: %w", task.WorkID, err)
		}

		logger.Debug("metrics updated", "work", task.WorkID)
		return nil
	}
}

// NewUpdateWorkMetricsQueue creates a backlite queue for metrics refresh tasks.
func NewUpdateWorkMetricsQueue(updater MetricsUpdater, recorder MetricsRecorder, logger *log.Logger) backlite.Queue {
	return backlite.NewQueue(UpdateWorkMetricsProcessor(updater, recorder, logger))
}
