package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mikestefanello/backlite"

	"github.com/yodhcn/kikoeru-express/internal/database/catalog"
	"github.com/yodhcn/kikoeru-express/internal/logging"
)

// WorkRemover deletes a work and collects what it leaves unreferenced.
type WorkRemover interface {
	RemoveWork(ctx context.Context, id uint) (catalog.RemoveReport, error)
}

// RemovalRecorder audits work removals.
type RemovalRecorder interface {
	LogRemove(userName string, workID uint, collections int, orphans int64, err error)
}

// RemoveWorkTask removes one work in the background.
type RemoveWorkTask struct {
	WorkID   uint   `json:"work_id"`
	UserName string `json:"user_name,omitempty"`
}

// Config returns the queue configuration for removal tasks.
func (t RemoveWorkTask) Config() backlite.QueueConfig {
	return queueConfig(QueueRemoveWork)
}

// RemoveWorkProcessor creates a processor function for RemoveWorkTask.
// Removing a work that is already gone succeeds.
func RemoveWorkProcessor(remover WorkRemover, recorder RemovalRecorder, logger *log.Logger) backlite.QueueProcessor[RemoveWorkTask] {
	logger = logging.With(logger, "queue", QueueRemoveWork)
	return func(ctx context.Context, task RemoveWorkTask) error {
		if remover == nil {
			return fmt.Errorf("work remover not configured")
		}

		report, err := remover.RemoveWork(ctx, task.WorkID)
		if err == nil && !report.Removed {
			logger.Info("work already removed", "work", task.WorkID)
			return nil
		}
		if recorder != nil {
			recorder.LogRemove(task.UserName, task.WorkID, report.Collections, report.Orphans.Total(), err)
		}
		if err != nil {
			return fmt.Errorf("remove work %d: %w", task.WorkID, err)
		}

		logger.Info("work removed",
			"work", task.WorkID,
			"collections", report.Collections,
			"orphans", report.Orphans.Total())
		return nil
	}
}

// NewRemoveWorkQueue creates a backlite queue for removal tasks.
func NewRemoveWorkQueue(remover WorkRemover, recorder RemovalRecorder, logger *log.Logger) backlite.Queue {
	return backlite.NewQueue(RemoveWorkProcessor(remover, recorder, logger))
}
