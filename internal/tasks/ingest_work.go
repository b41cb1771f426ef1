package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mikestefanello/backlite"

	"github.com/yodhcn/kikoeru-express/internal/ingest"
	"github.com/yodhcn/kikoeru-express/internal/logging"
)

// Ingester stores batches of scraped works.
type Ingester interface {
	Ingest(ctx context.Context, works []ingest.RawWork) (ingest.Result, error)
}

// IngestWorkTask stores a batch of scraped works in the background.
type IngestWorkTask struct {
	Works []ingest.RawWork `json:"works"`
}

// Config returns the queue configuration for ingestion tasks.
func (t IngestWorkTask) Config() backlite.QueueConfig {
	return queueConfig(QueueIngestWork)
}

// IngestWorkProcessor creates a processor function for IngestWorkTask.
// Rejected records are logged; only a batch-level failure is retried.
func IngestWorkProcessor(ingester Ingester, logger *log.Logger) backlite.QueueProcessor[IngestWorkTask] {
	logger = logging.With(logger, "queue", QueueIngestWork)
	return func(ctx context.Context, task IngestWorkTask) error {
		if ingester == nil {
			return fmt.Errorf("ingester not configured")
		}

		result, err := ingester.Ingest(ctx, task.Works)
		if err != nil {
			return fmt.Errorf("ingest %d works: %w", len(task.Works), err)
		}

		for _, f := range result.Failed {
			logger.Warn("work rejected", "batch", result.BatchID, "work", f.WorkID, "err", f.Error)
		}
		logger.Info("ingested works", "batch", result.BatchID, "stored", result.Stored, "received", result.Received)
		return nil
	}
}

// NewIngestWorkQueue creates a backlite queue for ingestion tasks.
func NewIngestWorkQueue(ingester Ingester, logger *log.Logger) backlite.Queue {
	return backlite.NewQueue(IngestWorkProcessor(ingester, logger))
}
