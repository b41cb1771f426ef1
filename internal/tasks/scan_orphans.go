package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mikestefanello/backlite"

	"github.com/yodhcn/kikoeru-express/internal/database/orphans"
	"github.com/yodhcn/kikoeru-express/internal/logging"
)

// OrphanScanner counts shared entities that lost their last reference.
type OrphanScanner interface {
	ScanOrphans(ctx context.Context) (orphans.Report, error)
}

// ScanOrphansTask checks the store for circles, series, voice actors and
// tags that outlived every work referencing them. Removals collect these
// in the same transaction, so any hit points at a bug or a manual edit.
type ScanOrphansTask struct{}

// Config returns the queue configuration for orphan scans.
func (t ScanOrphansTask) Config() backlite.QueueConfig {
	return queueConfig(QueueScanOrphans)
}

// ScanOrphansProcessor creates a processor function for ScanOrphansTask.
func ScanOrphansProcessor(scanner OrphanScanner, logger *log.Logger) backlite.QueueProcessor[ScanOrphansTask] {
	logger = logging.With(logger, "queue", QueueScanOrphans)
	return func(ctx context.Context, task ScanOrphansTask) error {
		if scanner == nil {
			return fmt.Errorf("orphan scanner not configured")
		}

		report, err := scanner.ScanOrphans(ctx)
		if err != nil {
			return fmt.Errorf("scan orphans: %w", err)
		}

		if report.Total() > 0 {
			logger.Warn("unreferenced entities found",
				"circles", report.Circles,
				"series", report.Series,
				"voice_actors", report.VoiceActors,
				"dlsite_tags", report.DlsiteTags,
				"user_tags", report.UserTags)
			return nil
		}
		logger.Info("no unreferenced entities")
		return nil
	}
}

// NewScanOrphansQueue creates a backlite queue for orphan scans.
func NewScanOrphansQueue(scanner OrphanScanner, logger *log.Logger) backlite.Queue {
	return backlite.NewQueue(ScanOrphansProcessor(scanner, logger))
}
