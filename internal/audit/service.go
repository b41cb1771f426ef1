package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yodhcn/kikoeru-express/internal/database/audit"
	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/logging"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo   *audit.Repository
	logger *log.Logger
	wg     sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, logger *log.Logger) *Service {
	return &Service{repo: repo, logger: logging.With(logger, "component", "audit")}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			s.logger.Error("failed to log audit event", "action", event.Action, "err", err)
		}
	}()
}

// Wait blocks until every pending asynchronous event is written.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogIngest records the outcome of ingesting one work.
func (s *Service) LogIngest(batchID string, workID uint, title string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventIngest,
		Action:      "work_ingest",
		Description: fmt.Sprintf("Ingested RJ%06d %s", workID, title),
		EntityType:  "work",
		EntityID:    &workID,
		Metadata:    encode(map[string]any{"batch_id": batchID}),
	}
	s.LogAsync(withResult(event, err))
}

// LogRemove records a work removal with the shared entities it collected.
func (s *Service) LogRemove(userName string, workID uint, collections int, orphans int64, err error) {
	event := &entities.AuditEvent{
		UserName:    userName,
		EventType:   entities.AuditEventRemove,
		Action:      "work_remove",
		Description: fmt.Sprintf("Removed RJ%06d", workID),
		EntityType:  "work",
		EntityID:    &workID,
		Metadata: encode(map[string]any{
			"collections": collections,
			"orphans":     orphans,
		}),
	}
	s.LogAsync(withResult(event, err))
}

// LogMetrics records a dynamic metrics refresh.
func (s *Service) LogMetrics(workID uint, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMetrics,
		Action:      "work_metrics",
		Description: fmt.Sprintf("Refreshed metrics of RJ%06d", workID),
		EntityType:  "work",
		EntityID:    &workID,
	}
	s.LogAsync(withResult(event, err))
}

// LogTagSync records a global tag definition sync.
func (s *Service) LogTagSync(received int, updated int64, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventTagSync,
		Action:      "tag_sync",
		Description: fmt.Sprintf("Synced %d of %d tag definitions", updated, received),
		Metadata:    encode(map[string]any{"received": received, "updated": updated}),
	}
	s.LogAsync(withResult(event, err))
}

// LogCollection records a mylist or playlist change.
func (s *Service) LogCollection(userName, kind, action string, id uint, err error) {
	event := &entities.AuditEvent{
		UserName:    userName,
		EventType:   entities.AuditEventCollection,
		Action:      kind + "_" + action,
		Description: fmt.Sprintf("%s %s %d", action, kind, id),
		EntityType:  kind,
		EntityID:    &id,
	}
	s.LogAsync(withResult(event, err))
}

// LogUser records an account change.
func (s *Service) LogUser(userName, action string, err error) {
	event := &entities.AuditEvent{
		UserName:    userName,
		EventType:   entities.AuditEventUser,
		Action:      "user_" + action,
		Description: fmt.Sprintf("%s user %s", action, userName),
		EntityType:  "user",
	}
	s.LogAsync(withResult(event, err))
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, q audit.Query) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, q)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func withResult(event *entities.AuditEvent, err error) *entities.AuditEvent {
	event.Status = entities.AuditStatusSuccess
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	return event
}

func encode(metadata map[string]any) string {
	b, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
