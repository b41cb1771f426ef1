package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

const defaultLimit = 50

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Query narrows an event listing. Zero fields match everything.
type Query struct {
	UserName  string
	EventType entities.AuditEventType
	Limit     int
	Offset    int
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(ctx context.Context, event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return storeerr.Classify("log audit event", r.db.WithContext(ctx).Create(event).Error)
}

// GetEvents retrieves paginated audit events, most recent first.
func (r *Repository) GetEvents(ctx context.Context, q Query) ([]entities.AuditEvent, int64, error) {
	const op = "list audit events"
	filtered := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&entities.AuditEvent{})
		if q.UserName != "" {
			query = query.Where("user_name = ?", q.UserName)
		}
		if q.EventType != "" {
			query = query.Where("event_type = ?", q.EventType)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, storeerr.Classify(op, err)
	}

	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	events := []entities.AuditEvent{}
	err := filtered().Order("created_at DESC, id DESC").Limit(q.Limit).Offset(q.Offset).Find(&events).Error
	if err != nil {
		return nil, 0, storeerr.Classify(op, err)
	}
	return events, total, nil
}

// DeleteOldEvents removes audit events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, storeerr.Classify("delete old audit events", result.Error)
}

// GetEventByID retrieves a single audit event by ID.
func (r *Repository) GetEventByID(ctx context.Context, id uint) (*entities.AuditEvent, error) {
	var event entities.AuditEvent
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, storeerr.Classify("get audit event", err)
	}
	return &event, nil
}
