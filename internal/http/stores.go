package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/yodhcn/kikoeru-express/internal/database/audit"
	"github.com/yodhcn/kikoeru-express/internal/database/catalog"
	"github.com/yodhcn/kikoeru-express/internal/database/orphans"
	"github.com/yodhcn/kikoeru-express/internal/database/query"
	"github.com/yodhcn/kikoeru-express/internal/database/tags"
	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/ingest"
)

// This file consolidates the store interfaces used by HTTP controllers.
// Each controller depends only on the methods it calls.

// WorkLister composes filtered work listings and label counts (works.go).
type WorkLister interface {
	Works(ctx context.Context, username string, src query.Source, f query.Filter, p query.Page) (*query.Result, error)
	Labels(ctx context.Context, username string, kind query.LabelKind) ([]query.Label, error)
}

// WorkStore reads and mutates single works (works.go).
type WorkStore interface {
	GetWork(ctx context.Context, username string, id uint) (*catalog.WorkDetail, error)
	GetWorkDetails(ctx context.Context, username string, ids []uint) ([]catalog.WorkDetail, error)
	RemoveWork(ctx context.Context, id uint) (catalog.RemoveReport, error)
	UpdateWorkDynamicMetrics(ctx context.Context, id uint, metrics entities.WorkMetrics) error
}

// TagStore resolves and edits per-user tag views (tags.go).
type TagStore interface {
	EffectiveTags(ctx context.Context, username string, workID uint) (*tags.EffectiveTags, error)
	AttachGlobalTag(ctx context.Context, username string, workID, tagID uint) error
	DetachGlobalTag(ctx context.Context, username string, workID, tagID uint) error
	AttachUserTag(ctx context.Context, username string, workID uint, name string) (*entities.UserTag, error)
	DetachUserTag(ctx context.Context, username string, workID, tagID uint) error
	ResetWork(ctx context.Context, username string, workID uint) error
	ListUserTags(ctx context.Context, username string) ([]entities.UserTag, error)
}

// CollectionStore manages one kind of ordered collection (collections.go).
type CollectionStore interface {
	Create(ctx context.Context, owner, name string) (*entities.Collection, error)
	Rename(ctx context.Context, owner string, id uint, name string) error
	Delete(ctx context.Context, owner string, id uint) error
	Get(ctx context.Context, owner string, id uint) (*entities.Collection, error)
	List(ctx context.Context, owner string) ([]entities.Collection, error)
	AddWork(ctx context.Context, owner string, id, workID uint) error
	RemoveWork(ctx context.Context, owner string, id, workID uint) error
	Reorder(ctx context.Context, owner string, id uint, order []uint) error
}

// Ingester stores scraped works synchronously (ingest.go).
type Ingester interface {
	Ingest(ctx context.Context, works []ingest.RawWork) (ingest.Result, error)
}

// UserEnsurer creates the user row an identity refers to (identity.go).
type UserEnsurer interface {
	EnsureUser(ctx context.Context, name string) error
}

// AuditReader lists audit events (audit.go).
type AuditReader interface {
	GetEvents(ctx context.Context, q audit.Query) ([]entities.AuditEvent, int64, error)
}

// Recorder receives audit events for user-initiated changes.
type Recorder interface {
	LogRemove(userName string, workID uint, collections int, orphans int64, err error)
	LogMetrics(workID uint, err error)
	LogCollection(userName, kind, action string, id uint, err error)
}

// HealthStore checks store connectivity and consistency (health.go).
type HealthStore interface {
	Ping(ctx context.Context) error
	ScanOrphans(ctx context.Context) (orphans.Report, error)
}

// TaskQueue enqueues background tasks and reports their status (tasks.go).
type TaskQueue interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// nopRecorder drops audit events when no audit service is configured.
type nopRecorder struct{}

func (nopRecorder) LogRemove(string, uint, int, int64, error)         {}
func (nopRecorder) LogMetrics(uint, error)                            {}
func (nopRecorder) LogCollection(string, string, string, uint, error) {}
