package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/yodhcn/kikoeru-express/internal/audit"
	"github.com/yodhcn/kikoeru-express/internal/database"
	"github.com/yodhcn/kikoeru-express/internal/database/catalog"
	"github.com/yodhcn/kikoeru-express/internal/database/collections"
	"github.com/yodhcn/kikoeru-express/internal/database/query"
	"github.com/yodhcn/kikoeru-express/internal/database/tags"
	"github.com/yodhcn/kikoeru-express/internal/database/users"
	"github.com/yodhcn/kikoeru-express/internal/http"
	"github.com/yodhcn/kikoeru-express/internal/ingest"
	"github.com/yodhcn/kikoeru-express/internal/scheduler"
	"github.com/yodhcn/kikoeru-express/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.WorkLister = (*query.Composer)(nil)
var _ http.WorkStore = (*catalog.Repository)(nil)
var _ http.TagStore = (*tags.Repository)(nil)
var _ http.CollectionStore = (*collections.Repository)(nil)
var _ http.UserEnsurer = (*users.Repository)(nil)
var _ http.HealthStore = (*database.Database)(nil)

// =============================================================================
// Ingestion
// =============================================================================

var _ ingest.Store = (*catalog.Repository)(nil)
var _ ingest.Recorder = (*audit.Service)(nil)
var _ ingest.Archiver = (*audit.Auditor)(nil)
var _ http.Ingester = (*ingest.Pipeline)(nil)
var _ scheduler.FileIngester = (*ingest.Pipeline)(nil)

// =============================================================================
// Audit
// =============================================================================

var _ http.AuditReader = (*audit.Service)(nil)
var _ http.Recorder = (*audit.Service)(nil)

// =============================================================================
// Task Queues
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ tasks.Ingester = (*ingest.Pipeline)(nil)
var _ tasks.MetricsUpdater = (*catalog.Repository)(nil)
var _ tasks.MetricsRecorder = (*audit.Service)(nil)
var _ tasks.WorkRemover = (*catalog.Repository)(nil)
var _ tasks.RemovalRecorder = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.OrphanScanner = (*database.Database)(nil)
