package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/yodhcn/kikoeru-express/internal/database/audit"
	"github.com/yodhcn/kikoeru-express/internal/database/schema"
	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/logging"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := schema.Open(filepath.Join(t.TempDir(), "audit.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewService(auditRepo.NewRepository(db), logging.Discard()), db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		UserName:  "alice",
		EventType: entities.AuditEventCollection,
		Action:    "mylist_create",
		Status:    entities.AuditStatusSuccess,
	}
	require.NoError(t, svc.Log(context.Background(), event))

	var saved entities.AuditEvent
	require.NoError(t, db.First(&saved, event.ID).Error)
	assert.Equal(t, "mylist_create", saved.Action)
}

func TestService_LogIngest(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful ingest", func(t *testing.T) {
		svc.LogIngest("batch-1", 100001, "Work", nil)
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ? AND entity_id = ?", "work_ingest", 100001).First(&event).Error)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Contains(t, event.Description, "RJ100001")
		assert.Contains(t, event.Metadata, "batch-1")
	})

	t.Run("failed ingest", func(t *testing.T) {
		svc.LogIngest("batch-2", 100002, "Broken", errors.New("circle id is required"))
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ? AND entity_id = ?", "work_ingest", 100002).First(&event).Error)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Equal(t, "circle id is required", event.ErrorMsg)
	})
}

func TestService_LogRemoveAndCollection(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	svc.LogRemove("admin", 100001, 2, 3, nil)
	svc.LogCollection("alice", "playlist", "delete", 7, nil)
	svc.LogUser("bob", "create", nil)
	svc.Wait()

	events, total, err := svc.GetEvents(ctx, auditRepo.Query{EventType: entities.AuditEventRemove})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Contains(t, events[0].Metadata, `"orphans":3`)

	events, _, err = svc.GetEvents(ctx, auditRepo.Query{UserName: "alice"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "playlist_delete", events[0].Action)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{Action: "old", CreatedAt: time.Now().Add(-40 * 24 * time.Hour)}))
	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{Action: "new"}))

	deleted, err := svc.DeleteOldEvents(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmno", 10))
}
