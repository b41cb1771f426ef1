package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yodhcn/kikoeru-express/internal/database/orphans"
	"github.com/yodhcn/kikoeru-express/internal/logging"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg, logging.Discard())
	require.NoError(t, err)
	require.NotNil(t, client)

	// Verify tasks database was created
	tasksDBPath := filepath.Join(tmpDir, "test-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestClientStartStop(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg, logging.Discard())
	require.NoError(t, err)
	defer client.Close()

	// Start client in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	// Stop should complete successfully
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

// scanSignal reports every orphan scan on a channel.
type scanSignal struct {
	report orphans.Report
	done   chan struct{}
}

func (s *scanSignal) ScanOrphans(context.Context) (orphans.Report, error) {
	s.done <- struct{}{}
	return s.report, nil
}

func TestClient_ProcessesScanOrphans(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg, logging.Discard())
	require.NoError(t, err)
	defer client.Close()

	scanner := &scanSignal{report: orphans.Report{Circles: 1}, done: make(chan struct{}, 1)}
	client.Register(NewScanOrphansQueue(scanner, logging.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	ids, err := client.Add(ScanOrphansTask{}).Save()
	require.NoError(t, err)
	require.Len(t, ids, 1)

	select {
	case <-scanner.done:
	case <-time.After(5 * time.Second):
		t.Fatal("scan was not executed within timeout")
	}

	assert.Eventually(t, func() bool {
		status, err := client.Status(context.Background(), ids[0])
		return err == nil && status == backlite.TaskStatusSuccess
	}, 5*time.Second, 20*time.Millisecond)
}

func TestClient_RegisterClampsQueueConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.MaxRetries = 2
	cfg.RetryDelay = 15 * time.Second
	cfg.TaskTimeout = 30 * time.Second
	cfg.RetentionDuration = time.Hour

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), cfg, logging.Discard())
	require.NoError(t, err)
	defer client.Close()

	queue := NewCleanupAuditEventsQueue(nil, logging.Discard())
	client.Register(queue)

	qc := queue.Config()
	assert.Equal(t, QueueCleanupAudit, qc.Name)
	assert.Equal(t, 2, qc.MaxAttempts)
	assert.Equal(t, 15*time.Second, qc.Backoff)
	assert.Equal(t, 30*time.Second, qc.Timeout)
	assert.Equal(t, time.Hour, qc.Retention.Duration)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.RetryDelay)
	assert.Equal(t, 5*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.RetentionDuration)
}

func TestDefaultConfig_LeavesQueueDefaultsIntact(t *testing.T) {
	cfg := DefaultConfig()
	for name := range defaultQueues {
		qc := queueConfig(name)
		before := *qc.Retention
		cfg.limit(&qc)

		assert.Equal(t, defaultQueues[name].attempts, qc.MaxAttempts, name)
		assert.Equal(t, defaultQueues[name].backoff, qc.Backoff, name)
		assert.Equal(t, defaultQueues[name].timeout, qc.Timeout, name)
		assert.Equal(t, before, *qc.Retention, name)
	}
}
