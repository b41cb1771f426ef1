package tasks

import (
	"time"

	"github.com/mikestefanello/backlite"
)

// Queue names.
const (
	QueueIngestWork        = "ingest_work"
	QueueUpdateWorkMetrics = "update_work_metrics"
	QueueRemoveWork        = "remove_work"
	QueueCleanupAudit      = "cleanup_audit_events"
	QueueScanOrphans       = "scan_orphans"
)

// Config holds configuration for the task queue system. The retry, timeout
// and retention fields are upper bounds applied to every registered queue.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 2
	Workers int

	// MaxRetries caps the attempts of any queue. Default: 3
	MaxRetries int

	// RetryDelay caps the backoff between attempts. Default: 5m
	RetryDelay time.Duration

	// TaskTimeout caps the execution time of a single task. Default: 5m
	TaskTimeout time.Duration

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration

	// RetentionDuration caps how long finished tasks are kept. Default: 7d
	RetentionDuration time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        5 * time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 7 * 24 * time.Hour,
	}
}

// queueDefaults describes how one queue retries and what it keeps.
type queueDefaults struct {
	attempts  int
	backoff   time.Duration
	timeout   time.Duration
	retention time.Duration
	// keepSucceeded retains finished tasks too, not only failed ones.
	keepSucceeded bool
}

var defaultQueues = map[string]queueDefaults{
	QueueIngestWork:        {attempts: 3, backoff: 30 * time.Second, timeout: 5 * time.Minute, retention: 24 * time.Hour, keepSucceeded: true},
	QueueUpdateWorkMetrics: {attempts: 3, backoff: 30 * time.Second, timeout: time.Minute, retention: 24 * time.Hour},
	QueueRemoveWork:        {attempts: 3, backoff: 10 * time.Second, timeout: time.Minute, retention: 7 * 24 * time.Hour, keepSucceeded: true},
	QueueCleanupAudit:      {attempts: 3, backoff: 5 * time.Minute, timeout: 2 * time.Minute, retention: 24 * time.Hour, keepSucceeded: true},
	QueueScanOrphans:       {attempts: 1, backoff: time.Minute, timeout: time.Minute, retention: 24 * time.Hour, keepSucceeded: true},
}

// queueConfig builds the backlite configuration of a named queue.
func queueConfig(name string) backlite.QueueConfig {
	d, ok := defaultQueues[name]
	if !ok {
		d = queueDefaults{attempts: 1, backoff: time.Minute, timeout: time.Minute, retention: 24 * time.Hour}
	}
	return backlite.QueueConfig{
		Name:        name,
		MaxAttempts: d.attempts,
		Backoff:     d.backoff,
		Timeout:     d.timeout,
		Retention: &backlite.Retention{
			Duration:   d.retention,
			OnlyFailed: !d.keepSucceeded,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// limit clamps a queue configuration to the client-wide bounds. Zero
// bounds are ignored.
func (c Config) limit(qc *backlite.QueueConfig) {
	if c.MaxRetries > 0 && qc.MaxAttempts > c.MaxRetries {
		qc.MaxAttempts = c.MaxRetries
	}
	if c.RetryDelay > 0 && qc.Backoff > c.RetryDelay {
		qc.Backoff = c.RetryDelay
	}
	if c.TaskTimeout > 0 && qc.Timeout > c.TaskTimeout {
		qc.Timeout = c.TaskTimeout
	}
	if c.RetentionDuration > 0 && qc.Retention != nil && qc.Retention.Duration > c.RetentionDuration {
		qc.Retention.Duration = c.RetentionDuration
	}
}
