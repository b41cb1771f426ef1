package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/yodhcn/kikoeru-express/internal/ingest"
	"github.com/yodhcn/kikoeru-express/internal/logging"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// FileIngester ingests one scraper JSON file.
type FileIngester interface {
	IngestFile(ctx context.Context, path string) (ingest.Result, error)
}

// InboxConfig configures the inbox scanner.
type InboxConfig struct {
	InboxDir   string
	ArchiveDir string
	Schedule   string
}

// ScanResult summarizes one pass over the inbox.
type ScanResult struct {
	Files  int
	Stored int
	Failed []string
}

// InboxScheduler periodically ingests scraper JSON files dropped into the
// inbox directory. Processed files move to the archive directory; files that
// cannot be read go to its failed/ subdirectory.
type InboxScheduler struct {
	ingester FileIngester
	config   InboxConfig
	logger   *log.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	scanMu     sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewInboxScheduler creates a new scheduler instance
func NewInboxScheduler(ingester FileIngester, cfg InboxConfig, logger *log.Logger) *InboxScheduler {
	return &InboxScheduler{
		ingester: ingester,
		config:   cfg,
		logger:   logging.With(logger, "component", "inbox"),
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start schedules inbox scans. It returns immediately.
func (s *InboxScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.config.InboxDir == "" {
		s.logger.Info("inbox directory not configured, scheduler disabled")
		return nil
	}
	if err := ValidateSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}
	if err := os.MkdirAll(s.config.InboxDir, 0o755); err != nil {
		return fmt.Errorf("create inbox directory: %w", err)
	}

	var scanCtx context.Context
	scanCtx, s.cancelFunc = context.WithCancel(ctx)

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		if _, err := s.ScanOnce(scanCtx); err != nil {
			s.logger.Error("inbox scan failed", "err", err)
		}
	})
	if err != nil {
		s.cancelFunc()
		return fmt.Errorf("failed to schedule inbox scan: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("inbox scheduler started",
		"schedule", s.config.Schedule,
		"dir", s.config.InboxDir,
		"next", s.cron.Entry(entryID).Next)

	go func() {
		<-scanCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running scan.
func (s *InboxScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron.Remove(s.entryID)

	s.isRunning = false
	s.cancelFunc = nil

	s.logger.Info("inbox scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *InboxScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next scan will occur.
func (s *InboxScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	t := s.cron.Entry(s.entryID).Next
	return &t
}

// ScanOnce ingests every *.json file currently in the inbox, oldest name first.
func (s *InboxScheduler) ScanOnce(ctx context.Context) (ScanResult, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	var result ScanResult
	files, err := filepath.Glob(filepath.Join(s.config.InboxDir, "*.json"))
	if err != nil {
		return result, fmt.Errorf("list inbox: %w", err)
	}
	sort.Strings(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Files++

		res, err := s.ingester.IngestFile(ctx, path)
		if err != nil {
			s.logger.Warn("inbox file rejected", "file", path, "err", err)
			result.Failed = append(result.Failed, path)
			if err := s.archive(path, "failed"); err != nil {
				return result, err
			}
			continue
		}
		result.Stored += res.Stored
		s.logger.Info("inbox file ingested",
			"file", filepath.Base(path),
			"batch", res.BatchID,
			"stored", res.Stored,
			"failed", len(res.Failed))
		if err := s.archive(path, ""); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *InboxScheduler) archive(path, sub string) error {
	dir := s.config.ArchiveDir
	if dir == "" {
		dir = filepath.Join(s.config.InboxDir, "processed")
	}
	if sub != "" {
		dir = filepath.Join(dir, sub)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	name := filepath.Base(path)
	target := filepath.Join(dir, name)
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(name)
		target = filepath.Join(dir, fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), time.Now().UnixNano(), ext))
	}
	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	return nil
}
