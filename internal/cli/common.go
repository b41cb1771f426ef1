// Package cli implements the one-shot maintenance commands of the binary.
// Each command parses its own flags, opens the catalog store, does one thing
// and exits.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/yodhcn/kikoeru-express/internal/audit"
	"github.com/yodhcn/kikoeru-express/internal/config"
	"github.com/yodhcn/kikoeru-express/internal/database"
	"github.com/yodhcn/kikoeru-express/internal/database/schema"
	"github.com/yodhcn/kikoeru-express/internal/logging"
)

// session is an open store plus the audit service writing to it.
type session struct {
	db     *database.Database
	audit  *audit.Service
	logger *log.Logger
}

func openSession(cfg *config.Config, dbPath string, verbose bool) (*session, error) {
	level := cfg.Global.LogLevel
	if verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level)

	db, err := database.NewDatabase(database.Options{
		Path:       dbPath,
		LogLevel:   schema.ParseLogLevel(cfg.Database.LogLevel),
		PageSize:   cfg.Catalog.PageSize,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &session{db: db, audit: audit.NewService(db.Audit, logger), logger: logger}, nil
}

// Close flushes pending audit events and closes the store.
func (s *session) Close() {
	s.audit.Wait()
	if err := s.db.Close(); err != nil {
		s.logger.Error("error closing database", "err", err)
	}
}

func output(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
