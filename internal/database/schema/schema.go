// Package schema opens the catalog store and owns its table definitions.
package schema

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yodhcn/kikoeru-express/internal/entities"
)

// Models returns every persisted model in dependency order.
func Models() []any {
	return []any{
		&entities.User{},
		&entities.Circle{},
		&entities.Series{},
		&entities.VoiceActor{},
		&entities.DlsiteTag{},
		&entities.Work{},
		&entities.UserTag{},
		&entities.WorkDlsiteTag{},
		&entities.WorkVoiceActor{},
		&entities.TagOverride{},
		&entities.UserTagWork{},
		&entities.Mylist{},
		&entities.MylistWork{},
		&entities.Playlist{},
		&entities.PlaylistWork{},
		&entities.AuditEvent{},
	}
}

// DSN appends the connection options the store relies on: enforced foreign
// keys, WAL, a busy timeout and immediate write transactions so that
// concurrent writers serialize instead of failing on lock upgrade.
func DSN(path string) string {
	const opts = "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
	if strings.Contains(path, "?") {
		return path + "&" + opts
	}
	return path + "?" + opts
}

// Open connects to the SQLite file at path and migrates the schema.
func Open(path string, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(DSN(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// ParseLogLevel maps a config string to a gorm log level.
func ParseLogLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
