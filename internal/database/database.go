package database

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yodhcn/kikoeru-express/internal/database/audit"
	"github.com/yodhcn/kikoeru-express/internal/database/catalog"
	"github.com/yodhcn/kikoeru-express/internal/database/collections"
	"github.com/yodhcn/kikoeru-express/internal/database/orphans"
	"github.com/yodhcn/kikoeru-express/internal/database/query"
	"github.com/yodhcn/kikoeru-express/internal/database/schema"
	"github.com/yodhcn/kikoeru-express/internal/database/tags"
	"github.com/yodhcn/kikoeru-express/internal/database/users"
	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/logging"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

// Options configures a Database.
type Options struct {
	Path       string
	LogLevel   logger.LogLevel
	PageSize   int
	BcryptCost int
	Logger     *log.Logger
}

// Database owns the catalog store connection and the repositories built on
// top of it.
type Database struct {
	DB *gorm.DB

	Catalog   *catalog.Repository
	Tags      *tags.Repository
	Mylists   *collections.Repository
	Playlists *collections.Repository
	Query     *query.Composer
	Users     *users.Repository
	Audit     *audit.Repository
}

// NewDatabase opens the store, migrates the schema and seeds the built-in
// administrator account.
func NewDatabase(opts Options) (*Database, error) {
	db, err := schema.Open(opts.Path, opts.LogLevel)
	if err != nil {
		return nil, err
	}

	database := New(db, opts.PageSize, opts.BcryptCost)
	if err := database.Users.EnsureUser(context.Background(), entities.DefaultUsername); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to seed default user: %w", err)
	}

	logging.With(opts.Logger).Info("database initialized", "path", opts.Path)
	return database, nil
}

// New composes the repositories around an already migrated connection.
func New(db *gorm.DB, pageSize, bcryptCost int) *Database {
	return &Database{
		DB:        db,
		Catalog:   catalog.NewRepository(db),
		Tags:      tags.NewRepository(db),
		Mylists:   collections.NewRepository(db, collections.Mylist),
		Playlists: collections.NewRepository(db, collections.Playlist),
		Query:     query.NewComposer(db, pageSize),
		Users:     users.NewRepository(db, bcryptCost),
		Audit:     audit.NewRepository(db),
	}
}

// Collections returns the repository for the given collection kind.
func (d *Database) Collections(kind collections.Kind) *collections.Repository {
	if kind == collections.Playlist {
		return d.Playlists
	}
	return d.Mylists
}

// Ping checks that the store answers.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ScanOrphans counts shared entities that no work references any more.
func (d *Database) ScanOrphans(ctx context.Context) (orphans.Report, error) {
	report, err := orphans.Scan(d.DB.WithContext(ctx))
	if err != nil {
		return report, storeerr.Classify("scan orphans", err)
	}
	return report, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
