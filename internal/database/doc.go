// Package database provides the data access layer for the catalog.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, repository wiring, admin seeding
//	├── schema/          # Table definitions, DSN options, migrations
//	├── catalog/         # Work upsert, metrics refresh, removal, detail views
//	├── orphans/         # Reference counting of shared entities
//	├── collections/     # Mylists and playlists (ordered work lists)
//	├── tags/            # Per-user tag overrides and private user tags
//	├── query/           # Work listings, keyword search and label counts
//	├── users/           # User accounts
//	└── audit/           # Audit event log
//
// # Consistency
//
// Circles, series, voice actors and global tags exist only while at least
// one work (or, for global tags, one user override) references them. Every
// operation that can drop the last reference collects the orphan inside the
// same transaction. The orphans package holds the shared counting logic.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(database.Options{Path: "./kikoeru.db"})
//
//	err = db.Catalog.UpsertWork(ctx, md)
//	res, err := db.Query.Works(ctx, "admin", query.All(), query.Filter{}, query.DefaultPage())
//
// All repositories report failures through the storeerr kinds, so callers
// branch on storeerr.ErrNotFound, storeerr.ErrConflict and
// storeerr.ErrIntegrity rather than on driver errors.
package database
