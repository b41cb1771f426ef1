// Command seed_demo creates a demo catalog: a handful of works fed through
// the ingest pipeline, plus a demo user with a mylist, a playlist and some
// tag edits.
// Usage: go run ./cmd/seed_demo [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"gorm.io/gorm/logger"

	"github.com/yodhcn/kikoeru-express/internal/audit"
	"github.com/yodhcn/kikoeru-express/internal/database"
	"github.com/yodhcn/kikoeru-express/internal/ingest"
	"github.com/yodhcn/kikoeru-express/internal/logging"
)

const (
	defaultDemoDatabasePath = "./demo/demo.db"
	demoUser                = "demo"
)

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	l := logging.New(os.Stderr, "info")
	log.SetDefault(l)
	l.Info("generating demo database", "path", *dbPath)

	// Delete existing demo database to start fresh
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(*dbPath + suffix); err != nil && !os.IsNotExist(err) {
			l.Fatal("failed to remove existing demo database", "err", err)
		}
	}

	db, err := database.NewDatabase(database.Options{
		Path:     *dbPath,
		LogLevel: logger.Silent,
		Logger:   l,
	})
	if err != nil {
		l.Fatal("failed to create database", "err", err)
	}
	defer db.Close()

	auditService := audit.NewService(db.Audit, l)
	defer auditService.Wait()

	ctx := context.Background()
	pipeline := ingest.NewPipeline(db.Catalog, ingest.WithRecorder(auditService), ingest.WithLogger(l))
	result, err := pipeline.Ingest(ctx, demoWorks())
	if err != nil {
		l.Fatal("ingest failed", "err", err)
	}
	for _, f := range result.Failed {
		l.Warn("demo work rejected", "work", f.WorkID, "err", f.Error)
	}

	if err := seedUser(ctx, db); err != nil {
		l.Fatal("failed to seed demo user", "err", err)
	}

	l.Info("demo database generated", "works", result.Stored)
}

func seedUser(ctx context.Context, db *database.Database) error {
	if err := db.Users.EnsureUser(ctx, demoUser); err != nil {
		return err
	}

	favs, err := db.Mylists.Create(ctx, demoUser, "Favourites")
	if err != nil {
		return err
	}
	for _, id := range []uint{100003, 100001} {
		if err := db.Mylists.AddWork(ctx, demoUser, favs.ID, id); err != nil {
			return err
		}
	}

	sleep, err := db.Playlists.Create(ctx, demoUser, "Before sleep")
	if err != nil {
		return err
	}
	for _, id := range []uint{100002, 100004, 100001} {
		if err := db.Playlists.AddWork(ctx, demoUser, sleep.ID, id); err != nil {
			return err
		}
	}

	// The demo user thinks the rain track is really ASMR.
	if err := db.Tags.AttachGlobalTag(ctx, demoUser, 100002, 1); err != nil {
		return err
	}
	for _, id := range []uint{100002, 100004} {
		if _, err := db.Tags.AttachUserTag(ctx, demoUser, id, "sleep"); err != nil {
			return err
		}
	}
	return nil
}

func nsfw(v bool) *bool { return &v }

func demoWorks() []ingest.RawWork {
	asmr := ingest.RawTag{ID: 1, Name: "ASMR", Category: "genre"}
	binaural := ingest.RawTag{ID: 2, Name: "Binaural", Category: "technique"}
	healing := ingest.RawTag{ID: 3, Name: "Healing", Category: "genre"}
	ambience := ingest.RawTag{ID: 4, Name: "Ambience", Category: "genre"}

	moonlit := ingest.RawNamed{ID: 10, Name: "Moonlit Studio"}
	harbor := ingest.RawNamed{ID: 11, Name: "Harbor Lights"}
	walks := &ingest.RawNamed{ID: 20, Name: "Night Walks"}

	return []ingest.RawWork{
		{
			ID: 100001, Title: "Night Walk by the River", Circle: moonlit, Series: walks,
			Tags:        []ingest.RawTag{asmr, binaural},
			VoiceActors: []ingest.RawVoiceActor{{Name: "Aoi Tsukishiro"}},
			NSFW:        nsfw(false), Release: "2024-05-01",
			DLCount: 1532, Price: 990, ReviewCount: 41, RateCount: 210, RateAverage: 4.61, RateAverage2DP: 4.61,
		},
		{
			ID: 100002, Title: "Rain on the Tin Roof", Circle: moonlit,
			Tags:        []ingest.RawTag{ambience},
			NSFW:        nsfw(false), Release: "2023-01-10",
			DLCount: 804, Price: 550, ReviewCount: 12, RateCount: 96, RateAverage: 4.35, RateAverage2DP: 4.35,
		},
		{
			ID: 100003, Title: "Night Walk: Winter Harbor", Circle: moonlit, Series: walks,
			Tags:        []ingest.RawTag{asmr, healing},
			VoiceActors: []ingest.RawVoiceActor{{Name: "Aoi Tsukishiro"}, {Name: "Ren Hoshino"}},
			AgeRatings:  "R15", Release: "2024-12-20",
			DLCount: 2310, Price: 1320, ReviewCount: 77, RateCount: 388, RateAverage: 4.78, RateAverage2DP: 4.78,
		},
		{
			ID: 100004, Title: "Lighthouse Keeper's Lullaby", Circle: harbor,
			Tags:        []ingest.RawTag{healing, binaural},
			VoiceActors: []ingest.RawVoiceActor{{Name: "Ren Hoshino"}},
			NSFW:        nsfw(false), Release: "2022-08-15",
			DLCount: 450, Price: 770, ReviewCount: 9, RateCount: 61, RateAverage: 4.12, RateAverage2DP: 4.12,
		},
	}
}
