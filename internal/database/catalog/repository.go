// Package catalog stores works together with the circles, series, voice
// actors and global tags they share, and removes shared entities once the
// last work referencing them is gone.
//
// # Usage
//
//	repo := catalog.NewRepository(db)
//	err := repo.UpsertWork(ctx, metadata)
//	report, err := repo.RemoveWork(ctx, 100001)
package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yodhcn/kikoeru-express/internal/database/collections"
	"github.com/yodhcn/kikoeru-express/internal/database/orphans"
	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

// ErrOrphanCleanup marks a write whose orphan collection failed. The whole
// write, including the work deletion or upsert, is rolled back.
var ErrOrphanCleanup = errors.New("orphan cleanup failed")

// WorkMetadata is one normalized ingestion record.
type WorkMetadata struct {
	Work        entities.Work
	Circle      entities.Circle
	Series      *entities.Series
	Tags        []entities.DlsiteTag
	VoiceActors []entities.VoiceActor
}

// RemoveReport describes what a RemoveWork call changed.
type RemoveReport struct {
	Removed     bool           `json:"removed"`
	Collections int            `json:"collections"`
	Orphans     orphans.Report `json:"orphans"`
}

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertWork inserts a work and its shared entities in one transaction.
// Shared entities are inserted only when their id is new; the work row is
// overwritten; relation rows that already exist are kept. A circle or series
// the work no longer belongs to is collected once nothing else uses it.
func (r *Repository) UpsertWork(ctx context.Context, md WorkMetadata) error {
	const op = "upsert work"
	if err := validate(md); err != nil {
		return storeerr.Integrity(op, "%v", err)
	}

	work := md.Work
	work.CircleID = md.Circle.ID
	work.Circle = entities.Circle{}
	work.SeriesID = nil
	work.Series = nil
	if md.Series != nil {
		id := md.Series.ID
		work.SeriesID = &id
	}

	tags := uniqueTags(md.Tags)
	vas := uniqueVoiceActors(md.VoiceActors)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ignore := func() *gorm.DB {
			return tx.Clauses(clause.OnConflict{DoNothing: true})
		}

		circle := md.Circle
		if err := ignore().Create(&circle).Error; err != nil {
			return fmt.Errorf("insert circle %d: %w", circle.ID, err)
		}
		if md.Series != nil {
			series := *md.Series
			if err := ignore().Create(&series).Error; err != nil {
				return fmt.Errorf("insert series %d: %w", series.ID, err)
			}
		}
		if len(tags) > 0 {
			if err := ignore().Create(&tags).Error; err != nil {
				return fmt.Errorf("insert tags: %w", err)
			}
		}
		if len(vas) > 0 {
			if err := ignore().Create(&vas).Error; err != nil {
				return fmt.Errorf("insert voice actors: %w", err)
			}
		}

		var previous entities.Work
		found := tx.Select("id", "circle_id", "series_id").Where("id = ?", work.ID).Limit(1).Find(&previous)
		if found.Error != nil {
			return fmt.Errorf("read work %d: %w", work.ID, found.Error)
		}

		err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&work).Error
		if err != nil {
			return fmt.Errorf("insert work %d: %w", work.ID, err)
		}

		if found.RowsAffected > 0 {
			if _, err := orphans.Sweep(tx, replaced(&previous, &work)); err != nil {
				return fmt.Errorf("work %d: %w: %w", work.ID, ErrOrphanCleanup, err)
			}
		}

		if len(tags) > 0 {
			relations := make([]entities.WorkDlsiteTag, len(tags))
			for i, tag := range tags {
				relations[i] = entities.WorkDlsiteTag{TagID: tag.ID, WorkID: work.ID}
			}
			if err := ignore().Omit(clause.Associations).Create(&relations).Error; err != nil {
				return fmt.Errorf("insert tag relations: %w", err)
			}
		}
		if len(vas) > 0 {
			relations := make([]entities.WorkVoiceActor, len(vas))
			for i, va := range vas {
				relations[i] = entities.WorkVoiceActor{VoiceActorID: va.ID, WorkID: work.ID}
			}
			if err := ignore().Omit(clause.Associations).Create(&relations).Error; err != nil {
				return fmt.Errorf("insert voice actor relations: %w", err)
			}
		}
		return nil
	})
	return storeerr.Classify(op, err)
}

// UpdateWorkDynamicMetrics replaces the popularity metrics of a work.
func (r *Repository) UpdateWorkDynamicMetrics(ctx context.Context, id uint, metrics entities.WorkMetrics) error {
	const op = "update work metrics"
	result := r.db.WithContext(ctx).
		Model(&entities.Work{}).
		Where("id = ?", id).
		Select(entities.MetricColumns).
		Updates(&entities.Work{WorkMetrics: metrics})
	if result.Error != nil {
		return storeerr.Classify(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return storeerr.NotFound(op, "work %d does not exist", id)
	}
	return nil
}

// RemoveWork deletes a work, prunes it from every collection and collects
// the shared entities it was the last user of. Removing an absent work is a
// no-op.
func (r *Repository) RemoveWork(ctx context.Context, id uint) (RemoveReport, error) {
	const op = "remove work"
	var report RemoveReport

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var work entities.Work
		result := tx.Select("id", "circle_id", "series_id").Where("id = ?", id).Limit(1).Find(&work)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		candidates, err := captureCandidates(tx, &work)
		if err != nil {
			return err
		}
		refs, err := collections.Containing(tx, id)
		if err != nil {
			return err
		}

		for _, model := range []any{
			&entities.WorkDlsiteTag{},
			&entities.WorkVoiceActor{},
			&entities.TagOverride{},
			&entities.UserTagWork{},
		} {
			if err := tx.Where("work_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("delete relations of work %d: %w", id, err)
			}
		}

		if err := collections.PruneWork(tx, id, refs); err != nil {
			return err
		}

		if err := tx.Delete(&entities.Work{}, id).Error; err != nil {
			return fmt.Errorf("delete work %d: %w", id, err)
		}

		swept, err := orphans.Sweep(tx, candidates)
		if err != nil {
			return fmt.Errorf("work %d: %w: %w", id, ErrOrphanCleanup, err)
		}

		report = RemoveReport{Removed: true, Collections: len(refs), Orphans: swept}
		return nil
	})
	if err != nil {
		return RemoveReport{}, storeerr.Classify(op, err)
	}
	return report, nil
}

// WorkExists reports whether a work with the given id is stored.
func (r *Repository) WorkExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Work{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, storeerr.Classify("work exists", err)
	}
	return count > 0, nil
}

// SyncGlobalTags applies a batch of global tag definitions. Only tags that
// already exist are renamed or recategorized; unknown ids are skipped since
// a tag nothing references must not exist.
func (r *Repository) SyncGlobalTags(ctx context.Context, defs []entities.DlsiteTag) (int64, error) {
	var updated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range uniqueTags(defs) {
			result := tx.Model(&entities.DlsiteTag{}).
				Where("id = ?", def.ID).
				Updates(map[string]any{"name": def.Name, "category": def.Category})
			if result.Error != nil {
				return result.Error
			}
			updated += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, storeerr.Classify("sync global tags", err)
	}
	return updated, nil
}

// replaced lists the circle and series a rewritten work stopped pointing at.
func replaced(before, after *entities.Work) orphans.Candidates {
	var c orphans.Candidates
	if before.CircleID != after.CircleID {
		c.Circles = []uint{before.CircleID}
	}
	if before.SeriesID != nil && (after.SeriesID == nil || *before.SeriesID != *after.SeriesID) {
		c.Series = []uint{*before.SeriesID}
	}
	return c
}

func captureCandidates(tx *gorm.DB, work *entities.Work) (orphans.Candidates, error) {
	c := orphans.Candidates{Circles: []uint{work.CircleID}}
	if work.SeriesID != nil {
		c.Series = []uint{*work.SeriesID}
	}
	if err := tx.Model(&entities.WorkVoiceActor{}).
		Where("work_id = ?", work.ID).
		Pluck("voice_actor_id", &c.VoiceActors).Error; err != nil {
		return c, fmt.Errorf("capture voice actors: %w", err)
	}
	err := tx.Raw(`
		SELECT tag_id FROM work_dlsite_tags WHERE work_id = ?
		UNION
		SELECT tag_id FROM user_dlsite_tag_works WHERE work_id = ?
	`, work.ID, work.ID).Scan(&c.DlsiteTags).Error
	if err != nil {
		return c, fmt.Errorf("capture tags: %w", err)
	}
	if err := tx.Model(&entities.UserTagWork{}).
		Where("work_id = ?", work.ID).
		Distinct().
		Pluck("tag_id", &c.UserTags).Error; err != nil {
		return c, fmt.Errorf("capture user tags: %w", err)
	}
	return c, nil
}

func validate(md WorkMetadata) error {
	switch {
	case md.Work.ID == 0:
		return errors.New("work id is required")
	case md.Circle.ID == 0:
		return errors.New("circle id is required")
	case md.Series != nil && md.Series.ID == 0:
		return errors.New("series id must not be zero")
	case md.Work.AgeRating != "" && !md.Work.AgeRating.Valid():
		return fmt.Errorf("invalid age rating %q", md.Work.AgeRating)
	}
	for _, tag := range md.Tags {
		if tag.ID == 0 {
			return errors.New("tag id must not be zero")
		}
	}
	for _, va := range md.VoiceActors {
		if va.ID == 0 {
			return errors.New("voice actor id must not be zero")
		}
	}
	return nil
}

func uniqueTags(in []entities.DlsiteTag) []entities.DlsiteTag {
	seen := make(map[uint]bool, len(in))
	out := make([]entities.DlsiteTag, 0, len(in))
	for _, tag := range in {
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		out = append(out, tag)
	}
	return out
}

func uniqueVoiceActors(in []entities.VoiceActor) []entities.VoiceActor {
	seen := make(map[uint]bool, len(in))
	out := make([]entities.VoiceActor, 0, len(in))
	for _, va := range in {
		if seen[va.ID] {
			continue
		}
		seen[va.ID] = true
		out = append(out, va)
	}
	return out
}
