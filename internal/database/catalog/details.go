package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yodhcn/kikoeru-express/internal/database/tags"
	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

// WorkDetail is a work with its voice actors, scraped tags and the viewing
// user's own tag edits.
type WorkDetail struct {
	entities.Work
	VoiceActors []entities.VoiceActor `json:"vas"`
	Tags        []entities.DlsiteTag  `json:"tags"`
	tags.EffectiveTags
}

// GetWork loads the detail view of one work as seen by username.
func (r *Repository) GetWork(ctx context.Context, username string, id uint) (*WorkDetail, error) {
	const op = "get work"
	var detail *WorkDetail
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var work entities.Work
		if err := tx.Preload("Circle").Preload("Series").Where("id = ?", id).Take(&work).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storeerr.NotFound(op, "work %d does not exist", id)
			}
			return err
		}
		details, err := loadDetails(tx, username, []entities.Work{work})
		if err != nil {
			return err
		}
		detail = &details[0]
		return nil
	})
	if err != nil {
		return nil, storeerr.Classify(op, err)
	}
	return detail, nil
}

// GetWorkDetails loads detail views for ids, keeping their order and
// skipping ids that do not exist.
func (r *Repository) GetWorkDetails(ctx context.Context, username string, ids []uint) ([]WorkDetail, error) {
	const op = "get work details"
	if len(ids) == 0 {
		return []WorkDetail{}, nil
	}

	var details []WorkDetail
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var works []entities.Work
		if err := tx.Preload("Circle").Preload("Series").Where("id IN ?", ids).Find(&works).Error; err != nil {
			return err
		}
		byID := make(map[uint]entities.Work, len(works))
		for _, w := range works {
			byID[w.ID] = w
		}
		ordered := make([]entities.Work, 0, len(works))
		for _, id := range ids {
			if w, ok := byID[id]; ok {
				ordered = append(ordered, w)
			}
		}

		var err error
		details, err = loadDetails(tx, username, ordered)
		return err
	})
	if err != nil {
		return nil, storeerr.Classify(op, err)
	}
	return details, nil
}

type vaRow struct {
	WorkID uint
	ID     uint
	Name   string
}

type tagRow struct {
	WorkID   uint
	ID       uint
	Name     string
	Category string
}

func loadDetails(tx *gorm.DB, username string, works []entities.Work) ([]WorkDetail, error) {
	ids := make([]uint, len(works))
	for i, w := range works {
		ids[i] = w.ID
	}

	var vas []vaRow
	err := tx.Table("work_voice_actors").
		Select("work_voice_actors.work_id, voice_actors.id, voice_actors.name").
		Joins("JOIN voice_actors ON voice_actors.id = work_voice_actors.voice_actor_id").
		Where("work_voice_actors.work_id IN ?", ids).
		Order("voice_actors.id ASC").
		Scan(&vas).Error
	if err != nil {
		return nil, err
	}

	var tagRows []tagRow
	err = tx.Table("work_dlsite_tags").
		Select("work_dlsite_tags.work_id, dlsite_tags.id, dlsite_tags.name, dlsite_tags.category").
		Joins("JOIN dlsite_tags ON dlsite_tags.id = work_dlsite_tags.tag_id").
		Where("work_dlsite_tags.work_id IN ?", ids).
		Order("dlsite_tags.id ASC").
		Scan(&tagRows).Error
	if err != nil {
		return nil, err
	}

	vasByWork := make(map[uint][]entities.VoiceActor)
	for _, row := range vas {
		vasByWork[row.WorkID] = append(vasByWork[row.WorkID], entities.VoiceActor{ID: row.ID, Name: row.Name})
	}
	tagsByWork := make(map[uint][]entities.DlsiteTag)
	for _, row := range tagRows {
		tagsByWork[row.WorkID] = append(tagsByWork[row.WorkID], entities.DlsiteTag{ID: row.ID, Name: row.Name, Category: row.Category})
	}

	details := make([]WorkDetail, len(works))
	for i, w := range works {
		custom, err := tags.Effective(tx, username, w.ID)
		if err != nil {
			return nil, err
		}
		details[i] = WorkDetail{
			Work:          w,
			VoiceActors:   orEmpty(vasByWork[w.ID]),
			Tags:          orEmpty(tagsByWork[w.ID]),
			EffectiveTags: *custom,
		}
	}
	return details, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
