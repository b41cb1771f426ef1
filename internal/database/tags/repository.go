// Package tags resolves the tags a user sees on a work and stores the
// user's tag edits.
//
// A user edits a work's tags in two ways: by attaching global (DLsite) tags
// as overrides, and by attaching private user tags. Once a user holds any
// override on a work, the scraped tags of that work no longer count for the
// user in tag searches and label counts; only the overrides do.
//
// # Usage
//
//	repo := tags.NewRepository(db)
//	err := repo.AttachGlobalTag(ctx, "alice", 100001, 42)
//	view, err := repo.EffectiveTags(ctx, "alice", 100001)
package tags

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yodhcn/kikoeru-express/internal/database/orphans"
	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

// EffectiveTags holds a user's edits on one work. The scraped tags are not
// included; detail views show them next to these.
type EffectiveTags struct {
	CustomDlsiteTags []entities.DlsiteTag `json:"customDlsiteTags"`
	CustomUserTags   []entities.UserTag   `json:"customUserTags"`
}

// Repository handles all tag database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// EffectiveTags returns the user's custom tags on a work.
func (r *Repository) EffectiveTags(ctx context.Context, username string, workID uint) (*EffectiveTags, error) {
	const op = "effective tags"
	var view *EffectiveTags
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireWork(tx, op, workID); err != nil {
			return err
		}
		var err error
		view, err = Effective(tx, username, workID)
		return err
	})
	if err != nil {
		return nil, storeerr.Classify(op, err)
	}
	return view, nil
}

// Effective loads the user's custom tags with the given handle, which may be
// a transaction owned by the caller.
func Effective(tx *gorm.DB, username string, workID uint) (*EffectiveTags, error) {
	view := &EffectiveTags{
		CustomDlsiteTags: []entities.DlsiteTag{},
		CustomUserTags:   []entities.UserTag{},
	}
	err := tx.Model(&entities.DlsiteTag{}).
		Where("id IN (SELECT tag_id FROM user_dlsite_tag_works WHERE user_name = ? AND work_id = ?)", username, workID).
		Order("id ASC").
		Find(&view.CustomDlsiteTags).Error
	if err != nil {
		return nil, err
	}
	err = tx.Model(&entities.UserTag{}).
		Where("id IN (SELECT tag_id FROM user_tag_works WHERE user_name = ? AND work_id = ?)", username, workID).
		Order("id ASC").
		Find(&view.CustomUserTags).Error
	if err != nil {
		return nil, err
	}
	return view, nil
}

// AttachGlobalTag records a global tag override. The first override on a
// work hides its scraped tags from the user's tag listings.
func (r *Repository) AttachGlobalTag(ctx context.Context, username string, workID, tagID uint) error {
	const op = "attach global tag"
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireWork(tx, op, workID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&entities.DlsiteTag{}).Where("id = ?", tagID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return storeerr.NotFound(op, "tag %d does not exist", tagID)
		}

		override := &entities.TagOverride{UserName: username, TagID: tagID, WorkID: workID}
		if err := tx.Omit(clause.Associations).Create(override).Error; err != nil {
			switch {
			case storeerr.IsDuplicate(err):
				return storeerr.Conflict(op, "tag %d is already attached to work %d", tagID, workID)
			case storeerr.IsForeignKeyViolation(err):
				return storeerr.NotFound(op, "user %q does not exist", username)
			}
			return err
		}
		return nil
	})
	return storeerr.Classify(op, err)
}

// DetachGlobalTag drops an override and collects the tag if it is now unused.
func (r *Repository) DetachGlobalTag(ctx context.Context, username string, workID, tagID uint) error {
	const op = "detach global tag"
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_name = ? AND tag_id = ? AND work_id = ?", username, tagID, workID).
			Delete(&entities.TagOverride{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return storeerr.NotFound(op, "tag %d is not attached to work %d", tagID, workID)
		}
		_, err := orphans.DeleteDlsiteTagIfOrphan(tx, tagID)
		return err
	})
	return storeerr.Classify(op, err)
}

// AttachUserTag attaches the user's private tag called name to a work,
// creating the tag on first use.
func (r *Repository) AttachUserTag(ctx context.Context, username string, workID uint, name string) (*entities.UserTag, error) {
	const op = "attach user tag"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, storeerr.Integrity(op, "tag name must not be empty")
	}

	var tag entities.UserTag
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireWork(tx, op, workID); err != nil {
			return err
		}

		err := tx.Where(entities.UserTag{CreatedBy: username, Name: name}).
			Omit(clause.Associations).
			FirstOrCreate(&tag).Error
		if err != nil {
			if storeerr.IsForeignKeyViolation(err) {
				return storeerr.NotFound(op, "user %q does not exist", username)
			}
			return err
		}

		relation := &entities.UserTagWork{UserName: username, TagID: tag.ID, WorkID: workID}
		if err := tx.Omit(clause.Associations).Create(relation).Error; err != nil {
			if storeerr.IsDuplicate(err) {
				return storeerr.Conflict(op, "tag %q is already attached to work %d", name, workID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storeerr.Classify(op, err)
	}
	return &tag, nil
}

func (r *Repository) DetachUserTag(ctx context.Context, username string, workID, tagID uint) error {
	const op = "detach user tag"
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_name = ? AND tag_id = ? AND work_id = ?", username, tagID, workID).
			Delete(&entities.UserTagWork{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return storeerr.NotFound(op, "user tag %d is not attached to work %d", tagID, workID)
		}
		_, err := orphans.DeleteUserTagIfOrphan(tx, tagID)
		return err
	})
	return storeerr.Classify(op, err)
}

// ResetWork discards every edit the user made on a work, which makes the
// scraped tags visible to the user again.
func (r *Repository) ResetWork(ctx context.Context, username string, workID uint) error {
	const op = "reset work tags"
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireWork(tx, op, workID); err != nil {
			return err
		}

		var candidates orphans.Candidates
		if err := tx.Model(&entities.TagOverride{}).
			Where("user_name = ? AND work_id = ?", username, workID).
			Pluck("tag_id", &candidates.DlsiteTags).Error; err != nil {
			return err
		}
		if err := tx.Model(&entities.UserTagWork{}).
			Where("user_name = ? AND work_id = ?", username, workID).
			Pluck("tag_id", &candidates.UserTags).Error; err != nil {
			return err
		}

		if err := tx.Where("user_name = ? AND work_id = ?", username, workID).
			Delete(&entities.TagOverride{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_name = ? AND work_id = ?", username, workID).
			Delete(&entities.UserTagWork{}).Error; err != nil {
			return err
		}

		_, err := orphans.Sweep(tx, candidates)
		return err
	})
	return storeerr.Classify(op, err)
}

// ListUserTags returns the user's private tags sorted by name.
func (r *Repository) ListUserTags(ctx context.Context, username string) ([]entities.UserTag, error) {
	var list []entities.UserTag
	err := r.db.WithContext(ctx).
		Where("created_by = ?", username).
		Order("name ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, storeerr.Classify("list user tags", err)
	}
	return list, nil
}

// PurgeUser removes every tag edit of a user and collects the tags that
// become unreferenced. It must run inside the caller's transaction.
func PurgeUser(tx *gorm.DB, username string) error {
	var candidates orphans.Candidates
	if err := tx.Model(&entities.TagOverride{}).
		Where("user_name = ?", username).
		Distinct().
		Pluck("tag_id", &candidates.DlsiteTags).Error; err != nil {
		return err
	}

	if err := tx.Where("user_name = ?", username).Delete(&entities.TagOverride{}).Error; err != nil {
		return err
	}
	err := tx.Exec(`
		DELETE FROM user_tag_works
		WHERE user_name = ?
		OR tag_id IN (SELECT id FROM user_tags WHERE created_by = ?)
	`, username, username).Error
	if err != nil {
		return err
	}
	if err := tx.Where("created_by = ?", username).Delete(&entities.UserTag{}).Error; err != nil {
		return err
	}

	_, err = orphans.Sweep(tx, candidates)
	return err
}

func requireWork(tx *gorm.DB, op string, workID uint) error {
	var count int64
	if err := tx.Model(&entities.Work{}).Where("id = ?", workID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return storeerr.NotFound(op, "work %d does not exist", workID)
	}
	return nil
}
