// Package orphans removes shared catalog entities that nothing references
// any more. Every check runs against the transaction that removed the last
// reference, so the count and the delete observe the same state.
//
// # Usage
//
//	err := db.Transaction(func(tx *gorm.DB) error {
//		// ... delete the work and its relations ...
//		_, err := orphans.Sweep(tx, candidates)
//		return err
//	})
package orphans

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yodhcn/kikoeru-express/internal/entities"
)

// Candidates lists entity ids whose last reference may just have gone away.
type Candidates struct {
	Circles     []uint
	Series      []uint
	VoiceActors []uint
	DlsiteTags  []uint
	UserTags    []uint
}

// Report counts entities removed (by Sweep) or found (by Scan).
type Report struct {
	Circles     int64 `json:"circles"`
	Series      int64 `json:"series"`
	VoiceActors int64 `json:"voice_actors"`
	DlsiteTags  int64 `json:"dlsite_tags"`
	UserTags    int64 `json:"user_tags"`
}

func (r Report) Total() int64 {
	return r.Circles + r.Series + r.VoiceActors + r.DlsiteTags + r.UserTags
}

// Sweep deletes every candidate that has become unreferenced.
func Sweep(tx *gorm.DB, c Candidates) (Report, error) {
	var report Report
	for _, id := range c.Series {
		deleted, err := DeleteSeriesIfOrphan(tx, id)
		if err != nil {
			return report, err
		}
		report.Series += b2i(deleted)
	}
	for _, id := range c.VoiceActors {
		deleted, err := DeleteVoiceActorIfOrphan(tx, id)
		if err != nil {
			return report, err
		}
		report.VoiceActors += b2i(deleted)
	}
	for _, id := range c.DlsiteTags {
		deleted, err := DeleteDlsiteTagIfOrphan(tx, id)
		if err != nil {
			return report, err
		}
		report.DlsiteTags += b2i(deleted)
	}
	for _, id := range c.UserTags {
		deleted, err := DeleteUserTagIfOrphan(tx, id)
		if err != nil {
			return report, err
		}
		report.UserTags += b2i(deleted)
	}
	for _, id := range c.Circles {
		deleted, err := DeleteCircleIfOrphan(tx, id)
		if err != nil {
			return report, err
		}
		report.Circles += b2i(deleted)
	}
	return report, nil
}

func IsCircleOrphan(tx *gorm.DB, id uint) (bool, error) {
	return zero(tx, "works", "circle_id = ?", id)
}

func DeleteCircleIfOrphan(tx *gorm.DB, id uint) (bool, error) {
	return deleteIf(tx, IsCircleOrphan, &entities.Circle{}, id, "circle")
}

// IsSeriesOrphan checks the works table explicitly: series ids are not
// exclusive to one work.
func IsSeriesOrphan(tx *gorm.DB, id uint) (bool, error) {
	return zero(tx, "works", "series_id = ?", id)
}

func DeleteSeriesIfOrphan(tx *gorm.DB, id uint) (bool, error) {
	return deleteIf(tx, IsSeriesOrphan, &entities.Series{}, id, "series")
}

func IsVoiceActorOrphan(tx *gorm.DB, id uint) (bool, error) {
	return zero(tx, "work_voice_actors", "voice_actor_id = ?", id)
}

func DeleteVoiceActorIfOrphan(tx *gorm.DB, id uint) (bool, error) {
	return deleteIf(tx, IsVoiceActorOrphan, &entities.VoiceActor{}, id, "voice actor")
}

// IsDlsiteTagOrphan requires both the scraped relation and every user's
// overrides to be gone.
func IsDlsiteTagOrphan(tx *gorm.DB, id uint) (bool, error) {
	direct, err := zero(tx, "work_dlsite_tags", "tag_id = ?", id)
	if err != nil || !direct {
		return false, err
	}
	return zero(tx, "user_dlsite_tag_works", "tag_id = ?", id)
}

func DeleteDlsiteTagIfOrphan(tx *gorm.DB, id uint) (bool, error) {
	return deleteIf(tx, IsDlsiteTagOrphan, &entities.DlsiteTag{}, id, "dlsite tag")
}

// IsUserTagOrphan counts relations across all users.
func IsUserTagOrphan(tx *gorm.DB, id uint) (bool, error) {
	return zero(tx, "user_tag_works", "tag_id = ?", id)
}

func DeleteUserTagIfOrphan(tx *gorm.DB, id uint) (bool, error) {
	return deleteIf(tx, IsUserTagOrphan, &entities.UserTag{}, id, "user tag")
}

// Scan counts rows that are already unreferenced. A healthy store reports
// zero everywhere; it never deletes anything.
func Scan(db *gorm.DB) (Report, error) {
	var report Report
	queries := []struct {
		dest *int64
		sql  string
	}{
		{&report.Circles, `SELECT COUNT(*) FROM circles WHERE id NOT IN (SELECT circle_id FROM works)`},
		{&report.Series, `SELECT COUNT(*) FROM series WHERE id NOT IN (SELECT series_id FROM works WHERE series_id IS NOT NULL)`},
		{&report.VoiceActors, `SELECT COUNT(*) FROM voice_actors WHERE id NOT IN (SELECT voice_actor_id FROM work_voice_actors)`},
		{&report.DlsiteTags, `
			SELECT COUNT(*) FROM dlsite_tags
			WHERE id NOT IN (SELECT tag_id FROM work_dlsite_tags)
			AND id NOT IN (SELECT tag_id FROM user_dlsite_tag_works)`},
		{&report.UserTags, `SELECT COUNT(*) FROM user_tags WHERE id NOT IN (SELECT tag_id FROM user_tag_works)`},
	}
	for _, q := range queries {
		if err := db.Raw(q.sql).Scan(q.dest).Error; err != nil {
			return report, fmt.Errorf("scan orphans: %w", err)
		}
	}
	return report, nil
}

func zero(tx *gorm.DB, table, cond string, id uint) (bool, error) {
	var count int64
	if err := tx.Table(table).Where(cond, id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count %s: %w", table, err)
	}
	return count == 0, nil
}

func deleteIf(tx *gorm.DB, check func(*gorm.DB, uint) (bool, error), model any, id uint, what string) (bool, error) {
	orphan, err := check(tx, id)
	if err != nil || !orphan {
		return false, err
	}
	result := tx.Delete(model, id)
	if result.Error != nil {
		return false, fmt.Errorf("delete orphan %s %d: %w", what, id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
