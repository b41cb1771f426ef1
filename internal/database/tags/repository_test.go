package tags_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yodhcn/kikoeru-express/internal/database/catalog"
	"github.com/yodhcn/kikoeru-express/internal/database/schema"
	"github.com/yodhcn/kikoeru-express/internal/database/tags"
	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

// setupTestDB stores work 100001 with global tags A(1) and B(2), work 100002
// with tag B, a third tag C(3) attached to work 100003, and users alice and bob.
func setupTestDB(t *testing.T) (*gorm.DB, *tags.Repository) {
	t.Helper()
	db, err := schema.Open(filepath.Join(t.TempDir(), "tags.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.Create(&[]entities.User{{Name: "alice"}, {Name: "bob"}}).Error)

	a := entities.DlsiteTag{ID: 1, Name: "A"}
	b := entities.DlsiteTag{ID: 2, Name: "B"}
	c := entities.DlsiteTag{ID: 3, Name: "C"}
	cat := catalog.NewRepository(db)
	for _, md := range []catalog.WorkMetadata{
		{Work: entities.Work{ID: 100001, Title: "one"}, Circle: entities.Circle{ID: 1, Name: "c"}, Tags: []entities.DlsiteTag{a, b}},
		{Work: entities.Work{ID: 100002, Title: "two"}, Circle: entities.Circle{ID: 1, Name: "c"}, Tags: []entities.DlsiteTag{b}},
		{Work: entities.Work{ID: 100003, Title: "three"}, Circle: entities.Circle{ID: 1, Name: "c"}, Tags: []entities.DlsiteTag{c}},
	} {
		require.NoError(t, cat.UpsertWork(context.Background(), md))
	}
	return db, tags.NewRepository(db)
}

func visibleTags(t *testing.T, db *gorm.DB, username string, workID uint) []uint {
	t.Helper()
	expr := tags.VisibleTagIDs(username, workID)
	ids := []uint{}
	require.NoError(t, db.Raw(expr.SQL, expr.Vars...).Scan(&ids).Error)
	return ids
}

func worksWithTag(t *testing.T, db *gorm.DB, username string, tagID uint) []uint {
	t.Helper()
	ids := []uint{}
	err := db.Model(&entities.Work{}).
		Where(tags.VisibleWorks(username, "tag_id = ?", tagID)).
		Order("id").
		Pluck("works.id", &ids).Error
	require.NoError(t, err)
	return ids
}

func TestOverridePrecedence(t *testing.T) {
	db, repo := setupTestDB(t)
	ctx := context.Background()

	assert.Equal(t, []uint{1, 2}, visibleTags(t, db, "alice", 100001))

	require.NoError(t, repo.AttachGlobalTag(ctx, "alice", 100001, 3))

	assert.Equal(t, []uint{3}, visibleTags(t, db, "alice", 100001))
	assert.Equal(t, []uint{1, 2}, visibleTags(t, db, "bob", 100001))

	assert.Empty(t, worksWithTag(t, db, "alice", 1))
	assert.Equal(t, []uint{100002}, worksWithTag(t, db, "alice", 2))
	assert.Equal(t, []uint{100001, 100003}, worksWithTag(t, db, "alice", 3))
	assert.Equal(t, []uint{100001, 100002}, worksWithTag(t, db, "bob", 2))
	assert.Equal(t, []uint{100003}, worksWithTag(t, db, "bob", 3))

	view, err := repo.EffectiveTags(ctx, "alice", 100001)
	require.NoError(t, err)
	require.Len(t, view.CustomDlsiteTags, 1)
	assert.Equal(t, "C", view.CustomDlsiteTags[0].Name)
}

func TestRepository_AttachGlobalTag_Errors(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.AttachGlobalTag(ctx, "alice", 999, 1), storeerr.ErrNotFound)
	assert.ErrorIs(t, repo.AttachGlobalTag(ctx, "alice", 100001, 999), storeerr.ErrNotFound)
	assert.ErrorIs(t, repo.AttachGlobalTag(ctx, "nobody", 100001, 1), storeerr.ErrNotFound)

	require.NoError(t, repo.AttachGlobalTag(ctx, "alice", 100001, 1))
	assert.ErrorIs(t, repo.AttachGlobalTag(ctx, "alice", 100001, 1), storeerr.ErrConflict)
}

func TestRepository_DetachGlobalTag_CollectsOrphan(t *testing.T) {
	db, repo := setupTestDB(t)
	ctx := context.Background()

	// Tag 3 survives only through the override once work 100003 is gone.
	require.NoError(t, repo.AttachGlobalTag(ctx, "alice", 100001, 3))
	_, err := catalog.NewRepository(db).RemoveWork(ctx, 100003)
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&entities.DlsiteTag{}).Where("id = ?", 3).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.DetachGlobalTag(ctx, "alice", 100001, 3))
	require.NoError(t, db.Model(&entities.DlsiteTag{}).Where("id = ?", 3).Count(&n).Error)
	assert.Zero(t, n)

	assert.ErrorIs(t, repo.DetachGlobalTag(ctx, "alice", 100001, 3), storeerr.ErrNotFound)
}

func TestRepository_UserTags(t *testing.T) {
	db, repo := setupTestDB(t)
	ctx := context.Background()

	tag, err := repo.AttachUserTag(ctx, "alice", 100001, "  bgm  ")
	require.NoError(t, err)
	assert.Equal(t, "bgm", tag.Name)
	assert.Equal(t, "alice", tag.CreatedBy)

	again, err := repo.AttachUserTag(ctx, "alice", 100002, "bgm")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, again.ID)

	_, err = repo.AttachUserTag(ctx, "alice", 100001, "bgm")
	assert.ErrorIs(t, err, storeerr.ErrConflict)
	_, err = repo.AttachUserTag(ctx, "alice", 100001, "")
	assert.ErrorIs(t, err, storeerr.ErrIntegrity)
	_, err = repo.AttachUserTag(ctx, "alice", 999, "x")
	assert.ErrorIs(t, err, storeerr.ErrNotFound)

	bobs, err := repo.AttachUserTag(ctx, "bob", 100001, "bgm")
	require.NoError(t, err)
	assert.NotEqual(t, tag.ID, bobs.ID, "user tags are private per owner")

	list, err := repo.ListUserTags(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, repo.DetachUserTag(ctx, "alice", 100001, tag.ID))
	require.NoError(t, repo.DetachUserTag(ctx, "alice", 100002, tag.ID))
	assert.ErrorIs(t, repo.DetachUserTag(ctx, "alice", 100002, tag.ID), storeerr.ErrNotFound)

	var n int64
	require.NoError(t, db.Model(&entities.UserTag{}).Where("id = ?", tag.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRepository_ResetWork(t *testing.T) {
	db, repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AttachGlobalTag(ctx, "alice", 100001, 3))
	_, err := repo.AttachUserTag(ctx, "alice", 100001, "mine")
	require.NoError(t, err)
	require.Equal(t, []uint{3}, visibleTags(t, db, "alice", 100001))

	require.NoError(t, repo.ResetWork(ctx, "alice", 100001))

	assert.Equal(t, []uint{1, 2}, visibleTags(t, db, "alice", 100001))
	view, err := repo.EffectiveTags(ctx, "alice", 100001)
	require.NoError(t, err)
	assert.Empty(t, view.CustomDlsiteTags)
	assert.Empty(t, view.CustomUserTags)

	list, err := repo.ListUserTags(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, repo.ResetWork(ctx, "alice", 999), storeerr.ErrNotFound)
}

func TestPurgeUser(t *testing.T) {
	db, repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AttachGlobalTag(ctx, "alice", 100001, 3))
	_, err := repo.AttachUserTag(ctx, "alice", 100002, "mine")
	require.NoError(t, err)
	_, err = repo.AttachUserTag(ctx, "bob", 100002, "theirs")
	require.NoError(t, err)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return tags.PurgeUser(tx, "alice")
	}))

	assert.Equal(t, []uint{1, 2}, visibleTags(t, db, "alice", 100001))
	mine, err := repo.ListUserTags(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, mine)
	theirs, err := repo.ListUserTags(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
