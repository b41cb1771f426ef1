package collections_test

import (
	"context"
	"math/rand"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yodhcn/kikoeru-express/internal/database/catalog"
	"github.com/yodhcn/kikoeru-express/internal/database/collections"
	"github.com/yodhcn/kikoeru-express/internal/database/schema"
	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

func setupTestDB(t *testing.T, workIDs ...uint) *gorm.DB {
	t.Helper()
	db, err := schema.Open(filepath.Join(t.TempDir(), "collections.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.Create(&[]entities.User{{Name: "alice"}, {Name: "bob"}}).Error)
	cat := catalog.NewRepository(db)
	for _, id := range workIDs {
		require.NoError(t, cat.UpsertWork(context.Background(), catalog.WorkMetadata{
			Work:   entities.Work{ID: id, Title: "Work"},
			Circle: entities.Circle{ID: 1, Name: "Circle"},
		}))
	}
	return db
}

func sortedCopy(ids []uint) []uint {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}

// assertConsistent checks that the ordered list and the membership relation
// hold the same set of works.
func assertConsistent(t *testing.T, repo *collections.Repository, owner string, id uint) {
	t.Helper()
	ctx := context.Background()
	c, err := repo.Get(ctx, owner, id)
	require.NoError(t, err)
	members, err := repo.MemberIDs(ctx, owner, id)
	require.NoError(t, err)
	if members == nil {
		members = []uint{}
	}
	assert.Equal(t, sortedCopy(c.Works), members)
}

func TestMylistScenario(t *testing.T) {
	db := setupTestDB(t, 100001)
	repo := collections.NewRepository(db, collections.Mylist)
	ctx := context.Background()

	favs, err := repo.Create(ctx, "alice", "favs")
	require.NoError(t, err)
	assert.Empty(t, favs.Works)

	require.NoError(t, repo.AddWork(ctx, "alice", favs.ID, 100001))
	assert.ErrorIs(t, repo.AddWork(ctx, "alice", favs.ID, 100001), storeerr.ErrConflict)

	require.NoError(t, repo.RemoveWork(ctx, "alice", favs.ID, 100001))
	require.NoError(t, repo.Reorder(ctx, "alice", favs.ID, []uint{}))

	err = repo.Reorder(ctx, "alice", favs.ID, []uint{999})
	assert.ErrorIs(t, err, storeerr.ErrIntegrity)
	assert.ErrorIs(t, err, storeerr.ErrConflict)

	assertConsistent(t, repo, "alice", favs.ID)
}

func TestRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, kind := range collections.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			repo := collections.NewRepository(db, kind)

			_, err := repo.Create(ctx, "alice", "list")
			require.NoError(t, err)

			_, err = repo.Create(ctx, "alice", "list")
			assert.ErrorIs(t, err, storeerr.ErrConflict)

			_, err = repo.Create(ctx, "bob", "list")
			assert.NoError(t, err, "names are unique per owner")

			_, err = repo.Create(ctx, "alice", "   ")
			assert.ErrorIs(t, err, storeerr.ErrIntegrity)

			_, err = repo.Create(ctx, "nobody", "list")
			assert.ErrorIs(t, err, storeerr.ErrNotFound)

			lists, err := repo.List(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, lists, 1)
			assert.Equal(t, "list", lists[0].Name)
		})
	}
}

func TestRepository_Ownership(t *testing.T) {
	db := setupTestDB(t, 100001)
	repo := collections.NewRepository(db, collections.Playlist)
	ctx := context.Background()

	list, err := repo.Create(ctx, "alice", "private")
	require.NoError(t, err)

	_, err = repo.Get(ctx, "bob", list.ID)
	assert.ErrorIs(t, err, storeerr.ErrNotFound)
	assert.ErrorIs(t, repo.AddWork(ctx, "bob", list.ID, 100001), storeerr.ErrNotFound)
	assert.ErrorIs(t, repo.Rename(ctx, "bob", list.ID, "stolen"), storeerr.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "bob", list.ID), storeerr.ErrNotFound)

	got, err := repo.Get(ctx, "alice", list.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", got.Name)
}

func TestRepository_AddWork_Errors(t *testing.T) {
	db := setupTestDB(t, 100001)
	repo := collections.NewRepository(db, collections.Mylist)
	ctx := context.Background()

	list, err := repo.Create(ctx, "alice", "favs")
	require.NoError(t, err)

	assert.ErrorIs(t, repo.AddWork(ctx, "alice", list.ID, 424242), storeerr.ErrNotFound)
	assert.ErrorIs(t, repo.AddWork(ctx, "alice", list.ID+100, 100001), storeerr.ErrNotFound)
	assert.ErrorIs(t, repo.RemoveWork(ctx, "alice", list.ID, 100001), storeerr.ErrNotFound)

	assertConsistent(t, repo, "alice", list.ID)
}

func TestRepository_RenameAndDelete(t *testing.T) {
	db := setupTestDB(t, 100001)
	repo := collections.NewRepository(db, collections.Mylist)
	ctx := context.Background()

	a, err := repo.Create(ctx, "alice", "a")
	require.NoError(t, err)
	_, err = repo.Create(ctx, "alice", "b")
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Rename(ctx, "alice", a.ID, "b"), storeerr.ErrConflict)
	require.NoError(t, repo.Rename(ctx, "alice", a.ID, "a"))
	require.NoError(t, repo.Rename(ctx, "alice", a.ID, "renamed"))

	got, err := repo.Get(ctx, "alice", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	require.NoError(t, repo.AddWork(ctx, "alice", a.ID, 100001))
	require.NoError(t, repo.Delete(ctx, "alice", a.ID))

	_, err = repo.Get(ctx, "alice", a.ID)
	assert.ErrorIs(t, err, storeerr.ErrNotFound)

	var members int64
	require.NoError(t, db.Model(&entities.MylistWork{}).Count(&members).Error)
	assert.Zero(t, members)
}

func TestRepository_Reorder(t *testing.T) {
	ids := []uint{100001, 100002, 100003}
	db := setupTestDB(t, ids...)
	repo := collections.NewRepository(db, collections.Playlist)
	ctx := context.Background()

	list, err := repo.Create(ctx, "alice", "queue")
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, repo.AddWork(ctx, "alice", list.ID, id))
	}

	require.NoError(t, repo.Reorder(ctx, "alice", list.ID, []uint{100003, 100001, 100002}))
	got, err := repo.Get(ctx, "alice", list.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.WorkIDs{100003, 100001, 100002}, got.Works)

	for _, bad := range [][]uint{
		{100003, 100001},
		{100003, 100001, 100002, 100004},
		{100003, 100003, 100002},
	} {
		err := repo.Reorder(ctx, "alice", list.ID, bad)
		assert.ErrorIs(t, err, storeerr.ErrIntegrity)
	}

	got, err = repo.Get(ctx, "alice", list.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.WorkIDs{100003, 100001, 100002}, got.Works)
}

func TestRepository_RandomOperationsStayConsistent(t *testing.T) {
	ids := []uint{100001, 100002, 100003, 100004, 100005}
	db := setupTestDB(t, ids...)
	repo := collections.NewRepository(db, collections.Mylist)
	ctx := context.Background()

	list, err := repo.Create(ctx, "alice", "random")
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 60; i++ {
		id := ids[rng.Intn(len(ids))]
		switch rng.Intn(3) {
		case 0:
			_ = repo.AddWork(ctx, "alice", list.ID, id)
		case 1:
			_ = repo.RemoveWork(ctx, "alice", list.ID, id)
		case 2:
			c, err := repo.Get(ctx, "alice", list.ID)
			require.NoError(t, err)
			order := slices.Clone([]uint(c.Works))
			rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
			require.NoError(t, repo.Reorder(ctx, "alice", list.ID, order))
		}
		assertConsistent(t, repo, "alice", list.ID)
	}
}

func TestDeleteOwnedBy(t *testing.T) {
	db := setupTestDB(t, 100001)
	ctx := context.Background()

	for _, kind := range collections.Kinds() {
		repo := collections.NewRepository(db, kind)
		list, err := repo.Create(ctx, "alice", "mine")
		require.NoError(t, err)
		require.NoError(t, repo.AddWork(ctx, "alice", list.ID, 100001))
		_, err = repo.Create(ctx, "bob", "theirs")
		require.NoError(t, err)
	}

	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = collections.DeleteOwnedBy(tx, "alice")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	for _, kind := range collections.Kinds() {
		repo := collections.NewRepository(db, kind)
		mine, err := repo.List(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, mine)
		theirs, err := repo.List(ctx, "bob")
		require.NoError(t, err)
		assert.Len(t, theirs, 1)
	}
}
