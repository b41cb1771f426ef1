// Package collections stores user-owned ordered work lists (mylists and
// playlists).
//
// Membership is kept twice: the ordered id array on the collection row is the
// authoritative order, the membership table backs foreign keys and lookups.
// Every mutation rewrites both inside one transaction.
//
// # Usage
//
//	repo := collections.NewRepository(db, collections.Mylist)
//	list, err := repo.Create(ctx, "alice", "favs")
//	err = repo.AddWork(ctx, "alice", list.ID, 100001)
package collections

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

type Kind int

const (
	Mylist Kind = iota + 1
	Playlist
)

type layout struct {
	table   string
	members string
	fk      string
	noun    string
}

var layouts = map[Kind]layout{
	Mylist:   {table: "mylists", members: "mylist_works", fk: "mylist_id", noun: "mylist"},
	Playlist: {table: "playlists", members: "playlist_works", fk: "playlist_id", noun: "playlist"},
}

// Kinds returns every collection kind.
func Kinds() []Kind {
	return []Kind{Mylist, Playlist}
}

func (k Kind) String() string {
	if l, ok := layouts[k]; ok {
		return l.noun
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Repository handles one kind of collection.
type Repository struct {
	db     *gorm.DB
	kind   Kind
	layout layout
}

// NewRepository creates a repository for the given collection kind.
func NewRepository(db *gorm.DB, kind Kind) *Repository {
	l, ok := layouts[kind]
	if !ok {
		panic(fmt.Sprintf("collections: unknown kind %d", kind))
	}
	return &Repository{db: db, kind: kind, layout: l}
}

func (r *Repository) Kind() Kind {
	return r.kind
}

func (r *Repository) op(action string) string {
	return action + " " + r.layout.noun
}

// Create adds an empty collection. Names are unique per owner.
func (r *Repository) Create(ctx context.Context, owner, name string) (*entities.Collection, error) {
	op := r.op("create")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, storeerr.Integrity(op, "name must not be empty")
	}

	c := &entities.Collection{UserName: owner, Name: name, Works: entities.WorkIDs{}}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := r.nameTaken(tx, owner, name)
		if err != nil {
			return err
		}
		if taken {
			return storeerr.Conflict(op, "%s %q already exists", r.layout.noun, name)
		}
		if err := tx.Table(r.layout.table).Create(c).Error; err != nil {
			if storeerr.IsForeignKeyViolation(err) {
				return storeerr.NotFound(op, "user %q does not exist", owner)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storeerr.Classify(op, err)
	}
	return c, nil
}

func (r *Repository) Rename(ctx context.Context, owner string, id uint, name string) error {
	op := r.op("rename")
	name = strings.TrimSpace(name)
	if name == "" {
		return storeerr.Integrity(op, "name must not be empty")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := r.load(tx, op, owner, id)
		if err != nil {
			return err
		}
		if c.Name == name {
			return nil
		}
		taken, err := r.nameTaken(tx, owner, name)
		if err != nil {
			return err
		}
		if taken {
			return storeerr.Conflict(op, "%s %q already exists", r.layout.noun, name)
		}
		return tx.Table(r.layout.table).
			Where("id = ? AND user_name = ?", id, owner).
			Updates(map[string]any{"name": name, "updated_at": time.Now()}).Error
	})
	return storeerr.Classify(op, err)
}

func (r *Repository) Delete(ctx context.Context, owner string, id uint) error {
	op := r.op("delete")
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.load(tx, op, owner, id); err != nil {
			return err
		}
		if err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", r.layout.members, r.layout.fk), id).Error; err != nil {
			return err
		}
		return tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ? AND user_name = ?", r.layout.table), id, owner).Error
	})
	return storeerr.Classify(op, err)
}

func (r *Repository) Get(ctx context.Context, owner string, id uint) (*entities.Collection, error) {
	op := r.op("get")
	c, err := r.load(r.db.WithContext(ctx), op, owner, id)
	if err != nil {
		return nil, storeerr.Classify(op, err)
	}
	return c, nil
}

// List returns the owner's collections in creation order.
func (r *Repository) List(ctx context.Context, owner string) ([]entities.Collection, error) {
	var list []entities.Collection
	err := r.db.WithContext(ctx).Table(r.layout.table).
		Where("user_name = ?", owner).
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, storeerr.Classify(r.op("list"), err)
	}
	return list, nil
}

// MemberIDs reads the membership relation, sorted by work id.
func (r *Repository) MemberIDs(ctx context.Context, owner string, id uint) ([]uint, error) {
	op := r.op("members of")
	var ids []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.load(tx, op, owner, id); err != nil {
			return err
		}
		return tx.Table(r.layout.members).
			Where(r.layout.fk+" = ?", id).
			Order("work_id ASC").
			Pluck("work_id", &ids).Error
	})
	if err != nil {
		return nil, storeerr.Classify(op, err)
	}
	return ids, nil
}

// AddWork appends workID to the end of the collection.
func (r *Repository) AddWork(ctx context.Context, owner string, id, workID uint) error {
	op := r.op("add work to")
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := r.load(tx, op, owner, id)
		if err != nil {
			return err
		}
		if slices.Contains(c.Works, workID) {
			return storeerr.Conflict(op, "work %d is already in %s %d", workID, r.layout.noun, id)
		}

		insert := fmt.Sprintf("INSERT INTO %s (%s, work_id) VALUES (?, ?)", r.layout.members, r.layout.fk)
		if err := tx.Exec(insert, id, workID).Error; err != nil {
			if storeerr.IsForeignKeyViolation(err) {
				return storeerr.NotFound(op, "work %d does not exist", workID)
			}
			if storeerr.IsDuplicate(err) {
				return storeerr.Conflict(op, "work %d is already in %s %d", workID, r.layout.noun, id)
			}
			return err
		}

		c.Works = append(c.Works, workID)
		return r.saveOrder(tx, c)
	})
	return storeerr.Classify(op, err)
}

func (r *Repository) RemoveWork(ctx context.Context, owner string, id, workID uint) error {
	op := r.op("remove work from")
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := r.load(tx, op, owner, id)
		if err != nil {
			return err
		}
		idx := slices.Index(c.Works, workID)
		if idx < 0 {
			return storeerr.NotFound(op, "work %d is not in %s %d", workID, r.layout.noun, id)
		}

		del := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND work_id = ?", r.layout.members, r.layout.fk)
		if err := tx.Exec(del, id, workID).Error; err != nil {
			return err
		}

		c.Works = slices.Delete(c.Works, idx, idx+1)
		return r.saveOrder(tx, c)
	})
	return storeerr.Classify(op, err)
}

// Reorder replaces the stored order. The new order must contain exactly the
// current members. A mismatch is an IntegrityViolation that also matches
// storeerr.ErrConflict, since it would change membership rather than order.
func (r *Repository) Reorder(ctx context.Context, owner string, id uint, order []uint) error {
	op := r.op("reorder")
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := r.load(tx, op, owner, id)
		if err != nil {
			return err
		}
		if !isPermutation(c.Works, order) {
			return &storeerr.Error{
				Kind: storeerr.ErrIntegrity,
				Op:   op,
				Msg:  "new order must be a permutation of the current members",
				Err:  storeerr.ErrConflict,
			}
		}
		c.Works = append(entities.WorkIDs{}, order...)
		return r.saveOrder(tx, c)
	})
	return storeerr.Classify(op, err)
}

func (r *Repository) load(tx *gorm.DB, op, owner string, id uint) (*entities.Collection, error) {
	var c entities.Collection
	err := tx.Table(r.layout.table).
		Where("id = ? AND user_name = ?", id, owner).
		Limit(1).
		Find(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, storeerr.NotFound(op, "%s %d does not exist", r.layout.noun, id)
	}
	if c.Works == nil {
		c.Works = entities.WorkIDs{}
	}
	return &c, nil
}

func (r *Repository) nameTaken(tx *gorm.DB, owner, name string) (bool, error) {
	var count int64
	err := tx.Table(r.layout.table).
		Where("user_name = ? AND name = ?", owner, name).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) saveOrder(tx *gorm.DB, c *entities.Collection) error {
	return saveOrder(tx, r.layout, c)
}

func saveOrder(tx *gorm.DB, l layout, c *entities.Collection) error {
	if c.Works == nil {
		c.Works = entities.WorkIDs{}
	}
	return tx.Table(l.table).
		Where("id = ?", c.ID).
		Updates(map[string]any{"works": c.Works, "updated_at": time.Now()}).Error
}

func isPermutation(current, order []uint) bool {
	if len(current) != len(order) {
		return false
	}
	a := slices.Clone(current)
	b := slices.Clone(order)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
