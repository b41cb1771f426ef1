package collections

import (
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/yodhcn/kikoeru-express/internal/entities"
)

// Ref identifies one collection of any kind.
type Ref struct {
	Kind Kind
	ID   uint
}

// Containing lists every collection whose membership includes workID.
func Containing(tx *gorm.DB, workID uint) ([]Ref, error) {
	var refs []Ref
	for _, kind := range Kinds() {
		l := layouts[kind]
		var ids []uint
		err := tx.Table(l.members).
			Where("work_id = ?", workID).
			Order(l.fk+" ASC").
			Pluck(l.fk, &ids).Error
		if err != nil {
			return nil, fmt.Errorf("find %ss containing work %d: %w", l.noun, workID, err)
		}
		for _, id := range ids {
			refs = append(refs, Ref{Kind: kind, ID: id})
		}
	}
	return refs, nil
}

// PruneWork drops workID from the ordered list and the membership relation
// of each referenced collection. It must run inside the caller's transaction.
func PruneWork(tx *gorm.DB, workID uint, refs []Ref) error {
	for _, ref := range refs {
		l, ok := layouts[ref.Kind]
		if !ok {
			return fmt.Errorf("unknown collection kind %d", ref.Kind)
		}

		var c entities.Collection
		if err := tx.Table(l.table).Where("id = ?", ref.ID).Take(&c).Error; err != nil {
			return fmt.Errorf("load %s %d: %w", l.noun, ref.ID, err)
		}
		c.Works = slices.DeleteFunc(c.Works, func(id uint) bool { return id == workID })
		if err := saveOrder(tx, l, &c); err != nil {
			return fmt.Errorf("save %s %d: %w", l.noun, ref.ID, err)
		}

		del := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND work_id = ?", l.members, l.fk)
		if err := tx.Exec(del, ref.ID, workID).Error; err != nil {
			return fmt.Errorf("prune %s %d: %w", l.noun, ref.ID, err)
		}
	}
	return nil
}

// DeleteOwnedBy removes every collection of every kind owned by owner.
func DeleteOwnedBy(tx *gorm.DB, owner string) (int64, error) {
	var total int64
	for _, kind := range Kinds() {
		l := layouts[kind]
		members := fmt.Sprintf(
			"DELETE FROM %s WHERE %s IN (SELECT id FROM %s WHERE user_name = ?)",
			l.members, l.fk, l.table,
		)
		if err := tx.Exec(members, owner).Error; err != nil {
			return total, fmt.Errorf("delete %s members of %q: %w", l.noun, owner, err)
		}
		result := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE user_name = ?", l.table), owner)
		if result.Error != nil {
			return total, fmt.Errorf("delete %ss of %q: %w", l.noun, owner, result.Error)
		}
		total += result.RowsAffected
	}
	return total, nil
}
