// Package query composes filtered, sorted and paginated work listings and
// per-entity label counts.
//
// A listing is built in two stages: a Source picks the base set of works
// (everything, one circle, one tag, a keyword, ...), and a Filter narrows it
// by release date and age rating. The same Filter logic applies to every
// Source.
//
// # Usage
//
//	c := query.NewComposer(db, 12)
//	res, err := c.Works(ctx, "alice", query.ByDlsiteTag(42),
//		query.Filter{Release: query.ReleaseMonth}, query.DefaultPage())
package query

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

// SortField is a whitelisted, indexed works column.
type SortField string

const (
	SortRelease     SortField = "release"
	SortID          SortField = "id"
	SortDLCount     SortField = "dl_count"
	SortPrice       SortField = "price"
	SortReviewCount SortField = "review_count"
	SortRateCount   SortField = "rate_count"
	SortRating      SortField = "rate_average_2dp"
)

var sortable = map[SortField]bool{
	SortRelease:     true,
	SortID:          true,
	SortDLCount:     true,
	SortPrice:       true,
	SortReviewCount: true,
	SortRateCount:   true,
	SortRating:      true,
}

func ParseSortField(s string) (SortField, error) {
	f := SortField(s)
	if !sortable[f] {
		return "", fmt.Errorf("cannot sort by %q", s)
	}
	return f, nil
}

// Page selects one page of a listing. Number is 1-based; a zero Size means
// the composer's default page size.
type Page struct {
	Number  int
	Size    int
	OrderBy SortField
	Desc    bool
}

// DefaultPage is the first page, newest releases first.
func DefaultPage() Page {
	return Page{Number: 1, OrderBy: SortRelease, Desc: true}
}

// Result is one page of works plus the total over the whole predicate.
type Result struct {
	Works    []entities.Work `json:"works"`
	Total    int64           `json:"totalCount"`
	Page     int             `json:"currentPage"`
	PageSize int             `json:"pageSize"`
}

// Composer runs listing and label queries.
type Composer struct {
	db       *gorm.DB
	pageSize int
	now      func() time.Time
}

// NewComposer creates a composer with the given default page size.
func NewComposer(db *gorm.DB, pageSize int) *Composer {
	if pageSize <= 0 {
		pageSize = 12
	}
	return &Composer{db: db, pageSize: pageSize, now: time.Now}
}

// WithClock replaces the clock used for release-date buckets.
func (c *Composer) WithClock(now func() time.Time) *Composer {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Composer) PageSize() int {
	return c.pageSize
}

// Works returns one page of the works matching src and f, together with the
// total count. Both are read from the same predicate inside one transaction.
func (c *Composer) Works(ctx context.Context, username string, src Source, f Filter, p Page) (*Result, error) {
	const op = "list works"
	p, err := c.normalize(p)
	if err != nil {
		return nil, storeerr.Integrity(op, "%v", err)
	}

	res := &Result{Works: []entities.Work{}, Page: p.Number, PageSize: p.Size}
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := c.scope(tx, username, src, f)
		if err != nil {
			return err
		}
		if err := count.Count(&res.Total).Error; err != nil {
			return err
		}

		page, err := c.scope(tx, username, src, f)
		if err != nil {
			return err
		}
		return order(page, p).
			Preload("Circle").
			Preload("Series").
			Limit(p.Size).
			Offset((p.Number - 1) * p.Size).
			Find(&res.Works).Error
	})
	if err != nil {
		return nil, storeerr.Classify(op, err)
	}
	return res, nil
}

// WorkIDs is the id-only form of Works.
func (c *Composer) WorkIDs(ctx context.Context, username string, src Source, f Filter, p Page) ([]uint, int64, error) {
	const op = "list work ids"
	p, err := c.normalize(p)
	if err != nil {
		return nil, 0, storeerr.Integrity(op, "%v", err)
	}

	var (
		ids   []uint
		total int64
	)
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := c.scope(tx, username, src, f)
		if err != nil {
			return err
		}
		if err := count.Count(&total).Error; err != nil {
			return err
		}

		page, err := c.scope(tx, username, src, f)
		if err != nil {
			return err
		}
		return order(page, p).
			Limit(p.Size).
			Offset((p.Number-1)*p.Size).
			Pluck("works.id", &ids).Error
	})
	if err != nil {
		return nil, 0, storeerr.Classify(op, err)
	}
	return ids, total, nil
}

func (c *Composer) scope(tx *gorm.DB, username string, src Source, f Filter) (*gorm.DB, error) {
	base, err := src.expr(username)
	if err != nil {
		return nil, storeerr.Integrity("compose query", "%v", err)
	}
	filters, err := f.exprs(c.now())
	if err != nil {
		return nil, storeerr.Integrity("compose query", "%v", err)
	}

	q := tx.Model(&entities.Work{})
	if base.SQL != "" {
		q = q.Where(base)
	}
	for _, e := range filters {
		q = q.Where(e)
	}
	return q, nil
}

func (c *Composer) normalize(p Page) (Page, error) {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = c.pageSize
	}
	if p.OrderBy == "" {
		p.OrderBy = SortRelease
	}
	if !sortable[p.OrderBy] {
		return p, fmt.Errorf("cannot sort by %q", p.OrderBy)
	}
	return p, nil
}

// order sorts by the requested column and breaks ties on id in the same
// direction, so that pages never overlap.
func order(q *gorm.DB, p Page) *gorm.DB {
	q = q.Order(clause.OrderByColumn{
		Column: clause.Column{Table: "works", Name: string(p.OrderBy)},
		Desc:   p.Desc,
	})
	if p.OrderBy != SortID {
		q = q.Order(clause.OrderByColumn{
			Column: clause.Column{Table: "works", Name: "id"},
			Desc:   p.Desc,
		})
	}
	return q
}
