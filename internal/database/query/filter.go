package query

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/yodhcn/kikoeru-express/internal/entities"
)

// ReleaseTerm buckets works by release date relative to now.
type ReleaseTerm string

const (
	ReleaseAny   ReleaseTerm = ""
	ReleaseWeek  ReleaseTerm = "week"
	ReleaseMonth ReleaseTerm = "month"
	ReleaseYear  ReleaseTerm = "year"
	ReleaseOld   ReleaseTerm = "old"
)

func ParseReleaseTerm(s string) (ReleaseTerm, error) {
	switch t := ReleaseTerm(s); t {
	case ReleaseAny, ReleaseWeek, ReleaseMonth, ReleaseYear, ReleaseOld:
		return t, nil
	}
	return "", fmt.Errorf("unknown release term %q", s)
}

// Filter narrows any source the same way.
type Filter struct {
	Release   ReleaseTerm
	AgeRating entities.AgeRating
}

func (f Filter) exprs(now time.Time) ([]clause.Expr, error) {
	var out []clause.Expr

	switch f.Release {
	case ReleaseAny:
	case ReleaseWeek:
		out = append(out, releasedSince(now.AddDate(0, 0, -7)))
	case ReleaseMonth:
		out = append(out, releasedSince(now.AddDate(0, -1, 0)))
	case ReleaseYear:
		out = append(out, releasedSince(now.AddDate(-1, 0, 0)))
	case ReleaseOld:
		cutoff := now.AddDate(-1, 0, -1).Format(entities.ReleaseLayout)
		out = append(out, clause.Expr{SQL: "works.release <= ?", Vars: []any{cutoff}})
	default:
		return nil, fmt.Errorf("unknown release term %q", f.Release)
	}

	if f.AgeRating != "" {
		if !f.AgeRating.Valid() {
			return nil, fmt.Errorf("unknown age rating %q", f.AgeRating)
		}
		out = append(out, clause.Expr{SQL: "works.age_ratings = ?", Vars: []any{string(f.AgeRating)}})
	}
	return out, nil
}

func releasedSince(t time.Time) clause.Expr {
	return clause.Expr{SQL: "works.release >= ?", Vars: []any{t.Format(entities.ReleaseLayout)}}
}
