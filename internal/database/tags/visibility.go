package tags

import (
	"fmt"

	"gorm.io/gorm/clause"
)

// editedBy selects the works a user holds at least one override on.
const editedBy = "SELECT work_id FROM user_dlsite_tag_works WHERE user_name = ?"

// VisibleWorks builds a condition on works.id matching the works that carry,
// in username's view, a global tag satisfying tagCond. tagCond is written
// against an unqualified tag_id column and its args bind to it.
//
// Works the user edited match through the user's overrides only; every other
// work matches through its scraped tags.
func VisibleWorks(username, tagCond string, args ...any) clause.Expr {
	sql := fmt.Sprintf(
		"(works.id IN (SELECT work_id FROM user_dlsite_tag_works WHERE user_name = ? AND %[1]s)"+
			" OR works.id IN (SELECT work_id FROM work_dlsite_tags WHERE %[1]s AND work_id NOT IN (%[2]s)))",
		tagCond, editedBy,
	)
	vars := make([]any, 0, 2*len(args)+2)
	vars = append(vars, username)
	vars = append(vars, args...)
	vars = append(vars, args...)
	vars = append(vars, username)
	return clause.Expr{SQL: sql, Vars: vars}
}

// VisibleRelations is a row source of (tag_id, work_id) pairs forming the
// user's view of the global tag relation. The two branches cover disjoint
// sets of works, so no pair appears twice.
func VisibleRelations(username string) clause.Expr {
	return clause.Expr{
		SQL: "SELECT tag_id, work_id FROM user_dlsite_tag_works WHERE user_name = ?" +
			" UNION ALL " +
			"SELECT tag_id, work_id FROM work_dlsite_tags WHERE work_id NOT IN (" + editedBy + ")",
		Vars: []any{username, username},
	}
}

// VisibleTagIDs returns the ids of the global tags on workID in username's
// view, ordered by id.
func VisibleTagIDs(username string, workID uint) clause.Expr {
	rel := VisibleRelations(username)
	return clause.Expr{
		SQL:  "SELECT tag_id FROM (" + rel.SQL + ") WHERE work_id = ? ORDER BY tag_id",
		Vars: append(rel.Vars, workID),
	}
}
