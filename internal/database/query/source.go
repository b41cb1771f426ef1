package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/yodhcn/kikoeru-express/internal/database/tags"
)

// SourceKind selects the base predicate of a listing.
type SourceKind int

const (
	SourceAll SourceKind = iota
	SourceCircle
	SourceSeries
	SourceVoiceActor
	SourceUserTag
	SourceDlsiteTag
	SourceKeyword
)

func (k SourceKind) String() string {
	switch k {
	case SourceAll:
		return "all"
	case SourceCircle:
		return "circle"
	case SourceSeries:
		return "series"
	case SourceVoiceActor:
		return "va"
	case SourceUserTag:
		return "user-tag"
	case SourceDlsiteTag:
		return "tag"
	case SourceKeyword:
		return "keyword"
	}
	return fmt.Sprintf("SourceKind(%d)", int(k))
}

// Source is a tagged variant: Kind says which of ID or Keyword is meaningful.
type Source struct {
	Kind    SourceKind
	ID      uint
	Keyword string
}

func All() Source                  { return Source{Kind: SourceAll} }
func ByCircle(id uint) Source      { return Source{Kind: SourceCircle, ID: id} }
func BySeries(id uint) Source      { return Source{Kind: SourceSeries, ID: id} }
func ByVoiceActor(id uint) Source  { return Source{Kind: SourceVoiceActor, ID: id} }
func ByUserTag(id uint) Source     { return Source{Kind: SourceUserTag, ID: id} }
func ByDlsiteTag(id uint) Source   { return Source{Kind: SourceDlsiteTag, ID: id} }
func ByKeyword(text string) Source { return Source{Kind: SourceKeyword, Keyword: text} }

// ParseField maps the route segment used by the HTTP API to a source kind.
func ParseField(field string) (SourceKind, error) {
	switch field {
	case "circle", "circles":
		return SourceCircle, nil
	case "series":
		return SourceSeries, nil
	case "va", "vas":
		return SourceVoiceActor, nil
	case "tag", "tags", "dlsite-tag":
		return SourceDlsiteTag, nil
	case "user-tag", "user-tags":
		return SourceUserTag, nil
	}
	return 0, fmt.Errorf("unknown field %q", field)
}

// ByField builds an id-keyed source of the given kind.
func ByField(kind SourceKind, id uint) (Source, error) {
	switch kind {
	case SourceCircle, SourceSeries, SourceVoiceActor, SourceUserTag, SourceDlsiteTag:
		return Source{Kind: kind, ID: id}, nil
	}
	return Source{}, fmt.Errorf("source %s is not keyed by id", kind)
}

type sourceBuilder func(username string, src Source) clause.Expr

var sourceBuilders = map[SourceKind]sourceBuilder{
	SourceAll:        allWorks,
	SourceCircle:     circleWorks,
	SourceSeries:     seriesWorks,
	SourceVoiceActor: voiceActorWorks,
	SourceUserTag:    userTagWorks,
	SourceDlsiteTag:  dlsiteTagWorks,
	SourceKeyword:    keywordWorks,
}

func (s Source) expr(username string) (clause.Expr, error) {
	build, ok := sourceBuilders[s.Kind]
	if !ok {
		return clause.Expr{}, fmt.Errorf("unknown source %s", s.Kind)
	}
	return build(username, s), nil
}

func allWorks(string, Source) clause.Expr {
	return clause.Expr{}
}

func circleWorks(_ string, src Source) clause.Expr {
	return clause.Expr{SQL: "works.circle_id = ?", Vars: []any{src.ID}}
}

func seriesWorks(_ string, src Source) clause.Expr {
	return clause.Expr{SQL: "works.series_id = ?", Vars: []any{src.ID}}
}

func voiceActorWorks(_ string, src Source) clause.Expr {
	return clause.Expr{
		SQL:  "works.id IN (SELECT work_id FROM work_voice_actors WHERE voice_actor_id = ?)",
		Vars: []any{src.ID},
	}
}

func userTagWorks(username string, src Source) clause.Expr {
	return clause.Expr{
		SQL:  "works.id IN (SELECT work_id FROM user_tag_works WHERE tag_id = ? AND user_name = ?)",
		Vars: []any{src.ID, username},
	}
}

func dlsiteTagWorks(username string, src Source) clause.Expr {
	return tags.VisibleWorks(username, "tag_id = ?", src.ID)
}

// workCode finds a DLsite product code anywhere in a keyword. Eight digits
// win over six when both fit.
var workCode = regexp.MustCompile(`(?i)RJ(\d{8}|\d{6})`)

// keywordWorks matches every work for a blank keyword and a single work
// when the keyword carries a product code.
func keywordWorks(username string, src Source) clause.Expr {
	if strings.TrimSpace(src.Keyword) == "" {
		return allWorks(username, src)
	}
	if m := workCode.FindStringSubmatch(src.Keyword); m != nil {
		id, _ := strconv.ParseUint(m[1], 10, 64)
		return clause.Expr{SQL: "works.id = ?", Vars: []any{uint(id)}}
	}

	pattern := "%" + escapeLike(strings.TrimSpace(src.Keyword)) + "%"
	tagged := tags.VisibleWorks(username, `tag_id IN (SELECT id FROM dlsite_tags WHERE name LIKE ? ESCAPE '\')`, pattern)

	sql := `(works.title LIKE ? ESCAPE '\'` +
		` OR works.circle_id IN (SELECT id FROM circles WHERE name LIKE ? ESCAPE '\')` +
		` OR works.series_id IN (SELECT id FROM series WHERE name LIKE ? ESCAPE '\')` +
		` OR works.id IN (SELECT work_id FROM work_voice_actors WHERE voice_actor_id IN (SELECT id FROM voice_actors WHERE name LIKE ? ESCAPE '\'))` +
		` OR works.id IN (SELECT work_id FROM user_tag_works WHERE user_name = ? AND tag_id IN (SELECT id FROM user_tags WHERE name LIKE ? ESCAPE '\'))` +
		` OR ` + tagged.SQL + `)`
	vars := []any{pattern, pattern, pattern, pattern, username, pattern}
	vars = append(vars, tagged.Vars...)
	return clause.Expr{SQL: sql, Vars: vars}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
