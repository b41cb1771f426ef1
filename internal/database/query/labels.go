package query

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/yodhcn/kikoeru-express/internal/database/tags"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

// LabelKind is the entity a label aggregation groups by.
type LabelKind string

const (
	LabelCircle     LabelKind = "circle"
	LabelSeries     LabelKind = "series"
	LabelVoiceActor LabelKind = "va"
	LabelDlsiteTag  LabelKind = "tag"
	LabelUserTag    LabelKind = "user-tag"
)

func ParseLabelKind(s string) (LabelKind, error) {
	switch s {
	case "circle", "circles":
		return LabelCircle, nil
	case "series":
		return LabelSeries, nil
	case "va", "vas":
		return LabelVoiceActor, nil
	case "tag", "tags", "dlsite-tag":
		return LabelDlsiteTag, nil
	case "user-tag", "user-tags":
		return LabelUserTag, nil
	}
	return "", fmt.Errorf("unknown label kind %q", s)
}

// Label is one distinct value with the number of works carrying it.
type Label struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Count    int64  `json:"count"`
}

var labelBuilders = map[LabelKind]func(username string) clause.Expr{
	LabelCircle:     circleLabels,
	LabelSeries:     seriesLabels,
	LabelVoiceActor: voiceActorLabels,
	LabelDlsiteTag:  dlsiteTagLabels,
	LabelUserTag:    userTagLabels,
}

// Labels returns every distinct value of kind with its work count, sorted by
// name. Global tags are counted in username's view.
func (c *Composer) Labels(ctx context.Context, username string, kind LabelKind) ([]Label, error) {
	const op = "list labels"
	build, ok := labelBuilders[kind]
	if !ok {
		return nil, storeerr.Integrity(op, "unknown label kind %q", kind)
	}

	expr := build(username)
	labels := []Label{}
	if err := c.db.WithContext(ctx).Raw(expr.SQL, expr.Vars...).Scan(&labels).Error; err != nil {
		return nil, storeerr.Classify(op, err)
	}
	return labels, nil
}

func circleLabels(string) clause.Expr {
	return clause.Expr{SQL: `
		SELECT circles.id AS id, circles.name AS name, COUNT(works.id) AS count
		FROM circles
		JOIN works ON works.circle_id = circles.id
		GROUP BY circles.id, circles.name
		ORDER BY circles.name ASC, circles.id ASC`}
}

func seriesLabels(string) clause.Expr {
	return clause.Expr{SQL: `
		SELECT series.id AS id, series.name AS name, COUNT(works.id) AS count
		FROM series
		JOIN works ON works.series_id = series.id
		GROUP BY series.id, series.name
		ORDER BY series.name ASC, series.id ASC`}
}

func voiceActorLabels(string) clause.Expr {
	return clause.Expr{SQL: `
		SELECT voice_actors.id AS id, voice_actors.name AS name, COUNT(r.work_id) AS count
		FROM voice_actors
		JOIN work_voice_actors r ON r.voice_actor_id = voice_actors.id
		GROUP BY voice_actors.id, voice_actors.name
		ORDER BY voice_actors.name ASC, voice_actors.id ASC`}
}

func dlsiteTagLabels(username string) clause.Expr {
	visible := tags.VisibleRelations(username)
	return clause.Expr{
		SQL: `
		SELECT dlsite_tags.id AS id, dlsite_tags.name AS name, dlsite_tags.category AS category, COUNT(r.work_id) AS count
		FROM (` + visible.SQL + `) r
		JOIN dlsite_tags ON dlsite_tags.id = r.tag_id
		GROUP BY dlsite_tags.id, dlsite_tags.name, dlsite_tags.category
		ORDER BY dlsite_tags.name ASC, dlsite_tags.id ASC`,
		Vars: visible.Vars,
	}
}

func userTagLabels(username string) clause.Expr {
	return clause.Expr{
		SQL: `
		SELECT user_tags.id AS id, user_tags.name AS name, COUNT(r.work_id) AS count
		FROM user_tag_works r
		JOIN user_tags ON user_tags.id = r.tag_id
		WHERE r.user_name = ?
		GROUP BY user_tags.id, user_tags.name
		ORDER BY user_tags.name ASC, user_tags.id ASC`,
		Vars: []any{username},
	}
}
