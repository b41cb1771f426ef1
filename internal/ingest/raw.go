package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/yodhcn/kikoeru-express/internal/database/catalog"
	"github.com/yodhcn/kikoeru-express/internal/entities"
)

// RawNamed is an id/name pair as emitted by the scraper for circles and series.
type RawNamed struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// RawTag is a global tag definition.
type RawTag struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// RawVoiceActor may come without an id when the scraper only knows the name.
type RawVoiceActor struct {
	ID   uint   `json:"id,omitempty"`
	Name string `json:"name"`
}

// RawWork is one work record in the scraper's JSON format.
type RawWork struct {
	ID              uint            `json:"id"`
	Title           string          `json:"title"`
	Circle          RawNamed        `json:"circle"`
	Series          *RawNamed       `json:"series,omitempty"`
	Tags            []RawTag        `json:"tags,omitempty"`
	VoiceActors     []RawVoiceActor `json:"vas,omitempty"`
	AgeRatings      string          `json:"age_ratings,omitempty"`
	NSFW            *bool           `json:"nsfw,omitempty"`
	Release         string          `json:"release,omitempty"`
	RootFolderName  string          `json:"rootFolderName,omitempty"`
	Dir             string          `json:"dir,omitempty"`
	Tracks          json.RawMessage `json:"tracks,omitempty"`
	DLCount         int             `json:"dl_count"`
	Price           int             `json:"price"`
	ReviewCount     int             `json:"review_count"`
	RateCount       int             `json:"rate_count"`
	RateAverage     float64         `json:"rate_average"`
	RateAverage2DP  float64         `json:"rate_average_2dp"`
	RateCountDetail json.RawMessage `json:"rate_count_detail,omitempty"`
	Rank            json.RawMessage `json:"rank,omitempty"`
}

// RawMetrics is the payload of a dynamic metrics refresh.
type RawMetrics struct {
	DLCount         int             `json:"dl_count"`
	Price           int             `json:"price"`
	ReviewCount     int             `json:"review_count"`
	RateCount       int             `json:"rate_count"`
	RateAverage     float64         `json:"rate_average"`
	RateAverage2DP  float64         `json:"rate_average_2dp"`
	RateCountDetail json.RawMessage `json:"rate_count_detail,omitempty"`
	Rank            json.RawMessage `json:"rank,omitempty"`
}

// Metrics converts the payload to the stored metrics bundle.
func (m RawMetrics) Metrics() entities.WorkMetrics {
	return entities.WorkMetrics{
		DLCount:         m.DLCount,
		Price:           m.Price,
		ReviewCount:     m.ReviewCount,
		RateCount:       m.RateCount,
		RateAverage:     m.RateAverage,
		RateAverage2DP:  m.RateAverage2DP,
		RateCountDetail: jsonOrNil(m.RateCountDetail),
		Rank:            jsonOrNil(m.Rank),
	}
}

// Metadata normalizes the record into catalog input.
func (w RawWork) Metadata() (catalog.WorkMetadata, error) {
	if w.ID == 0 {
		return catalog.WorkMetadata{}, errors.New("work id is required")
	}
	if w.Circle.ID == 0 {
		return catalog.WorkMetadata{}, fmt.Errorf("RJ%06d: circle id is required", w.ID)
	}

	rating, err := w.ageRating()
	if err != nil {
		return catalog.WorkMetadata{}, fmt.Errorf("RJ%06d: %w", w.ID, err)
	}
	if w.Release != "" {
		if _, err := time.Parse(entities.ReleaseLayout, w.Release); err != nil {
			return catalog.WorkMetadata{}, fmt.Errorf("RJ%06d: invalid release date %q", w.ID, w.Release)
		}
	}

	metrics := RawMetrics{
		DLCount:         w.DLCount,
		Price:           w.Price,
		ReviewCount:     w.ReviewCount,
		RateCount:       w.RateCount,
		RateAverage:     w.RateAverage,
		RateAverage2DP:  w.RateAverage2DP,
		RateCountDetail: w.RateCountDetail,
		Rank:            w.Rank,
	}.Metrics()

	md := catalog.WorkMetadata{
		Work: entities.Work{
			ID:          w.ID,
			Title:       strings.TrimSpace(w.Title),
			RootFolder:  w.RootFolderName,
			Dir:         w.Dir,
			Tracks:      jsonOrNil(w.Tracks),
			AgeRating:   rating,
			Release:     w.Release,
			WorkMetrics: metrics,
		},
		Circle: entities.Circle{ID: w.Circle.ID, Name: w.Circle.Name},
	}
	if w.Series != nil && w.Series.ID != 0 {
		md.Series = &entities.Series{ID: w.Series.ID, Name: w.Series.Name}
	}
	for _, tag := range w.Tags {
		md.Tags = append(md.Tags, entities.DlsiteTag{ID: tag.ID, Name: tag.Name, Category: tag.Category})
	}
	for _, va := range w.VoiceActors {
		name := strings.TrimSpace(va.Name)
		if name == "" {
			continue
		}
		id := va.ID
		if id == 0 {
			id = VoiceActorID(name)
		}
		md.VoiceActors = append(md.VoiceActors, entities.VoiceActor{ID: id, Name: name})
	}
	return md, nil
}

func (w RawWork) ageRating() (entities.AgeRating, error) {
	if w.AgeRatings != "" {
		return entities.ParseAgeRating(w.AgeRatings)
	}
	if w.NSFW != nil {
		if *w.NSFW {
			return entities.AgeRatingR18, nil
		}
		return entities.AgeRatingGeneral, nil
	}
	return "", nil
}

// VoiceActorID derives a stable id from a voice actor name. Ids fit in 31
// bits so they never collide with the sign bit of SQLite integers.
func VoiceActorID(name string) uint {
	h := fnv.New32a()
	h.Write([]byte(strings.TrimSpace(name)))
	id := uint(h.Sum32() & 0x7fffffff)
	if id == 0 {
		id = 1
	}
	return id
}

func jsonOrNil(raw json.RawMessage) datatypes.JSON {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == "[]" {
		return nil
	}
	return datatypes.JSON(trimmed)
}

// GlobalTags converts tag definitions to catalog tags.
func GlobalTags(defs []RawTag) []entities.DlsiteTag {
	out := make([]entities.DlsiteTag, len(defs))
	for i, def := range defs {
		out[i] = entities.DlsiteTag{ID: def.ID, Name: def.Name, Category: def.Category}
	}
	return out
}
