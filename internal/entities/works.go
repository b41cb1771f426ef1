package entities

import (
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

type AgeRating string

const (
	AgeRatingGeneral AgeRating = "G"
	AgeRatingR15     AgeRating = "R15"
	AgeRatingR18     AgeRating = "R18"
)

func (a AgeRating) Valid() bool {
	switch a {
	case AgeRatingGeneral, AgeRatingR15, AgeRatingR18:
		return true
	}
	return false
}

// ParseAgeRating accepts both the stored codes and the aliases used by the
// web client ("general", "r15", "adult").
func ParseAgeRating(s string) (AgeRating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "g", "general", "all":
		return AgeRatingGeneral, nil
	case "r15", "r-15":
		return AgeRatingR15, nil
	case "r18", "r-18", "adult":
		return AgeRatingR18, nil
	}
	return "", fmt.Errorf("unknown age rating %q", s)
}

// ReleaseLayout is the storage format of Work.Release.
const ReleaseLayout = "2006-01-02"

type Circle struct {
	ID   uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"not null;size:255;index" json:"name"`
}

func (Circle) TableName() string {
	return "circles"
}

type Series struct {
	ID   uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"not null;size:255;index" json:"name"`
}

func (Series) TableName() string {
	return "series"
}

type VoiceActor struct {
	ID   uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"not null;size:255;index" json:"name"`
}

func (VoiceActor) TableName() string {
	return "voice_actors"
}

// DlsiteTag is a global tag populated by ingestion and shared by every user.
type DlsiteTag struct {
	ID       uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name     string `gorm:"not null;size:255;index" json:"name"`
	Category string `gorm:"size:100" json:"category,omitempty"`
}

func (DlsiteTag) TableName() string {
	return "dlsite_tags"
}

// WorkMetrics is the popularity bundle replaced wholesale on every refresh.
type WorkMetrics struct {
	DLCount         int            `gorm:"column:dl_count;index" json:"dl_count"`
	Price           int            `gorm:"column:price;index" json:"price"`
	ReviewCount     int            `gorm:"column:review_count;index" json:"review_count"`
	RateCount       int            `gorm:"column:rate_count;index" json:"rate_count"`
	RateAverage     float64        `gorm:"column:rate_average" json:"rate_average"`
	RateAverage2DP  float64        `gorm:"column:rate_average_2dp;index" json:"rate_average_2dp"`
	RateCountDetail datatypes.JSON `gorm:"column:rate_count_detail" json:"rate_count_detail,omitempty"`
	Rank            datatypes.JSON `gorm:"column:rank" json:"rank,omitempty"`
}

type Work struct {
	ID         uint           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title      string         `gorm:"not null;size:512;index" json:"title"`
	RootFolder string         `gorm:"column:root_folder;size:255" json:"root_folder"`
	Dir        string         `gorm:"size:1024" json:"dir"`
	Tracks     datatypes.JSON `json:"tracks,omitempty"`
	CircleID   uint           `gorm:"not null;index" json:"circle_id"`
	Circle     Circle         `gorm:"foreignKey:CircleID" json:"circle"`
	SeriesID   *uint          `gorm:"index" json:"series_id,omitempty"`
	Series     *Series        `gorm:"foreignKey:SeriesID" json:"series,omitempty"`
	AgeRating  AgeRating      `gorm:"column:age_ratings;size:8;index" json:"age_ratings"`
	Release    string         `gorm:"size:10;index" json:"release"`
	WorkMetrics
}

func (Work) TableName() string {
	return "works"
}

// MetricColumns lists the columns written by a dynamic metrics refresh.
var MetricColumns = []string{
	"dl_count", "price", "review_count", "rate_count",
	"rate_average", "rate_average_2dp", "rate_count_detail", "rank",
}
