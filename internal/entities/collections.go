package entities

import (
	"time"

	"gorm.io/datatypes"
)

// WorkIDs is the authoritative ordering of a collection, stored as a JSON array.
type WorkIDs = datatypes.JSONSlice[uint]

// Collection is the shape shared by mylists and playlists. It is used to scan
// either table; the concrete models below own the schema.
type Collection struct {
	ID        uint      `json:"id"`
	UserName  string    `json:"user_name"`
	Name      string    `json:"name"`
	Works     WorkIDs   `json:"works"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Mylist struct {
	ID        uint      `gorm:"primaryKey"`
	UserName  string    `gorm:"not null;size:100;uniqueIndex:idx_mylists_owner_name"`
	Name      string    `gorm:"not null;size:255;uniqueIndex:idx_mylists_owner_name"`
	Works     WorkIDs   `gorm:"not null"`
	User      User      `gorm:"foreignKey:UserName;references:Name"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Mylist) TableName() string {
	return "mylists"
}

type MylistWork struct {
	MylistID uint   `gorm:"primaryKey;autoIncrement:false"`
	WorkID   uint   `gorm:"primaryKey;autoIncrement:false;index"`
	Mylist   Mylist `gorm:"foreignKey:MylistID"`
	Work     Work   `gorm:"foreignKey:WorkID"`
}

func (MylistWork) TableName() string {
	return "mylist_works"
}

type Playlist struct {
	ID        uint      `gorm:"primaryKey"`
	UserName  string    `gorm:"not null;size:100;uniqueIndex:idx_playlists_owner_name"`
	Name      string    `gorm:"not null;size:255;uniqueIndex:idx_playlists_owner_name"`
	Works     WorkIDs   `gorm:"not null"`
	User      User      `gorm:"foreignKey:UserName;references:Name"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Playlist) TableName() string {
	return "playlists"
}

type PlaylistWork struct {
	PlaylistID uint     `gorm:"primaryKey;autoIncrement:false"`
	WorkID     uint     `gorm:"primaryKey;autoIncrement:false;index"`
	Playlist   Playlist `gorm:"foreignKey:PlaylistID"`
	Work       Work     `gorm:"foreignKey:WorkID"`
}

func (PlaylistWork) TableName() string {
	return "playlist_works"
}
