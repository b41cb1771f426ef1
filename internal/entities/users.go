package entities

import "time"

type UserGroup string

const (
	UserGroupAdministrator UserGroup = "administrator"
	UserGroupUser          UserGroup = "user"
	UserGroupGuest         UserGroup = "guest"
)

// DefaultUsername is the built-in administrator that owns all data when
// authentication is disabled.
const DefaultUsername = "admin"

type User struct {
	Name         string    `gorm:"primaryKey;size:100" json:"name"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Group        UserGroup `gorm:"size:20;not null;default:user" json:"group"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// UserTag is a private tag namespace owned by one user.
type UserTag struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null;size:255;uniqueIndex:idx_user_tags_owner_name" json:"name"`
	CreatedBy string `gorm:"not null;size:100;uniqueIndex:idx_user_tags_owner_name" json:"created_by"`
	Creator   User   `gorm:"foreignKey:CreatedBy;references:Name" json:"-"`
}

func (UserTag) TableName() string {
	return "user_tags"
}
