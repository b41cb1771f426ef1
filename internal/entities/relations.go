package entities

// Membership tables carry a composite primary key made of their foreign keys
// and no surrogate id.

// WorkDlsiteTag is the scrape-sourced global tag relation.
type WorkDlsiteTag struct {
	TagID  uint      `gorm:"primaryKey;autoIncrement:false"`
	WorkID uint      `gorm:"primaryKey;autoIncrement:false;index"`
	Tag    DlsiteTag `gorm:"foreignKey:TagID"`
	Work   Work      `gorm:"foreignKey:WorkID"`
}

func (WorkDlsiteTag) TableName() string {
	return "work_dlsite_tags"
}

type WorkVoiceActor struct {
	VoiceActorID uint       `gorm:"primaryKey;autoIncrement:false"`
	WorkID       uint       `gorm:"primaryKey;autoIncrement:false;index"`
	VoiceActor   VoiceActor `gorm:"foreignKey:VoiceActorID"`
	Work         Work       `gorm:"foreignKey:WorkID"`
}

func (WorkVoiceActor) TableName() string {
	return "work_voice_actors"
}

// TagOverride records that a user explicitly attached a global tag to a work.
// Once a user has any override on a work, the scraped tags of that work are
// hidden from the user's tag-based listings.
type TagOverride struct {
	UserName string    `gorm:"primaryKey;size:100"`
	TagID    uint      `gorm:"primaryKey;autoIncrement:false;index"`
	WorkID   uint      `gorm:"primaryKey;autoIncrement:false;index"`
	User     User      `gorm:"foreignKey:UserName;references:Name"`
	Tag      DlsiteTag `gorm:"foreignKey:TagID"`
	Work     Work      `gorm:"foreignKey:WorkID"`
}

func (TagOverride) TableName() string {
	return "user_dlsite_tag_works"
}

type UserTagWork struct {
	UserName string  `gorm:"primaryKey;size:100"`
	TagID    uint    `gorm:"primaryKey;autoIncrement:false;index"`
	WorkID   uint    `gorm:"primaryKey;autoIncrement:false;index"`
	User     User    `gorm:"foreignKey:UserName;references:Name"`
	Tag      UserTag `gorm:"foreignKey:TagID"`
	Work     Work    `gorm:"foreignKey:WorkID"`
}

func (UserTagWork) TableName() string {
	return "user_tag_works"
}
