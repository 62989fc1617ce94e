package domain

import "time"

// Post status values. Imports carry the status requested by the user;
// organically created posts always start active.
const (
	PostStatusActive    = "active"
	PostStatusComplete  = "complete"
	PostStatusHiatus    = "hiatus"
	PostStatusAbandoned = "abandoned"
)

// Post represents one thread on a board
type Post struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BoardID     int64      `gorm:"column:board_id;index" json:"board_id"`
	SectionID   *int64     `gorm:"column:section_id" json:"section_id,omitempty"`
	UserID      int64      `gorm:"column:user_id;index" json:"user_id"`
	CharacterID *int64     `gorm:"column:character_id" json:"character_id,omitempty"`
	IconID      *int64     `gorm:"column:icon_id" json:"icon_id,omitempty"`
	Subject     string     `gorm:"column:subject;size:255;index" json:"subject"`
	Content     string     `gorm:"column:content;type:text" json:"content"`
	Status      string     `gorm:"column:status;size:20;default:active" json:"status"`
	// Denormalized last-activity fields, kept current so board listings
	// never have to join against replies.
	LastUserID  int64      `gorm:"column:last_user_id" json:"last_user_id"`
	LastReplyID *int64     `gorm:"column:last_reply_id" json:"last_reply_id,omitempty"`
	TaggedAt    time.Time  `gorm:"column:tagged_at;index" json:"tagged_at"`
	// AuthorsLocked freezes the participant roster. Always true for
	// imported posts: the historical record fixes who wrote in them.
	AuthorsLocked bool      `gorm:"column:authors_locked" json:"authors_locked"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName returns the table name
func (Post) TableName() string {
	return "posts"
}

// PostAuthor is one row of a post's participant roster
type PostAuthor struct {
	ID     int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PostID int64 `gorm:"column:post_id;index" json:"post_id"`
	UserID int64 `gorm:"column:user_id;index" json:"user_id"`
}

// TableName returns the table name
func (PostAuthor) TableName() string {
	return "post_authors"
}

// ValidPostStatus reports whether s is an accepted post status
func ValidPostStatus(s string) bool {
	switch s {
	case PostStatusActive, PostStatusComplete, PostStatusHiatus, PostStatusAbandoned:
		return true
	}
	return false
}
