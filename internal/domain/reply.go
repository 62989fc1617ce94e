package domain

import "time"

// Reply represents one tag in a post's thread.
// ReplyOrder is the zero-based position within the post and is assigned
// strictly in origin document order during imports.
type Reply struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PostID      int64     `gorm:"column:post_id;index" json:"post_id"`
	UserID      int64     `gorm:"column:user_id;index" json:"user_id"`
	CharacterID *int64    `gorm:"column:character_id" json:"character_id,omitempty"`
	IconID      *int64    `gorm:"column:icon_id" json:"icon_id,omitempty"`
	Content     string    `gorm:"column:content;type:text" json:"content"`
	ReplyOrder  int       `gorm:"column:reply_order;index" json:"reply_order"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName returns the table name
func (Reply) TableName() string {
	return "replies"
}
