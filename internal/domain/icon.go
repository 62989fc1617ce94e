package domain

import "time"

// Icon represents a single userpic. URL is always stored in canonical
// https form; Keyword is the cleaned origin keyword.
type Icon struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"column:user_id;index" json:"user_id"`
	URL       string    `gorm:"column:url;size:500;index" json:"url"`
	Keyword   string    `gorm:"column:keyword;size:255" json:"keyword"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (Icon) TableName() string {
	return "icons"
}
