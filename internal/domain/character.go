package domain

import "time"

// Character represents a character a user writes as.
// Screenname is the journal-style handle the origin platform knows the
// character by; it is the lookup key for identity resolution.
type Character struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"column:user_id;index" json:"user_id"`
	Name       string    `gorm:"column:name;size:120" json:"name"`
	Screenname string    `gorm:"column:screenname;size:120;index" json:"screenname"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (Character) TableName() string {
	return "characters"
}

// Gallery represents an icon gallery. CharacterID is nil for galleries
// hanging directly off a user.
type Gallery struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"column:user_id;index" json:"user_id"`
	CharacterID *int64    `gorm:"column:character_id;index" json:"character_id,omitempty"`
	Name        string    `gorm:"column:name;size:120" json:"name"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (Gallery) TableName() string {
	return "galleries"
}

// GalleryIcon links an icon into a gallery
type GalleryIcon struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	GalleryID int64 `gorm:"column:gallery_id;index" json:"gallery_id"`
	IconID    int64 `gorm:"column:icon_id;index" json:"icon_id"`
}

// TableName returns the table name
func (GalleryIcon) TableName() string {
	return "gallery_icons"
}
