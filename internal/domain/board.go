package domain

import "time"

// Board represents a continuity board posts are filed under
type Board struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:120" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (Board) TableName() string {
	return "boards"
}

// BoardSection represents an ordered section within a board
type BoardSection struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BoardID      int64  `gorm:"column:board_id;index" json:"board_id"`
	Name         string `gorm:"column:name;size:120" json:"name"`
	SectionOrder int    `gorm:"column:section_order" json:"section_order"`
}

// TableName returns the table name
func (BoardSection) TableName() string {
	return "board_sections"
}
