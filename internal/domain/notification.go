package domain

import "time"

// Notification types sent by the import worker
const (
	NotificationImportSuccess = "import_success"
	NotificationImportFailure = "import_failure"
)

// Notification represents a user notification
type Notification struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"column:user_id;index" json:"user_id"`
	Type      string    `gorm:"column:type;size:40" json:"type"`
	Message   string    `gorm:"column:message;type:text" json:"message"`
	PostID    *int64    `gorm:"column:post_id" json:"post_id,omitempty"`
	IsRead    bool      `gorm:"column:is_read" json:"is_read"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (Notification) TableName() string {
	return "notifications"
}
