package migration

import (
	"gorm.io/gorm"

	"github.com/storyloom/storyloom-backend/internal/domain"
)

// Run executes AutoMigrate for every table the import pipeline touches.
// Creates missing tables, skips existing ones.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Board{},
		&domain.BoardSection{},
		&domain.Post{},
		&domain.PostAuthor{},
		&domain.Reply{},
		&domain.Character{},
		&domain.Gallery{},
		&domain.GalleryIcon{},
		&domain.Icon{},
		&domain.Notification{},
	)
}
