package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/storyloom/storyloom-backend/internal/domain"
)

// IconRepository handles icon data operations
type IconRepository struct {
	db *gorm.DB
}

// NewIconRepository creates a new IconRepository
func NewIconRepository(db *gorm.DB) *IconRepository {
	return &IconRepository{db: db}
}

// WithTx returns a new IconRepository bound to the given transaction
func (r *IconRepository) WithTx(tx *gorm.DB) *IconRepository {
	return &IconRepository{db: tx}
}

// FindByURL retrieves an icon by its canonical URL
func (r *IconRepository) FindByURL(url string) (*domain.Icon, error) {
	var icon domain.Icon
	err := r.db.Where("url = ?", url).First(&icon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &icon, nil
}

// FindByCharacterAndKeyword retrieves an icon owned by one of the
// character's galleries with the exact keyword.
func (r *IconRepository) FindByCharacterAndKeyword(characterID int64, keyword string) (*domain.Icon, error) {
	var icon domain.Icon
	err := r.db.
		Joins("JOIN gallery_icons ON gallery_icons.icon_id = icons.id").
		Joins("JOIN galleries ON galleries.id = gallery_icons.gallery_id").
		Where("galleries.character_id = ? AND icons.keyword = ?", characterID, keyword).
		First(&icon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &icon, nil
}

// FindByUserAndKeyword retrieves a user-owned icon with the exact keyword
func (r *IconRepository) FindByUserAndKeyword(userID int64, keyword string) (*domain.Icon, error) {
	var icon domain.Icon
	err := r.db.Where("user_id = ? AND keyword = ?", userID, keyword).First(&icon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &icon, nil
}

// Create inserts a new icon
func (r *IconRepository) Create(icon *domain.Icon) error {
	return r.db.Create(icon).Error
}

// AttachToGallery links an icon into a gallery
func (r *IconRepository) AttachToGallery(galleryID, iconID int64) error {
	return r.db.Create(&domain.GalleryIcon{GalleryID: galleryID, IconID: iconID}).Error
}
