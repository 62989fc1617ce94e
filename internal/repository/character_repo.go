package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/storyloom/storyloom-backend/internal/domain"
)

// CharacterRepository handles character and gallery data operations
type CharacterRepository struct {
	db *gorm.DB
}

// NewCharacterRepository creates a new CharacterRepository
func NewCharacterRepository(db *gorm.DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// WithTx returns a new CharacterRepository bound to the given transaction
func (r *CharacterRepository) WithTx(tx *gorm.DB) *CharacterRepository {
	return &CharacterRepository{db: tx}
}

// FindByScreennames retrieves the first character whose screenname
// matches any of the given candidates, in candidate order.
func (r *CharacterRepository) FindByScreennames(names []string) (*domain.Character, error) {
	for _, name := range names {
		var ch domain.Character
		err := r.db.Where("screenname = ?", name).First(&ch).Error
		if err == nil {
			return &ch, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// Create inserts a new character
func (r *CharacterRepository) Create(ch *domain.Character) error {
	return r.db.Create(ch).Error
}

// FirstGallery returns the character's first gallery, or nil if the
// character has none yet.
func (r *CharacterRepository) FirstGallery(characterID int64) (*domain.Gallery, error) {
	var g domain.Gallery
	err := r.db.Where("character_id = ?", characterID).Order("id").First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGallery inserts a new gallery
func (r *CharacterRepository) CreateGallery(g *domain.Gallery) error {
	return r.db.Create(g).Error
}
