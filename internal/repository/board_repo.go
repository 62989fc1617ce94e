package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/storyloom/storyloom-backend/internal/common"
	"github.com/storyloom/storyloom-backend/internal/domain"
)

// BoardRepository handles board data operations
type BoardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

// FindByID retrieves a board by ID
func (r *BoardRepository) FindByID(id int64) (*domain.Board, error) {
	var board domain.Board
	if err := r.db.First(&board, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrBoardNotFound
		}
		return nil, err
	}
	return &board, nil
}

// FindSection retrieves a section and verifies it belongs to the board
func (r *BoardRepository) FindSection(boardID, sectionID int64) (*domain.BoardSection, error) {
	var section domain.BoardSection
	err := r.db.Where("id = ? AND board_id = ?", sectionID, boardID).First(&section).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrBoardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &section, nil
}
