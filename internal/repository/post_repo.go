package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/storyloom/storyloom-backend/internal/common"
	"github.com/storyloom/storyloom-backend/internal/domain"
)

// PostRepository handles post data operations
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// WithTx returns a new PostRepository bound to the given transaction
func (r *PostRepository) WithTx(tx *gorm.DB) *PostRepository {
	return &PostRepository{db: tx}
}

// FindByID retrieves a post by ID
func (r *PostRepository) FindByID(id int64) (*domain.Post, error) {
	var post domain.Post
	if err := r.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// FindBySubject retrieves a post with the exact subject in a board, or
// nil when the board has none. Used by import duplicate detection.
func (r *PostRepository) FindBySubject(boardID int64, subject string) (*domain.Post, error) {
	var post domain.Post
	err := r.db.Where("board_id = ? AND subject = ?", boardID, subject).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Create inserts a new post
func (r *PostRepository) Create(post *domain.Post) error {
	return r.db.Create(post).Error
}

// Save persists all fields of an existing post
func (r *PostRepository) Save(post *domain.Post) error {
	return r.db.Save(post).Error
}

// ReplaceAuthors rewrites the post's author roster rows
func (r *PostRepository) ReplaceAuthors(postID int64, userIDs []int64) error {
	if err := r.db.Where("post_id = ?", postID).Delete(&domain.PostAuthor{}).Error; err != nil {
		return err
	}
	for _, userID := range userIDs {
		row := &domain.PostAuthor{PostID: postID, UserID: userID}
		if err := r.db.Create(row).Error; err != nil {
			return err
		}
	}
	return nil
}

// Authors returns the post's roster user IDs
func (r *PostRepository) Authors(postID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&domain.PostAuthor{}).
		Where("post_id = ?", postID).
		Order("id").
		Pluck("user_id", &ids).Error
	return ids, err
}
