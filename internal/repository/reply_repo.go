package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/storyloom/storyloom-backend/internal/domain"
)

// ReplyRepository handles reply data operations
type ReplyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a new ReplyRepository
func NewReplyRepository(db *gorm.DB) *ReplyRepository {
	return &ReplyRepository{db: db}
}

// WithTx returns a new ReplyRepository bound to the given transaction
func (r *ReplyRepository) WithTx(tx *gorm.DB) *ReplyRepository {
	return &ReplyRepository{db: tx}
}

// Create inserts a new reply. Imports use this direct insert path so the
// live reply pipeline's notification and tagging hooks never fire for
// re-created archival content.
func (r *ReplyRepository) Create(reply *domain.Reply) error {
	return r.db.Create(reply).Error
}

// CountByPost returns the number of replies on a post
func (r *ReplyRepository) CountByPost(postID int64) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Reply{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

// LastByPost returns the reply with the highest order on a post, or nil
// when the post has none.
func (r *ReplyRepository) LastByPost(postID int64) (*domain.Reply, error) {
	var reply domain.Reply
	err := r.db.Where("post_id = ?", postID).Order("reply_order DESC").First(&reply).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// ListByPost returns a post's replies in thread order
func (r *ReplyRepository) ListByPost(postID int64) ([]*domain.Reply, error) {
	var replies []*domain.Reply
	err := r.db.Where("post_id = ?", postID).Order("reply_order").Find(&replies).Error
	return replies, err
}
