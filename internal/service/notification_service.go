package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/storyloom/storyloom-backend/internal/common"
	"github.com/storyloom/storyloom-backend/internal/domain"
	"github.com/storyloom/storyloom-backend/internal/repository"
)

// NotificationService delivers import outcomes to the requesting user
type NotificationService struct {
	repo *repository.NotificationRepository
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// NotifyImportSuccess tells the user their import finished, referencing
// the new post.
func (s *NotificationService) NotifyImportSuccess(userID int64, post *domain.Post) error {
	return s.repo.Create(&domain.Notification{
		UserID:  userID,
		Type:    domain.NotificationImportSuccess,
		Message: fmt.Sprintf("Your import of %q has finished.", post.Subject),
		PostID:  &post.ID,
	})
}

// NotifyImportFailure tells the user their import failed, with a message
// matched to the error kind. Identity failures spell out every
// unresolved username so the user can pre-create the missing characters
// and resubmit.
func (s *NotificationService) NotifyImportFailure(userID int64, originURL string, err error) error {
	n := &domain.Notification{
		UserID:  userID,
		Type:    domain.NotificationImportFailure,
		Message: failureMessage(originURL, err),
	}

	var already *common.AlreadyImportedError
	if errors.As(err, &already) {
		n.PostID = &already.PostID
	}

	return s.repo.Create(n)
}

func failureMessage(originURL string, err error) string {
	var unresolvable *common.UnresolvableIdentityError
	var already *common.AlreadyImportedError

	switch {
	case errors.As(err, &unresolvable):
		return fmt.Sprintf(
			"Your import of %s failed: the following usernames could not be matched to characters: %s.",
			originURL, strings.Join(unresolvable.Usernames, ", "))
	case errors.As(err, &already):
		return fmt.Sprintf("Your import of %s was skipped: the thread already exists as post %d.",
			originURL, already.PostID)
	case errors.Is(err, common.ErrOriginUnreachable):
		return fmt.Sprintf("Your import of %s failed: the origin site could not be reached.", originURL)
	case errors.Is(err, common.ErrInvalidOriginURL):
		return fmt.Sprintf("Your import of %s failed: the address is not a supported thread URL.", originURL)
	default:
		return fmt.Sprintf("Your import of %s failed: %v", originURL, err)
	}
}

// GetUnreadCount returns the unread notification count for a user
func (s *NotificationService) GetUnreadCount(userID int64) (int64, error) {
	return s.repo.GetUnreadCount(userID)
}

// GetList returns paginated notifications for a user
func (s *NotificationService) GetList(userID int64, page, limit int) ([]*domain.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.GetList(userID, (page-1)*limit, limit)
}

// MarkAsRead marks a notification as read
func (s *NotificationService) MarkAsRead(id int64) error {
	return s.repo.MarkAsRead(id)
}
