package notify

import (
	"context"
	"time"

	"docvault/internal/utils"

	"gorm.io/gorm"
)

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, n *utils.Notification) error
	ListForUser(ctx context.Context, userID string, opts ListOptions) ([]utils.Notification, error)
	// MarkRead and Delete only touch rows owned by userID and report whether
	// a row matched.
	MarkRead(ctx context.Context, userID, id string) (bool, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
	UserIDs(ctx context.Context) ([]string, error)
}

type ListOptions struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, n *utils.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *GormStore) ListForUser(ctx context.Context, userID string, opts ListOptions) ([]utils.Notification, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")
	if opts.UnreadOnly {
		q = q.Where("read = ?", false)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	notifications := []utils.Notification{}
	err := q.Find(&notifications).Error
	return notifications, err
}

func (s *GormStore) MarkRead(ctx context.Context, userID, id string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&utils.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) Delete(ctx context.Context, userID, id string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&utils.Notification{})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("read = ? AND created_at < ?", true, cutoff).
		Delete(&utils.Notification{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) UserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&utils.User{}).Order("created_at").Pluck("id", &ids).Error
	return ids, err
}
