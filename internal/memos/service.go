// Package memos stores admin announcements and broadcasts new ones to every
// principal.
package memos

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docvault/internal/apperr"
	"docvault/internal/utils"

	"gorm.io/gorm"
)

type Broadcaster interface {
	Broadcast(ctx context.Context, message string) int
}

type Service struct {
	db          *gorm.DB
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewService(db *gorm.DB, broadcaster Broadcaster, logger *slog.Logger) *Service {
	return &Service{db: db, broadcaster: broadcaster, logger: logger}
}

type Input struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (s *Service) List(ctx context.Context) ([]utils.Memo, error) {
	memos := []utils.Memo{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&memos).Error; err != nil {
		return nil, apperr.Internal(err, "failed to list memos")
	}
	return memos, nil
}

// Create stores the memo and then notifies every principal. The memo exists
// regardless of how many notifications could be delivered.
func (s *Service) Create(ctx context.Context, caller utils.Principal, in Input) (utils.Memo, error) {
	if !caller.IsAdmin {
		return utils.Memo{}, apperr.Forbidden("admin privileges required")
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return utils.Memo{}, apperr.BadRequest("title is required")
	}
	if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
		return utils.Memo{}, apperr.BadRequest("content is required")
	}

	now := time.Now()
	memo := utils.Memo{
		ID:        utils.NewID(),
		Title:     strings.TrimSpace(*in.Title),
		Content:   *in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&memo).Error; err != nil {
		return utils.Memo{}, apperr.Internal(err, "failed to create memo")
	}

	sent := s.broadcaster.Broadcast(ctx, fmt.Sprintf("New memo: %s", memo.Title))
	s.logger.Info("Memo created", "memoId", memo.ID, "notified", sent, "by", caller.ID)
	return memo, nil
}

// Update changes the given fields in one UPDATE statement.
func (s *Service) Update(ctx context.Context, caller utils.Principal, id string, in Input) (utils.Memo, error) {
	if !caller.IsAdmin {
		return utils.Memo{}, apperr.Forbidden("admin privileges required")
	}
	fields := map[string]any{"updated_at": time.Now()}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return utils.Memo{}, apperr.BadRequest("title must not be empty")
		}
		fields["title"] = title
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return utils.Memo{}, apperr.BadRequest("content must not be empty")
		}
		fields["content"] = *in.Content
	}

	res := s.db.WithContext(ctx).Model(&utils.Memo{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return utils.Memo{}, apperr.Internal(res.Error, "failed to update memo")
	}
	if res.RowsAffected == 0 {
		return utils.Memo{}, apperr.NotFound("memo not found")
	}

	var memo utils.Memo
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&memo).Error; err != nil {
		return utils.Memo{}, apperr.FromDB(err, "memo")
	}
	return memo, nil
}

func (s *Service) Delete(ctx context.Context, caller utils.Principal, id string) error {
	if !caller.IsAdmin {
		return apperr.Forbidden("admin privileges required")
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&utils.Memo{})
	if res.Error != nil {
		return apperr.Internal(res.Error, "failed to delete memo")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("memo not found")
	}
	return nil
}
