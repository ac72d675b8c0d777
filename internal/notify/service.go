// Package notify keeps the per-principal notification inbox and pushes new
// notifications to connected clients.
package notify

import (
	"context"
	"log/slog"
	"time"

	"docvault/internal/apperr"
	"docvault/internal/utils"

	"golang.org/x/sync/errgroup"
)

const (
	sendTimeout     = 5 * time.Second
	broadcastLimit  = 8
	defaultPageSize = 100
	maxPageSize     = 500
)

// Publisher receives every notification after it has been stored.
type Publisher interface {
	Publish(ctx context.Context, n utils.Notification)
}

type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(store Store, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Notify stores a message for userID. Failures are logged and never reach the
// caller: the action that triggered the notification has already succeeded.
func (s *Service) Notify(ctx context.Context, userID, message string) {
	s.send(ctx, userID, message)
}

func (s *Service) send(ctx context.Context, userID, message string) bool {
	// The triggering request may finish (and cancel its context) before we do.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	n := utils.Notification{
		ID:        utils.NewID(),
		UserID:    userID,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.store.Create(ctx, &n); err != nil {
		s.logger.Error("Failed to save notification", "userId", userID, "error", err)
		return false
	}
	if s.publisher != nil {
		s.publisher.Publish(ctx, n)
	}
	return true
}

// Broadcast sends message to every principal and returns how many
// notifications were stored. Each send is independent.
func (s *Service) Broadcast(ctx context.Context, message string) int {
	userIDs, err := s.store.UserIDs(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Error("Failed to list broadcast recipients", "error", err)
		return 0
	}

	results := make([]bool, len(userIDs))
	var g errgroup.Group
	g.SetLimit(broadcastLimit)
	for i, userID := range userIDs {
		g.Go(func() error {
			results[i] = s.send(ctx, userID, message)
			return nil
		})
	}
	_ = g.Wait()

	sent := 0
	for _, ok := range results {
		if ok {
			sent++
		}
	}
	if sent < len(userIDs) {
		s.logger.Warn("Broadcast partially failed", "sent", sent, "recipients", len(userIDs))
	}
	return sent
}

// List returns the principal's notifications, newest first.
func (s *Service) List(ctx context.Context, principalID string, opts ListOptions) ([]utils.Notification, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultPageSize
	}
	if opts.Limit > maxPageSize {
		return nil, apperr.BadRequest("limit must not exceed %d", maxPageSize)
	}
	if opts.Offset < 0 {
		return nil, apperr.BadRequest("offset must not be negative")
	}
	notifications, err := s.store.ListForUser(ctx, principalID, opts)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags a notification as read. Notifications of other principals
// are reported as not found.
func (s *Service) MarkRead(ctx context.Context, principalID, id string) error {
	ok, err := s.store.MarkRead(ctx, principalID, id)
	if err != nil {
		return apperr.Internal(err, "failed to update notification")
	}
	if !ok {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, principalID, id string) error {
	ok, err := s.store.Delete(ctx, principalID, id)
	if err != nil {
		return apperr.Internal(err, "failed to delete notification")
	}
	if !ok {
		return apperr.NotFound("notification not found")
	}
	return nil
}
