// Package users manages principals: listing, profile edits, deletion and the
// admin flag.
package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"docvault/internal/apperr"
	"docvault/internal/auth"
	"docvault/internal/utils"

	"gorm.io/gorm"
)

const suggestionLimit = 5

const (
	grantedMessage = "You have been granted admin rights"
	revokedMessage = "Your admin rights have been revoked"
)

type Notifier interface {
	Notify(ctx context.Context, userID, message string)
}

// BlobReleaser deletes stored document bytes. Failures are handled by the
// releaser.
type BlobReleaser interface {
	ReleaseBlobs(ctx context.Context, keys []string)
}

type Service struct {
	store    *GormStore
	notifier Notifier
	blobs    BlobReleaser
	logger   *slog.Logger
}

func NewService(store *GormStore, notifier Notifier, blobs BlobReleaser, logger *slog.Logger) *Service {
	return &Service{store: store, notifier: notifier, blobs: blobs, logger: logger}
}

// SetAdmin sets the target's admin flag. Only admins may call it. The target
// is notified when the flag actually changes.
func (s *Service) SetAdmin(ctx context.Context, caller utils.Principal, targetID string, value bool) (utils.User, error) {
	if !caller.IsAdmin {
		return utils.User{}, apperr.Forbidden("admin privileges required")
	}
	changed, err := s.store.SetAdmin(ctx, targetID, value)
	if err != nil {
		return utils.User{}, apperr.FromDB(err, "user")
	}
	user, err := s.store.GetByID(ctx, targetID)
	if err != nil {
		return utils.User{}, apperr.FromDB(err, "user")
	}
	if !changed {
		return user, nil
	}

	s.logger.Info("Admin flag changed", "userId", targetID, "isAdmin", value, "by", caller.ID)
	msg := revokedMessage
	if value {
		msg = grantedMessage
	}
	s.notifier.Notify(ctx, targetID, msg)
	return user, nil
}

func (s *Service) List(ctx context.Context) ([]utils.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list users")
	}
	return users, nil
}

// Get returns the caller's own record, or any record for admins. Other
// records are reported as not found.
func (s *Service) Get(ctx context.Context, caller utils.Principal, id string) (utils.User, error) {
	if caller.ID != id && !caller.IsAdmin {
		return utils.User{}, apperr.NotFound("user not found")
	}
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return utils.User{}, apperr.FromDB(err, "user")
	}
	return user, nil
}

type UpdateInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Update edits name, email or password. The admin flag is not part of a
// profile and only changes through SetAdmin.
func (s *Service) Update(ctx context.Context, caller utils.Principal, id string, in UpdateInput) (utils.User, error) {
	if caller.ID != id && !caller.IsAdmin {
		return utils.User{}, apperr.NotFound("user not found")
	}

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return utils.User{}, apperr.BadRequest("name must not be empty")
		}
		fields["name"] = name
	}
	if in.Email != nil {
		email := utils.NormalizeEmail(*in.Email)
		if !utils.ValidEmail(email) {
			return utils.User{}, apperr.BadRequest("invalid email address")
		}
		fields["email"] = email
	}
	if in.Password != nil {
		if len(*in.Password) < auth.MinPasswordLength {
			return utils.User{}, apperr.BadRequest("password must be at least %d characters", auth.MinPasswordLength)
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return utils.User{}, apperr.Internal(err, "failed to hash password")
		}
		fields["password"] = hash
	}

	if err := s.store.UpdateProfile(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.User{}, apperr.Conflict("email already in use")
		}
		return utils.User{}, apperr.FromDB(err, "user")
	}
	return s.Get(ctx, caller, id)
}

// Delete removes a principal and everything they own. Admins cannot delete
// themselves.
func (s *Service) Delete(ctx context.Context, caller utils.Principal, id string) error {
	if !caller.IsAdmin {
		return apperr.Forbidden("admin privileges required")
	}
	if caller.ID == id {
		return apperr.BadRequest("admins cannot delete their own account")
	}
	keys, err := s.store.Delete(ctx, id)
	if err != nil {
		return apperr.FromDB(err, "user")
	}
	s.logger.Info("Deleted user", "userId", id, "documents", len(keys), "by", caller.ID)
	s.blobs.ReleaseBlobs(ctx, keys)
	return nil
}

// Suggestions returns up to five principals whose name or email contains q.
func (s *Service) Suggestions(ctx context.Context, q string) ([]utils.User, error) {
	return s.Search(ctx, q, suggestionLimit)
}

func (s *Service) Search(ctx context.Context, q string, limit int) ([]utils.User, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []utils.User{}, nil
	}
	users, err := s.store.Search(ctx, utils.LikePattern(q), limit)
	if err != nil {
		return nil, apperr.Internal(err, "failed to search users")
	}
	return users, nil
}
