// Package sharing grants principals read access to documents they do not own.
package sharing

import (
	"context"
	"fmt"
	"log/slog"

	"docvault/internal/apperr"
	"docvault/internal/documents"
	"docvault/internal/utils"

	"golang.org/x/sync/errgroup"
)

type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (utils.User, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID, message string)
}

type Service struct {
	documents *documents.GormStore
	users     UserLookup
	notifier  Notifier
	logger    *slog.Logger
}

func NewService(docs *documents.GormStore, users UserLookup, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{documents: docs, users: users, notifier: notifier, logger: logger}
}

type Result struct {
	Message       string `json:"message"`
	AlreadyShared bool   `json:"alreadyShared"`
}

// Share adds the principal registered under email to the document's
// share-list and notifies them. Only the owner or an admin may share. Sharing
// twice, or with the owner, succeeds without changing anything.
func (s *Service) Share(ctx context.Context, caller utils.Principal, documentID, email string) (Result, error) {
	email = utils.NormalizeEmail(email)
	if !utils.ValidEmail(email) {
		return Result{}, apperr.BadRequest("invalid email address")
	}

	var (
		target          utils.User
		doc             utils.Document
		userErr, docErr error
	)
	// A missing recipient is reported only to callers who may share the document.
	var g errgroup.Group
	g.Go(func() error {
		target, userErr = s.users.GetByEmail(ctx, email)
		return nil
	})
	g.Go(func() error {
		doc, docErr = s.documents.Get(ctx, documentID)
		return nil
	})
	_ = g.Wait()

	if docErr != nil {
		return Result{}, apperr.FromDB(docErr, "document")
	}
	if !documents.CanManage(caller, doc) {
		if documents.CanRead(caller, doc) {
			return Result{}, apperr.Forbidden("only the owner can share this document")
		}
		return Result{}, apperr.NotFound("document not found")
	}
	if userErr != nil {
		return Result{}, apperr.FromDB(userErr, "user")
	}

	if target.ID == doc.OwnerID {
		return Result{Message: fmt.Sprintf("%s already owns this document", email), AlreadyShared: true}, nil
	}

	added, err := s.documents.AddShare(ctx, doc.ID, target.ID)
	if err != nil {
		return Result{}, apperr.Internal(err, "failed to share document")
	}
	if !added {
		return Result{Message: fmt.Sprintf("Document already shared with %s", email), AlreadyShared: true}, nil
	}

	s.logger.Info("Shared document", "documentId", doc.ID, "userId", target.ID, "by", caller.ID)
	s.notifier.Notify(ctx, target.ID, fmt.Sprintf("%s shared the document %q with you", caller.Name, doc.Name))
	return Result{Message: fmt.Sprintf("Document shared with %s", email)}, nil
}

// Unshare removes userID from the share-list. Removing a principal that is
// not on the list succeeds.
func (s *Service) Unshare(ctx context.Context, caller utils.Principal, documentID, userID string) error {
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return apperr.FromDB(err, "document")
	}
	if !documents.CanManage(caller, doc) {
		if documents.CanRead(caller, doc) {
			return apperr.Forbidden("only the owner can change sharing")
		}
		return apperr.NotFound("document not found")
	}
	if _, err := s.documents.RemoveShare(ctx, doc.ID, userID); err != nil {
		return apperr.Internal(err, "failed to unshare document")
	}
	return nil
}

// Members lists who the document is shared with. Only the owner or an admin
// may see it.
func (s *Service) Members(ctx context.Context, caller utils.Principal, documentID string) ([]utils.ShareMember, error) {
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return nil, apperr.FromDB(err, "document")
	}
	if !documents.CanManage(caller, doc) {
		if documents.CanRead(caller, doc) {
			return nil, apperr.Forbidden("only the owner can see who this document is shared with")
		}
		return nil, apperr.NotFound("document not found")
	}
	members, err := s.documents.ShareMembers(ctx, doc.ID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list share-list")
	}
	return members, nil
}
