// Package documents handles upload, listing, download and deletion of
// documents and their blobs.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"docvault/internal/apperr"
	"docvault/internal/blob"
	"docvault/internal/utils"
)

const suggestionLimit = 5

type FolderLookup interface {
	Get(ctx context.Context, id string) (utils.Folder, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID, message string)
}

type Service struct {
	store        *GormStore
	blobs        blob.Store
	folders      FolderLookup
	notifier     Notifier
	signedURLTTL time.Duration
	logger       *slog.Logger
}

func NewService(store *GormStore, blobs blob.Store, folders FolderLookup, notifier Notifier, signedURLTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		store:        store,
		blobs:        blobs,
		folders:      folders,
		notifier:     notifier,
		signedURLTTL: signedURLTTL,
		logger:       logger,
	}
}

type UploadInput struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
	FolderID    *string
}

// Upload stores the bytes, then the record. A failed insert releases the blob.
func (s *Service) Upload(ctx context.Context, p utils.Principal, in UploadInput) (utils.Document, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(in.Name), `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return utils.Document{}, apperr.BadRequest("file name is required")
	}
	if in.FolderID != nil && *in.FolderID == "" {
		in.FolderID = nil
	}
	if in.FolderID != nil {
		folder, err := s.folders.Get(ctx, *in.FolderID)
		if err != nil {
			return utils.Document{}, apperr.FromDB(err, "folder")
		}
		if folder.OwnerID != p.ID {
			return utils.Document{}, apperr.NotFound("folder not found")
		}
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc := utils.Document{
		ID:          utils.NewID(),
		Name:        name,
		ContentType: contentType,
		Size:        in.Size,
		OwnerID:     p.ID,
		FolderID:    in.FolderID,
		CreatedAt:   time.Now(),
	}
	doc.StorageKey = "documents/" + doc.ID

	if err := s.blobs.Put(ctx, doc.StorageKey, in.Body, in.Size, contentType); err != nil {
		return utils.Document{}, apperr.Internal(err, "failed to store file")
	}
	if err := s.store.Create(ctx, &doc); err != nil {
		s.releaseBlob(ctx, doc.StorageKey)
		return utils.Document{}, apperr.Internal(err, "failed to save document")
	}
	doc.SharedWith = []string{}

	s.notifier.Notify(ctx, p.ID, fmt.Sprintf("Your document %q was uploaded successfully", doc.Name))
	return doc, nil
}

// List returns the caller's owned and shared documents. Admins may pass
// another principal's id to list that principal's owned documents.
func (s *Service) List(ctx context.Context, p utils.Principal, userID string) ([]utils.Document, error) {
	var (
		docs []utils.Document
		err  error
	)
	switch {
	case userID == "" || userID == p.ID:
		docs, err = s.store.ListAccessible(ctx, p.ID)
	case p.IsAdmin:
		docs, err = s.store.ListOwned(ctx, userID)
	default:
		return nil, apperr.Forbidden("cannot list another user's documents")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to list documents")
	}
	return docs, nil
}

// Get returns a document the caller can read. Documents the caller has no
// access to are reported as not found.
func (s *Service) Get(ctx context.Context, p utils.Principal, id string) (utils.Document, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return utils.Document{}, apperr.FromDB(err, "document")
	}
	if !CanRead(p, doc) {
		return utils.Document{}, apperr.NotFound("document not found")
	}
	return doc, nil
}

// DownloadURL returns a time-limited URL for the document's bytes, or
// blob.ErrSignedURLUnsupported when the backend cannot sign.
func (s *Service) DownloadURL(ctx context.Context, p utils.Principal, id string) (string, error) {
	doc, err := s.Get(ctx, p, id)
	if err != nil {
		return "", err
	}
	url, err := s.blobs.SignedURL(ctx, doc.StorageKey, s.signedURLTTL)
	if errors.Is(err, blob.ErrSignedURLUnsupported) {
		return "", err
	}
	if err != nil {
		return "", apperr.Internal(err, "failed to sign download url")
	}
	return url, nil
}

// Open returns the document and a reader over its bytes.
func (s *Service) Open(ctx context.Context, p utils.Principal, id string) (utils.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, p, id)
	if err != nil {
		return utils.Document{}, nil, err
	}
	rc, err := s.blobs.Get(ctx, doc.StorageKey)
	if errors.Is(err, blob.ErrNotFound) {
		return utils.Document{}, nil, apperr.NotFound("document content not found")
	}
	if err != nil {
		return utils.Document{}, nil, apperr.Internal(err, "failed to read file")
	}
	return doc, rc, nil
}

// Delete removes a document. Only the owner or an admin may delete;
// share-list members are refused, everyone else sees not found.
func (s *Service) Delete(ctx context.Context, p utils.Principal, id string) error {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return apperr.FromDB(err, "document")
	}
	if !CanManage(p, doc) {
		if CanRead(p, doc) {
			return apperr.Forbidden("only the owner can delete this document")
		}
		return apperr.NotFound("document not found")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return apperr.FromDB(err, "document")
	}
	s.releaseBlob(ctx, doc.StorageKey)
	return nil
}

// Suggestions returns up to five readable documents whose name contains q.
func (s *Service) Suggestions(ctx context.Context, p utils.Principal, q string) ([]utils.Document, error) {
	return s.Search(ctx, p, q, suggestionLimit)
}

func (s *Service) Search(ctx context.Context, p utils.Principal, q string, limit int) ([]utils.Document, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []utils.Document{}, nil
	}
	var scope *string
	if !p.IsAdmin {
		scope = &p.ID
	}
	docs, err := s.store.Search(ctx, scope, utils.LikePattern(q), limit)
	if err != nil {
		return nil, apperr.Internal(err, "failed to search documents")
	}
	return docs, nil
}

// ReleaseBlobs deletes stored bytes for documents already removed from the
// registry. Failures are logged.
func (s *Service) ReleaseBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		s.releaseBlob(ctx, key)
	}
}

func (s *Service) releaseBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Error("Failed to release blob", "key", key, "error", err)
	}
}

// CanRead reports whether p may read doc: owner, share-list member or admin.
func CanRead(p utils.Principal, doc utils.Document) bool {
	if CanManage(p, doc) {
		return true
	}
	for _, id := range doc.SharedWith {
		if id == p.ID {
			return true
		}
	}
	return false
}

// CanManage reports whether p may change doc: owner or admin.
func CanManage(p utils.Principal, doc utils.Document) bool {
	return p.IsAdmin || doc.OwnerID == p.ID
}
