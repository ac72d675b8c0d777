// Package folders manages the per-user folder tree.
package folders

import (
	"context"
	"strings"
	"time"

	"docvault/internal/apperr"
	"docvault/internal/documents"
	"docvault/internal/utils"
)

// maxDepth bounds the ancestry walk so a corrupted tree cannot loop forever.
const maxDepth = 256

type Service struct {
	store     *GormStore
	documents *documents.GormStore
}

func NewService(store *GormStore, docs *documents.GormStore) *Service {
	return &Service{store: store, documents: docs}
}

func (s *Service) Create(ctx context.Context, p utils.Principal, name string, parentID *string) (utils.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return utils.Folder{}, apperr.BadRequest("folder name is required")
	}
	parentID = normalizeID(parentID)
	if parentID != nil {
		parent, err := s.owned(ctx, p, *parentID)
		if err != nil {
			return utils.Folder{}, err
		}
		if parent.OwnerID != p.ID {
			return utils.Folder{}, apperr.NotFound("folder not found")
		}
	}
	folder := utils.Folder{
		ID:             utils.NewID(),
		Name:           name,
		OwnerID:        p.ID,
		ParentFolderID: parentID,
		CreatedAt:      time.Now(),
	}
	if err := s.store.Create(ctx, &folder); err != nil {
		return utils.Folder{}, apperr.Internal(err, "failed to create folder")
	}
	return folder, nil
}

// List returns the caller's folders, optionally only the children of parentID.
func (s *Service) List(ctx context.Context, p utils.Principal, parentID *string) ([]utils.Folder, error) {
	parentID = normalizeID(parentID)
	ownerID := p.ID
	if parentID != nil {
		parent, err := s.owned(ctx, p, *parentID)
		if err != nil {
			return nil, err
		}
		ownerID = parent.OwnerID
	}
	folders, err := s.store.List(ctx, ownerID, parentID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list folders")
	}
	return folders, nil
}

// Documents lists the documents filed in a folder the caller owns.
func (s *Service) Documents(ctx context.Context, p utils.Principal, id string) ([]utils.Document, error) {
	if _, err := s.owned(ctx, p, id); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListInFolder(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list folder documents")
	}
	return docs, nil
}

// Move re-parents a folder. A nil parent moves it to the root. Moving a
// folder below itself or one of its descendants is rejected.
func (s *Service) Move(ctx context.Context, p utils.Principal, id string, parentID *string) (utils.Folder, error) {
	folder, err := s.owned(ctx, p, id)
	if err != nil {
		return utils.Folder{}, err
	}
	parentID = normalizeID(parentID)
	if parentID != nil {
		parent, err := s.owned(ctx, p, *parentID)
		if err != nil {
			return utils.Folder{}, err
		}
		if parent.OwnerID != folder.OwnerID {
			return utils.Folder{}, apperr.NotFound("folder not found")
		}
		cycle, err := s.isDescendantOrSelf(ctx, *parentID, id)
		if err != nil {
			return utils.Folder{}, err
		}
		if cycle {
			return utils.Folder{}, apperr.BadRequest("cannot move a folder into itself or one of its subfolders")
		}
	}
	if err := s.store.SetParent(ctx, id, parentID); err != nil {
		return utils.Folder{}, apperr.Internal(err, "failed to move folder")
	}
	folder.ParentFolderID = parentID
	return folder, nil
}

func (s *Service) Rename(ctx context.Context, p utils.Principal, id, name string) (utils.Folder, error) {
	folder, err := s.owned(ctx, p, id)
	if err != nil {
		return utils.Folder{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return utils.Folder{}, apperr.BadRequest("folder name is required")
	}
	if err := s.store.Rename(ctx, id, name); err != nil {
		return utils.Folder{}, apperr.Internal(err, "failed to rename folder")
	}
	folder.Name = name
	return folder, nil
}

// Delete removes an empty folder.
func (s *Service) Delete(ctx context.Context, p utils.Principal, id string) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	children, err := s.store.CountChildren(ctx, id)
	if err != nil {
		return apperr.Internal(err, "failed to inspect folder")
	}
	docs, err := s.documents.CountInFolder(ctx, id)
	if err != nil {
		return apperr.Internal(err, "failed to inspect folder")
	}
	if children > 0 || docs > 0 {
		return apperr.BadRequest("folder is not empty")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return apperr.Internal(err, "failed to delete folder")
	}
	return nil
}

// isDescendantOrSelf walks up from candidate and reports whether it reaches
// ancestor.
func (s *Service) isDescendantOrSelf(ctx context.Context, candidate, ancestor string) (bool, error) {
	current := &candidate
	for depth := 0; current != nil; depth++ {
		if *current == ancestor {
			return true, nil
		}
		if depth >= maxDepth {
			return false, apperr.BadRequest("folder hierarchy is too deep")
		}
		folder, err := s.store.Get(ctx, *current)
		if err != nil {
			return false, apperr.FromDB(err, "folder")
		}
		current = folder.ParentFolderID
	}
	return false, nil
}

// owned loads a folder the caller owns (admins may act on any folder).
// Folders of other principals are reported as not found.
func (s *Service) owned(ctx context.Context, p utils.Principal, id string) (utils.Folder, error) {
	folder, err := s.store.Get(ctx, id)
	if err != nil {
		return utils.Folder{}, apperr.FromDB(err, "folder")
	}
	if folder.OwnerID != p.ID && !p.IsAdmin {
		return utils.Folder{}, apperr.NotFound("folder not found")
	}
	return folder, nil
}

func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
