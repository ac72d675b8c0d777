package documents

import (
	"context"

	"docvault/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the document registry. Share-list changes are single-row
// inserts and deletes on document_shares, so concurrent shares never lose
// each other's updates.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, doc *utils.Document) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

func (s *GormStore) Get(ctx context.Context, id string) (utils.Document, error) {
	var doc utils.Document
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return utils.Document{}, err
	}
	docs := []utils.Document{doc}
	if err := s.fillShares(ctx, docs); err != nil {
		return utils.Document{}, err
	}
	return docs[0], nil
}

// ListAccessible returns documents owned by or shared with userID.
func (s *GormStore) ListAccessible(ctx context.Context, userID string) ([]utils.Document, error) {
	shared := s.db.Model(&utils.DocumentShare{}).Select("document_id").Where("user_id = ?", userID)
	return s.find(ctx, s.db.WithContext(ctx).Where("owner_id = ? OR id IN (?)", userID, shared))
}

func (s *GormStore) ListOwned(ctx context.Context, ownerID string) ([]utils.Document, error) {
	return s.find(ctx, s.db.WithContext(ctx).Where("owner_id = ?", ownerID))
}

func (s *GormStore) ListInFolder(ctx context.Context, folderID string) ([]utils.Document, error) {
	return s.find(ctx, s.db.WithContext(ctx).Where("folder_id = ?", folderID))
}

func (s *GormStore) CountInFolder(ctx context.Context, folderID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&utils.Document{}).Where("folder_id = ?", folderID).Count(&count).Error
	return count, err
}

// Search matches pattern (see utils.LikePattern) against document names. A
// nil userID searches every document.
func (s *GormStore) Search(ctx context.Context, userID *string, pattern string, limit int) ([]utils.Document, error) {
	q := s.db.WithContext(ctx).Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)
	if userID != nil {
		shared := s.db.Model(&utils.DocumentShare{}).Select("document_id").Where("user_id = ?", *userID)
		q = q.Where("owner_id = ? OR id IN (?)", *userID, shared)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return s.find(ctx, q)
}

func (s *GormStore) find(ctx context.Context, q *gorm.DB) ([]utils.Document, error) {
	docs := []utils.Document{}
	if err := q.Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	if err := s.fillShares(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *GormStore) fillShares(ctx context.Context, docs []utils.Document) error {
	if len(docs) == 0 {
		return nil
	}
	ids := make([]string, len(docs))
	index := make(map[string]int, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
		index[docs[i].ID] = i
		docs[i].SharedWith = []string{}
	}
	var shares []utils.DocumentShare
	err := s.db.WithContext(ctx).
		Where("document_id IN ?", ids).
		Order("created_at").
		Find(&shares).Error
	if err != nil {
		return err
	}
	for _, share := range shares {
		i := index[share.DocumentID]
		docs[i].SharedWith = append(docs[i].SharedWith, share.UserID)
	}
	return nil
}

// AddShare adds userID to the document's share-list and reports whether it
// was newly added.
func (s *GormStore) AddShare(ctx context.Context, documentID, userID string) (bool, error) {
	share := utils.DocumentShare{DocumentID: documentID, UserID: userID}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&share)
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) RemoveShare(ctx context.Context, documentID, userID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("document_id = ? AND user_id = ?", documentID, userID).
		Delete(&utils.DocumentShare{})
	return res.RowsAffected > 0, res.Error
}

// ShareMembers returns the share-list of a document as principals, in the
// order they were added.
func (s *GormStore) ShareMembers(ctx context.Context, documentID string) ([]utils.ShareMember, error) {
	members := []utils.ShareMember{}
	err := s.db.WithContext(ctx).
		Model(&utils.DocumentShare{}).
		Select("users.id, users.email, users.name").
		Joins("JOIN users ON users.id = document_shares.user_id").
		Where("document_shares.document_id = ?", documentID).
		Order("document_shares.created_at").
		Scan(&members).Error
	return members, err
}

func (s *GormStore) IsSharedWith(ctx context.Context, documentID, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&utils.DocumentShare{}).
		Where("document_id = ? AND user_id = ?", documentID, userID).
		Count(&count).Error
	return count > 0, err
}

// Delete removes the document and its share-list.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&utils.DocumentShare{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&utils.Document{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
