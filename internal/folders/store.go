package folders

import (
	"context"

	"docvault/internal/utils"

	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, folder *utils.Folder) error {
	return s.db.WithContext(ctx).Create(folder).Error
}

func (s *GormStore) Get(ctx context.Context, id string) (utils.Folder, error) {
	var folder utils.Folder
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&folder).Error
	return folder, err
}

// List returns ownerID's folders. With parentID set only its direct children
// are returned.
func (s *GormStore) List(ctx context.Context, ownerID string, parentID *string) ([]utils.Folder, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if parentID != nil {
		q = q.Where("parent_folder_id = ?", *parentID)
	}
	folders := []utils.Folder{}
	err := q.Order("name").Find(&folders).Error
	return folders, err
}

func (s *GormStore) CountChildren(ctx context.Context, id string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&utils.Folder{}).Where("parent_folder_id = ?", id).Count(&count).Error
	return count, err
}

func (s *GormStore) SetParent(ctx context.Context, id string, parentID *string) error {
	return s.db.WithContext(ctx).Model(&utils.Folder{}).Where("id = ?", id).Update("parent_folder_id", parentID).Error
}

func (s *GormStore) Rename(ctx context.Context, id, name string) error {
	return s.db.WithContext(ctx).Model(&utils.Folder{}).Where("id = ?", id).Update("name", name).Error
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&utils.Folder{}).Error
}
