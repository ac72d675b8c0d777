package users

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

func (s *GormStore) GetByID(ctx context.Context, id string) (utils.User, error) {
	var user utils.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return user, err
}

func (s *GormStore) GetByEmail(ctx context.Context, email string) (utils.User, error) {
	var user utils.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return user, err
}

func (s *GormStore) List(ctx context.Context) ([]utils.User, error) {
	users := []utils.User{}
	err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error
	return users, err
}

// Search matches pattern (see utils.LikePattern) against names and emails.
func (s *GormStore) Search(ctx context.Context, pattern string, limit int) ([]utils.User, error) {
	q := s.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("name")
	if limit > 0 {
		q = q.Limit(limit)
	}
	users := []utils.User{}
	err := q.Find(&users).Error
	return users, err
}

// SetAdmin writes the admin flag in a single conditional update and reports
// whether the stored value changed.
func (s *GormStore) SetAdmin(ctx context.Context, id string, value bool) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&utils.User{}).
		Where("id = ? AND is_admin <> ?", id, value).
		Update("is_admin", value)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// UpdateProfile writes the given columns. is_admin is never accepted here.
func (s *GormStore) UpdateProfile(ctx context.Context, id string, fields map[string]any) error {
	delete(fields, "is_admin")
	if len(fields) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&utils.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the user with everything they own and every share granted
// to them. It returns the storage keys of the deleted documents so the caller
// can release the blobs.
func (s *GormStore) Delete(ctx context.Context, id string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&utils.Document{}).Where("owner_id = ?", id).Pluck("storage_key", &keys).Error; err != nil {
			return err
		}
		owned := tx.Model(&utils.Document{}).Select("id").Where("owner_id = ?", id)
		if err := tx.Where("document_id IN (?) OR user_id = ?", owned, id).Delete(&utils.DocumentShare{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", id).Delete(&utils.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", id).Delete(&utils.Folder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&utils.Notification{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&utils.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
