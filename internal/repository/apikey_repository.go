package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/travism26/system-monitoring-gateway/internal/model"
)

// APIKeyRepository isolates API key persistence. Transaction exists so the
// rotate operation can revoke the old key and issue the new one atomically.
type APIKeyRepository interface {
	Create(key *model.APIKey) error
	FindByID(id uint) (*model.APIKey, error)
	FindByKey(key string) (*model.APIKey, error)
	ListByUser(userID uint) ([]model.APIKey, error)
	Update(key *model.APIKey) error
	Delete(id uint) error
	DeactivateByTenant(tenantID uint) error
	Transaction(fn func(APIKeyRepository) error) error
}

type gormAPIKeyRepository struct {
	db *gorm.DB
}

// NewAPIKeyRepository returns a gorm-backed APIKeyRepository.
func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &gormAPIKeyRepository{db: db}
}

func (r *gormAPIKeyRepository) Create(key *model.APIKey) error {
	return r.db.Create(key).Error
}

func (r *gormAPIKeyRepository) FindByID(id uint) (*model.APIKey, error) {
	var key model.APIKey
	if err := r.db.First(&key, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &key, nil
}

func (r *gormAPIKeyRepository) FindByKey(keyString string) (*model.APIKey, error) {
	var key model.APIKey
	if err := r.db.Where("key = ?", keyString).First(&key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &key, nil
}

func (r *gormAPIKeyRepository) ListByUser(userID uint) ([]model.APIKey, error) {
	var keys []model.APIKey
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *gormAPIKeyRepository) Update(key *model.APIKey) error {
	return r.db.Save(key).Error
}

func (r *gormAPIKeyRepository) Delete(id uint) error {
	return r.db.Delete(&model.APIKey{}, id).Error
}

func (r *gormAPIKeyRepository) DeactivateByTenant(tenantID uint) error {
	return r.db.Model(&model.APIKey{}).
		Where("tenant_id = ?", tenantID).
		Update("is_active", false).Error
}

func (r *gormAPIKeyRepository) Transaction(fn func(APIKeyRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormAPIKeyRepository{db: tx})
	})
}
