package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/travism26/system-monitoring-gateway/internal/model"
)

// TenantRepository isolates tenant persistence.
type TenantRepository interface {
	Create(tenant *model.Tenant) error
	FindByID(id uint) (*model.Tenant, error)
	FindByContactEmail(email string) (*model.Tenant, error)
	Update(tenant *model.Tenant) error
	Delete(id uint) error
}

type gormTenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository returns a gorm-backed TenantRepository.
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &gormTenantRepository{db: db}
}

func (r *gormTenantRepository) Create(tenant *model.Tenant) error {
	return r.db.Create(tenant).Error
}

func (r *gormTenantRepository) FindByID(id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.First(&tenant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *gormTenantRepository) FindByContactEmail(email string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.Where("contact_email = ?", email).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *gormTenantRepository) Update(tenant *model.Tenant) error {
	return r.db.Save(tenant).Error
}

func (r *gormTenantRepository) Delete(id uint) error {
	return r.db.Delete(&model.Tenant{}, id).Error
}
