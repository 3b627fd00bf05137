package service

import (
	"github.com/travism26/system-monitoring-gateway/internal/apperror"
	"github.com/travism26/system-monitoring-gateway/internal/model"
	"github.com/travism26/system-monitoring-gateway/internal/repository"
)

// TenantService owns tenant lifecycle. Tenants are deactivated rather than
// removed; Delete revokes the tenant's API keys before the soft delete so no
// credential outlives its tenant.
type TenantService struct {
	tenants repository.TenantRepository
	keys    *APIKeyService
}

// NewTenantService creates the tenant service.
func NewTenantService(tenants repository.TenantRepository, keys *APIKeyService) *TenantService {
	return &TenantService{tenants: tenants, keys: keys}
}

// Create registers a new tenant. Admin-only at the HTTP boundary.
func (s *TenantService) Create(organizationName, contactEmail string) (*model.Tenant, error) {
	if organizationName == "" || contactEmail == "" {
		return nil, apperror.BadRequest("organization name and contact email are required")
	}

	existing, err := s.tenants.FindByContactEmail(contactEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.BadRequest("contact email already registered").WithField("contact_email")
	}

	tenant := &model.Tenant{
		OrganizationName: organizationName,
		ContactEmail:     contactEmail,
		Status:           model.TenantStatusActive,
	}
	if err := s.tenants.Create(tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Get fetches a tenant by id.
func (s *TenantService) Get(id uint) (*model.Tenant, error) {
	tenant, err := s.tenants.FindByID(id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, apperror.NotFound("tenant not found")
	}
	return tenant, nil
}

// Deactivate flips the tenant status to inactive.
func (s *TenantService) Deactivate(id uint) (*model.Tenant, error) {
	tenant, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	tenant.Status = model.TenantStatusInactive
	if err := s.tenants.Update(tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Delete revokes every API key referencing the tenant, then soft-deletes it.
func (s *TenantService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.keys.RevokeTenantKeys(id); err != nil {
		return err
	}
	return s.tenants.Delete(id)
}
