package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/travism26/system-monitoring-gateway/internal/model"
	"github.com/travism26/system-monitoring-gateway/internal/repository"
)

const (
	apiKeyPrefix      = "sms_"
	apiKeyEntropy     = 24 // random bytes per key, rendered as 48 hex chars
	defaultExpiryDays = 365
)

// APIKeyService is the credential store for agent callers. Lookups are
// side-effect-free except the lazy-expiry deactivation on Validate.
type APIKeyService struct {
	keys repository.APIKeyRepository
	now  func() time.Time
}

// NewAPIKeyService creates the credential store on top of the key repository.
func NewAPIKeyService(keys repository.APIKeyRepository) *APIKeyService {
	return &APIKeyService{keys: keys, now: time.Now}
}

// WithClock overrides the time source. Used by tests to simulate expiry.
func (s *APIKeyService) WithClock(now func() time.Time) *APIKeyService {
	s.now = now
	return s
}

func generateKeyString() (string, error) {
	buf := make([]byte, apiKeyEntropy)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

// Create issues a new API key for a user. Permissions default to read-only
// and expiry defaults to one year.
func (s *APIKeyService) Create(userID uint, description string, tenantID *uint, permissions []string, expiresInDays int) (*model.APIKey, error) {
	if len(permissions) == 0 {
		permissions = []string{model.PermissionRead}
	}
	if !model.ValidPermissions(permissions) {
		return nil, fmt.Errorf("invalid permissions: %v", permissions)
	}
	if expiresInDays <= 0 {
		expiresInDays = defaultExpiryDays
	}

	keyString, err := generateKeyString()
	if err != nil {
		return nil, err
	}

	key := &model.APIKey{
		Key:         keyString,
		UserID:      userID,
		TenantID:    tenantID,
		Description: description,
		Permissions: model.Permissions(permissions),
		ExpiresAt:   s.now().Add(time.Duration(expiresInDays) * 24 * time.Hour),
		IsActive:    true,
	}
	if err := s.keys.Create(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Validate looks up a key by its exact string. It returns (nil, nil) when the
// key is unknown, revoked or expired. An expired key still flagged active is
// deactivated before returning nil, so a stale IsActive can never be trusted
// past expiry.
func (s *APIKeyService) Validate(keyString string) (*model.APIKey, error) {
	key, err := s.keys.FindByKey(keyString)
	if err != nil {
		return nil, err
	}
	if key == nil || !key.IsActive {
		return nil, nil
	}
	if key.Expired(s.now()) {
		key.IsActive = false
		if err := s.keys.Update(key); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return key, nil
}

// Revoke deactivates a key by its string. Idempotent: the result depends on
// whether the key exists, not on its prior active state.
func (s *APIKeyService) Revoke(keyString string) (bool, error) {
	key, err := s.keys.FindByKey(keyString)
	if err != nil {
		return false, err
	}
	if key == nil {
		return false, nil
	}
	return s.revoke(key)
}

// RevokeByID deactivates a key by its record id.
func (s *APIKeyService) RevokeByID(keyID uint) (bool, error) {
	key, err := s.keys.FindByID(keyID)
	if err != nil {
		return false, err
	}
	if key == nil {
		return false, nil
	}
	return s.revoke(key)
}

func (s *APIKeyService) revoke(key *model.APIKey) (bool, error) {
	if !key.IsActive {
		return true, nil
	}
	key.IsActive = false
	if err := s.keys.Update(key); err != nil {
		return false, err
	}
	return true, nil
}

// Rotate revokes the old key and issues a replacement inheriting its owner,
// tenant and permissions, atomically from the caller's perspective. Returns
// (nil, nil) when the old key is missing, inactive or expired.
func (s *APIKeyService) Rotate(oldKeyString string, expiresInDays int) (*model.APIKey, error) {
	old, err := s.Validate(oldKeyString)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, nil
	}
	if expiresInDays <= 0 {
		expiresInDays = defaultExpiryDays
	}

	keyString, err := generateKeyString()
	if err != nil {
		return nil, err
	}

	replacement := &model.APIKey{
		Key:         keyString,
		UserID:      old.UserID,
		TenantID:    old.TenantID,
		Description: old.Description,
		Permissions: old.Permissions,
		ExpiresAt:   s.now().Add(time.Duration(expiresInDays) * 24 * time.Hour),
		IsActive:    true,
	}

	err = s.keys.Transaction(func(tx repository.APIKeyRepository) error {
		old.IsActive = false
		if err := tx.Update(old); err != nil {
			return err
		}
		return tx.Create(replacement)
	})
	if err != nil {
		return nil, err
	}
	return replacement, nil
}

// DeleteByID removes a key record entirely. Returns false when the key did
// not exist.
func (s *APIKeyService) DeleteByID(keyID uint) (bool, error) {
	key, err := s.keys.FindByID(keyID)
	if err != nil {
		return false, err
	}
	if key == nil {
		return false, nil
	}
	if err := s.keys.Delete(keyID); err != nil {
		return false, err
	}
	return true, nil
}

// RotateByID rotates a key addressed by its record id. Returns (nil, nil)
// when the key is missing, inactive or expired.
func (s *APIKeyService) RotateByID(keyID uint, expiresInDays int) (*model.APIKey, error) {
	key, err := s.keys.FindByID(keyID)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, nil
	}
	return s.Rotate(key.Key, expiresInDays)
}

// ListByUser returns every key owned by a user, active or not.
func (s *APIKeyService) ListByUser(userID uint) ([]model.APIKey, error) {
	return s.keys.ListByUser(userID)
}

// ValidateUserAccess reports whether the given user owns the given key.
// Used as the ownership gate before revoke/delete by a non-admin caller.
func (s *APIKeyService) ValidateUserAccess(userID, keyID uint) (bool, error) {
	key, err := s.keys.FindByID(keyID)
	if err != nil {
		return false, err
	}
	if key == nil {
		return false, nil
	}
	return key.UserID == userID, nil
}

// RevokeTenantKeys deactivates every key belonging to a tenant. Called when
// a tenant is deleted.
func (s *APIKeyService) RevokeTenantKeys(tenantID uint) error {
	return s.keys.DeactivateByTenant(tenantID)
}
