package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travism26/system-monitoring-gateway/internal/model"
)

func uintPtr(v uint) *uint { return &v }

func TestCreateAPIKeyFormat(t *testing.T) {
	svc := NewAPIKeyService(newFakeAPIKeyRepo())

	key, err := svc.Create(1, "agent key", nil, nil, 0)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key.Key, "sms_"))
	assert.Len(t, key.Key, len("sms_")+48)
	assert.True(t, key.IsActive)
	assert.Equal(t, model.Permissions{model.PermissionRead}, key.Permissions)
}

func TestCreateAPIKeyDefaultExpiry(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc := NewAPIKeyService(newFakeAPIKeyRepo()).WithClock(func() time.Time { return base })

	key, err := svc.Create(1, "default expiry", nil, nil, 0)
	require.NoError(t, err)
	assert.WithinDuration(t, base.Add(365*24*time.Hour), key.ExpiresAt, time.Second)

	key, err = svc.Create(1, "short expiry", nil, []string{model.PermissionWrite}, 7)
	require.NoError(t, err)
	assert.WithinDuration(t, base.Add(7*24*time.Hour), key.ExpiresAt, time.Second)
}

func TestCreateAPIKeyRejectsUnknownPermission(t *testing.T) {
	svc := NewAPIKeyService(newFakeAPIKeyRepo())
	_, err := svc.Create(1, "bad perms", nil, []string{"superuser"}, 0)
	assert.Error(t, err)
}

func TestValidateAPIKeyAfterCreation(t *testing.T) {
	svc := NewAPIKeyService(newFakeAPIKeyRepo())
	created, err := svc.Create(7, "validate me", uintPtr(3), nil, 30)
	require.NoError(t, err)

	got, err := svc.Validate(created.Key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsActive)
	assert.Equal(t, uint(7), got.UserID)
	require.NotNil(t, got.TenantID)
	assert.Equal(t, uint(3), *got.TenantID)
}

func TestValidateUnknownKey(t *testing.T) {
	svc := NewAPIKeyService(newFakeAPIKeyRepo())
	got, err := svc.Validate("sms_deadbeef")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestValidateLazyExpiry(t *testing.T) {
	repo := newFakeAPIKeyRepo()
	current := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc := NewAPIKeyService(repo).WithClock(func() time.Time { return current })

	key, err := svc.Create(1, "expires fast", nil, nil, 1)
	require.NoError(t, err)

	// Still valid just before expiry.
	current = current.Add(23 * time.Hour)
	got, err := svc.Validate(key.Key)
	require.NoError(t, err)
	assert.NotNil(t, got)

	// Past expiry the key validates to nil and is deactivated in storage,
	// even though IsActive was still true.
	current = current.Add(2 * time.Hour)
	got, err = svc.Validate(key.Key)
	require.NoError(t, err)
	assert.Nil(t, got)

	stored, err := repo.FindByID(key.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.IsActive)
}

func TestRevokeIdempotent(t *testing.T) {
	svc := NewAPIKeyService(newFakeAPIKeyRepo())
	key, err := svc.Create(1, "revoke me", nil, nil, 0)
	require.NoError(t, err)

	ok, err := svc.Revoke(key.Key)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second revoke of an existing key still reports success.
	ok, err = svc.Revoke(key.Key)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := svc.Validate(key.Key)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Unknown key reports false.
	ok, err = svc.Revoke("sms_0000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRotateInheritsAndInvalidatesOld(t *testing.T) {
	svc := NewAPIKeyService(newFakeAPIKeyRepo())
	old, err := svc.Create(5, "rotating", uintPtr(9), []string{model.PermissionRead, model.PermissionWrite}, 0)
	require.NoError(t, err)

	replacement, err := svc.Rotate(old.Key, 0)
	require.NoError(t, err)
	require.NotNil(t, replacement)

	assert.NotEqual(t, old.Key, replacement.Key)
	assert.Equal(t, old.UserID, replacement.UserID)
	assert.Equal(t, old.TenantID, replacement.TenantID)
	assert.Equal(t, old.Permissions, replacement.Permissions)

	gotOld, err := svc.Validate(old.Key)
	require.NoError(t, err)
	assert.Nil(t, gotOld)

	gotNew, err := svc.Validate(replacement.Key)
	require.NoError(t, err)
	assert.NotNil(t, gotNew)
}

func TestRotateInactiveKeyFails(t *testing.T) {
	svc := NewAPIKeyService(newFakeAPIKeyRepo())
	key, err := svc.Create(1, "already revoked", nil, nil, 0)
	require.NoError(t, err)

	_, err = svc.Revoke(key.Key)
	require.NoError(t, err)

	replacement, err := svc.Rotate(key.Key, 0)
	require.NoError(t, err)
	assert.Nil(t, replacement)

	replacement, err = svc.Rotate("sms_missing", 0)
	require.NoError(t, err)
	assert.Nil(t, replacement)
}

func TestValidateUserAccess(t *testing.T) {
	svc := NewAPIKeyService(newFakeAPIKeyRepo())
	key, err := svc.Create(11, "owned", nil, nil, 0)
	require.NoError(t, err)

	ok, err := svc.ValidateUserAccess(11, key.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.ValidateUserAccess(12, key.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.ValidateUserAccess(11, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRevokeTenantKeys(t *testing.T) {
	repo := newFakeAPIKeyRepo()
	svc := NewAPIKeyService(repo)

	inTenant, err := svc.Create(1, "tenant scoped", uintPtr(4), nil, 0)
	require.NoError(t, err)
	outside, err := svc.Create(1, "tenant-less", nil, nil, 0)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeTenantKeys(4))

	got, err := svc.Validate(inTenant.Key)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Validate(outside.Key)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestDeleteByID(t *testing.T) {
	svc := NewAPIKeyService(newFakeAPIKeyRepo())
	key, err := svc.Create(6, "to delete", nil, nil, 0)
	require.NoError(t, err)

	deleted, err := svc.DeleteByID(key.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := svc.Validate(key.Key)
	require.NoError(t, err)
	assert.Nil(t, got)

	keys, err := svc.ListByUser(6)
	require.NoError(t, err)
	assert.Empty(t, keys)

	deleted, err = svc.DeleteByID(key.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRotateByID(t *testing.T) {
	svc := NewAPIKeyService(newFakeAPIKeyRepo())
	old, err := svc.Create(6, "rotating by id", uintPtr(2), nil, 0)
	require.NoError(t, err)

	replacement, err := svc.RotateByID(old.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, replacement)
	assert.NotEqual(t, old.Key, replacement.Key)
	assert.Equal(t, old.UserID, replacement.UserID)

	got, err := svc.Validate(old.Key)
	require.NoError(t, err)
	assert.Nil(t, got)

	replacement, err = svc.RotateByID(999, 0)
	require.NoError(t, err)
	assert.Nil(t, replacement)
}
