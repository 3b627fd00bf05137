package handler

import (
	"strings"
	"sync"

	"github.com/travism26/system-monitoring-gateway/internal/model"
	"github.com/travism26/system-monitoring-gateway/internal/repository"
)

// memUserRepo is a minimal in-memory UserRepository for handler tests.
type memUserRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[uint]*model.User)}
}

func (r *memUserRepo) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

func (r *memUserRepo) FindByID(id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) findBy(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if match(user) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(email string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *memUserRepo) FindByVerificationToken(token string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.VerificationToken == token })
}

func (r *memUserRepo) FindByResetToken(token string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.PasswordResetToken == token })
}

func (r *memUserRepo) ListByTenant(tenantID uint) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []model.User
	for _, user := range r.byID {
		if user.TenantID != nil && *user.TenantID == tenantID {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (r *memUserRepo) Update(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

// memKeyRepo is a minimal in-memory APIKeyRepository for handler tests.
type memKeyRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*model.APIKey
}

func newMemKeyRepo() *memKeyRepo {
	return &memKeyRepo{byID: make(map[uint]*model.APIKey)}
}

func (r *memKeyRepo) Create(key *model.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	key.ID = r.nextID
	clone := *key
	r.byID[key.ID] = &clone
	return nil
}

func (r *memKeyRepo) FindByID(id uint) (*model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	clone := *key
	return &clone, nil
}

func (r *memKeyRepo) FindByKey(keyString string) (*model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.byID {
		if key.Key == keyString {
			clone := *key
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memKeyRepo) ListByUser(userID uint) ([]model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []model.APIKey
	for _, key := range r.byID {
		if key.UserID == userID {
			keys = append(keys, *key)
		}
	}
	return keys, nil
}

func (r *memKeyRepo) Update(key *model.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *key
	r.byID[key.ID] = &clone
	return nil
}

func (r *memKeyRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *memKeyRepo) DeactivateByTenant(tenantID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.byID {
		if key.TenantID != nil && *key.TenantID == tenantID {
			key.IsActive = false
		}
	}
	return nil
}

func (r *memKeyRepo) Transaction(fn func(repository.APIKeyRepository) error) error {
	return fn(r)
}
