package service

import (
	"sync"

	"github.com/travism26/system-monitoring-gateway/internal/model"
	"github.com/travism26/system-monitoring-gateway/internal/repository"
)

// In-memory repositories used across the service tests.

type fakeAPIKeyRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*model.APIKey
}

func newFakeAPIKeyRepo() *fakeAPIKeyRepo {
	return &fakeAPIKeyRepo{byID: make(map[uint]*model.APIKey)}
}

func (r *fakeAPIKeyRepo) Create(key *model.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	key.ID = r.nextID
	clone := *key
	r.byID[key.ID] = &clone
	return nil
}

func (r *fakeAPIKeyRepo) FindByID(id uint) (*model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	clone := *key
	return &clone, nil
}

func (r *fakeAPIKeyRepo) FindByKey(keyString string) (*model.APIKey, error) {
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

func (r *fakeAPIKeyRepo) ListByUser(userID uint) ([]model.APIKey, error) {
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

func (r *fakeAPIKeyRepo) Update(key *model.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *key
	r.byID[key.ID] = &clone
	return nil
}

func (r *fakeAPIKeyRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *fakeAPIKeyRepo) DeactivateByTenant(tenantID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.byID {
		if key.TenantID != nil && *key.TenantID == tenantID {
			key.IsActive = false
		}
	}
	return nil
}

func (r *fakeAPIKeyRepo) Transaction(fn func(repository.APIKeyRepository) error) error {
	return fn(r)
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[uint]*model.User)}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByID(id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) findBy(match func(*model.User) bool) (*model.User, error) {
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

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) FindByVerificationToken(token string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return token != "" && u.VerificationToken == token })
}

func (r *fakeUserRepo) FindByResetToken(token string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return token != "" && u.PasswordResetToken == token })
}

func (r *fakeUserRepo) ListByTenant(tenantID uint) ([]model.User, error) {
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

func (r *fakeUserRepo) Update(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

type fakeTeamRepo struct {
	mu      sync.Mutex
	nextID  uint
	teams   map[uint]*model.Team
	members map[uint][]model.TeamMember
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		teams:   make(map[uint]*model.Team),
		members: make(map[uint][]model.TeamMember),
	}
}

func (r *fakeTeamRepo) CreateWithOwner(team *model.Team, ownerMember *model.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	team.ID = r.nextID
	clone := *team
	r.teams[team.ID] = &clone
	ownerMember.TeamID = team.ID
	r.members[team.ID] = []model.TeamMember{*ownerMember}
	return nil
}

func (r *fakeTeamRepo) FindByID(id, tenantID uint) (*model.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok || team.TenantID != tenantID {
		return nil, nil
	}
	clone := *team
	clone.Members = append([]model.TeamMember(nil), r.members[id]...)
	return &clone, nil
}

func (r *fakeTeamRepo) FindByName(name string, tenantID uint) (*model.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, team := range r.teams {
		if team.Name == name && team.TenantID == tenantID {
			clone := *team
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeTeamRepo) ListByTenant(tenantID uint) ([]model.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var teams []model.Team
	for _, team := range r.teams {
		if team.TenantID == tenantID {
			clone := *team
			clone.Members = append([]model.TeamMember(nil), r.members[team.ID]...)
			teams = append(teams, clone)
		}
	}
	return teams, nil
}

func (r *fakeTeamRepo) ListChildren(parentTeamID uint) ([]model.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var teams []model.Team
	for _, team := range r.teams {
		if team.ParentTeamID != nil && *team.ParentTeamID == parentTeamID {
			teams = append(teams, *team)
		}
	}
	return teams, nil
}

func (r *fakeTeamRepo) Update(team *model.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *team
	clone.Members = nil
	r.teams[team.ID] = &clone
	return nil
}

func (r *fakeTeamRepo) Delete(id, tenantID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.teams, id)
	delete(r.members, id)
	return nil
}

func (r *fakeTeamRepo) Members(teamID uint) ([]model.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.TeamMember(nil), r.members[teamID]...), nil
}

func (r *fakeTeamRepo) FindMember(teamID, userID uint) (*model.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, member := range r.members[teamID] {
		if member.UserID == userID {
			clone := member
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeTeamRepo) CountMembers(teamID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.members[teamID])), nil
}

func (r *fakeTeamRepo) AddMember(member *model.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[member.TeamID] = append(r.members[member.TeamID], *member)
	return nil
}

func (r *fakeTeamRepo) RemoveMember(teamID, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.members[teamID][:0]
	for _, member := range r.members[teamID] {
		if member.UserID != userID {
			kept = append(kept, member)
		}
	}
	r.members[teamID] = kept
	return nil
}

func (r *fakeTeamRepo) UpdateMemberRole(teamID, userID uint, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.members[teamID] {
		if r.members[teamID][i].UserID == userID {
			r.members[teamID][i].Role = role
		}
	}
	return nil
}

type fakeTenantRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*model.Tenant
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{byID: make(map[uint]*model.Tenant)}
}

func (r *fakeTenantRepo) Create(tenant *model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	tenant.ID = r.nextID
	clone := *tenant
	r.byID[tenant.ID] = &clone
	return nil
}

func (r *fakeTenantRepo) FindByID(id uint) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	clone := *tenant
	return &clone, nil
}

func (r *fakeTenantRepo) FindByContactEmail(email string) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tenant := range r.byID {
		if tenant.ContactEmail == email {
			clone := *tenant
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeTenantRepo) Update(tenant *model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *tenant
	r.byID[tenant.ID] = &clone
	return nil
}

func (r *fakeTenantRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}
