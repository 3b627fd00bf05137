package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travism26/system-monitoring-gateway/internal/apperror"
	"github.com/travism26/system-monitoring-gateway/internal/model"
)

type teamFixture struct {
	svc     *TeamService
	teams   *fakeTeamRepo
	users   *fakeUserRepo
	ownerID uint
}

func newTeamFixture(t *testing.T) *teamFixture {
	t.Helper()
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()

	tenantID := uint(1)
	owner := &model.User{Email: "owner@example.com", TenantID: &tenantID, Role: model.RoleTeamLead, Status: model.UserStatusActive}
	require.NoError(t, users.Create(owner))

	return &teamFixture{
		svc:     NewTeamService(teams, users),
		teams:   teams,
		users:   users,
		ownerID: owner.ID,
	}
}

func (f *teamFixture) addUser(t *testing.T, email string) uint {
	t.Helper()
	tenantID := uint(1)
	user := &model.User{Email: email, TenantID: &tenantID, Status: model.UserStatusActive}
	require.NoError(t, f.users.Create(user))
	return user.ID
}

func (f *teamFixture) createTeam(t *testing.T, name string, settings *model.TeamSettings) *model.Team {
	t.Helper()
	team, err := f.svc.Create(CreateTeamInput{
		Name:     name,
		TenantID: 1,
		OwnerID:  f.ownerID,
		Settings: settings,
	})
	require.NoError(t, err)
	return team
}

func TestCreateTeamInsertsOwnerMembership(t *testing.T) {
	f := newTeamFixture(t)
	team := f.createTeam(t, "platform", nil)

	require.Len(t, team.Members, 1)
	assert.Equal(t, f.ownerID, team.Members[0].UserID)
	assert.Equal(t, model.RoleAdmin, team.Members[0].Role)
}

func TestCreateTeamDuplicateName(t *testing.T) {
	f := newTeamFixture(t)
	f.createTeam(t, "platform", nil)

	_, err := f.svc.Create(CreateTeamInput{Name: "platform", TenantID: 1, OwnerID: f.ownerID})
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestCreateTeamInvalidParent(t *testing.T) {
	f := newTeamFixture(t)
	missing := uint(404)
	_, err := f.svc.Create(CreateTeamInput{Name: "orphan", TenantID: 1, OwnerID: f.ownerID, ParentTeamID: &missing})
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestAddMemberQuotaEnforced(t *testing.T) {
	f := newTeamFixture(t)
	settings := model.DefaultTeamSettings()
	settings.ResourceQuota.MaxMembers = 2
	team := f.createTeam(t, "small", &settings)

	// Owner already occupies one slot.
	second := f.addUser(t, "second@example.com")
	_, err := f.svc.AddMember(team.ID, 1, second, model.RoleMember)
	require.NoError(t, err)

	third := f.addUser(t, "third@example.com")
	_, err = f.svc.AddMember(team.ID, 1, third, model.RoleMember)
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestAddMemberDuplicate(t *testing.T) {
	f := newTeamFixture(t)
	team := f.createTeam(t, "platform", nil)
	member := f.addUser(t, "member@example.com")

	_, err := f.svc.AddMember(team.ID, 1, member, model.RoleMember)
	require.NoError(t, err)

	_, err = f.svc.AddMember(team.ID, 1, member, model.RoleMember)
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestRemoveOwnerAlwaysRejected(t *testing.T) {
	f := newTeamFixture(t)
	team := f.createTeam(t, "platform", nil)

	_, err := f.svc.RemoveMember(team.ID, 1, f.ownerID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestChangeOwnerRoleAlwaysRejected(t *testing.T) {
	f := newTeamFixture(t)
	team := f.createTeam(t, "platform", nil)

	_, err := f.svc.UpdateMemberRole(team.ID, 1, f.ownerID, model.RoleMember)
	require.Error(t, err)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestRemoveRegularMember(t *testing.T) {
	f := newTeamFixture(t)
	team := f.createTeam(t, "platform", nil)
	member := f.addUser(t, "member@example.com")

	_, err := f.svc.AddMember(team.ID, 1, member, model.RoleMember)
	require.NoError(t, err)

	updated, err := f.svc.RemoveMember(team.ID, 1, member)
	require.NoError(t, err)
	require.Len(t, updated.Members, 1)
	assert.Equal(t, f.ownerID, updated.Members[0].UserID)
}

func TestDeleteTeamWithChildrenRejected(t *testing.T) {
	f := newTeamFixture(t)
	parent := f.createTeam(t, "parent", nil)

	_, err := f.svc.Create(CreateTeamInput{
		Name:         "child",
		TenantID:     1,
		OwnerID:      f.ownerID,
		ParentTeamID: &parent.ID,
	})
	require.NoError(t, err)

	err = f.svc.Delete(parent.ID, 1)
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestDeleteChildlessTeam(t *testing.T) {
	f := newTeamFixture(t)
	team := f.createTeam(t, "ephemeral", nil)

	require.NoError(t, f.svc.Delete(team.ID, 1))

	_, err := f.svc.Get(team.ID, 1)
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestHierarchy(t *testing.T) {
	f := newTeamFixture(t)
	root := f.createTeam(t, "root", nil)

	child, err := f.svc.Create(CreateTeamInput{
		Name:         "child",
		TenantID:     1,
		OwnerID:      f.ownerID,
		ParentTeamID: &root.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.Create(CreateTeamInput{
		Name:         "grandchild",
		TenantID:     1,
		OwnerID:      f.ownerID,
		ParentTeamID: &child.ID,
	})
	require.NoError(t, err)

	tree, err := f.svc.Hierarchy(1, nil)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "root", tree[0].Name)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "child", tree[0].Children[0].Name)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, "grandchild", tree[0].Children[0].Children[0].Name)
}

func TestTenantDeleteCascadesKeyRevocation(t *testing.T) {
	tenants := newFakeTenantRepo()
	keyRepo := newFakeAPIKeyRepo()
	keySvc := NewAPIKeyService(keyRepo)
	svc := NewTenantService(tenants, keySvc)

	tenant, err := svc.Create("Acme Corp", "ops@acme.example.com")
	require.NoError(t, err)

	key, err := keySvc.Create(1, "acme agent", &tenant.ID, nil, 0)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(tenant.ID))

	got, err := keySvc.Validate(key.Key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEndToEndKeyLifecycle(t *testing.T) {
	// Tenant-less user registers, logs in, creates a one-day key, and the key
	// stops validating once the clock passes expiry.
	userSvc := NewUserService(newFakeUserRepo())

	current := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	keySvc := NewAPIKeyService(newFakeAPIKeyRepo()).WithClock(func() time.Time { return current })

	registered, err := userSvc.Register(RegisterInput{Email: "agent-op@example.com", Password: "a-password"})
	require.NoError(t, err)

	user, err := userSvc.Authenticate("agent-op@example.com", "a-password")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Nil(t, user.TenantID)

	key, err := keySvc.Create(registered.ID, "one day key", nil, nil, 1)
	require.NoError(t, err)

	got, err := keySvc.Validate(key.Key)
	require.NoError(t, err)
	require.NotNil(t, got)

	current = current.Add(25 * time.Hour)
	got, err = keySvc.Validate(key.Key)
	require.NoError(t, err)
	assert.Nil(t, got)
}
