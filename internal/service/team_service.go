package service

import (
	"time"

	"github.com/travism26/system-monitoring-gateway/internal/apperror"
	"github.com/travism26/system-monitoring-gateway/internal/model"
	"github.com/travism26/system-monitoring-gateway/internal/repository"
)

// CreateTeamInput carries the fields accepted at team creation.
type CreateTeamInput struct {
	Name         string
	Description  string
	TenantID     uint
	OwnerID      uint
	ParentTeamID *uint
	Settings     *model.TeamSettings
}

// UpdateTeamInput carries the mutable team fields.
type UpdateTeamInput struct {
	Name        *string
	Description *string
	Settings    *model.TeamSettings
}

// TeamHierarchy is a team with its recursively resolved children.
type TeamHierarchy struct {
	model.Team
	Children []TeamHierarchy `json:"children"`
}

// TeamService enforces the team invariants: the owner always holds an
// implicit admin membership that member mutations cannot touch, membership
// never exceeds the resource quota, and a team with children cannot be
// deleted.
type TeamService struct {
	teams repository.TeamRepository
	users repository.UserRepository
}

// NewTeamService creates the team service.
func NewTeamService(teams repository.TeamRepository, users repository.UserRepository) *TeamService {
	return &TeamService{teams: teams, users: users}
}

// Create creates a team and the owner's admin membership transactionally.
func (s *TeamService) Create(input CreateTeamInput) (*model.Team, error) {
	if input.Name == "" {
		return nil, apperror.BadRequest("team name is required").WithField("name")
	}

	owner, err := s.users.FindByID(input.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner == nil || (owner.TenantID != nil && *owner.TenantID != input.TenantID) {
		return nil, apperror.BadRequest("invalid owner for team")
	}

	if existing, err := s.teams.FindByName(input.Name, input.TenantID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperror.BadRequest("team name already in use").WithField("name")
	}

	if input.ParentTeamID != nil {
		parent, err := s.teams.FindByID(*input.ParentTeamID, input.TenantID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apperror.BadRequest("invalid parent team").WithField("parent_team_id")
		}
	}

	settings := model.DefaultTeamSettings()
	if input.Settings != nil {
		settings = *input.Settings
	}

	team := &model.Team{
		Name:         input.Name,
		Description:  input.Description,
		TenantID:     input.TenantID,
		ParentTeamID: input.ParentTeamID,
		OwnerID:      input.OwnerID,
		Settings:     settings,
	}
	ownerMember := &model.TeamMember{
		UserID:   input.OwnerID,
		Role:     model.RoleAdmin,
		JoinedAt: time.Now(),
	}
	if err := s.teams.CreateWithOwner(team, ownerMember); err != nil {
		return nil, err
	}
	team.Members = []model.TeamMember{*ownerMember}
	return team, nil
}

// Get fetches a team scoped to a tenant.
func (s *TeamService) Get(teamID, tenantID uint) (*model.Team, error) {
	team, err := s.teams.FindByID(teamID, tenantID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, apperror.NotFound("team not found")
	}
	return team, nil
}

// ListByTenant returns every team in the tenant.
func (s *TeamService) ListByTenant(tenantID uint) ([]model.Team, error) {
	return s.teams.ListByTenant(tenantID)
}

// Update applies partial team changes.
func (s *TeamService) Update(teamID, tenantID uint, input UpdateTeamInput) (*model.Team, error) {
	team, err := s.Get(teamID, tenantID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		team.Name = *input.Name
	}
	if input.Description != nil {
		team.Description = *input.Description
	}
	if input.Settings != nil {
		team.Settings = *input.Settings
	}
	if err := s.teams.Update(team); err != nil {
		return nil, err
	}
	return team, nil
}

// AddMember adds a user to the team, subject to the member quota.
func (s *TeamService) AddMember(teamID, tenantID, userID uint, role string) (*model.Team, error) {
	team, err := s.Get(teamID, tenantID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || (user.TenantID != nil && *user.TenantID != tenantID) {
		return nil, apperror.BadRequest("invalid user").WithField("user_id")
	}

	existing, err := s.teams.FindMember(teamID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.BadRequest("user is already a team member").WithField("user_id")
	}

	count, err := s.teams.CountMembers(teamID)
	if err != nil {
		return nil, err
	}
	if int(count) >= team.Settings.ResourceQuota.MaxMembers {
		return nil, apperror.BadRequest("team has reached maximum member limit")
	}

	member := &model.TeamMember{
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	if err := s.teams.AddMember(member); err != nil {
		return nil, err
	}
	return s.Get(teamID, tenantID)
}

// RemoveMember removes a member. The owner can never be removed.
func (s *TeamService) RemoveMember(teamID, tenantID, userID uint) (*model.Team, error) {
	team, err := s.Get(teamID, tenantID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID == userID {
		return nil, apperror.Forbidden("cannot remove team owner")
	}

	member, err := s.teams.FindMember(teamID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperror.NotFound("team member not found")
	}

	if err := s.teams.RemoveMember(teamID, userID); err != nil {
		return nil, err
	}
	return s.Get(teamID, tenantID)
}

// UpdateMemberRole changes a member's role. The owner's role is immutable
// through this path.
func (s *TeamService) UpdateMemberRole(teamID, tenantID, userID uint, newRole string) (*model.Team, error) {
	team, err := s.Get(teamID, tenantID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID == userID {
		return nil, apperror.Forbidden("cannot change team owner's role")
	}

	member, err := s.teams.FindMember(teamID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperror.NotFound("team member not found")
	}

	if err := s.teams.UpdateMemberRole(teamID, userID, newRole); err != nil {
		return nil, err
	}
	return s.Get(teamID, tenantID)
}

// Delete removes a childless team and its memberships.
func (s *TeamService) Delete(teamID, tenantID uint) error {
	if _, err := s.Get(teamID, tenantID); err != nil {
		return err
	}

	children, err := s.teams.ListChildren(teamID)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return apperror.BadRequest("cannot delete team with child teams")
	}

	return s.teams.Delete(teamID, tenantID)
}

// Hierarchy resolves the team tree for a tenant, rooted at rootTeamID when
// given, otherwise at every top-level team.
func (s *TeamService) Hierarchy(tenantID uint, rootTeamID *uint) ([]TeamHierarchy, error) {
	var roots []model.Team
	if rootTeamID != nil {
		root, err := s.Get(*rootTeamID, tenantID)
		if err != nil {
			return nil, err
		}
		roots = []model.Team{*root}
	} else {
		all, err := s.teams.ListByTenant(tenantID)
		if err != nil {
			return nil, err
		}
		for _, team := range all {
			if team.ParentTeamID == nil {
				roots = append(roots, team)
			}
		}
	}

	result := make([]TeamHierarchy, 0, len(roots))
	for _, root := range roots {
		node, err := s.buildHierarchy(root)
		if err != nil {
			return nil, err
		}
		result = append(result, node)
	}
	return result, nil
}

func (s *TeamService) buildHierarchy(team model.Team) (TeamHierarchy, error) {
	node := TeamHierarchy{Team: team, Children: []TeamHierarchy{}}
	children, err := s.teams.ListChildren(team.ID)
	if err != nil {
		return node, err
	}
	for _, child := range children {
		childNode, err := s.buildHierarchy(child)
		if err != nil {
			return node, err
		}
		node.Children = append(node.Children, childNode)
	}
	return node, nil
}
