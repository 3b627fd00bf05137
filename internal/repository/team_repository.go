package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/travism26/system-monitoring-gateway/internal/model"
)

// TeamRepository isolates team and team-membership persistence. CreateWithOwner
// inserts the team row and the owner's admin membership in one transaction so
// a team never exists without its owner member.
type TeamRepository interface {
	CreateWithOwner(team *model.Team, ownerMember *model.TeamMember) error
	FindByID(id, tenantID uint) (*model.Team, error)
	FindByName(name string, tenantID uint) (*model.Team, error)
	ListByTenant(tenantID uint) ([]model.Team, error)
	ListChildren(parentTeamID uint) ([]model.Team, error)
	Update(team *model.Team) error
	Delete(id, tenantID uint) error
	Members(teamID uint) ([]model.TeamMember, error)
	FindMember(teamID, userID uint) (*model.TeamMember, error)
	CountMembers(teamID uint) (int64, error)
	AddMember(member *model.TeamMember) error
	RemoveMember(teamID, userID uint) error
	UpdateMemberRole(teamID, userID uint, role string) error
}

type gormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository returns a gorm-backed TeamRepository.
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &gormTeamRepository{db: db}
}

func (r *gormTeamRepository) CreateWithOwner(team *model.Team, ownerMember *model.TeamMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		ownerMember.TeamID = team.ID
		if ownerMember.JoinedAt.IsZero() {
			ownerMember.JoinedAt = time.Now()
		}
		return tx.Create(ownerMember).Error
	})
}

func (r *gormTeamRepository) FindByID(id, tenantID uint) (*model.Team, error) {
	var team model.Team
	err := r.db.Preload("Members").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

func (r *gormTeamRepository) FindByName(name string, tenantID uint) (*model.Team, error) {
	var team model.Team
	err := r.db.Where("name = ? AND tenant_id = ?", name, tenantID).First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

func (r *gormTeamRepository) ListByTenant(tenantID uint) ([]model.Team, error) {
	var teams []model.Team
	if err := r.db.Preload("Members").Where("tenant_id = ?", tenantID).Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *gormTeamRepository) ListChildren(parentTeamID uint) ([]model.Team, error) {
	var teams []model.Team
	if err := r.db.Where("parent_team_id = ?", parentTeamID).Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *gormTeamRepository) Update(team *model.Team) error {
	return r.db.Save(team).Error
}

func (r *gormTeamRepository) Delete(id, tenantID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&model.TeamMember{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Team{}).Error
	})
}

func (r *gormTeamRepository) Members(teamID uint) ([]model.TeamMember, error) {
	var members []model.TeamMember
	if err := r.db.Where("team_id = ?", teamID).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *gormTeamRepository) FindMember(teamID, userID uint) (*model.TeamMember, error) {
	var member model.TeamMember
	err := r.db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *gormTeamRepository) CountMembers(teamID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.TeamMember{}).Where("team_id = ?", teamID).Count(&count).Error
	return count, err
}

func (r *gormTeamRepository) AddMember(member *model.TeamMember) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	return r.db.Create(member).Error
}

func (r *gormTeamRepository) RemoveMember(teamID, userID uint) error {
	return r.db.Where("team_id = ? AND user_id = ?", teamID, userID).Delete(&model.TeamMember{}).Error
}

func (r *gormTeamRepository) UpdateMemberRole(teamID, userID uint, role string) error {
	return r.db.Model(&model.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Update("role", role).Error
}
