package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/travism26/system-monitoring-gateway/internal/apperror"
	"github.com/travism26/system-monitoring-gateway/internal/middleware"
	"github.com/travism26/system-monitoring-gateway/internal/model"
	"github.com/travism26/system-monitoring-gateway/internal/service"
	"github.com/travism26/system-monitoring-gateway/pkg/logger"
)

// TeamHandler manages teams within the caller's tenant. Every route requires
// an authenticated identity that carries a tenant.
type TeamHandler struct {
	teams *service.TeamService
}

func NewTeamHandler(teams *service.TeamService) *TeamHandler {
	return &TeamHandler{teams: teams}
}

// tenantScope resolves the caller's identity and tenant. Team routes are
// meaningless without a tenant context.
func tenantScope(c echo.Context) (*middleware.Identity, uint, *apperror.Error) {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return nil, 0, apperror.Unauthorized("authentication required")
	}
	if identity.TenantID == nil {
		return nil, 0, apperror.Forbidden("a tenant context is required for team operations")
	}
	return identity, *identity.TenantID, nil
}

func pathTeamID(c echo.Context) (uint, *apperror.Error) {
	parsed, err := strconv.ParseUint(c.Param("teamId"), 10, 32)
	if err != nil {
		return 0, apperror.BadRequest("invalid team id").WithField("teamId")
	}
	return uint(parsed), nil
}

func pathMemberID(c echo.Context) (uint, *apperror.Error) {
	parsed, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return 0, apperror.BadRequest("invalid user id").WithField("userId")
	}
	return uint(parsed), nil
}

func (h *TeamHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	identity, tenantID, appErr := tenantScope(c)
	if appErr != nil {
		return appErr
	}

	var req struct {
		Name         string              `json:"name"`
		Description  string              `json:"description,omitempty"`
		ParentTeamID *uint               `json:"parent_team_id,omitempty"`
		Settings     *model.TeamSettings `json:"settings,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request")
	}
	if req.Name == "" {
		return apperror.BadRequest("team name is required").WithField("name")
	}

	team, err := h.teams.Create(service.CreateTeamInput{
		Name:         req.Name,
		Description:  req.Description,
		TenantID:     tenantID,
		OwnerID:      identity.UserID,
		ParentTeamID: req.ParentTeamID,
		Settings:     req.Settings,
	})
	if err != nil {
		return err
	}

	log.Info("Team created",
		zap.Uint("team_id", team.ID),
		zap.Uint("tenant_id", tenantID),
		zap.Uint("owner_id", identity.UserID))
	return c.JSON(http.StatusCreated, team)
}

func (h *TeamHandler) List(c echo.Context) error {
	_, tenantID, appErr := tenantScope(c)
	if appErr != nil {
		return appErr
	}

	teams, err := h.teams.ListByTenant(tenantID)
	if err != nil {
		return err
	}
	if teams == nil {
		teams = []model.Team{}
	}
	return c.JSON(http.StatusOK, teams)
}

func (h *TeamHandler) Get(c echo.Context) error {
	_, tenantID, appErr := tenantScope(c)
	if appErr != nil {
		return appErr
	}
	teamID, appErr := pathTeamID(c)
	if appErr != nil {
		return appErr
	}

	team, err := h.teams.Get(teamID, tenantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, team)
}

func (h *TeamHandler) Update(c echo.Context) error {
	_, tenantID, appErr := tenantScope(c)
	if appErr != nil {
		return appErr
	}
	teamID, appErr := pathTeamID(c)
	if appErr != nil {
		return appErr
	}

	var req struct {
		Name        *string             `json:"name,omitempty"`
		Description *string             `json:"description,omitempty"`
		Settings    *model.TeamSettings `json:"settings,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request")
	}

	team, err := h.teams.Update(teamID, tenantID, service.UpdateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, team)
}

func (h *TeamHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	_, tenantID, appErr := tenantScope(c)
	if appErr != nil {
		return appErr
	}
	teamID, appErr := pathTeamID(c)
	if appErr != nil {
		return appErr
	}

	if err := h.teams.Delete(teamID, tenantID); err != nil {
		return err
	}

	log.Info("Team deleted",
		zap.Uint("team_id", teamID),
		zap.Uint("tenant_id", tenantID))
	return c.NoContent(http.StatusNoContent)
}

func (h *TeamHandler) AddMember(c echo.Context) error {
	_, tenantID, appErr := tenantScope(c)
	if appErr != nil {
		return appErr
	}
	teamID, appErr := pathTeamID(c)
	if appErr != nil {
		return appErr
	}

	var req struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request")
	}
	if req.UserID == 0 {
		return apperror.BadRequest("user_id is required").WithField("user_id")
	}
	if req.Role == "" {
		req.Role = model.RoleMember
	}

	team, err := h.teams.AddMember(teamID, tenantID, req.UserID, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, team)
}

func (h *TeamHandler) RemoveMember(c echo.Context) error {
	_, tenantID, appErr := tenantScope(c)
	if appErr != nil {
		return appErr
	}
	teamID, appErr := pathTeamID(c)
	if appErr != nil {
		return appErr
	}
	userID, appErr := pathMemberID(c)
	if appErr != nil {
		return appErr
	}

	team, err := h.teams.RemoveMember(teamID, tenantID, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, team)
}

func (h *TeamHandler) UpdateMemberRole(c echo.Context) error {
	_, tenantID, appErr := tenantScope(c)
	if appErr != nil {
		return appErr
	}
	teamID, appErr := pathTeamID(c)
	if appErr != nil {
		return appErr
	}
	userID, appErr := pathMemberID(c)
	if appErr != nil {
		return appErr
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request")
	}
	if req.Role == "" {
		return apperror.BadRequest("role is required").WithField("role")
	}

	team, err := h.teams.UpdateMemberRole(teamID, tenantID, userID, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, team)
}

func (h *TeamHandler) Hierarchy(c echo.Context) error {
	_, tenantID, appErr := tenantScope(c)
	if appErr != nil {
		return appErr
	}

	var rootTeamID *uint
	if raw := c.QueryParam("root"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return apperror.BadRequest("invalid root team id").WithField("root")
		}
		id := uint(parsed)
		rootTeamID = &id
	}

	hierarchy, err := h.teams.Hierarchy(tenantID, rootTeamID)
	if err != nil {
		return err
	}
	if hierarchy == nil {
		hierarchy = []service.TeamHierarchy{}
	}
	return c.JSON(http.StatusOK, hierarchy)
}
