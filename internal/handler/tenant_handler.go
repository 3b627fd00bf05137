package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/travism26/system-monitoring-gateway/internal/apperror"
	"github.com/travism26/system-monitoring-gateway/internal/service"
	"github.com/travism26/system-monitoring-gateway/pkg/logger"
)

// TenantHandler owns tenant lifecycle. Routes are mounted behind the admin
// role middleware.
type TenantHandler struct {
	tenants *service.TenantService
}

func NewTenantHandler(tenants *service.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

func pathTenantID(c echo.Context) (uint, *apperror.Error) {
	parsed, err := strconv.ParseUint(c.Param("tenantId"), 10, 32)
	if err != nil {
		return 0, apperror.BadRequest("invalid tenant id").WithField("tenantId")
	}
	return uint(parsed), nil
}

func (h *TenantHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		OrganizationName string `json:"organization_name"`
		ContactEmail     string `json:"contact_email"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request")
	}

	tenant, err := h.tenants.Create(req.OrganizationName, req.ContactEmail)
	if err != nil {
		return err
	}

	log.Info("Tenant created",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("organization", tenant.OrganizationName))
	return c.JSON(http.StatusCreated, tenant)
}

func (h *TenantHandler) Get(c echo.Context) error {
	tenantID, appErr := pathTenantID(c)
	if appErr != nil {
		return appErr
	}

	tenant, err := h.tenants.Get(tenantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandler) Deactivate(c echo.Context) error {
	log := logger.FromEcho(c)

	tenantID, appErr := pathTenantID(c)
	if appErr != nil {
		return appErr
	}

	tenant, err := h.tenants.Deactivate(tenantID)
	if err != nil {
		return err
	}

	log.Info("Tenant deactivated", zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, tenant)
}

// Delete removes a tenant and revokes every API key it owned.
func (h *TenantHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	tenantID, appErr := pathTenantID(c)
	if appErr != nil {
		return appErr
	}

	if err := h.tenants.Delete(tenantID); err != nil {
		return err
	}

	log.Info("Tenant deleted", zap.Uint("tenant_id", tenantID))
	return c.NoContent(http.StatusNoContent)
}
