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
	"github.com/travism26/system-monitoring-gateway/prometheus"
)

// APIKeyHandler manages agent credentials scoped to a user. Every route is
// self-or-admin: a caller may only touch their own keys unless they hold the
// admin role.
type APIKeyHandler struct {
	keys *service.APIKeyService
}

func NewAPIKeyHandler(keys *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

// pathUserID resolves the :userId segment and enforces the self-or-admin
// rule against the caller's identity.
func pathUserID(c echo.Context) (uint, *apperror.Error) {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return 0, apperror.Unauthorized("authentication required")
	}

	raw := c.Param("userId")
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, apperror.BadRequest("invalid user id").WithField("userId")
	}
	userID := uint(parsed)

	if identity.UserID != userID && identity.Role != model.RoleAdmin {
		return 0, apperror.Forbidden("cannot manage another user's keys")
	}
	return userID, nil
}

func pathKeyID(c echo.Context) (uint, *apperror.Error) {
	parsed, err := strconv.ParseUint(c.Param("keyId"), 10, 32)
	if err != nil {
		return 0, apperror.BadRequest("invalid key id").WithField("keyId")
	}
	return uint(parsed), nil
}

// checkKeyOwnership rejects access to keys the path user does not own.
func (h *APIKeyHandler) checkKeyOwnership(userID, keyID uint) *apperror.Error {
	owns, err := h.keys.ValidateUserAccess(userID, keyID)
	if err != nil {
		return apperror.Internal(err)
	}
	if !owns {
		return apperror.Forbidden("key does not belong to this user")
	}
	return nil
}

func (h *APIKeyHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	userID, appErr := pathUserID(c)
	if appErr != nil {
		return appErr
	}

	var req struct {
		Description   string   `json:"description"`
		TenantID      *uint    `json:"tenant_id,omitempty"`
		Permissions   []string `json:"permissions,omitempty"`
		ExpiresInDays int      `json:"expires_in_days,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request")
	}

	identity := middleware.IdentityFrom(c)
	tenantID := req.TenantID
	if tenantID == nil && identity != nil {
		tenantID = identity.TenantID
	}

	key, err := h.keys.Create(userID, req.Description, tenantID, req.Permissions, req.ExpiresInDays)
	if err != nil {
		return err
	}

	prometheus.RecordAPIKeyOperation("create")
	log.Info("API key created",
		zap.Uint("user_id", userID),
		zap.Uint("key_id", key.ID))
	return c.JSON(http.StatusCreated, key)
}

func (h *APIKeyHandler) List(c echo.Context) error {
	userID, appErr := pathUserID(c)
	if appErr != nil {
		return appErr
	}

	keys, err := h.keys.ListByUser(userID)
	if err != nil {
		return err
	}
	if keys == nil {
		keys = []model.APIKey{}
	}
	return c.JSON(http.StatusOK, keys)
}

func (h *APIKeyHandler) Revoke(c echo.Context) error {
	log := logger.FromEcho(c)

	userID, appErr := pathUserID(c)
	if appErr != nil {
		return appErr
	}
	keyID, appErr := pathKeyID(c)
	if appErr != nil {
		return appErr
	}
	if appErr := h.checkKeyOwnership(userID, keyID); appErr != nil {
		return appErr
	}

	if _, err := h.keys.RevokeByID(keyID); err != nil {
		return err
	}

	prometheus.RecordAPIKeyOperation("revoke")
	log.Info("API key revoked",
		zap.Uint("user_id", userID),
		zap.Uint("key_id", keyID))
	return c.JSON(http.StatusOK, echo.Map{"status": "revoked"})
}

func (h *APIKeyHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	userID, appErr := pathUserID(c)
	if appErr != nil {
		return appErr
	}
	keyID, appErr := pathKeyID(c)
	if appErr != nil {
		return appErr
	}
	if appErr := h.checkKeyOwnership(userID, keyID); appErr != nil {
		return appErr
	}

	if _, err := h.keys.DeleteByID(keyID); err != nil {
		return err
	}

	prometheus.RecordAPIKeyOperation("delete")
	log.Info("API key deleted",
		zap.Uint("user_id", userID),
		zap.Uint("key_id", keyID))
	return c.NoContent(http.StatusNoContent)
}

func (h *APIKeyHandler) Rotate(c echo.Context) error {
	log := logger.FromEcho(c)

	userID, appErr := pathUserID(c)
	if appErr != nil {
		return appErr
	}
	keyID, appErr := pathKeyID(c)
	if appErr != nil {
		return appErr
	}
	if appErr := h.checkKeyOwnership(userID, keyID); appErr != nil {
		return appErr
	}

	var req struct {
		ExpiresInDays int `json:"expires_in_days,omitempty"`
	}
	// Body is optional on rotate.
	_ = c.Bind(&req)

	replacement, err := h.keys.RotateByID(keyID, req.ExpiresInDays)
	if err != nil {
		return err
	}
	if replacement == nil {
		return apperror.BadRequest("key is not active and cannot be rotated")
	}

	prometheus.RecordAPIKeyOperation("rotate")
	log.Info("API key rotated",
		zap.Uint("user_id", userID),
		zap.Uint("old_key_id", keyID),
		zap.Uint("new_key_id", replacement.ID))
	return c.JSON(http.StatusCreated, replacement)
}
