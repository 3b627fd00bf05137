package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/travism26/system-monitoring-gateway/internal/apperror"
	"github.com/travism26/system-monitoring-gateway/internal/middleware"
	"github.com/travism26/system-monitoring-gateway/internal/service"
)

// UserHandler serves the authenticated user's own profile.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return apperror.Unauthorized("authentication required")
	}

	user, err := h.users.GetByID(identity.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NotFound("user not found")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return apperror.Unauthorized("authentication required")
	}

	var req struct {
		FirstName *string `json:"firstName,omitempty"`
		LastName  *string `json:"lastName,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request")
	}

	user, err := h.users.UpdateProfile(identity.UserID, service.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NotFound("user not found")
	}
	return c.JSON(http.StatusOK, user)
}
