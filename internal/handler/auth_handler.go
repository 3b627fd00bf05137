package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/travism26/system-monitoring-gateway/internal/apperror"
	"github.com/travism26/system-monitoring-gateway/internal/service"
	"github.com/travism26/system-monitoring-gateway/pkg/jwtutil"
	"github.com/travism26/system-monitoring-gateway/pkg/logger"
	"github.com/travism26/system-monitoring-gateway/prometheus"
)

// AuthHandler owns registration, login and the credential recovery flows.
type AuthHandler struct {
	users *service.UserService
	jwt   *jwtutil.JWTUtil
}

func NewAuthHandler(users *service.UserService, jwt *jwtutil.JWTUtil) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		TenantID  *uint  `json:"tenant_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return apperror.BadRequest("invalid request")
	}

	user, err := h.users.Register(service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		TenantID:  req.TenantID,
	})
	if err != nil {
		prometheus.RecordAuthError("registration_failed")
		return err
	}

	token, err := h.jwt.GenerateToken(user.Email, user.ID, user.TenantID, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return apperror.Internal(err)
	}

	log.Info("User registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return apperror.BadRequest("invalid request")
	}

	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		return err
	}
	if user == nil {
		log.Warn("Login rejected", zap.String("email", req.Email))
		prometheus.RecordAuthError("login_failure")
		return apperror.Unauthorized("invalid credentials")
	}

	token, err := h.jwt.GenerateToken(user.Email, user.ID, user.TenantID, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return apperror.Internal(err)
	}

	log.Info("User logged in", zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return apperror.BadRequest("verification token is required").WithField("token")
	}

	verified, err := h.users.VerifyEmail(token)
	if err != nil {
		return err
	}
	if !verified {
		return apperror.BadRequest("invalid or expired verification token")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "verified"})
}

// ForgotPassword always answers 200 so the route cannot be used to probe
// which emails are registered.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request")
	}
	if req.Email == "" {
		return apperror.BadRequest("email is required").WithField("email")
	}

	if _, err := h.users.InitiatePasswordReset(req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "reset initiated"})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request")
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperror.BadRequest("token and newPassword are required")
	}

	reset, err := h.users.ResetPassword(req.Token, req.NewPassword)
	if err != nil {
		return err
	}
	if !reset {
		return apperror.BadRequest("invalid or expired reset token")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "password reset"})
}
