package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/travism26/system-monitoring-gateway/internal/apperror"
	"github.com/travism26/system-monitoring-gateway/internal/service"
	"github.com/travism26/system-monitoring-gateway/pkg/jwtutil"
	"github.com/travism26/system-monitoring-gateway/pkg/logger"
	"github.com/travism26/system-monitoring-gateway/prometheus"
)

// JWTAuth validates bearer tokens for human callers and attaches the
// resulting identity. The outcome is definitive: either the identity is set
// or the request ends here with 401.
func JWTAuth(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("missing authorization header")
				return apperror.Unauthorized("missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("invalid authorization header format")
				return apperror.Unauthorized("invalid authorization header format")
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("invalid or expired token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return apperror.Unauthorized("invalid or expired token")
			}

			SetIdentity(c, &Identity{
				UserID:   claims.UserID,
				Email:    claims.Email,
				TenantID: claims.TenantID,
				Role:     claims.Role,
			})
			log.Debug("JWT token validated",
				zap.Uint("user_id", claims.UserID),
				zap.String("email", claims.Email))

			return next(c)
		}
	}
}

// APIKeyAuth validates the X-API-Key header for agent callers and attaches
// an identity with the "api" role.
func APIKeyAuth(keys *service.APIKeyService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			apiKey := c.Request().Header.Get(HeaderAPIKey)
			if apiKey == "" {
				log.Warn("missing api key header")
				return apperror.Unauthorized("API key is required")
			}

			key, err := keys.Validate(apiKey)
			if err != nil {
				log.Error("api key lookup failed", zap.Error(err))
				return apperror.Internal(err)
			}
			if key == nil {
				log.Warn("invalid api key")
				prometheus.RecordAuthError("invalid_api_key")
				return apperror.Unauthorized("invalid API key")
			}

			prometheus.RecordAPIKeyOperation("validate")

			SetIdentity(c, &Identity{
				UserID:   key.UserID,
				TenantID: key.TenantID,
				Role:     RoleAPI,
				APIKey:   key.Key,
			})
			log.Debug("api key validated", zap.Uint("user_id", key.UserID))

			return next(c)
		}
	}
}

// RequireRole gates a route on the caller's role. Authorization failures are
// Forbidden, not Unauthorized: the credential was valid, the rights are not.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if identity == nil {
				return apperror.Unauthorized("")
			}
			for _, role := range roles {
				if identity.Role == role {
					return next(c)
				}
			}
			return apperror.Forbidden("insufficient role")
		}
	}
}
