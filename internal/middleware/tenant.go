package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/travism26/system-monitoring-gateway/internal/apperror"
	"github.com/travism26/system-monitoring-gateway/pkg/logger"
)

// TenantAssertion gathers the independent tenant claims present on one
// request: the tenant from the authenticated identity and the explicit
// header pair.
type TenantAssertion struct {
	IdentityTenantID string
	HeaderTenantID   string
	HeaderEnv        string
}

// CheckTenantConsistency reconciles identity and header tenant claims.
// Tenant-less requests and tenant-less identities proceed: the gateway must
// degrade gracefully during a no-tenant bootstrap phase. Only a concrete
// disagreement between the two claims is rejected.
func CheckTenantConsistency(assertion TenantAssertion) *apperror.Error {
	if assertion.HeaderTenantID == "" {
		return nil
	}
	if assertion.IdentityTenantID == "" {
		return nil
	}
	if assertion.HeaderTenantID != assertion.IdentityTenantID {
		return apperror.Forbidden("tenant mismatch between credential and headers").WithField("tenant_id")
	}
	return nil
}

// CheckPayloadTenant compares body-embedded tenant context against the
// header pair for write requests. The returned error names the field that
// disagreed.
func CheckPayloadTenant(headerTenantID, headerEnv, payloadTenantID, payloadEnv string) *apperror.Error {
	if headerTenantID != "" && payloadTenantID != "" && headerTenantID != payloadTenantID {
		return apperror.BadRequest("tenant ID mismatch between headers and payload").WithField("tenant_id")
	}
	if headerEnv != "" && payloadEnv != "" && headerEnv != payloadEnv {
		return apperror.BadRequest("tenant environment mismatch between headers and payload").WithField("environment")
	}
	return nil
}

// TenantConsistency runs after authentication on tenant-scoped routes and
// rejects requests whose header tenant disagrees with the credential tenant.
func TenantConsistency() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if identity == nil {
				return apperror.Unauthorized("")
			}

			assertion := TenantAssertion{
				IdentityTenantID: identity.TenantIDString(),
				HeaderTenantID:   c.Request().Header.Get(HeaderTenantID),
				HeaderEnv:        c.Request().Header.Get(HeaderTenantEnvironment),
			}
			if err := CheckTenantConsistency(assertion); err != nil {
				logger.FromEcho(c).Warn("tenant consistency check failed",
					zap.String("identity_tenant", assertion.IdentityTenantID),
					zap.String("header_tenant", assertion.HeaderTenantID))
				return err
			}

			// Echo the effective tenant for traceability.
			if assertion.HeaderTenantID != "" {
				c.Response().Header().Set(HeaderTenantID, assertion.HeaderTenantID)
			}

			return next(c)
		}
	}
}
