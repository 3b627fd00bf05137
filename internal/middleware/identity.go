package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Header names used across the gateway.
const (
	HeaderAPIKey            = "X-API-Key"
	HeaderTenantID          = "X-Tenant-ID"
	HeaderTenantEnvironment = "X-Tenant-Environment"
	HeaderRequestID         = "X-Request-ID"
)

// RoleAPI is the role attached to identities authenticated via API key.
const RoleAPI = "api"

const identityContextKey = "identity"

// Identity is the request-scoped result of authentication. It is attached
// once by the auth middleware and read-only downstream.
type Identity struct {
	UserID   uint
	Email    string
	TenantID *uint
	Role     string
	APIKey   string
}

// TenantIDString renders the tenant reference for header comparison and
// broker payloads; empty when the identity is tenant-less.
func (i *Identity) TenantIDString() string {
	if i.TenantID == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*i.TenantID), 10)
}

// SetIdentity attaches the authenticated identity to the request context and
// echoes the tenant in the response headers for traceability.
func SetIdentity(c echo.Context, identity *Identity) {
	c.Set(identityContextKey, identity)
	if identity.TenantID != nil {
		c.Response().Header().Set(HeaderTenantID, identity.TenantIDString())
	}
}

// IdentityFrom retrieves the authenticated identity, or nil when the
// request was not authenticated.
func IdentityFrom(c echo.Context) *Identity {
	identity, _ := c.Get(identityContextKey).(*Identity)
	return identity
}
