package ratelimit

import (
	"context"
	"time"
)

// Window is the fixed reset window for per-tenant ingestion counting.
const Window = time.Minute

// Limiter answers whether one more request from a tenant is allowed inside
// the current window. The limit is advisory, not safety-critical: a limiter
// error should fail open at the caller.
type Limiter interface {
	Allow(ctx context.Context, tenantID string) (bool, error)
}
