package middleware

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/travism26/system-monitoring-gateway/internal/apperror"
	"github.com/travism26/system-monitoring-gateway/pkg/logger"
)

// ErrorHandler renders every error through the tagged-error envelope. Tagged
// errors keep their message; anything unexpected is logged with request
// correlation and rendered as a generic internal error.
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		log := logger.FromEcho(c)
		requestID := c.Response().Header().Get(HeaderRequestID)

		// Router-level errors (unknown route, wrong method) arrive as
		// echo.HTTPError; fold them into the taxonomy.
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			err = apperror.New(kindForStatus(httpErr.Code), fmt.Sprintf("%v", httpErr.Message))
		}

		status, resp := apperror.Serialize(err, requestID)

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		}
		if identity := IdentityFrom(c); identity != nil && identity.TenantID != nil {
			fields = append(fields, zap.String("tenant_id", identity.TenantIDString()))
		}

		if status >= 500 {
			log.Error("request failed", fields...)
		} else {
			log.Warn("request rejected", fields...)
		}

		if jsonErr := c.JSON(status, resp); jsonErr != nil {
			log.Error("failed to write error response", zap.Error(jsonErr))
		}
	}
}

func kindForStatus(status int) apperror.Kind {
	switch status {
	case 400:
		return apperror.KindBadRequest
	case 401:
		return apperror.KindUnauthorized
	case 403:
		return apperror.KindForbidden
	case 404, 405:
		return apperror.KindNotFound
	case 503:
		return apperror.KindServiceUnavailable
	default:
		return apperror.KindInternal
	}
}
