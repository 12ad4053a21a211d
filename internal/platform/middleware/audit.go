package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/homecare/homecare/internal/platform/auth"
)

// auditedResources are the route prefixes that expose patient data.
var auditedResources = map[string]bool{"patient": true, "appointment": true, "medication": true}

// Audit emits one structured "data_access" entry per request that touches
// patient data, after the handler has run.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			resource := auditedResource(c.Request().URL.Path)
			if resource == "" {
				return next(c)
			}

			err := next(c)

			// Group middleware such as auth.Optional replaces the request.
			req := c.Request()
			p := auth.PrincipalFromContext(req.Context())
			rid, _ := c.Get("request_id").(string)

			logger.Info().
				Str("type", "audit").
				Str("request_id", rid).
				Str("user_id", p.UserID).
				Strs("user_roles", p.Roles()).
				Str("resource", resource).
				Str("action", methodToAction(req.Method)).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Int("status", responseStatus(c, err)).
				Msg("data_access")

			return err
		}
	}
}

func auditedResource(path string) string {
	lower := strings.ToLower(path)
	if !strings.HasPrefix(lower, "/api/") {
		return ""
	}
	seg := strings.SplitN(strings.TrimPrefix(lower, "/api/"), "/", 2)[0]
	if auditedResources[seg] {
		return seg
	}
	return ""
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
