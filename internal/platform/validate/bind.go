package validate

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homecare/homecare/internal/platform/apperr"
)

var fallback = New()

// Bind decodes the request body into dst and runs struct-tag validation
// with the echo instance's validator, or the package default when none is
// registered.
func Bind(c echo.Context, dst interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusUnsupportedMediaType {
			return err
		}
		return apperr.Invalid("body", "malformed request body")
	}
	if v := c.Echo().Validator; v != nil {
		return v.Validate(dst)
	}
	return fallback.Validate(dst)
}

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return fallback.v.Var(s, "required,email") == nil
}
