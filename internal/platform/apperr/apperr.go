// Package apperr defines the error taxonomy shared by every domain package
// and its mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when client input is rejected before any
// repository call.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a ValidationError for one field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Mismatch is the error for a path id that disagrees with the body id.
func Mismatch(resource string) *ValidationError {
	return Invalid("id", fmt.Sprintf("%s ID mismatch", resource))
}

// NotFoundf wraps ErrNotFound with a caller-facing message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Postgres error codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// constraintFields maps database constraint names onto the wire field they
// guard. Unknown constraints are reported against "request".
var constraintFields = map[string]string{
	"appointment_patient_id_fkey":  "patientId",
	"appointment_employee_id_fkey": "employeeId",
	"medication_patient_id_fkey":   "patientId",
	"medication_dates_ordered":     "endDate",
	"patient_phone_number_key":     "phonenumber",
	"auth_user_username_key":       "username",
	"idx_auth_user_username_lower": "username",
}

func constraintField(name string) string {
	if f, ok := constraintFields[name]; ok {
		return f
	}
	return "request"
}

// FromPG translates driver errors into the taxonomy. Errors it does not
// recognise are returned unchanged and surface as internal failures.
func FromPG(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s already in use", ErrConflict, constraintField(pgErr.ConstraintName))
		case pgForeignKeyViolation:
			return Invalid(constraintField(pgErr.ConstraintName), "referenced record does not exist")
		case pgCheckViolation:
			return Invalid(constraintField(pgErr.ConstraintName), "value is not allowed")
		}
	}
	return err
}

// HTTPErrorHandler returns an echo.HTTPErrorHandler that renders the taxonomy.
// Internal failures are logged and reported without detail.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := Render(err)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("internal error")
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}

// Render maps an error onto a status code and a JSON body.
func Render(err error) (int, interface{}) {
	var ve *ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve
	case errors.As(err, &he):
		msg := he.Message
		if he.Code >= http.StatusInternalServerError {
			msg = http.StatusText(he.Code)
		}
		return he.Code, map[string]interface{}{"message": msg}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, message(err)
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, message(err)
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, message(err)
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, message(err)
	default:
		return http.StatusInternalServerError, map[string]string{"message": "internal server error"}
	}
}

func message(err error) map[string]string {
	return map[string]string{"message": err.Error()}
}
