// Package validate runs the struct-tag validation declared on request DTOs
// and reports failures as apperr.ValidationError.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/homecare/homecare/internal/platform/apperr"
)

var (
	// SubjectPattern is shared by appointment subjects and person names.
	SubjectPattern = regexp.MustCompile(`^[0-9A-Za-zÆØÅæøå. -]{2,20}$`)
	// PhonePattern accepts Norwegian numbers in +47XXXXXXXX form.
	PhonePattern = regexp.MustCompile(`^\+47\d{8}$`)
)

var messages = map[string]string{
	"required": "is required",
	"gt":       "is required",
	"email":    "must be a valid email address",
	"oneof":    "must be one of: %s",
	"subject":  "must be numbers or letters and between 2 to 20 characters",
	"nophone":  "must start with +47 and have 8 digits",
	"password": "must be at least 6 characters and contain a digit, a lower case and an upper case letter",
	"max":      "must be at most %s characters",
	"min":      "must be at least %s characters",
}

// Validator implements echo.Validator.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return SubjectPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("nophone", func(fl validator.FieldLevel) bool {
		return PhonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	return &Validator{v: v}
}

// Validate checks i and converts field failures to *apperr.ValidationError.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &apperr.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, apperr.FieldError{
			Field:   fe.Field(),
			Message: describe(fe),
		})
	}
	return out
}

func describe(fe validator.FieldError) string {
	msg, ok := messages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fe.Param())
	}
	return msg
}

// StrongPassword applies the account password policy.
func StrongPassword(p string) bool {
	if len(p) < 6 {
		return false
	}
	var digit, lower, upper bool
	for _, r := range p {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	return digit && lower && upper
}
