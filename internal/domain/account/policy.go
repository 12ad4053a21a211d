package account

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/internal/platform/validate"
)

const minPasswordLen = 6

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9\-._@+]+$`)

// checkRegistration collects every policy failure for dto. An unknown role
// is reported on its own.
func checkRegistration(dto RegisterDTO) *RegistrationError {
	if dto.Role != auth.RolePatient && dto.Role != auth.RoleEmployee {
		return &RegistrationError{Errors: []IdentityError{{
			Code:        "InvalidRole",
			Description: "Role must be either 'Patient' or 'Employee'",
		}}}
	}

	var errs []IdentityError
	if !usernamePattern.MatchString(dto.Username) {
		errs = append(errs, IdentityError{
			Code:        "InvalidUserName",
			Description: fmt.Sprintf("Username '%s' is invalid, can only contain letters or digits.", dto.Username),
		})
	}
	if !validate.IsEmail(dto.Email) {
		errs = append(errs, IdentityError{
			Code:        "InvalidEmail",
			Description: fmt.Sprintf("Email '%s' is invalid.", dto.Email),
		})
	}
	errs = append(errs, passwordErrors(dto.Password)...)
	if len(errs) == 0 {
		return nil
	}
	return &RegistrationError{Errors: errs}
}

func passwordErrors(p string) []IdentityError {
	if validate.StrongPassword(p) {
		return nil
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

	var errs []IdentityError
	if len(p) < minPasswordLen {
		errs = append(errs, IdentityError{"PasswordTooShort", fmt.Sprintf("Passwords must be at least %d characters.", minPasswordLen)})
	}
	if !digit {
		errs = append(errs, IdentityError{"PasswordRequiresDigit", "Passwords must have at least one digit ('0'-'9')."})
	}
	if !lower {
		errs = append(errs, IdentityError{"PasswordRequiresLower", "Passwords must have at least one lowercase ('a'-'z')."})
	}
	if !upper {
		errs = append(errs, IdentityError{"PasswordRequiresUpper", "Passwords must have at least one uppercase ('A'-'Z')."})
	}
	return errs
}
