// Package account registers users, assigns their role and issues bearer
// tokens on login.
package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

type RegisterDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// IdentityError is one registration failure in the code/description shape
// the web client renders.
type IdentityError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// RegistrationError carries every reason a registration was refused.
type RegistrationError struct {
	Errors []IdentityError
}

func (e *RegistrationError) Error() string {
	codes := make([]string, 0, len(e.Errors))
	for _, ie := range e.Errors {
		codes = append(codes, ie.Code)
	}
	return "registration rejected: " + strings.Join(codes, ", ")
}

func (e *RegistrationError) has(code string) bool {
	for _, ie := range e.Errors {
		if ie.Code == code {
			return true
		}
	}
	return false
}
