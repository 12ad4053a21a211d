package account

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/internal/platform/db"
)

// ProfileCreator inserts the empty profile row for a new account.
type ProfileCreator interface {
	CreateProfile(ctx context.Context, role, userID string) error
}

type Service struct {
	users         UserRepository
	profiles      ProfileCreator
	txb           db.TxBeginner
	issuer        *auth.TokenIssuer
	logger        zerolog.Logger
	checkPassword func(password, hash string) bool
}

var (
	decoyOnce sync.Once
	decoyHash string
)

// unknownUserHash is compared against when the username does not exist so
// both login failures cost one bcrypt comparison.
func unknownUserHash() string {
	decoyOnce.Do(func() {
		if h, err := auth.HashPassword(uuid.NewString()); err == nil {
			decoyHash = h
		}
	})
	return decoyHash
}

func NewService(users UserRepository, profiles ProfileCreator, txb db.TxBeginner, issuer *auth.TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		users:         users,
		profiles:      profiles,
		txb:           txb,
		issuer:        issuer,
		logger:        logger,
		checkPassword: auth.CheckPassword,
	}
}

// Register creates the account, assigns its role and inserts an empty
// profile in one transaction.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	if rerr := checkRegistration(dto); rerr != nil {
		s.logger.Warn().Str("username", dto.Username).Str("reason", rerr.Error()).Msg("user registration failed")
		return nil, rerr
	}

	hash, err := auth.HashPassword(dto.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: hash,
		Roles:        []string{dto.Role},
	}

	err = db.WithTx(ctx, s.txb, func(ctx context.Context, _ pgx.Tx) error {
		if err := s.users.EnsureRoles(ctx, auth.RolePatient, auth.RoleEmployee); err != nil {
			return fmt.Errorf("ensure roles: %w", err)
		}
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				return &RegistrationError{Errors: []IdentityError{{
					Code:        "DuplicateUserName",
					Description: fmt.Sprintf("Username '%s' is already taken.", dto.Username),
				}}}
			}
			return fmt.Errorf("create user: %w", err)
		}
		if err := s.users.AddRole(ctx, u.ID, dto.Role); err != nil {
			return fmt.Errorf("assign role: %w", err)
		}
		if err := s.profiles.CreateProfile(ctx, dto.Role, u.ID.String()); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("username", dto.Username).Msg("user registration failed")
		return nil, err
	}

	s.logger.Info().Str("username", u.Username).Str("role", dto.Role).Msg("user registered")
	return u, nil
}

// Login verifies the credentials and returns a signed token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (string, error) {
	u, err := s.users.GetByUsername(ctx, dto.Username)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return "", err
	}
	hash := unknownUserHash()
	if u != nil {
		hash = u.PasswordHash
	}
	if !s.checkPassword(dto.Password, hash) || u == nil {
		s.logger.Warn().Str("username", dto.Username).Msg("user not authorised")
		return "", apperr.ErrUnauthorized
	}

	token, err := s.issuer.Issue(auth.Account{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
		Roles:    u.Roles,
	})
	if err != nil {
		return "", err
	}
	s.logger.Info().Str("username", u.Username).Strs("roles", u.Roles).Msg("token issued")
	return token, nil
}
