package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the bearer token lifetime.
const DefaultTokenTTL = 120 * time.Minute

type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	TTL        time.Duration
}

// Account is the subset of an account needed to mint a token.
type Account struct {
	ID       string
	Username string
	Email    string
	Roles    []string
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	cfg JWTConfig
	now func() time.Time
}

func NewTokenIssuer(cfg JWTConfig) *TokenIssuer {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// Issue mints a token for acct. The token carries the account id but never
// a patient or employee profile id.
func (t *TokenIssuer) Issue(acct Account) (string, error) {
	if len(t.cfg.SigningKey) == 0 {
		return "", errors.New("jwt signing key is not configured")
	}
	now := t.now()
	claims := jwt.MapClaims{
		claimSubject: acct.Username,
		claimEmail:   acct.Email,
		ClaimUserID:  acct.ID,
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"exp":        now.Add(t.cfg.TTL).Unix(),
	}
	if t.cfg.Issuer != "" {
		claims["iss"] = t.cfg.Issuer
	}
	if t.cfg.Audience != "" {
		claims["aud"] = t.cfg.Audience
	}
	switch len(acct.Roles) {
	case 0:
	case 1:
		claims[ClaimRole] = acct.Roles[0]
	default:
		claims[ClaimRole] = acct.Roles
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenStr and returns the normalised principal.
func (t *TokenIssuer) Verify(tokenStr string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.cfg.Issuer))
	}
	if t.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(t.cfg.Audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.cfg.SigningKey, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	p := PrincipalFromClaims(claims)
	if !p.Authenticated() {
		return nil, errors.New("invalid token: no user id claim")
	}
	return p, nil
}
