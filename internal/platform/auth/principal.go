package auth

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const principalKey contextKey = "principal"

// Role names carried in the role claim.
const (
	RolePatient  = "Patient"
	RoleEmployee = "Employee"
)

// Claim keys. Role claims are accepted under every spelling issued by the
// token producers this API has been used with.
const (
	ClaimUserID    = "nameid"
	ClaimRole      = "role"
	claimRoles     = "roles"
	claimRoleURI   = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
	claimNameIDURI = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	claimUID       = "uid"
	claimEmail     = "email"
	claimSubject   = "sub"
)

var roleClaimKeys = []string{ClaimRole, claimRoles, claimRoleURI}

var userIDClaimKeys = []string{ClaimUserID, claimNameIDURI, claimUID, claimSubject}

// Principal is the caller identity resolved once per request. Role names are
// stored lower-cased.
type Principal struct {
	UserID   string
	Username string
	Email    string
	roles    map[string]struct{}
}

// NewPrincipal builds a principal from an explicit role list.
func NewPrincipal(userID string, roles ...string) *Principal {
	p := &Principal{UserID: userID, roles: make(map[string]struct{}, len(roles))}
	for _, r := range roles {
		p.addRole(r)
	}
	return p
}

// PrincipalFromClaims normalises a parsed token into a Principal.
func PrincipalFromClaims(claims jwt.MapClaims) *Principal {
	p := &Principal{roles: make(map[string]struct{})}
	for _, k := range userIDClaimKeys {
		if v, ok := claims[k].(string); ok && v != "" {
			p.UserID = v
			break
		}
	}
	p.Username, _ = claims[claimSubject].(string)
	p.Email, _ = claims[claimEmail].(string)
	for _, k := range roleClaimKeys {
		switch v := claims[k].(type) {
		case string:
			p.addRole(v)
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					p.addRole(s)
				}
			}
		case []string:
			for _, s := range v {
				p.addRole(s)
			}
		}
	}
	return p
}

func (p *Principal) addRole(r string) {
	r = strings.ToLower(strings.TrimSpace(r))
	if r != "" {
		p.roles[r] = struct{}{}
	}
}

// Authenticated reports whether the request carried a valid token.
func (p *Principal) Authenticated() bool {
	return p != nil && p.UserID != ""
}

// HasRole compares case-insensitively.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	_, ok := p.roles[strings.ToLower(role)]
	return ok
}

// IsEmployee reports whether the caller holds the Employee role, which
// grants unrestricted access to patient-facing resources.
func (p *Principal) IsEmployee() bool {
	return p.HasRole(RoleEmployee)
}

// Owns reports whether the caller may act on a record whose owning account
// is ownerUserID. Employees own everything.
func (p *Principal) Owns(ownerUserID string) bool {
	if !p.Authenticated() {
		return false
	}
	if p.IsEmployee() {
		return true
	}
	return ownerUserID != "" && ownerUserID == p.UserID
}

// Roles returns the normalised role names.
func (p *Principal) Roles() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.roles))
	for r := range p.roles {
		out = append(out, r)
	}
	return out
}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the caller, or an anonymous principal when
// the request was not authenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey).(*Principal); ok && p != nil {
		return p
	}
	return &Principal{roles: map[string]struct{}{}}
}
