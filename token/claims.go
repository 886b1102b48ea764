package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of an access token.
type Claims struct {
	Subject   string           `json:"sub"`
	UserID    string           `json:"uid,omitempty"`
	TenantID  string           `json:"tid,omitempty"`
	Role      string           `json:"role,omitempty"`
	Scopes    []string         `json:"scp,omitempty"`
	ExpiresAt *jwt.NumericDate `json:"exp,omitempty"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`
	Issuer    string           `json:"iss,omitempty"`
}

// GetExpirationTime implements jwt.Claims.
func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }

// GetIssuedAt implements jwt.Claims.
func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error) { return c.IssuedAt, nil }

// GetNotBefore implements jwt.Claims.
func (c *Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

// GetIssuer implements jwt.Claims.
func (c *Claims) GetIssuer() (string, error) { return c.Issuer, nil }

// GetSubject implements jwt.Claims.
func (c *Claims) GetSubject() (string, error) { return c.Subject, nil }

// GetAudience implements jwt.Claims.
func (c *Claims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

// hasExpiry mirrors the falsy check of the issuing side: a zero exp counts as absent.
func (c *Claims) hasExpiry() bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Unix() != 0
}

var _ jwt.Claims = (*Claims)(nil)

// User is the identity projected from a token. Email, DisplayName and
// AvatarURL are never carried by the token and stay empty until a caller
// fetches profile data separately.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName,omitempty"`
	AvatarURL   string   `json:"avatarUrl,omitempty"`
	TenantID    string   `json:"tenantId,omitempty"`
	Role        string   `json:"role,omitempty"`
	Scopes      []string `json:"scopes,omitempty"`
}
