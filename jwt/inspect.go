package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by Inspect for tokens that are not three-part JWTs.
// Such tokens are opaque to the client and must be validated remotely.
var ErrNotJWT = errors.New("token is not a jwt")

// Claims is the subset of an access token the client reads locally.
type Claims struct {
	Subject   string
	Email     string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Expired reports whether the token's exp is before now minus leeway.
// Tokens without exp never report expired.
func (c Claims) Expired(now time.Time, leeway time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(-leeway).After(c.ExpiresAt)
}

// Inspect decodes token claims WITHOUT verifying the signature. The result is
// a hint (expiry, display email), never proof of identity.
func Inspect(token string) (Claims, error) {
	if strings.Count(token, ".") != 2 {
		return Claims{}, ErrNotJWT
	}

	var claims AccessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, errors.Join(ErrNotJWT, err)
	}

	out := Claims{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Audience: []string(claims.Audience),
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
