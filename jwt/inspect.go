package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by Inspect for tokens that are not compact JWTs.
var ErrNotJWT = errors.New("token is not a JWT")

// Inspection is the unverified view of a token.
type Inspection struct {
	Algorithm string
	Subject   string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry before now. A token without
// exp is never reported as expired.
func (i Inspection) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect decodes the claims of tokenStr WITHOUT verifying its signature.
func Inspect(tokenStr string) (*Inspection, error) {
	claims := jwt.MapClaims{}
	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}

	out := &Inspection{Algorithm: token.Method.Alg()}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if name, ok := claims["username"].(string); ok {
		out.Username = name
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
