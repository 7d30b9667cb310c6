package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eaglebank/client/internal/credential"
)

// Claims are the fields the API puts in its tokens. The client cannot verify
// the signature, so these are for display and default routing only.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

var ErrOpaqueToken = errors.New("credential is not a decodable JWT")

// ParseClaims decodes tok without verifying it.
func ParseClaims(tok credential.Token) (Claims, error) {
	if tok.IsZero() {
		return Claims{}, ErrOpaqueToken
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(string(tok), &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}

// Claims decodes the current credential, if any.
func (c *Context) Claims() (Claims, bool) {
	tok, ok := c.Credential()
	if !ok {
		return Claims{}, false
	}
	claims, err := ParseClaims(tok)
	if err != nil {
		return Claims{}, false
	}
	return claims, true
}

// Expired reports whether the token carries an exp claim in the past. The
// guard ignores it; the server is the authority on expiry.
func (cl Claims) Expired(now time.Time) bool {
	return cl.ExpiresAt != nil && now.After(cl.ExpiresAt.Time)
}
