package upstream

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionExpiry reads the exp claim from the backend's bearer token without
// verifying the signature — only the backend holds the secret, and the agent
// just needs to know when the operator session lapses so the shift gate can
// send them back to login instead of letting checkouts fail mid-sale.
func SessionExpiry(token string) (time.Time, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("upstream: parse session token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("upstream: session token has no expiry")
	}
	return exp.Time, nil
}
