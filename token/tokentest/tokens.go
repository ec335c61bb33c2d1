// Package tokentest builds bearer tokens for tests.
package tokentest

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var signingKey = []byte("star-console-test-key")

// WithExpiry returns a signed HS256 token whose exp claim is at (seconds precision).
func WithExpiry(at time.Time, subject string) string {
	return Sign(jwtlib.MapClaims{
		"sub":  subject,
		"role": "USER",
		"exp":  at.Unix(),
	})
}

// Sign returns claims as a signed HS256 token. It panics on failure, which only happens for
// claims that cannot be marshalled.
func Sign(claims jwtlib.MapClaims) string {
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return signed
}
