package token

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// segmentParser is only used to decode base64url segments; it never verifies anything.
var segmentParser = jwtlib.NewParser(jwtlib.WithPaddingAllowed())

// standardToURLAlphabet lets tokens encoded with the standard base64 alphabet decode as well.
var standardToURLAlphabet = strings.NewReplacer("+", "-", "/", "_")

// ExpiresAt reads the exp claim from the payload segment of raw without validating the signature.
// The result is advisory: it drives proactive renewal and must never be used to grant access.
// It reports false when the token has fewer than two segments, the payload cannot be decoded,
// or exp is missing or not numeric.
func ExpiresAt(raw string) (time.Time, bool) {
	segments := strings.Split(raw, ".")
	if len(segments) < 2 {
		return time.Time{}, false
	}

	payload, err := segmentParser.DecodeSegment(standardToURLAlphabet.Replace(segments[1]))
	if err != nil {
		return time.Time{}, false
	}

	var claims jwtlib.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, false
	}

	// NumericDate would truncate to whole seconds.
	exp, ok := claims["exp"].(float64)
	if !ok || math.IsNaN(exp) || math.IsInf(exp, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(exp * 1000)), true
}
