package supabase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// KeyClaims reads the role and expiry out of the shared bearer key without
// verifying the signature. The key is configuration, not an assertion to
// validate; we only want its metadata for logging.
func KeyClaims(key string) (string, time.Time, error) {
	token, _, err := new(jwt.Parser).ParseUnverified(key, jwt.MapClaims{})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid key format: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, fmt.Errorf("invalid key claims")
	}

	role, _ := claims["role"].(string)

	var exp time.Time
	if sec, ok := claims["exp"].(float64); ok {
		exp = time.Unix(int64(sec), 0)
	}

	return role, exp, nil
}
