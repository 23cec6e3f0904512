package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// claims is the bearer token's payload for the private API. Unlike a
// per-user login token, this deployment has one shared secret and no user
// identity to carry — the claim exists only to prove the caller holds the
// secret (SPEC_FULL.md §11).
type claims struct {
	jwt.RegisteredClaims
}

func issueToken(secret []byte, ttl time.Duration) (string, error) {
	c := &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(secret)
}

func validateToken(secret []byte, bearer string) error {
	tokenString := strings.TrimPrefix(bearer, "Bearer ")
	if tokenString == "" {
		return fmt.Errorf("missing bearer token")
	}
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(_ *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return fmt.Errorf("cannot parse token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

func requireAuth(secret []byte, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := validateToken(secret, r.Header.Get("Authorization")); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
