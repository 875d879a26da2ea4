package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const ownerClaimsKey contextKey = "ownerClaims"

// OwnerRole is the role claim required on dashboard tokens.
const OwnerRole = "owner"

// OwnerClaims are the claims carried by a salon owner's token.
type OwnerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// OwnerJWT enforces an HMAC-signed JWT with the owner role.
func OwnerJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeError(w, "owner auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				writeError(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			claims := OwnerClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			}, jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				writeError(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if claims.Role != OwnerRole {
				writeError(w, "owner role required", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), ownerClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerClaimsFromContext returns owner JWT claims if present.
func OwnerClaimsFromContext(ctx context.Context) (OwnerClaims, bool) {
	claims, ok := ctx.Value(ownerClaimsKey).(OwnerClaims)
	return claims, ok
}

// SignOwnerToken issues an HS256 owner token for subject valid for ttl from now.
func SignOwnerToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("middleware: owner jwt secret is empty")
	}
	claims := OwnerClaims{
		Role: OwnerRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}` + "\n"))
}
