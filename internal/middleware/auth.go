// Package middleware provides HTTP middleware: authentication, request IDs,
// and rate limiting.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"fundtrack/internal/domain"
)

// Auth parses an HS256 JWT bearer token and stores the authenticated
// identity in the request context. The `sub` claim is the username; the
// `groups` claim is the set of directory group identifiers the session
// asserts. The authorization core takes those groups as given and never
// performs its own membership lookups.
func Auth(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				tokenStr := strings.TrimPrefix(auth, "Bearer ")
				token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
					return jwtSecret, nil
				}, jwt.WithValidMethods([]string{"HS256"}))

				if err == nil && token.Valid {
					if claims, ok := token.Claims.(jwt.MapClaims); ok {
						if sub, ok := claims["sub"].(string); ok && sub != "" {
							id := domain.ContextIdentity{
								Username: sub,
								Groups:   groupsFromClaims(claims),
							}
							next.ServeHTTP(w, r.WithContext(domain.WithIdentity(r.Context(), id)))
							return
						}
					}
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code":    401,
				"message": "unauthorized: provide a valid JWT Bearer token",
			})
		})
	}
}

// groupsFromClaims extracts the `groups` claim as a string slice. Missing or
// malformed claims yield an empty set, never an error: a token without
// groups is a user with no group-based grants.
func groupsFromClaims(claims jwt.MapClaims) []string {
	raw, ok := claims["groups"].([]interface{})
	if !ok {
		return nil
	}
	groups := make([]string, 0, len(raw))
	for _, g := range raw {
		if s, ok := g.(string); ok && s != "" {
			groups = append(groups, s)
		}
	}
	return groups
}
