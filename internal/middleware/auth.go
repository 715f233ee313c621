package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/waap-dev/waap/internal/utils"
	"github.com/waap-dev/waap/internal/utils/jwt"
)

// Key to store the session claims in the request context
type key int

const SessionClaimsKey key = 0

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService    jwt.JwtService
	secureCookies bool
}

func NewAuth(jwtService jwt.JwtService, secureCookies bool) *Auth {
	return &Auth{
		jwtService:    jwtService,
		secureCookies: secureCookies,
	}
}

// NeedAuth returns middleware that requires a full session. Provisional
// registration sessions are rejected: they may only finish registration.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(false, true)
}

// AdminOnly returns middleware that requires an administrator session
func (a *Auth) AdminOnly() func(http.Handler) http.Handler {
	return a.auth(true, true)
}

// RegistrationOnly returns middleware that accepts both full and provisional
// sessions. Used by the registration completion endpoint.
func (a *Auth) RegistrationOnly() func(http.Handler) http.Handler {
	return a.auth(false, false)
}

// OptionalAuth returns middleware that populates session context if a valid
// token is present, but doesn't require auth
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := a.extractClaims(r)
			if claims != nil && claims.Registered {
				ctx := context.WithValue(r.Context(), SessionClaimsKey, claims)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractClaims extracts and validates the session from the request.
// Returns (claims, nil) on success, (nil, error) on failure
func (a *Auth) extractClaims(r *http.Request) (*jwt.SessionClaims, error) {
	// Try to get token from cookie first (for browser clients)
	var tokenString string
	accessCookie, err := r.Cookie("accessToken")
	if err == nil {
		tokenString = accessCookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		// If no cookie, try Authorization header (for API clients)
		tokenString = token
	}

	if tokenString == "" {
		return nil, errNoToken
	}

	return a.jwtService.DecodeToken(tokenString)
}

// Sentinel error for extractClaims
var errNoToken = errorString("no token")

type errorString string

func (e errorString) Error() string { return string(e) }

// auth is the internal method that implements the authentication logic
func (a *Auth) auth(adminOnly, registeredOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.extractClaims(r)
			if err != nil {
				if err == errNoToken {
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
					return
				}
				// Token decode error
				utils.WriteErrorAndStatusCode(w, err)
				return
			}

			if registeredOnly && !claims.Registered {
				http.Error(w, "Please complete registration first", http.StatusForbidden)
				return
			}

			if adminOnly && !claims.Admin {
				http.Error(w, "Access denied. Only for admin", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), SessionClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaimsFromContext retrieves the session claims from the context
func GetClaimsFromContext(r *http.Request) *jwt.SessionClaims {
	claims, ok := r.Context().Value(SessionClaimsKey).(*jwt.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
