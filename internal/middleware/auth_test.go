package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waap-dev/waap/internal/domain"
	"github.com/waap-dev/waap/internal/utils/jwt"
)

// --- Mocks ---

type mockJwtService struct {
	claims map[string]*jwt.SessionClaims
}

func (m *mockJwtService) NewToken(user domain.User) (string, error)             { return "", nil }
func (m *mockJwtService) NewRegistrationToken(email domain.Email) (string, error) { return "", nil }

func (m *mockJwtService) DecodeToken(jwtStr string) (*jwt.SessionClaims, error) {
	if claims, ok := m.claims[jwtStr]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func newTestAuth() *Auth {
	return NewAuth(&mockJwtService{claims: map[string]*jwt.SessionClaims{
		"user-token":         {UserId: 1, Email: "user@gc.ca", Registered: true},
		"admin-token":        {UserId: 2, Email: "admin@gc.ca", Admin: true, Registered: true},
		"registration-token": {Email: "new@gc.ca", Registered: false},
	}}, false)
}

func echoClaims(t *testing.T, captured **jwt.SessionClaims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = GetClaimsFromContext(r)
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, token string, useCookie bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		if useCookie {
			req.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestNeedAuth(t *testing.T) {
	auth := newTestAuth()

	t.Run("valid cookie session", func(t *testing.T) {
		var claims *jwt.SessionClaims
		handler := auth.NeedAuth()(echoClaims(t, &claims))
		rec := doRequest(handler, "user-token", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, claims)
		assert.Equal(t, "user@gc.ca", claims.Email)
	})

	t.Run("valid bearer session", func(t *testing.T) {
		var claims *jwt.SessionClaims
		handler := auth.NeedAuth()(echoClaims(t, &claims))
		rec := doRequest(handler, "user-token", false)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, claims)
	})

	t.Run("no token", func(t *testing.T) {
		var claims *jwt.SessionClaims
		handler := auth.NeedAuth()(echoClaims(t, &claims))
		rec := doRequest(handler, "", true)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, claims)
	})

	t.Run("registration session is rejected", func(t *testing.T) {
		var claims *jwt.SessionClaims
		handler := auth.NeedAuth()(echoClaims(t, &claims))
		rec := doRequest(handler, "registration-token", true)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Nil(t, claims)
	})
}

func TestAdminOnly(t *testing.T) {
	auth := newTestAuth()

	t.Run("admin session", func(t *testing.T) {
		var claims *jwt.SessionClaims
		handler := auth.AdminOnly()(echoClaims(t, &claims))
		rec := doRequest(handler, "admin-token", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, claims)
		assert.True(t, claims.Admin)
	})

	t.Run("regular session is rejected", func(t *testing.T) {
		handler := auth.AdminOnly()(http.NotFoundHandler())
		rec := doRequest(handler, "user-token", true)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRegistrationOnly(t *testing.T) {
	auth := newTestAuth()

	var claims *jwt.SessionClaims
	handler := auth.RegistrationOnly()(echoClaims(t, &claims))
	rec := doRequest(handler, "registration-token", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.False(t, claims.Registered)
	assert.Equal(t, "new@gc.ca", claims.Email)
}

func TestOptionalAuth(t *testing.T) {
	auth := newTestAuth()

	t.Run("with session", func(t *testing.T) {
		var claims *jwt.SessionClaims
		handler := auth.OptionalAuth()(echoClaims(t, &claims))
		rec := doRequest(handler, "user-token", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, claims)
	})

	t.Run("without session", func(t *testing.T) {
		var claims *jwt.SessionClaims
		handler := auth.OptionalAuth()(echoClaims(t, &claims))
		rec := doRequest(handler, "", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, claims)
	})

	t.Run("garbage token is ignored", func(t *testing.T) {
		var claims *jwt.SessionClaims
		handler := auth.OptionalAuth()(echoClaims(t, &claims))
		rec := doRequest(handler, "garbage", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, claims)
	})
}
