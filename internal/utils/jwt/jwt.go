package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/waap-dev/waap/internal/domain"
	internal_errors "github.com/waap-dev/waap/internal/errors"
	"github.com/waap-dev/waap/internal/logger"
)

// SessionClaims is the decoded session payload. Registered is false for the
// provisional session issued between token redemption and profile
// completion: such a session may only finish registration.
type SessionClaims struct {
	UserId     domain.UserId
	Email      domain.Email
	Admin      bool
	Registered bool
}

type JwtService interface {
	NewToken(user domain.User) (string, error)
	NewRegistrationToken(email domain.Email) (string, error)
	DecodeToken(jwtStr string) (*SessionClaims, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) *Jwt {
	return &Jwt{secretKey, ttl}
}

func (j *Jwt) NewToken(user domain.User) (string, error) {
	claims := jwt.MapClaims{}
	claims["uid"] = user.Id
	claims["email"] = user.Email
	claims["admin"] = user.Admin
	claims["registered"] = true
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	return j.sign(claims)
}

// NewRegistrationToken issues a provisional session bound to a verified email
// that has no persisted identity yet.
func (j *Jwt) NewRegistrationToken(email domain.Email) (string, error) {
	claims := jwt.MapClaims{}
	claims["uid"] = int64(0)
	claims["email"] = email
	claims["admin"] = false
	claims["registered"] = false
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	return j.sign(claims)
}

func (j *Jwt) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign jwt", "error", err)
		return "", errors.New("can't create token")
	}
	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*SessionClaims, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		// Verify signing algorithm
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &internal_errors.ErrorWithStatusCode{Message: fmt.Sprintf("Unexpected signing method: %v", token.Header["alg"]), StatusCode: http.StatusUnauthorized}
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token signature", StatusCode: http.StatusUnauthorized}
	}
	if !token.Valid {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized}
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
	}

	uid, ok := mapClaims["uid"].(float64)
	if !ok {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
	}
	email, ok := mapClaims["email"].(string)
	if !ok {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
	}
	admin, ok := mapClaims["admin"].(bool)
	if !ok {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
	}
	registered, ok := mapClaims["registered"].(bool)
	if !ok {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
	}

	return &SessionClaims{
		UserId:     int64(uid),
		Email:      email,
		Admin:      admin,
		Registered: registered,
	}, nil
}
