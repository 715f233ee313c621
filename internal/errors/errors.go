package errors

import (
	"errors"
	"fmt"

	"github.com/waap-dev/waap/internal/domain"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// Token redemption failures. Ordered by diagnostic precedence: a missing
// token is NotFound, a wrong purpose is PurposeMismatch regardless of its
// expiry or consumption state, then Expired, then AlreadyUsed.
var (
	ErrTokenNotFound        = errors.New("token not found")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenAlreadyUsed     = errors.New("token already used")
	ErrTokenPurposeMismatch = errors.New("token purpose mismatch")
)

var ErrUnauthorizedDomain = errors.New("email domain is not on the approved list")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

type InvalidTransition struct {
	From domain.ModerationStatus
	To   domain.ModerationStatus
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("invalid moderation transition: %s -> %s", e.From, e.To)
}

type NotFoundError struct {
	Entity string
	Id     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.Id)
}

// Check if err is instance of T for custom error types
func Is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// IsNotFound reports whether err represents a missing record, either as a
// typed NotFoundError or as a 404 ErrorWithStatusCode from the storage layer.
func IsNotFound(err error) bool {
	if Is[*NotFoundError](err) {
		return true
	}
	var sc *ErrorWithStatusCode
	return errors.As(err, &sc) && sc.StatusCode == 404
}
