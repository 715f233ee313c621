package service

import (
	"strings"
	"time"

	"github.com/waap-dev/waap/internal/domain"
	"github.com/waap-dev/waap/internal/logger"
	"github.com/waap-dev/waap/internal/utils"
)

// TokenStorage is the persistence contract for one-time tokens.
//
// ConsumeToken must be atomic with respect to concurrent redemptions:
// flipping used=false -> true and the validity checks happen in a single
// conditional update, so a race between two redemptions of the same value
// yields at most one success. Failed attempts are classified with the
// sentinel errors from internal/errors, in the order NotFound,
// PurposeMismatch, Expired, AlreadyUsed.
type TokenStorage interface {
	SaveToken(token domain.OneTimeToken) error
	ConsumeToken(valueHash string, purpose domain.TokenPurpose) (domain.OneTimeToken, error)
	DeleteExpiredTokens(olderThan time.Time) (int64, error)
}

// Tokens issues and redeems single-use bearer tokens. The raw value is the
// only proof of the right to perform the bound purpose, so it is returned
// exactly once from Issue and only its hash is persisted.
type Tokens struct {
	storage TokenStorage
}

func NewTokens(storage TokenStorage) *Tokens {
	return &Tokens{storage: storage}
}

// Issue creates a token bound to (email, purpose) with the given window and
// returns the raw value. Delivery is the caller's responsibility; issuance
// has no side effect beyond persistence.
func (t *Tokens) Issue(email domain.Email, purpose domain.TokenPurpose, ttl time.Duration, postingId *domain.PostingId) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	value, err := utils.GenerateTokenValue()
	if err != nil {
		logger.Log.Error("failed to generate token value", "error", err)
		return "", err
	}

	now := time.Now().UTC()
	token := domain.OneTimeToken{
		ValueHash: utils.HashTokenValue(value),
		Email:     email,
		Purpose:   purpose,
		PostingId: postingId,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := t.storage.SaveToken(token); err != nil {
		return "", err
	}

	return value, nil
}

// ValidateAndConsume redeems a raw token value for the expected purpose.
// The first successful call consumes the token; any later call fails with
// ErrTokenAlreadyUsed.
func (t *Tokens) ValidateAndConsume(value string, purpose domain.TokenPurpose) (domain.OneTimeToken, error) {
	return t.storage.ConsumeToken(utils.HashTokenValue(value), purpose)
}

// CollectExpired removes stale unconsumed tokens. Housekeeping only: expired
// tokens can never validate, so collection is not required for correctness.
func (t *Tokens) CollectExpired() (int64, error) {
	return t.storage.DeleteExpiredTokens(time.Now().UTC())
}
