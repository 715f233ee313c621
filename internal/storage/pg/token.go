package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/waap-dev/waap/internal/domain"
	internal_errors "github.com/waap-dev/waap/internal/errors"
)

// SaveToken persists a freshly issued one-time token.
func (s *Storage) SaveToken(token domain.OneTimeToken) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
        INSERT INTO one_time_tokens(token_hash, email, purpose, posting_id, used, created_at, expires_at)
        VALUES($1, $2, $3, $4, FALSE, $5, $6)`,
			token.ValueHash, token.Email, token.Purpose, token.PostingId, token.CreatedAt, token.ExpiresAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert one-time token: %w", err)
		}
		return nil
	})
}

// ConsumeToken atomically redeems a token. The UPDATE carries every validity
// condition, so concurrent redemptions of the same value cannot both
// succeed: the conditional write is the whole check-and-set, never a read
// followed by a write. When no row is claimed, a read-only lookup classifies
// the failure.
func (s *Storage) ConsumeToken(valueHash string, purpose domain.TokenPurpose) (domain.OneTimeToken, error) {
	var token domain.OneTimeToken
	err := s.db.QueryRow(`
        UPDATE one_time_tokens
        SET used = TRUE
        WHERE token_hash = $1
          AND purpose = $2
          AND used = FALSE
          AND expires_at > now()
        RETURNING token_hash, email, purpose, posting_id, used,
                  (created_at at time zone 'utc'), (expires_at at time zone 'utc')`,
		valueHash, purpose,
	).Scan(&token.ValueHash, &token.Email, &token.Purpose, &token.PostingId, &token.Used, &token.CreatedAt, &token.ExpiresAt)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.OneTimeToken{}, fmt.Errorf("failed to consume token: %w", err)
	}

	return domain.OneTimeToken{}, s.classifyConsumeFailure(valueHash, purpose)
}

// classifyConsumeFailure distinguishes why a redemption found no claimable
// row. Read-only; precedence is NotFound, PurposeMismatch, Expired,
// AlreadyUsed, with purpose mismatch reported regardless of expiry or
// consumption state.
func (s *Storage) classifyConsumeFailure(valueHash string, purpose domain.TokenPurpose) error {
	var (
		storedPurpose domain.TokenPurpose
		used          bool
		expiresAt     time.Time
	)
	err := s.db.QueryRow(`
        SELECT purpose, used, (expires_at at time zone 'utc')
        FROM one_time_tokens WHERE token_hash = $1`,
		valueHash,
	).Scan(&storedPurpose, &used, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return internal_errors.ErrTokenNotFound
		}
		return fmt.Errorf("failed to inspect token: %w", err)
	}

	if storedPurpose != purpose {
		return internal_errors.ErrTokenPurposeMismatch
	}
	if !expiresAt.After(time.Now().UTC()) {
		return internal_errors.ErrTokenExpired
	}
	if used {
		return internal_errors.ErrTokenAlreadyUsed
	}
	// The claim raced another redemption that has not committed yet.
	return internal_errors.ErrTokenAlreadyUsed
}

// DeleteExpiredTokens removes stale unconsumed and consumed tokens. Pure
// housekeeping: an expired token can never validate again.
func (s *Storage) DeleteExpiredTokens(olderThan time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var deleted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM one_time_tokens WHERE expires_at < $1", olderThan)
		if err != nil {
			return fmt.Errorf("failed to delete expired tokens: %w", err)
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for token gc: %w", err)
		}
		return nil
	})
	return deleted, err
}
