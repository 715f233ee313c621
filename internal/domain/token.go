package domain

import "time"

type TokenPurpose string

const (
	TokenPurposeLogin  TokenPurpose = "login"
	TokenPurposeDelete TokenPurpose = "delete"
)

// OneTimeToken is a single-use bearer credential. The raw value is never
// stored: only its SHA-256 hash reaches the database, so a leaked dump
// cannot be replayed.
type OneTimeToken struct {
	ValueHash string
	Email     Email
	Purpose   TokenPurpose
	// PostingId binds delete-purpose tokens to the posting they may remove.
	// Nil for login tokens.
	PostingId *PostingId
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}
