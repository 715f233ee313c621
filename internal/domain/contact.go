package domain

import "time"

// ContactMessage is a relayed message from an anonymous visitor to a posting
// owner. Never mutated after creation; deleted in cascade with its posting.
type ContactMessage struct {
	Id          int64
	PostingId   PostingId
	SenderName  string
	SenderEmail Email
	Message     string
	CreatedAt   time.Time
}
