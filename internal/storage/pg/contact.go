package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/waap-dev/waap/internal/domain"
)

// SaveContactMessage records a relayed contact message for audit purposes.
func (s *Storage) SaveContactMessage(msg domain.ContactMessage) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRow(`
        INSERT INTO contact_messages(posting_id, sender_name, sender_email, message)
        VALUES($1, $2, $3, $4)
        RETURNING id`,
			msg.PostingId, msg.SenderName, msg.SenderEmail, msg.Message,
		).Scan(&id)
	})
	if err != nil {
		return -1, fmt.Errorf("failed to insert contact message: %w", err)
	}
	return id, nil
}

// MessagesByPosting lists stored contact messages for a posting, oldest first.
func (s *Storage) MessagesByPosting(postingId domain.PostingId) ([]domain.ContactMessage, error) {
	rows, err := s.db.Query(`
        SELECT id, posting_id, sender_name, sender_email, message, (created_at at time zone 'utc')
        FROM contact_messages
        WHERE posting_id = $1
        ORDER BY created_at ASC, id ASC`,
		postingId,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.ContactMessage
	for rows.Next() {
		var m domain.ContactMessage
		if err := rows.Scan(&m.Id, &m.PostingId, &m.SenderName, &m.SenderEmail, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
