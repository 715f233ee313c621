package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/waap-dev/waap/internal/domain"
	internal_errors "github.com/waap-dev/waap/internal/errors"
)

const postingColumns = `
    id, owner_email, title, department_id, location, classification_id, level,
    alternation_type, language_profile, criteria, description, contact_email,
    (posting_date at time zone 'utc'), (expiration_date at time zone 'utc'),
    moderation_status, moderated_by, (moderated_at at time zone 'utc'), moderation_notes,
    anonymized, (created_at at time zone 'utc'), (updated_at at time zone 'utc')`

// =========================================================================
// Public Methods (satisfy the service storage interfaces)
// =========================================================================

// SavePosting is the public entry point for creating a posting.
func (s *Storage) SavePosting(posting domain.JobPosting) (domain.PostingId, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var id domain.PostingId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.savePosting(tx, posting)
		return err
	})
	return id, err
}

// Posting is a public, read-only method to fetch a posting by id.
func (s *Storage) Posting(id domain.PostingId) (domain.JobPosting, error) {
	row := s.db.QueryRow("SELECT"+postingColumns+" FROM job_postings WHERE id = $1", id)
	posting, err := scanPosting(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.JobPosting{}, &internal_errors.NotFoundError{Entity: "posting", Id: id}
		}
		return domain.JobPosting{}, fmt.Errorf("failed to query posting: %w", err)
	}
	return posting, nil
}

// PostingsByOwner returns every posting owned by the email, newest first.
func (s *Storage) PostingsByOwner(owner domain.Email) ([]domain.JobPosting, error) {
	rows, err := s.db.Query(
		"SELECT"+postingColumns+" FROM job_postings WHERE owner_email = $1 ORDER BY posting_date DESC, id ASC",
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query owner postings: %w", err)
	}
	defer rows.Close()
	return collectPostings(rows)
}

// PublicPostings returns postings satisfying the visibility invariant with
// the filter's predicates AND-combined over indexed fields.
func (s *Storage) PublicPostings(filter domain.ListingFilter, now time.Time) ([]domain.JobPosting, error) {
	where := []string{
		"moderation_status = 'approved'",
		"anonymized = FALSE",
		"expiration_date >= $1",
	}
	args := []interface{}{now}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.DepartmentId != nil {
		addArg("department_id = $%d", *filter.DepartmentId)
	}
	if filter.Location != nil {
		addArg("location = $%d", *filter.Location)
	}
	if filter.ClassificationId != nil {
		addArg("classification_id = $%d", *filter.ClassificationId)
	}
	if filter.Level != nil {
		addArg("level = $%d", *filter.Level)
	}
	if filter.AlternationType != nil {
		addArg("alternation_type = $%d", string(*filter.AlternationType))
	}
	if filter.LanguageProfile != nil {
		addArg("language_profile = $%d", string(*filter.LanguageProfile))
	}
	if filter.PostedAfter != nil {
		addArg("posting_date >= $%d", *filter.PostedAfter)
	}
	if filter.PostedBefore != nil {
		addArg("posting_date <= $%d", *filter.PostedBefore)
	}

	// Sort field/direction are validated by the service against a fixed
	// enum, never interpolated from raw user input.
	orderBy := fmt.Sprintf("ORDER BY %s %s, id ASC", filter.SortBy, strings.ToUpper(string(filter.SortDirection)))

	query := "SELECT" + postingColumns + " FROM job_postings WHERE " + strings.Join(where, " AND ") + " " + orderBy

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query public postings: %w", err)
	}
	defer rows.Close()
	return collectPostings(rows)
}

// SetModerationStatus applies a moderation transition as a compare-and-set
// on the previous status. Returns false when the row no longer holds `from`.
func (s *Storage) SetModerationStatus(id domain.PostingId, from, to domain.ModerationStatus, moderator domain.Email, notes string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var applied bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
        UPDATE job_postings
        SET moderation_status = $1, moderated_by = $2, moderated_at = now(), moderation_notes = $3, updated_at = now()
        WHERE id = $4 AND moderation_status = $5`,
			to, moderator, notes, id, from,
		)
		if err != nil {
			return fmt.Errorf("failed to update moderation status: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for moderation update: %w", err)
		}
		applied = rowsAffected == 1
		return nil
	})
	return applied, err
}

// AnonymizePosting is the atomic anonymization claim: a single conditional
// update flips anonymized and redacts contact email, criteria and
// description together, so the record can never be observed half-redacted.
// Returns false when the posting was already anonymized (idempotent no-op)
// and NotFoundError when it does not exist.
func (s *Storage) AnonymizePosting(id domain.PostingId) (bool, error) {
	result, err := s.db.Exec(`
        UPDATE job_postings
        SET anonymized = TRUE,
            contact_email = NULL,
            criteria = '{}',
            description = '',
            updated_at = now()
        WHERE id = $1 AND anonymized = FALSE`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to anonymize posting: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows for anonymization: %w", err)
	}
	if rowsAffected == 1 {
		return true, nil
	}

	var exists bool
	if err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM job_postings WHERE id = $1)", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check posting existence: %w", err)
	}
	if !exists {
		return false, &internal_errors.NotFoundError{Entity: "posting", Id: id}
	}
	return false, nil
}

// DeletePosting permanently removes a posting. Contact messages cascade via
// the schema's ON DELETE CASCADE constraint.
func (s *Storage) DeletePosting(id domain.PostingId) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM job_postings WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete posting: %w", err)
		}
		rowsDeleted, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for posting deletion: %w", err)
		}
		if rowsDeleted == 0 {
			return &internal_errors.NotFoundError{Entity: "posting", Id: id}
		}
		return nil
	})
}

// ExpiredPostingIds selects postings due for anonymization.
func (s *Storage) ExpiredPostingIds(now time.Time) ([]domain.PostingId, error) {
	rows, err := s.db.Query(`
        SELECT id FROM job_postings
        WHERE expiration_date < $1 AND anonymized = FALSE
        ORDER BY id ASC`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired postings: %w", err)
	}
	defer rows.Close()

	var ids []domain.PostingId
	for rows.Next() {
		var id domain.PostingId
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expired posting id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) savePosting(q Querier, posting domain.JobPosting) (domain.PostingId, error) {
	criteria, err := json.Marshal(posting.Criteria)
	if err != nil {
		return -1, fmt.Errorf("failed to marshal criteria: %w", err)
	}

	var id domain.PostingId
	err = q.QueryRow(`
        INSERT INTO job_postings(
            owner_email, title, department_id, location, classification_id, level,
            alternation_type, language_profile, criteria, description, contact_email,
            posting_date, expiration_date, moderation_status)
        VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING id`,
		posting.OwnerEmail, posting.Title, posting.DepartmentId, posting.Location,
		posting.ClassificationId, posting.Level, posting.AlternationType, posting.LanguageProfile,
		criteria, posting.Description, posting.ContactEmail,
		posting.PostingDate, posting.ExpirationDate, posting.ModerationStatus,
	).Scan(&id)
	if err != nil {
		return -1, fmt.Errorf("failed to insert posting: %w", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPosting(row rowScanner) (domain.JobPosting, error) {
	var (
		posting  domain.JobPosting
		criteria []byte
	)
	err := row.Scan(
		&posting.Id, &posting.OwnerEmail, &posting.Title, &posting.DepartmentId, &posting.Location,
		&posting.ClassificationId, &posting.Level, &posting.AlternationType, &posting.LanguageProfile,
		&criteria, &posting.Description, &posting.ContactEmail,
		&posting.PostingDate, &posting.ExpirationDate,
		&posting.ModerationStatus, &posting.ModeratedBy, &posting.ModeratedAt, &posting.ModerationNotes,
		&posting.Anonymized, &posting.CreatedAt, &posting.UpdatedAt,
	)
	if err != nil {
		return domain.JobPosting{}, err
	}
	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &posting.Criteria); err != nil {
			return domain.JobPosting{}, fmt.Errorf("failed to unmarshal criteria: %w", err)
		}
	}
	return posting, nil
}

func collectPostings(rows *sql.Rows) ([]domain.JobPosting, error) {
	var postings []domain.JobPosting
	for rows.Next() {
		posting, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan posting row: %w", err)
		}
		postings = append(postings, posting)
	}
	return postings, rows.Err()
}
