package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/waap-dev/waap/internal/domain"
	internal_errors "github.com/waap-dev/waap/internal/errors"
)

// =========================================================================
// Public Methods (satisfy the service.UserStorage interface)
// =========================================================================

// SaveUser is the public entry point for creating a new identity. It wraps
// the core logic in a transaction to ensure the operation is atomic.
func (s *Storage) SaveUser(user domain.User) (domain.UserId, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.saveUser(tx, user)
		return err
	})
	return id, err
}

// User is a public, read-only method to fetch an identity by id.
func (s *Storage) User(id domain.UserId) (domain.User, error) {
	return s.user(s.db, "id = $1", id)
}

// UserByEmail is a public, read-only method to fetch an identity by email.
func (s *Storage) UserByEmail(email domain.Email) (domain.User, error) {
	return s.user(s.db, "email = $1", email)
}

// UpdateProfile is the public entry point for changing the mutable profile
// fields. Email is never part of the update.
func (s *Storage) UpdateProfile(id domain.UserId, update domain.ProfileUpdate) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.updateProfile(tx, id, update)
	})
}

func (s *Storage) Departments() ([]domain.Department, error) {
	rows, err := s.db.Query("SELECT id, name FROM departments ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	var departments []domain.Department
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.Id, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan department row: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (s *Storage) DepartmentExists(id domain.DepartmentId) (bool, error) {
	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM departments WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check department: %w", err)
	}
	return exists, nil
}

func (s *Storage) Classifications() ([]domain.Classification, error) {
	rows, err := s.db.Query("SELECT id, name FROM classifications ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer rows.Close()

	var classifications []domain.Classification
	for rows.Next() {
		var c domain.Classification
		if err := rows.Scan(&c.Id, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan classification row: %w", err)
		}
		classifications = append(classifications, c)
	}
	return classifications, rows.Err()
}

func (s *Storage) ClassificationExists(id domain.ClassificationId) (bool, error) {
	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM classifications WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check classification: %w", err)
	}
	return exists, nil
}

// =========================================================================
// Internal Methods (Core Database Logic)
// These methods accept a Querier and are transaction-agnostic.
// =========================================================================

func (s *Storage) saveUser(q Querier, user domain.User) (domain.UserId, error) {
	var id domain.UserId
	err := q.QueryRow(`
        INSERT INTO users(email, first_name, last_name, department_id, classification_id, level, is_admin, password_hash)
        VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		user.Email, user.FirstName, user.LastName, user.DepartmentId, user.ClassificationId, user.Level, user.Admin, user.PassHash,
	).Scan(&id)
	if err != nil {
		return -1, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (s *Storage) user(q Querier, where string, arg interface{}) (domain.User, error) {
	var user domain.User
	err := q.QueryRow(`
        SELECT id, email, first_name, last_name, department_id, classification_id, level, is_admin, password_hash,
               (created_at at time zone 'utc'), (updated_at at time zone 'utc')
        FROM users WHERE `+where,
		arg,
	).Scan(&user.Id, &user.Email, &user.FirstName, &user.LastName, &user.DepartmentId, &user.ClassificationId,
		&user.Level, &user.Admin, &user.PassHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (s *Storage) updateProfile(q Querier, id domain.UserId, update domain.ProfileUpdate) error {
	result, err := q.Exec(`
        UPDATE users
        SET first_name = $1, last_name = $2, department_id = $3, classification_id = $4, level = $5, updated_at = now()
        WHERE id = $6`,
		update.FirstName, update.LastName, update.DepartmentId, update.ClassificationId, update.Level, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for profile update: %w", err)
	}
	if rowsAffected == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "User not found for profile update", StatusCode: http.StatusNotFound}
	}
	return nil
}
