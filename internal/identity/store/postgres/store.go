// Package postgres persists user accounts in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"volunity/internal/identity"
	"volunity/internal/identity/store"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
	txcontext "volunity/pkg/platform/tx"
)

// UserStore implements store.UserStore over database/sql.
type UserStore struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed user store.
func New(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *UserStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const userColumns = `id, email, password_hash, first_name, last_name, role, phone,
	date_of_birth, is_email_verified, email_verification_token,
	email_verification_expires, created_at, updated_at`

func (s *UserStore) Create(ctx context.Context, user *identity.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Email, user.PasswordHash, user.FirstName,
		user.LastName, user.Role, nullString(user.Phone), user.DateOfBirth,
		user.EmailVerified, nullString(user.VerificationToken),
		user.VerificationExpires, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return dErrors.New(dErrors.CodeConflict, "a user with this email already exists")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) Update(ctx context.Context, user *identity.User) error {
	query := `
		UPDATE users SET
			email = $2, password_hash = $3, first_name = $4, last_name = $5,
			role = $6, phone = $7, date_of_birth = $8, is_email_verified = $9,
			email_verification_token = $10, email_verification_expires = $11,
			updated_at = $12
		WHERE id = $1
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Email, user.PasswordHash, user.FirstName,
		user.LastName, user.Role, nullString(user.Phone), user.DateOfBirth,
		user.EmailVerified, nullString(user.VerificationToken),
		user.VerificationExpires, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

func (s *UserStore) Delete(ctx context.Context, userID id.UserID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res)
}

func (s *UserStore) FindByID(ctx context.Context, userID id.UserID) (*identity.User, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID))
	return scanUser(row)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (s *UserStore) FindByVerificationToken(ctx context.Context, token string) (*identity.User, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_verification_token = $1`, token)
	return scanUser(row)
}

func (s *UserStore) CountByRole(ctx context.Context) (store.RoleCounts, error) {
	var counts store.RoleCounts
	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE role = 'user'),
			count(*) FILTER (WHERE role = 'organizer'),
			count(*) FILTER (WHERE role = 'admin')
		FROM users
	`
	err := s.q(ctx).QueryRowContext(ctx, query).Scan(
		&counts.Total, &counts.User, &counts.Organizer, &counts.Admin)
	if err != nil {
		return store.RoleCounts{}, fmt.Errorf("count users by role: %w", err)
	}
	return counts, nil
}

func scanUser(row *sql.Row) (*identity.User, error) {
	var (
		u       identity.User
		rawID   uuid.UUID
		phone   sql.NullString
		token   sql.NullString
		dob     sql.NullTime
		expires sql.NullTime
	)
	err := row.Scan(
		&rawID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role,
		&phone, &dob, &u.EmailVerified, &token, &expires,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(rawID)
	u.Phone = phone.String
	u.VerificationToken = token.String
	if dob.Valid {
		t := dob.Time
		u.DateOfBirth = &t
	}
	if expires.Valid {
		t := expires.Time
		u.VerificationExpires = &t
	}
	return &u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
