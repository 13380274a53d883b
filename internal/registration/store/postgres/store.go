// Package postgres persists registrations in PostgreSQL. Serialize runs its
// callback inside a serializable transaction holding a FOR UPDATE lock on
// the event row, so capacity check-and-insert sequences for one event cannot
// interleave.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"volunity/internal/registration"
	"volunity/internal/registration/store"
	id "volunity/pkg/domain"
	txcontext "volunity/pkg/platform/tx"
)

// RegistrationStore implements store.RegistrationStore over database/sql.
type RegistrationStore struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed registration store.
func New(db *sql.DB) *RegistrationStore {
	return &RegistrationStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *RegistrationStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const registrationColumns = `id, event_id, user_id, status, attended, registered_at`

func (s *RegistrationStore) Create(ctx context.Context, reg *registration.Registration) error {
	query := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(reg.ID), uuid.UUID(reg.EventID), uuid.UUID(reg.UserID),
		string(reg.Status), reg.Attended, reg.RegisteredAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return store.ErrDuplicatePair
	}
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *RegistrationStore) Update(ctx context.Context, reg *registration.Registration) error {
	query := `
		UPDATE registrations SET
			status = $2, attended = $3, registered_at = $4
		WHERE id = $1
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(reg.ID), string(reg.Status), reg.Attended, reg.RegisteredAt)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	return requireRow(res)
}

func (s *RegistrationStore) FindByID(ctx context.Context, regID id.RegistrationID) (*registration.Registration, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, uuid.UUID(regID))
	return scanRegistrationRow(row)
}

func (s *RegistrationStore) FindByEventAndUser(ctx context.Context, eventID id.EventID, userID id.UserID) (*registration.Registration, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 AND user_id = $2`,
		uuid.UUID(eventID), uuid.UUID(userID))
	return scanRegistrationRow(row)
}

func (s *RegistrationStore) CountConfirmed(ctx context.Context, eventID id.EventID) (int, error) {
	var count int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT count(*) FROM registrations WHERE event_id = $1 AND status = 'confirmed'`,
		uuid.UUID(eventID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count confirmed registrations: %w", err)
	}
	return count, nil
}

func (s *RegistrationStore) CountConfirmedByEvent(ctx context.Context) (map[id.EventID]int, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT event_id, count(*)
		FROM registrations
		WHERE status = 'confirmed'
		GROUP BY event_id
	`)
	if err != nil {
		return nil, fmt.Errorf("count registrations by event: %w", err)
	}
	defer rows.Close()

	counts := make(map[id.EventID]int)
	for rows.Next() {
		var (
			rawID uuid.UUID
			count int
		)
		if err := rows.Scan(&rawID, &count); err != nil {
			return nil, fmt.Errorf("scan registration count: %w", err)
		}
		counts[id.EventID(rawID)] = count
	}
	return counts, rows.Err()
}

func (s *RegistrationStore) ListByUser(ctx context.Context, userID id.UserID, status registration.Status) ([]*registration.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1`
	args := []any{uuid.UUID(userID)}
	if status != "" {
		args = append(args, string(status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY registered_at DESC"
	return s.queryRegistrations(ctx, query, args...)
}

func (s *RegistrationStore) ListByEvent(ctx context.Context, eventID id.EventID) ([]*registration.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 ORDER BY registered_at DESC`
	return s.queryRegistrations(ctx, query, uuid.UUID(eventID))
}

func (s *RegistrationStore) queryRegistrations(ctx context.Context, query string, args ...any) ([]*registration.Registration, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var regs []*registration.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (s *RegistrationStore) Totals(ctx context.Context) (store.Totals, error) {
	var totals store.Totals
	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'confirmed'),
			count(*) FILTER (WHERE attended)
		FROM registrations
	`
	err := s.q(ctx).QueryRowContext(ctx, query).Scan(
		&totals.Total, &totals.Confirmed, &totals.Attended)
	if err != nil {
		return store.Totals{}, fmt.Errorf("count registrations: %w", err)
	}
	return totals, nil
}

// Serialize runs fn inside a serializable transaction after taking a row
// lock on the event. Concurrent callers for the same event queue on the
// lock, so the capacity count fn observes cannot go stale before its insert
// commits.
func (s *RegistrationStore) Serialize(ctx context.Context, eventID id.EventID, fn func(ctx context.Context) error) error {
	return txcontext.Within(ctx, s.db, func(ctx context.Context) error {
		tx, _ := txcontext.From(ctx)
		var locked uuid.UUID
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM events WHERE id = $1 FOR UPDATE`, uuid.UUID(eventID)).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock event: %w", err)
		}
		return fn(ctx)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistrationRow(row *sql.Row) (*registration.Registration, error) {
	reg, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return reg, err
}

func scanRegistration(row rowScanner) (*registration.Registration, error) {
	var (
		reg      registration.Registration
		rawID    uuid.UUID
		rawEvent uuid.UUID
		rawUser  uuid.UUID
		status   string
	)
	err := row.Scan(&rawID, &rawEvent, &rawUser, &status, &reg.Attended, &reg.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	reg.ID = id.RegistrationID(rawID)
	reg.EventID = id.EventID(rawEvent)
	reg.UserID = id.UserID(rawUser)
	reg.Status = registration.Status(status)
	return &reg, nil
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
