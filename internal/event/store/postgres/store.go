// Package postgres persists the event catalog in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"volunity/internal/event"
	"volunity/internal/event/store"
	id "volunity/pkg/domain"
	txcontext "volunity/pkg/platform/tx"
)

// EventStore implements store.EventStore over database/sql.
type EventStore struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed event store.
func New(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *EventStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const eventColumns = `id, title, description, location, latitude, longitude,
	event_date, duration, max_participants, category, image_url, status,
	created_by, organization_id, created_at, updated_at`

func (s *EventStore) Create(ctx context.Context, ev *event.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(ev.ID), ev.Title, ev.Description, ev.Location,
		ev.Latitude, ev.Longitude, ev.EventDate, ev.DurationMinutes,
		ev.MaxParticipants, nullString(ev.Category), nullString(ev.ImageURL),
		string(ev.Status), uuid.UUID(ev.CreatedBy), orgID(ev.OrganizationID),
		ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *EventStore) Update(ctx context.Context, ev *event.Event) error {
	query := `
		UPDATE events SET
			title = $2, description = $3, location = $4, latitude = $5,
			longitude = $6, event_date = $7, duration = $8,
			max_participants = $9, category = $10, image_url = $11,
			status = $12, organization_id = $13, updated_at = $14
		WHERE id = $1
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(ev.ID), ev.Title, ev.Description, ev.Location,
		ev.Latitude, ev.Longitude, ev.EventDate, ev.DurationMinutes,
		ev.MaxParticipants, nullString(ev.Category), nullString(ev.ImageURL),
		string(ev.Status), orgID(ev.OrganizationID), ev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireRow(res)
}

func (s *EventStore) Delete(ctx context.Context, eventID id.EventID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, uuid.UUID(eventID))
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireRow(res)
}

func (s *EventStore) FindByID(ctx context.Context, eventID id.EventID) (*event.Event, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, uuid.UUID(eventID))
	if err != nil {
		return nil, fmt.Errorf("find event: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, store.ErrNotFound
	}
	ev, err := scanEvent(rows)
	if err != nil {
		return nil, err
	}
	return ev, rows.Err()
}

func (s *EventStore) List(ctx context.Context, filter store.Filter) ([]*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	args := make([]any, 0, 5)

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY event_date ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return s.queryEvents(ctx, query, args...)
}

func (s *EventStore) ListByCreator(ctx context.Context, userID id.UserID) ([]*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE created_by = $1 ORDER BY created_at DESC`
	return s.queryEvents(ctx, query, uuid.UUID(userID))
}

func (s *EventStore) queryEvents(ctx context.Context, query string, args ...any) ([]*event.Event, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *EventStore) CountByStatus(ctx context.Context) (store.StatusCounts, error) {
	var counts store.StatusCounts
	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'draft'),
			count(*) FILTER (WHERE status = 'published'),
			count(*) FILTER (WHERE status = 'cancelled'),
			count(*) FILTER (WHERE status = 'completed')
		FROM events
	`
	err := s.q(ctx).QueryRowContext(ctx, query).Scan(
		&counts.Total, &counts.Draft, &counts.Published, &counts.Cancelled, &counts.Completed)
	if err != nil {
		return store.StatusCounts{}, fmt.Errorf("count events by status: %w", err)
	}
	return counts, nil
}

func (s *EventStore) PublishedSummaries(ctx context.Context) ([]store.PublishedSummary, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT id, location, COALESCE(duration, 0) FROM events WHERE status = 'published'`)
	if err != nil {
		return nil, fmt.Errorf("query published events: %w", err)
	}
	defer rows.Close()

	var summaries []store.PublishedSummary
	for rows.Next() {
		var (
			rawID   uuid.UUID
			summary store.PublishedSummary
		)
		if err := rows.Scan(&rawID, &summary.Location, &summary.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scan published event: %w", err)
		}
		summary.ID = id.EventID(rawID)
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func scanEvent(rows *sql.Rows) (*event.Event, error) {
	var (
		ev       event.Event
		rawID    uuid.UUID
		rawOwner uuid.UUID
		category sql.NullString
		imageURL sql.NullString
		status   string
		rawOrg   uuid.NullUUID
	)
	err := rows.Scan(
		&rawID, &ev.Title, &ev.Description, &ev.Location, &ev.Latitude,
		&ev.Longitude, &ev.EventDate, &ev.DurationMinutes, &ev.MaxParticipants,
		&category, &imageURL, &status, &rawOwner, &rawOrg,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	ev.ID = id.EventID(rawID)
	ev.CreatedBy = id.UserID(rawOwner)
	ev.Category = category.String
	ev.ImageURL = imageURL.String
	ev.Status = event.Status(status)
	if rawOrg.Valid {
		org := id.OrganizationID(rawOrg.UUID)
		ev.OrganizationID = &org
	}
	return &ev, nil
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

func orgID(v *id.OrganizationID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

// OrganizationStore implements store.OrganizationStore over database/sql.
type OrganizationStore struct {
	db *sql.DB
}

// NewOrganizations constructs a PostgreSQL-backed organization store.
func NewOrganizations(db *sql.DB) *OrganizationStore {
	return &OrganizationStore{db: db}
}

func (s *OrganizationStore) FindByID(ctx context.Context, orgID id.OrganizationID) (*event.Organization, error) {
	var (
		org      event.Organization
		rawID    uuid.UUID
		rawOwner uuid.UUID
		desc     sql.NullString
		logo     sql.NullString
		website  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, logo_url, website, organizer_id
		FROM organizations WHERE id = $1
	`, uuid.UUID(orgID)).Scan(&rawID, &org.Name, &desc, &logo, &website, &rawOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find organization: %w", err)
	}
	org.ID = id.OrganizationID(rawID)
	org.OrganizerID = id.UserID(rawOwner)
	org.Description = desc.String
	org.LogoURL = logo.String
	org.Website = website.String
	return &org, nil
}
