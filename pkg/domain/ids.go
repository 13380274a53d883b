// Package domain holds typed identifiers used across bounded contexts.
// Wrapping uuid.UUID in distinct types lets the compiler catch an event ID
// handed to a user lookup. Conventionally imported as id.
package domain

import (
	"github.com/google/uuid"

	dErrors "volunity/pkg/domain-errors"
)

type (
	// UserID identifies a user account.
	UserID uuid.UUID
	// EventID identifies a volunteer event.
	EventID uuid.UUID
	// RegistrationID identifies one user's registration row for one event.
	RegistrationID uuid.UUID
	// OrganizationID identifies an organization that owns events.
	OrganizationID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id EventID) String() string        { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }
func (id OrganizationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OrganizationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Wrapped types do not inherit uuid.UUID's text marshaling, so each ID
// implements it explicitly to serialize as the canonical string form.

func (id UserID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id EventID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id RegistrationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id OrganizationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EventID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RegistrationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *OrganizationID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// NewUserID mints a random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewEventID mints a random event ID.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewRegistrationID mints a random registration ID.
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// NewOrganizationID mints a random organization ID.
func NewOrganizationID() OrganizationID { return OrganizationID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs arriving at trust boundaries
// must be valid, non-nil UUIDs.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseUserID parses a string form user ID, rejecting empty or nil UUIDs.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseEventID parses a string form event ID, rejecting empty or nil UUIDs.
func ParseEventID(raw string) (EventID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return EventID{}, err
	}
	return EventID(parsed), nil
}

// ParseRegistrationID parses a string form registration ID.
func ParseRegistrationID(raw string) (RegistrationID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return RegistrationID{}, err
	}
	return RegistrationID(parsed), nil
}

// ParseOrganizationID parses a string form organization ID.
func ParseOrganizationID(raw string) (OrganizationID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return OrganizationID{}, err
	}
	return OrganizationID(parsed), nil
}
