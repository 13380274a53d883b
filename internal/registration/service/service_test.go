package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunity/internal/event"
	eventmemory "volunity/internal/event/store/memory"
	"volunity/internal/identity"
	identitymemory "volunity/internal/identity/store/memory"
	"volunity/internal/registration"
	regmemory "volunity/internal/registration/store/memory"
	"volunity/pkg/authz"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
	"volunity/pkg/requestcontext"
)

type fixture struct {
	svc    *Service
	events *eventmemory.EventStore
	regs   *regmemory.RegistrationStore
	users  *identitymemory.UserStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	events := eventmemory.New()
	regs := regmemory.New()
	users := identitymemory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		svc:    New(regs, events, users, logger, nil),
		events: events,
		regs:   regs,
		users:  users,
	}
}

func (f *fixture) addEvent(t *testing.T, ev *event.Event) {
	t.Helper()
	require.NoError(t, f.events.Create(context.Background(), ev))
}

func (f *fixture) addUser(t *testing.T, userID id.UserID, first, last string) {
	t.Helper()
	require.NoError(t, f.users.Create(context.Background(), &identity.User{
		ID:        userID,
		Email:     first + "@example.com",
		FirstName: first,
		LastName:  last,
		Role:      authz.RoleUser,
	}))
}

func actorCtx(userID id.UserID, role string, now time.Time) context.Context {
	ctx := requestcontext.WithUserID(context.Background(), userID)
	ctx = requestcontext.WithUserRole(ctx, role)
	return requestcontext.WithTime(ctx, now)
}

func publishedEvent(owner id.UserID, date time.Time, maxParticipants *int) *event.Event {
	return &event.Event{
		ID:              id.NewEventID(),
		Title:           "Beach cleanup",
		Description:     "Bring gloves",
		Location:        "Varna, Bulgaria",
		EventDate:       date,
		MaxParticipants: maxParticipants,
		Status:          event.StatusPublished,
		CreatedBy:       owner,
	}
}

func intPtr(n int) *int { return &n }

func TestRegister(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	eventDate := now.Add(72 * time.Hour)
	owner := id.NewUserID()

	t.Run("joins a published future event", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, eventDate, intPtr(10))
		f.addEvent(t, ev)

		volunteer := id.NewUserID()
		reg, err := f.svc.Register(actorCtx(volunteer, authz.RoleUser, now), ev.ID)
		require.NoError(t, err)
		assert.Equal(t, registration.StatusConfirmed, reg.Status)
		assert.Equal(t, volunteer, reg.UserID)
		assert.False(t, reg.Attended)
		assert.Equal(t, now, reg.RegisteredAt)
	})

	t.Run("unknown event", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Register(actorCtx(id.NewUserID(), authz.RoleUser, now), id.NewEventID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("event not published", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, eventDate, nil)
		ev.Status = event.StatusDraft
		f.addEvent(t, ev)

		_, err := f.svc.Register(actorCtx(id.NewUserID(), authz.RoleUser, now), ev.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Equal(t, "event is not open for registration", dErrors.MessageOf(err))
	})

	t.Run("event already occurred", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, now.Add(-time.Hour), nil)
		f.addEvent(t, ev)

		_, err := f.svc.Register(actorCtx(id.NewUserID(), authz.RoleUser, now), ev.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Equal(t, "event has already occurred", dErrors.MessageOf(err))
	})

	t.Run("event starting this instant is still joinable", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, now, intPtr(10))
		f.addEvent(t, ev)

		reg, err := f.svc.Register(actorCtx(id.NewUserID(), authz.RoleUser, now), ev.ID)
		require.NoError(t, err)
		assert.Equal(t, registration.StatusConfirmed, reg.Status)
	})

	t.Run("double registration conflicts", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, eventDate, intPtr(10))
		f.addEvent(t, ev)

		ctx := actorCtx(id.NewUserID(), authz.RoleUser, now)
		_, err := f.svc.Register(ctx, ev.ID)
		require.NoError(t, err)

		_, err = f.svc.Register(ctx, ev.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("full event rejects", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, eventDate, intPtr(1))
		f.addEvent(t, ev)

		_, err := f.svc.Register(actorCtx(id.NewUserID(), authz.RoleUser, now), ev.ID)
		require.NoError(t, err)

		_, err = f.svc.Register(actorCtx(id.NewUserID(), authz.RoleUser, now), ev.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
	})

	t.Run("cancelled registrations free their spot", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, eventDate, intPtr(1))
		f.addEvent(t, ev)

		first := actorCtx(id.NewUserID(), authz.RoleUser, now)
		_, err := f.svc.Register(first, ev.ID)
		require.NoError(t, err)
		require.NoError(t, f.svc.Unregister(first, ev.ID))

		_, err = f.svc.Register(actorCtx(id.NewUserID(), authz.RoleUser, now), ev.ID)
		assert.NoError(t, err)
	})

	t.Run("no capacity limit means unlimited", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, eventDate, nil)
		f.addEvent(t, ev)

		for i := 0; i < 25; i++ {
			_, err := f.svc.Register(actorCtx(id.NewUserID(), authz.RoleUser, now), ev.ID)
			require.NoError(t, err)
		}
	})

	t.Run("one spot left admits exactly one of many concurrent joins", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, eventDate, intPtr(1))
		f.addEvent(t, ev)

		const contenders = 16
		var wg sync.WaitGroup
		errs := make([]error, contenders)
		for i := 0; i < contenders; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.svc.Register(actorCtx(id.NewUserID(), authz.RoleUser, now), ev.ID)
			}(i)
		}
		wg.Wait()

		admitted := 0
		for _, err := range errs {
			if err == nil {
				admitted++
			} else {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
			}
		}
		assert.Equal(t, 1, admitted)
	})
}

func TestRegisterRejoin(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	eventDate := now.Add(72 * time.Hour)
	owner := id.NewUserID()

	t.Run("rejoin reuses the original row", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, eventDate, intPtr(10))
		f.addEvent(t, ev)

		volunteer := id.NewUserID()
		ctx := actorCtx(volunteer, authz.RoleUser, now)
		original, err := f.svc.Register(ctx, ev.ID)
		require.NoError(t, err)
		require.NoError(t, f.svc.Unregister(ctx, ev.ID))

		later := actorCtx(volunteer, authz.RoleUser, now.Add(time.Hour))
		rejoined, err := f.svc.Register(later, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, original.ID, rejoined.ID)
		assert.Equal(t, registration.StatusConfirmed, rejoined.Status)
		assert.Equal(t, now.Add(time.Hour), rejoined.RegisteredAt)
	})

	t.Run("rejoin preserves recorded attendance", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, eventDate, nil)
		f.addEvent(t, ev)

		volunteer := id.NewUserID()
		ctx := actorCtx(volunteer, authz.RoleUser, now)
		reg, err := f.svc.Register(ctx, ev.ID)
		require.NoError(t, err)

		ownerCtx := actorCtx(owner, authz.RoleOrganizer, now)
		_, err = f.svc.MarkAttendance(ownerCtx, reg.ID, true)
		require.NoError(t, err)

		require.NoError(t, f.svc.Unregister(ctx, ev.ID))
		rejoined, err := f.svc.Register(ctx, ev.ID)
		require.NoError(t, err)
		assert.True(t, rejoined.Attended)
	})

	t.Run("rejoin is subject to capacity", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, eventDate, intPtr(1))
		f.addEvent(t, ev)

		volunteer := id.NewUserID()
		ctx := actorCtx(volunteer, authz.RoleUser, now)
		_, err := f.svc.Register(ctx, ev.ID)
		require.NoError(t, err)
		require.NoError(t, f.svc.Unregister(ctx, ev.ID))

		_, err = f.svc.Register(actorCtx(id.NewUserID(), authz.RoleUser, now), ev.ID)
		require.NoError(t, err)

		_, err = f.svc.Register(ctx, ev.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
	})
}

func TestUnregister(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := id.NewUserID()

	t.Run("not registered", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, now.Add(72*time.Hour), nil)
		f.addEvent(t, ev)

		err := f.svc.Unregister(actorCtx(id.NewUserID(), authz.RoleUser, now), ev.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.Equal(t, "not registered for this event", dErrors.MessageOf(err))
	})

	t.Run("already unregistered", func(t *testing.T) {
		f := newFixture(t)
		ev := publishedEvent(owner, now.Add(72*time.Hour), nil)
		f.addEvent(t, ev)

		ctx := actorCtx(id.NewUserID(), authz.RoleUser, now)
		_, err := f.svc.Register(ctx, ev.ID)
		require.NoError(t, err)
		require.NoError(t, f.svc.Unregister(ctx, ev.ID))

		err = f.svc.Unregister(ctx, ev.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Equal(t, "already unregistered from this event", dErrors.MessageOf(err))
	})

	t.Run("cutoff boundary", func(t *testing.T) {
		cases := []struct {
			name string
			lead time.Duration
			ok   bool
		}{
			{name: "exactly 24 hours before", lead: 24 * time.Hour, ok: true},
			{name: "just under 24 hours before", lead: 24*time.Hour - time.Minute, ok: false},
			{name: "one hour before", lead: time.Hour, ok: false},
			{name: "three days before", lead: 72 * time.Hour, ok: true},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				f := newFixture(t)
				ev := publishedEvent(owner, now.Add(tc.lead), nil)
				f.addEvent(t, ev)

				ctx := actorCtx(id.NewUserID(), authz.RoleUser, now.Add(-time.Hour))
				_, err := f.svc.Register(ctx, ev.ID)
				require.NoError(t, err)

				err = f.svc.Unregister(actorCtx(requestcontext.UserID(ctx), authz.RoleUser, now), ev.ID)
				if tc.ok {
					assert.NoError(t, err)
				} else {
					assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
					assert.Equal(t, "cannot unregister within 24 hours of the event", dErrors.MessageOf(err))
				}
			})
		}
	})
}

func TestMarkAttendance(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := id.NewUserID()

	setup := func(t *testing.T) (*fixture, id.RegistrationID) {
		f := newFixture(t)
		ev := publishedEvent(owner, now.Add(72*time.Hour), nil)
		f.addEvent(t, ev)
		reg, err := f.svc.Register(actorCtx(id.NewUserID(), authz.RoleUser, now), ev.ID)
		require.NoError(t, err)
		return f, reg.ID
	}

	t.Run("event creator marks attendance", func(t *testing.T) {
		f, regID := setup(t)
		reg, err := f.svc.MarkAttendance(actorCtx(owner, authz.RoleOrganizer, now), regID, true)
		require.NoError(t, err)
		assert.True(t, reg.Attended)
	})

	t.Run("admin marks attendance on any event", func(t *testing.T) {
		f, regID := setup(t)
		reg, err := f.svc.MarkAttendance(actorCtx(id.NewUserID(), authz.RoleAdmin, now), regID, true)
		require.NoError(t, err)
		assert.True(t, reg.Attended)
	})

	t.Run("unrelated organizer is refused", func(t *testing.T) {
		f, regID := setup(t)
		_, err := f.svc.MarkAttendance(actorCtx(id.NewUserID(), authz.RoleOrganizer, now), regID, true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("attendance can be cleared again", func(t *testing.T) {
		f, regID := setup(t)
		ownerCtx := actorCtx(owner, authz.RoleOrganizer, now)
		_, err := f.svc.MarkAttendance(ownerCtx, regID, true)
		require.NoError(t, err)
		reg, err := f.svc.MarkAttendance(ownerCtx, regID, false)
		require.NoError(t, err)
		assert.False(t, reg.Attended)
	})

	t.Run("unknown registration", func(t *testing.T) {
		f, _ := setup(t)
		_, err := f.svc.MarkAttendance(actorCtx(owner, authz.RoleOrganizer, now), id.NewRegistrationID(), true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestListMine(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := id.NewUserID()

	f := newFixture(t)
	kept := publishedEvent(owner, now.Add(48*time.Hour), nil)
	left := publishedEvent(owner, now.Add(96*time.Hour), nil)
	f.addEvent(t, kept)
	f.addEvent(t, left)

	volunteer := id.NewUserID()
	ctx := actorCtx(volunteer, authz.RoleUser, now)
	_, err := f.svc.Register(ctx, kept.ID)
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, left.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Unregister(ctx, left.ID))

	t.Run("unfiltered returns both with event details", func(t *testing.T) {
		mine, err := f.svc.ListMine(ctx, "")
		require.NoError(t, err)
		require.Len(t, mine, 2)
		for _, m := range mine {
			assert.NotNil(t, m.Event)
		}
	})

	t.Run("filter by confirmed", func(t *testing.T) {
		mine, err := f.svc.ListMine(ctx, registration.StatusConfirmed)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, kept.ID, mine[0].Event.ID)
	})

	t.Run("filter by cancelled", func(t *testing.T) {
		mine, err := f.svc.ListMine(ctx, registration.StatusCancelled)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, left.ID, mine[0].Event.ID)
	})

	t.Run("unknown status filter", func(t *testing.T) {
		_, err := f.svc.ListMine(ctx, registration.Status("pending"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestParticipants(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := id.NewUserID()

	f := newFixture(t)
	ev := publishedEvent(owner, now.Add(72*time.Hour), nil)
	f.addEvent(t, ev)

	alice := id.NewUserID()
	bob := id.NewUserID()
	f.addUser(t, alice, "alice", "A")
	f.addUser(t, bob, "bob", "B")

	aliceCtx := actorCtx(alice, authz.RoleUser, now)
	_, err := f.svc.Register(aliceCtx, ev.ID)
	require.NoError(t, err)
	bobReg, err := f.svc.Register(actorCtx(bob, authz.RoleUser, now), ev.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Unregister(aliceCtx, ev.ID))

	ownerCtx := actorCtx(owner, authz.RoleOrganizer, now)
	_, err = f.svc.MarkAttendance(ownerCtx, bobReg.ID, true)
	require.NoError(t, err)

	t.Run("owner sees full roster with stats", func(t *testing.T) {
		roster, err := f.svc.Participants(ownerCtx, ev.ID)
		require.NoError(t, err)
		assert.Len(t, roster.Participants, 2)
		assert.Equal(t, RosterStats{Total: 2, Confirmed: 1, Cancelled: 1, Attended: 1}, roster.Stats)
	})

	t.Run("admin sees any roster", func(t *testing.T) {
		_, err := f.svc.Participants(actorCtx(id.NewUserID(), authz.RoleAdmin, now), ev.ID)
		assert.NoError(t, err)
	})

	t.Run("participant cannot see the roster", func(t *testing.T) {
		_, err := f.svc.Participants(actorCtx(bob, authz.RoleUser, now), ev.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := f.svc.Participants(ownerCtx, id.NewEventID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
