package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunity/internal/registration"
	"volunity/internal/registration/service"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
)

type fakeService struct {
	registerFn    func(ctx context.Context, eventID id.EventID) (*registration.Registration, error)
	unregisterFn  func(ctx context.Context, eventID id.EventID) error
	attendanceFn  func(ctx context.Context, regID id.RegistrationID, attended bool) (*registration.Registration, error)
	listMineFn    func(ctx context.Context, status registration.Status) ([]service.Mine, error)
	participantFn func(ctx context.Context, eventID id.EventID) (*service.Roster, error)
}

func (f *fakeService) Register(ctx context.Context, eventID id.EventID) (*registration.Registration, error) {
	return f.registerFn(ctx, eventID)
}

func (f *fakeService) Unregister(ctx context.Context, eventID id.EventID) error {
	return f.unregisterFn(ctx, eventID)
}

func (f *fakeService) MarkAttendance(ctx context.Context, regID id.RegistrationID, attended bool) (*registration.Registration, error) {
	return f.attendanceFn(ctx, regID, attended)
}

func (f *fakeService) ListMine(ctx context.Context, status registration.Status) ([]service.Mine, error) {
	return f.listMineFn(ctx, status)
}

func (f *fakeService) Participants(ctx context.Context, eventID id.EventID) (*service.Roster, error) {
	return f.participantFn(ctx, eventID)
}

func newRouter(svc Service) chi.Router {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleRegister(t *testing.T) {
	eventID := id.NewEventID()
	reg := registration.NewConfirmed(eventID, id.NewUserID(), time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))

	t.Run("created", func(t *testing.T) {
		svc := &fakeService{registerFn: func(_ context.Context, got id.EventID) (*registration.Registration, error) {
			assert.Equal(t, eventID, got)
			return reg, nil
		}}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/registrations/events/"+eventID.String()+"/register", nil)
		newRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var body struct {
			Registration struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"registration"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, reg.ID.String(), body.Registration.ID)
		assert.Equal(t, "confirmed", body.Registration.Status)
	})

	t.Run("capacity error maps to 409", func(t *testing.T) {
		svc := &fakeService{registerFn: func(context.Context, id.EventID) (*registration.Registration, error) {
			return nil, dErrors.New(dErrors.CodeCapacityExceeded, "no available spots for this event")
		}}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/registrations/events/"+eventID.String()+"/register", nil)
		newRouter(svc).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed event id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/registrations/events/nope/register", nil)
		newRouter(&fakeService{}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleUnregister(t *testing.T) {
	eventID := id.NewEventID()

	t.Run("cutoff error maps to 400", func(t *testing.T) {
		svc := &fakeService{unregisterFn: func(context.Context, id.EventID) error {
			return dErrors.New(dErrors.CodeInvalidState, "cannot unregister within 24 hours of the event")
		}}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/registrations/events/"+eventID.String()+"/unregister", nil)
		newRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "invalid_state", body["error"])
		assert.Equal(t, "cannot unregister within 24 hours of the event", body["error_description"])
	})
}

func TestHandleMyRegistrations(t *testing.T) {
	svc := &fakeService{listMineFn: func(_ context.Context, status registration.Status) ([]service.Mine, error) {
		assert.Equal(t, registration.StatusConfirmed, status)
		return nil, nil
	}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/registrations/my-registrations?status=confirmed", nil)
	newRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Registrations []any `json:"registrations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Registrations)
}

func TestHandleAttendance(t *testing.T) {
	regID := id.NewRegistrationID()

	t.Run("forwards the attended flag", func(t *testing.T) {
		reg := &registration.Registration{ID: regID, Status: registration.StatusConfirmed, Attended: true}
		svc := &fakeService{attendanceFn: func(_ context.Context, got id.RegistrationID, attended bool) (*registration.Registration, error) {
			assert.Equal(t, regID, got)
			assert.True(t, attended)
			return reg, nil
		}}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("PUT", "/registrations/"+regID.String()+"/attendance", strings.NewReader(`{"attended":true}`))
		newRouter(svc).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbidden maps to 403", func(t *testing.T) {
		svc := &fakeService{attendanceFn: func(context.Context, id.RegistrationID, bool) (*registration.Registration, error) {
			return nil, dErrors.New(dErrors.CodeForbidden, "you cannot manage attendance for this event")
		}}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("PUT", "/registrations/"+regID.String()+"/attendance", strings.NewReader(`{"attended":true}`))
		newRouter(svc).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
