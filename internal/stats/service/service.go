// Package service computes the public landing-page statistics.
package service

import (
	"context"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	eventstore "volunity/internal/event/store"
	identitystore "volunity/internal/identity/store"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
)

// ConfirmedCounter exposes per-event confirmed registration counts.
type ConfirmedCounter interface {
	CountConfirmedByEvent(ctx context.Context) (map[id.EventID]int, error)
}

// Service computes the public statistics.
type Service struct {
	events   eventstore.EventStore
	users    identitystore.UserStore
	counters ConfirmedCounter
}

// New constructs the stats service.
func New(events eventstore.EventStore, users identitystore.UserStore, counters ConfirmedCounter) *Service {
	return &Service{events: events, users: users, counters: counters}
}

// Public is the anonymous landing-page aggregate.
type Public struct {
	ActiveEvents int `json:"activeEvents"`
	Volunteers   int `json:"volunteers"`
	Cities       int `json:"cities"`
	HoursHelped  int `json:"hoursHelped"`
}

// Compute derives the public statistics. Cities counts distinct first
// comma-separated segments of published events' locations, so
// "Varna, Bulgaria" and "Varna, BG" count once. Hours helped multiplies each
// event's duration by its confirmed registrations, rounding minutes to hours.
func (s *Service) Compute(ctx context.Context) (*Public, error) {
	var (
		published []eventstore.PublishedSummary
		roles     identitystore.RoleCounts
		confirmed map[id.EventID]int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		published, err = s.events.PublishedSummaries(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		roles, err = s.users.CountByRole(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		confirmed, err = s.counters.CountConfirmedByEvent(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load statistics", err)
	}

	cities := make(map[string]struct{})
	minutesHelped := 0
	for _, ev := range published {
		if city := cityOf(ev.Location); city != "" {
			cities[city] = struct{}{}
		}
		minutesHelped += ev.DurationMinutes * confirmed[ev.ID]
	}

	return &Public{
		ActiveEvents: len(published),
		Volunteers:   roles.User,
		Cities:       len(cities),
		HoursHelped:  int(math.Round(float64(minutesHelped) / 60)),
	}, nil
}

func cityOf(location string) string {
	city, _, _ := strings.Cut(location, ",")
	return strings.ToLower(strings.TrimSpace(city))
}
