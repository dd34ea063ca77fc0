// Package service exposes the one entry point the API layer calls: fetch a
// source's availability through the registry and optionally run it through
// the matching engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"studio-availability-backend/internal/engine"
	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/scrape"
)

// ErrAvailabilityFetch wraps any strategy call-time failure surfaced to the
// caller. Registry lookup failures and validation errors pass through
// unwrapped so the API layer can map them separately.
var ErrAvailabilityFetch = errors.New("availability fetch failed")

// Service orchestrates registry lookup, connector calls and the matching
// engine.
type Service struct {
	registry *scrape.Registry

	// Strategy instances hold session state, so at most one establish+fetch
	// sequence may be in flight per source.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Service over the registry.
func New(registry *scrape.Registry) *Service {
	return &Service{
		registry: registry,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Service) sourceLock(sourceID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sourceID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sourceID] = lock
	}
	return lock
}

// GetAvailability establishes a session with the source and fetches the raw
// room availability for the date.
func (s *Service) GetAvailability(ctx context.Context, sourceID, shopID string, date time.Time) ([]model.RoomAvailability, error) {
	strategy, err := s.registry.Lookup(sourceID)
	if err != nil {
		return nil, err
	}

	lock := s.sourceLock(sourceID)
	lock.Lock()
	defer lock.Unlock()

	if err := strategy.EstablishConnection(ctx, shopID); err != nil {
		return nil, fmt.Errorf("%w: source %q: %w", ErrAvailabilityFetch, sourceID, err)
	}
	rooms, err := strategy.FetchAvailableTimes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%w: source %q: %w", ErrAvailabilityFetch, sourceID, err)
	}
	return rooms, nil
}

// GetMatchingAvailability composes GetAvailability with the matching engine.
// The duration is validated before any network round trip so a bad query
// never costs a scrape.
func (s *Service) GetMatchingAvailability(ctx context.Context, sourceID, shopID string, date time.Time, rng model.DesiredRange, durationHours float64) ([]model.RoomAvailability, error) {
	if durationHours <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %v", model.ErrValidation, durationHours)
	}

	rooms, err := s.GetAvailability(ctx, sourceID, shopID, date)
	if err != nil {
		return nil, err
	}
	return engine.FindAvailable(rooms, rng, durationHours)
}
