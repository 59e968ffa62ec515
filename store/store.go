// Package store persists holding events.
//
// Two implementations of EventStore are provided: MemoryStore, for tests and
// short lived processes, and SQLStore that keeps events in a postgres or sqlite
// database. Stores only keep events, they never validate them against a
// holding: that is the job of the book package.
package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/etnz/costbasis"
	"github.com/google/uuid"
)

// ErrDuplicateEvent is returned when appending an event whose id is already stored.
var ErrDuplicateEvent = errors.New("duplicate event")

// EventStore is an append only log of events, partitioned by asset.
type EventStore interface {
	// Append stores e. It fails with ErrDuplicateEvent if an event with the same id exists.
	Append(ctx context.Context, e costbasis.Event) error
	// Events returns the events of an asset ordered by instant then sequence.
	Events(ctx context.Context, asset costbasis.AssetID) ([]costbasis.Event, error)
	// Assets returns the sorted list of assets with at least one event.
	Assets(ctx context.Context) ([]costbasis.AssetID, error)
}

func checkEvent(e costbasis.Event) error {
	if e == nil {
		return fmt.Errorf("%w: nil event", costbasis.ErrUnknownEvent)
	}
	return nil
}

func compareStored(a, b costbasis.Event) int {
	if c := a.When().Compare(b.When()); c != 0 {
		return c
	}
	return cmp.Compare(a.Meta().Seq, b.Meta().Seq)
}

// MemoryStore is an EventStore held in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	ids    map[uuid.UUID]struct{}
	events map[costbasis.AssetID][]costbasis.Event
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids:    make(map[uuid.UUID]struct{}),
		events: make(map[costbasis.AssetID][]costbasis.Event),
	}
}

func (s *MemoryStore) Append(ctx context.Context, e costbasis.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkEvent(e); err != nil {
		return err
	}
	b := e.Meta()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ids[b.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, b.ID)
	}
	s.ids[b.ID] = struct{}{}
	s.events[b.Asset] = append(s.events[b.Asset], e)
	return nil
}

func (s *MemoryStore) Events(ctx context.Context, asset costbasis.AssetID) ([]costbasis.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	events := slices.Clone(s.events[asset])
	s.mu.RUnlock()
	slices.SortStableFunc(events, compareStored)
	return events, nil
}

func (s *MemoryStore) Assets(ctx context.Context) ([]costbasis.AssetID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	assets := make([]costbasis.AssetID, 0, len(s.events))
	for asset := range s.events {
		assets = append(assets, asset)
	}
	slices.Sort(assets)
	return assets, nil
}
