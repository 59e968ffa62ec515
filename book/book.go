// Package book records events into a store, refusing those that would not
// replay into a valid holding.
package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/store"
)

// ErrUnknownAsset is returned when an asset has no recorded event.
var ErrUnknownAsset = errors.New("unknown asset")

// Book records events and computes holdings from a store.
//
// Writes to the same asset are serialized, writes to different assets are not.
type Book struct {
	store  store.EventStore
	logger *slog.Logger

	mu    sync.Mutex
	locks map[costbasis.AssetID]*sync.Mutex
}

// New returns a Book over s. A nil logger discards logs.
func New(s store.EventStore, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Book{
		store:  s,
		logger: logger,
		locks:  make(map[costbasis.AssetID]*sync.Mutex),
	}
}

// lock acquires the asset lock and returns its release function.
func (b *Book) lock(asset costbasis.AssetID) func() {
	b.mu.Lock()
	l, ok := b.locks[asset]
	if !ok {
		l = new(sync.Mutex)
		b.locks[asset] = l
	}
	b.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// replay computes the holding of asset from its events, its basis currency is
// inferred from the first acquisition.
func replay(asset costbasis.AssetID, events []costbasis.Event) (costbasis.Holding, error) {
	currency, err := costbasis.InferCurrency(events)
	if err != nil {
		return costbasis.Holding{}, fmt.Errorf("cannot infer the basis currency of %s: %w", asset, err)
	}
	return costbasis.ReplayNew(asset, currency, events)
}

// Record stores e if the asset's events, e included, replay without error.
//
// e may be dated before already recorded events: the whole stream is replayed
// in order. It returns the resulting holding.
func (b *Book) Record(ctx context.Context, e costbasis.Event) (costbasis.Holding, error) {
	if e == nil {
		return costbasis.Holding{}, fmt.Errorf("%w: nil event", costbasis.ErrUnknownEvent)
	}
	meta := e.Meta()
	unlock := b.lock(meta.Asset)
	defer unlock()

	events, err := b.store.Events(ctx, meta.Asset)
	if err != nil {
		return costbasis.Holding{}, fmt.Errorf("cannot load events of %s: %w", meta.Asset, err)
	}
	h, err := replay(meta.Asset, append(events, e))
	if err != nil {
		b.logger.Warn("event rejected", "asset", meta.Asset, "id", meta.ID, "type", e.What(), "error", err)
		return costbasis.Holding{}, err
	}
	if err := b.store.Append(ctx, e); err != nil {
		return costbasis.Holding{}, fmt.Errorf("cannot store event %s: %w", meta.ID, err)
	}
	b.logger.Info("event recorded", "asset", meta.Asset, "id", meta.ID, "type", e.What(), "quantity", h.Quantity())
	return h, nil
}

// Holding replays the recorded events of asset.
func (b *Book) Holding(ctx context.Context, asset costbasis.AssetID) (costbasis.Holding, error) {
	events, err := b.store.Events(ctx, asset)
	if err != nil {
		return costbasis.Holding{}, fmt.Errorf("cannot load events of %s: %w", asset, err)
	}
	if len(events) == 0 {
		return costbasis.Holding{}, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	return replay(asset, events)
}

// Holdings replays every recorded asset, sorted by asset.
func (b *Book) Holdings(ctx context.Context) ([]costbasis.Holding, error) {
	assets, err := b.store.Assets(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot list assets: %w", err)
	}
	holdings := make([]costbasis.Holding, 0, len(assets))
	for _, asset := range assets {
		h, err := b.Holding(ctx, asset)
		if err != nil {
			return holdings, err
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

// RecordAll records events in replay order and stops at the first failure.
// It returns the number of events recorded.
func (b *Book) RecordAll(ctx context.Context, events []costbasis.Event) (int, error) {
	ordered, err := costbasis.Order(events)
	if err != nil {
		return 0, err
	}
	for i, e := range ordered {
		if _, err := b.Record(ctx, e); err != nil {
			return i, err
		}
	}
	return len(ordered), nil
}
