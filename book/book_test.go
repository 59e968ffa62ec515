package book

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day0 = time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)
	shop = costbasis.AssetID("CA82509L1076.XTSE")
	aapl = costbasis.AssetID("US0378331005.XNAS")
)

func base(asset costbasis.AssetID, day int, seq int64) costbasis.Base {
	return costbasis.NewBase(asset, day0.AddDate(0, 0, day), seq)
}

func TestBook_Record(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	s := store.NewMemoryStore()
	b := New(s, slog.New(slog.NewTextHandler(&logs, nil)))

	h, err := b.Record(ctx, costbasis.NewAcquisition(base(shop, 0, 0), costbasis.Q(10), costbasis.P(100, "CAD")))
	require.NoError(t, err)
	assert.True(t, h.Quantity().Equal(costbasis.Q(10)))

	// recorded in the past, the stream is replayed in order.
	h, err = b.Record(ctx, costbasis.NewAcquisition(base(shop, -1, 0), costbasis.Q(5), costbasis.P(40, "CAD")))
	require.NoError(t, err)
	assert.True(t, h.Quantity().Equal(costbasis.Q(15)))
	assert.True(t, h.CostBasis().Equal(costbasis.M(1200, "CAD")))
	assert.Contains(t, logs.String(), "event recorded")

	oversell := costbasis.NewDisposal(base(shop, 1, 0), costbasis.Q(16), costbasis.P(120, "CAD"))
	_, err = b.Record(ctx, oversell)
	assert.ErrorIs(t, err, costbasis.ErrInsufficientQuantity)
	assert.Contains(t, logs.String(), "event rejected")

	events, err := s.Events(ctx, shop)
	require.NoError(t, err)
	assert.Len(t, events, 2, "a rejected event must not be stored")
}

func TestBook_RecordWithoutAcquisition(t *testing.T) {
	b := New(store.NewMemoryStore(), nil)
	_, err := b.Record(context.Background(), costbasis.NewDividendCashPayment(base(shop, 0, 0), costbasis.P(1, "CAD")))
	assert.ErrorIs(t, err, costbasis.ErrNoPosition)

	_, err = b.Record(context.Background(), nil)
	assert.ErrorIs(t, err, costbasis.ErrUnknownEvent)
}

func TestBook_RecordDuplicate(t *testing.T) {
	b := New(store.NewMemoryStore(), nil)
	buy := costbasis.NewAcquisition(base(shop, 0, 0), costbasis.Q(10), costbasis.P(100, "CAD"))
	_, err := b.Record(context.Background(), buy)
	require.NoError(t, err)

	// the replay itself refuses the second occurrence of an id.
	_, err = b.Record(context.Background(), buy)
	assert.Error(t, err)
}

func TestBook_Holdings(t *testing.T) {
	ctx := context.Background()
	b := New(store.NewMemoryStore(), nil)
	n, err := b.RecordAll(ctx, []costbasis.Event{
		costbasis.NewDisposal(base(shop, 1, 0), costbasis.Q(4), costbasis.P(110, "CAD")),
		costbasis.NewAcquisition(base(aapl, 0, 0), costbasis.Q(3), costbasis.P(200, "USD")),
		costbasis.NewAcquisition(base(shop, 0, 0), costbasis.Q(10), costbasis.P(100, "CAD")),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	holdings, err := b.Holdings(ctx)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, shop, holdings[0].Asset())
	assert.True(t, holdings[0].Quantity().Equal(costbasis.Q(6)))
	assert.True(t, holdings[0].Realized().Equal(costbasis.M(40, "CAD")))
	assert.Equal(t, aapl, holdings[1].Asset())
	assert.Equal(t, "USD", holdings[1].Currency())

	_, err = b.Holding(ctx, "US5949181045.XNAS")
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestBook_RecordAllStops(t *testing.T) {
	ctx := context.Background()
	b := New(store.NewMemoryStore(), nil)
	n, err := b.RecordAll(ctx, []costbasis.Event{
		costbasis.NewAcquisition(base(shop, 0, 0), costbasis.Q(10), costbasis.P(100, "CAD")),
		costbasis.NewDisposal(base(shop, 1, 0), costbasis.Q(11), costbasis.P(110, "CAD")),
		costbasis.NewAcquisition(base(shop, 2, 0), costbasis.Q(10), costbasis.P(100, "CAD")),
	})
	assert.ErrorIs(t, err, costbasis.ErrInsufficientQuantity)
	assert.Equal(t, 1, n)
}

func TestBook_ConcurrentRecords(t *testing.T) {
	ctx := context.Background()
	b := New(store.NewMemoryStore(), nil)

	var wg sync.WaitGroup
	for i := range 20 {
		for _, asset := range []costbasis.AssetID{shop, aapl} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := b.Record(ctx, costbasis.NewAcquisition(base(asset, 0, int64(i)), costbasis.Q(1), costbasis.P(10, "USD")))
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	holdings, err := b.Holdings(ctx)
	require.NoError(t, err)
	for _, h := range holdings {
		assert.True(t, h.Quantity().Equal(costbasis.Q(20)), "%s holds %v", h.Asset(), h.Quantity())
	}
}
