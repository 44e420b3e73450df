package tracker

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todoledger/sdk-go/tracker/event"
	"github.com/todoledger/sdk-go/types"
)

func TestRecordCacheReplace(t *testing.T) {
	c := NewRecordCache()
	assert.Zero(t, c.Version())
	assert.Empty(t, c.Records())

	records := []types.RecordView{{Title: "a"}, {Title: "b", Completed: true}}
	applied, changed := c.Replace(c.Ticket(), records)
	assert.True(t, applied)
	assert.True(t, changed)
	applied, changed = c.Replace(c.Ticket(), records)
	assert.True(t, applied)
	assert.False(t, changed, "same content is not a change")
	assert.Equal(t, uint64(2), c.Version())

	records[0].Title = "mutated"
	got := c.Records()
	assert.Equal(t, "a", got[0].Title)
	got[1].Title = "also mutated"
	assert.Equal(t, "b", c.Records()[1].Title)

	snap := c.Snapshot()
	assert.Len(t, snap.Digest, 32)
	assert.False(t, snap.UpdatedAt.IsZero())
	assert.Equal(t, uint64(2), snap.Version)
}

func TestRecordCacheIgnoresOlderTickets(t *testing.T) {
	c := NewRecordCache()
	older, newer := c.Ticket(), c.Ticket()

	applied, _ := c.Replace(newer, []types.RecordView{{Title: "new"}})
	require.True(t, applied)
	applied, changed := c.Replace(older, []types.RecordView{{Title: "old"}})
	assert.False(t, applied)
	assert.False(t, changed)
	assert.Equal(t, []types.RecordView{{Title: "new"}}, c.Records())
	assert.Equal(t, uint64(1), c.Version())
}

// gatedReader blocks its first read until released and serves later reads
// immediately.
type gatedReader struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	first   []types.RecordView
	later   []types.RecordView
}

func (g *gatedReader) GetAllRecords(ctx context.Context) ([]types.RecordView, error) {
	if g.calls.Add(1) == 1 {
		g.entered <- struct{}{}
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return types.CloneRecords(g.first), nil
	}
	return types.CloneRecords(g.later), nil
}

func TestOverlappingRefreshKeepsNewestRead(t *testing.T) {
	ctx := context.Background()
	want := []types.RecordView{{Title: "old"}, {Title: "new"}}
	reader := &gatedReader{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		first:   []types.RecordView{{Title: "old"}},
		later:   want,
	}
	bus := NewBus()
	rec := &recorder{}
	bus.Subscribe(event.RecordsRefreshed, rec.handle)
	r, err := NewRefresher(reader, nil, types.NewChainSet(types.DefaultChainIDs()...), localNet, bus, nil)
	require.NoError(t, err)

	type result struct {
		records []types.RecordView
		err     error
	}
	slow := make(chan result, 1)
	go func() {
		records, err := r.Refresh(ctx)
		slow <- result{records, err}
	}()
	<-reader.entered

	records, err := r.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, records)

	close(reader.release)
	res := <-slow
	require.NoError(t, res.err)
	assert.Equal(t, want, res.records, "a stale read hands back the newer view")
	assert.Equal(t, want, r.Cache().Records())
	assert.Equal(t, uint64(1), r.Cache().Version())

	require.Len(t, rec.events, 2)
	assert.Equal(t, false, rec.events[0].Data[event.KeyStale])
	assert.Equal(t, true, rec.events[1].Data[event.KeyStale])
}

func TestRefresherFetchAllChecksNetwork(t *testing.T) {
	h := newHarness()

	_, err := h.refresher.FetchAll(context.Background(), types.NetworkContext{ChainID: 137})
	require.ErrorIs(t, err, types.ErrUnsupportedNetwork)
	assert.Zero(t, h.ledger.reads.Load())

	h.ledger.records = []types.RecordView{{Title: "seed"}}
	records, err := h.refresher.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, h.ledger.records, records)
	assert.Equal(t, records, h.refresher.Cache().Records())
}

func TestBusDeliversTypedThenAll(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.SubscribeAll(func(context.Context, event.Event) { order = append(order, "all") })
	bus.Subscribe(event.Confirmed, func(context.Context, event.Event) { order = append(order, "confirmed") })
	bus.Subscribe(event.Reverted, func(context.Context, event.Event) { order = append(order, "reverted") })

	bus.Emit(context.Background(), event.Event{Type: event.Confirmed})
	assert.Equal(t, []string{"confirmed", "all"}, order)

	var nilBus *Bus
	nilBus.Emit(context.Background(), event.Event{Type: event.Error})
}

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	h := newHarness()
	h.bus.SubscribeAll(m.Observe)

	handle, err := h.submitter.Submit(context.Background(), types.NewCreateRecordRequest("m", ""), localNet)
	require.NoError(t, err)
	h.ledger.mine(handle.TxHash(), 1)
	_, err = h.tracker.Await(context.Background(), handle, 0)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.events.WithLabelValues(string(event.Confirmed))))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.records))
	assert.Equal(t, float64(21000), testutil.ToFloat64(m.gasUsed))

	_, err = NewMetrics(reg)
	require.Error(t, err, "duplicate registration")
}

func TestEventTerminal(t *testing.T) {
	assert.True(t, event.Confirmed.Terminal())
	assert.True(t, event.Reverted.Terminal())
	assert.False(t, event.TimedOut.Terminal(), "timed out is provisional")
	assert.False(t, event.Started.Terminal())
	assert.False(t, event.RecordsRefreshed.Terminal())
}
