package tracker

import (
	"context"
	"fmt"

	sdklog "github.com/todoledger/sdk-go/pkg/log"
	"github.com/todoledger/sdk-go/tracker/event"
	"github.com/todoledger/sdk-go/types"
)

// Refresher re-reads the full record sequence and replaces the cache. It is
// registered with a ConfirmationTracker so every Confirmed handle triggers
// exactly one refresh.
type Refresher struct {
	reader  Reader
	cache   *RecordCache
	chains  types.ChainSet
	network types.NetworkContext
	bus     *Bus
	logger  sdklog.Logger
}

// NewRefresher creates a Refresher reading on behalf of network.
func NewRefresher(reader Reader, cache *RecordCache, chains types.ChainSet, network types.NetworkContext, bus *Bus, logger sdklog.Logger) (*Refresher, error) {
	if reader == nil {
		return nil, fmt.Errorf("record reader is required")
	}
	if cache == nil {
		cache = NewRecordCache()
	}
	if logger == nil {
		logger = sdklog.NoopLogger{}
	}
	return &Refresher{
		reader:  reader,
		cache:   cache,
		chains:  chains,
		network: network,
		bus:     bus,
		logger:  logger,
	}, nil
}

// Cache returns the cache the refresher writes to.
func (r *Refresher) Cache() *RecordCache { return r.cache }

// OnConfirmed implements ConfirmedSubscriber.
func (r *Refresher) OnConfirmed(ctx context.Context, c types.Confirmation) error {
	sdklog.Debugf(r.logger, "refreshing records after %s", c.Handle.TxHash())
	_, err := r.refresh(ctx, r.network, c.Handle)
	return err
}

// Refresh reads all records on the refresher's network.
func (r *Refresher) Refresh(ctx context.Context) ([]types.RecordView, error) {
	return r.refresh(ctx, r.network, types.TransactionHandle{})
}

// FetchAll reads all records for nc and replaces the cache. An unsupported
// chain fails without contacting the ledger.
func (r *Refresher) FetchAll(ctx context.Context, nc types.NetworkContext) ([]types.RecordView, error) {
	return r.refresh(ctx, nc, types.TransactionHandle{})
}

func (r *Refresher) refresh(ctx context.Context, nc types.NetworkContext, cause types.TransactionHandle) ([]types.RecordView, error) {
	if !r.chains.Supports(nc.ChainID) {
		err := fmt.Errorf("%w: chain %d", types.ErrUnsupportedNetwork, nc.ChainID)
		r.fail(ctx, cause, err)
		return nil, err
	}

	ticket := r.cache.Ticket()
	records, err := r.reader.GetAllRecords(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", types.ErrRead, err)
		r.fail(ctx, cause, err)
		return nil, err
	}

	applied, changed := r.cache.Replace(ticket, records)
	if !applied {
		// A newer read already landed; hand back that view instead.
		sdklog.Debugf(r.logger, "dropping stale record read %d (%d records)", ticket, len(records))
		records = r.cache.Records()
	} else {
		sdklog.Debugf(r.logger, "record view refreshed: %d records, changed=%t", len(records), changed)
	}
	r.bus.Emit(ctx, event.Event{
		Type:      event.RecordsRefreshed,
		RequestID: cause.RequestID(),
		TxHash:    cause.TxHash(),
		Data: event.EventData{
			event.KeyChainID: nc.ChainID,
			event.KeyCount:   len(records),
			event.KeyChanged: changed,
			event.KeyStale:   !applied,
		},
	})
	return types.CloneRecords(records), nil
}

func (r *Refresher) fail(ctx context.Context, cause types.TransactionHandle, err error) {
	sdklog.Warnf(r.logger, "record refresh failed: %v", err)
	r.bus.Emit(ctx, event.Event{
		Type:      event.Error,
		RequestID: cause.RequestID(),
		TxHash:    cause.TxHash(),
		Data: event.EventData{
			event.KeyError:   err,
			event.KeyPhase:   "refresh",
			event.KeyMessage: userMessage(err),
		},
	})
}
