package waittx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	clientconfig "github.com/todoledger/sdk-go/client/config"
)

type stubSource struct {
	res   Result
	err   error
	calls int
}

func (s *stubSource) Wait(ctx context.Context, txHash string) (Result, error) {
	s.calls++
	return s.res, s.err
}

func TestWaiterPrefersSubscriber(t *testing.T) {
	w := &Waiter{
		poller:     &stubSource{res: Result{Status: 0}},
		subscriber: &stubSource{res: Result{Status: 1}},
		setupDelay: 50 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := w.Wait(ctx, testHash, 0)
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	if res.Status != 1 {
		t.Fatalf("expected subscriber result")
	}
	if w.poller.(*stubSource).calls != 0 {
		t.Fatalf("poller should not be used when subscriber succeeds")
	}
}

func TestWaiterFallsBackToPoller(t *testing.T) {
	poller := &stubSource{res: Result{Status: 1, BlockNumber: 7}}
	sub := &stubSource{err: errors.New("notifications not supported")}

	w := &Waiter{poller: poller, subscriber: sub, setupDelay: 10 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := w.Wait(ctx, testHash, 0)
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	if res.BlockNumber != 7 {
		t.Fatalf("expected poller result")
	}
	if poller.calls == 0 {
		t.Fatalf("poller should have been invoked")
	}
}

func TestWaiterAppliesTimeout(t *testing.T) {
	q := &stubQuerier{receipts: []*ethtypes.Receipt{nil}}
	w, err := New(clientconfig.WaitTxConfig{PollInterval: time.Millisecond, PollBackoffMultiplier: 1}, "", q)
	if err != nil {
		t.Fatalf("new error: %v", err)
	}

	_, err = w.Wait(context.Background(), testHash, 5*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewRequiresQuerier(t *testing.T) {
	if _, err := New(clientconfig.DefaultWaitTxConfig(), "", nil); err == nil {
		t.Fatalf("expected error for nil querier")
	}
}

type fakeHeadClient struct {
	*stubQuerier
	heads  chan<- *ethtypes.Header
	ready  chan struct{}
	closed bool
}

func (f *fakeHeadClient) SubscribeNewHead(ctx context.Context, ch chan<- *ethtypes.Header) (ethereum.Subscription, error) {
	f.heads = ch
	close(f.ready)
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

func (f *fakeHeadClient) Close() { f.closed = true }

func TestSubscriberChecksReceiptOnNewHeads(t *testing.T) {
	fake := &fakeHeadClient{
		stubQuerier: &stubQuerier{receipts: []*ethtypes.Receipt{nil, minedReceipt(ethtypes.ReceiptStatusSuccessful)}},
		ready:       make(chan struct{}),
	}
	sub := newSubscriber("ws://node", func(ctx context.Context, endpoint string) (HeadClient, error) {
		if endpoint != "ws://node" {
			t.Errorf("unexpected endpoint %q", endpoint)
		}
		return fake, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		<-fake.ready
		fake.heads <- &ethtypes.Header{}
	}()

	res, err := sub.Wait(ctx, testHash)
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	if res.Status != ethtypes.ReceiptStatusSuccessful {
		t.Fatalf("unexpected status %d", res.Status)
	}
	if fake.calls != 2 {
		t.Fatalf("expected initial lookup plus one per head, got %d", fake.calls)
	}
	if !fake.closed {
		t.Fatalf("client should be closed after wait")
	}
}

func TestNewWiresSubscriberDialer(t *testing.T) {
	q := &stubQuerier{receipts: []*ethtypes.Receipt{minedReceipt(ethtypes.ReceiptStatusSuccessful)}}
	dialed := false
	w, err := New(clientconfig.DefaultWaitTxConfig(), "ws://localhost:8546", q,
		WithDialer(func(ctx context.Context, endpoint string) (HeadClient, error) {
			dialed = true
			return nil, errors.New("dial refused")
		}))
	if err != nil {
		t.Fatalf("new error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := w.Wait(ctx, testHash, 0)
	if err != nil {
		t.Fatalf("unexpected wait error: %v", err)
	}
	if res.Status != ethtypes.ReceiptStatusSuccessful {
		t.Fatalf("expected poller to deliver the receipt")
	}
	if !dialed {
		t.Fatalf("subscriber dialer was not used")
	}
}
