package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/todoledger/sdk-go/blockchain"
	"github.com/todoledger/sdk-go/client"
	"github.com/todoledger/sdk-go/internal/testchain"
	sdkcrypto "github.com/todoledger/sdk-go/pkg/crypto"
	sdklog "github.com/todoledger/sdk-go/pkg/log"
	"github.com/todoledger/sdk-go/types"
)

const devPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func startServer(t *testing.T, chain *testchain.Chain, signer types.SigningIdentity) *Client {
	t.Helper()

	svc, err := client.NewWithBackend(context.Background(), client.Config{
		RPCEndpoint:     "http://simulated",
		ContractAddress: testchain.ContractAddress,
		ConfirmTimeout:  time.Second,
		WaitTx: client.WaitTxConfig{
			PollInterval:          time.Millisecond,
			PollBackoffMultiplier: 1,
		},
	}, chain, signer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryLogger(sdklog.NoopLogger{})))
	RegisterTrackerServer(srv, &Server{Service: svc})
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
	c, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(dialer))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	c.Timeout = 2 * time.Second
	return c
}

func devSigner(t *testing.T) types.SigningIdentity {
	t.Helper()
	s, err := sdkcrypto.NewPrivateKeySigner(devPrivateKey)
	require.NoError(t, err)
	return s
}

func TestTrackerCreateAwaitList(t *testing.T) {
	chain := testchain.New(types.ChainLocalDev)
	c := startServer(t, chain, devSigner(t))
	ctx := context.Background()

	handle, err := c.Create(ctx, "req-1", "Buy milk", "2L")
	require.NoError(t, err)
	assert.Equal(t, "req-1", handle.RequestID())
	assert.NotEmpty(t, handle.TxHash())

	again, err := c.Create(ctx, "req-1", "Buy milk", "2L")
	require.NoError(t, err)
	assert.Equal(t, handle, again)
	assert.Equal(t, 1, chain.Sent())

	_, err = c.Create(ctx, "req-1", "Buy bread", "2L")
	require.ErrorIs(t, err, types.ErrInvalidRequest, "reused id with another title")
	_, err = c.Create(ctx, "req-1", "Buy milk", "1L")
	require.ErrorIs(t, err, types.ErrInvalidRequest, "reused id with another description")
	assert.Equal(t, 1, chain.Sent())

	conf, err := c.Await(ctx, handle, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeTimedOut, conf.Outcome)

	require.NoError(t, chain.MineAll())
	conf, err = c.Await(ctx, handle, time.Second)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeConfirmed, conf.Outcome)
	assert.NotZero(t, conf.BlockNumber)

	records, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.RecordView{{Title: "Buy milk", Description: "2L"}}, records)
}

func TestTrackerErrorsKeepCategories(t *testing.T) {
	chain := testchain.New(types.ChainLocalDev)
	c := startServer(t, chain, nil)
	ctx := context.Background()

	_, err := c.Create(ctx, "", "", "")
	require.ErrorIs(t, err, types.ErrInvalidRequest)

	_, err = c.Create(ctx, "", "title", "")
	require.ErrorIs(t, err, types.ErrSigningUnavailable)

	_, err = c.Await(ctx, types.TransactionHandle{}, time.Millisecond)
	require.ErrorIs(t, err, types.ErrInvalidRequest)
}

func TestTrackerRefresh(t *testing.T) {
	chain := testchain.New(types.ChainLocalDev)
	chain.Seed(blockchain.TodoItem{Title: "seeded", IsCompleted: true})
	c := startServer(t, chain, nil)

	records, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.RecordView{{Title: "seeded", Completed: true}}, records)
}

func TestTrackerUnsupportedChain(t *testing.T) {
	c := startServer(t, testchain.New(56), devSigner(t))

	_, err := c.Create(context.Background(), "", "title", "")
	require.ErrorIs(t, err, types.ErrUnsupportedNetwork)
	_, err = c.Refresh(context.Background())
	require.ErrorIs(t, err, types.ErrUnsupportedNetwork)
}

func TestServerWithoutService(t *testing.T) {
	var s *Server
	_, err := s.List(context.Background(), nil)
	require.Error(t, err)
}

func TestAwaitFailureKeepsCategory(t *testing.T) {
	err := mapRPC(mapErr(fmt.Errorf("%w: %w", types.ErrAwaitFailed, errors.New("node down"))))
	require.ErrorIs(t, err, types.ErrAwaitFailed)
	assert.Contains(t, err.Error(), "node down")
}
