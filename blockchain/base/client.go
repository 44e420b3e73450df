package base

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	clientconfig "github.com/todoledger/sdk-go/client/config"
	waittx "github.com/todoledger/sdk-go/internal/wait-tx"
	"github.com/todoledger/sdk-go/types"
)

// Backend is the JSON-RPC surface the SDK needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	Close()
}

// Client provides common EVM JSON-RPC and receipt helpers.
type Client struct {
	backend Backend
	config  Config
	waiter  *waittx.Waiter
}

// New dials the JSON-RPC endpoint and prepares the receipt waiter.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.RPCEndpoint == "" {
		return nil, fmt.Errorf("%w: rpc endpoint is required", types.ErrInvalidConfig)
	}
	eth, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rpc: %w", err)
	}
	c, err := NewWithBackend(cfg, eth)
	if err != nil {
		eth.Close()
		return nil, err
	}
	return c, nil
}

// NewWithBackend wires an existing backend, e.g. a simulated chain or a test fake.
func NewWithBackend(cfg Config, backend Backend, opts ...waittx.Option) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	clientconfig.ApplyWaitTxDefaults(&cfg.WaitTx)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	waiter, err := waittx.New(cfg.WaitTx, cfg.WSEndpoint, backend, opts...)
	if err != nil {
		return nil, fmt.Errorf("init tx waiter: %w", err)
	}
	return &Client{backend: backend, config: cfg, waiter: waiter}, nil
}

// Close closes the underlying RPC connection.
func (c *Client) Close() error {
	if c.backend != nil {
		c.backend.Close()
	}
	return nil
}

// Backend exposes the JSON-RPC backend for contract bindings.
func (c *Client) Backend() Backend {
	return c.backend
}

// Config returns the connection settings.
func (c *Client) Config() Config {
	return c.config
}

// ChainID asks the node which chain it serves and checks it against the
// configured expectation.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("query chain id: %w", err)
	}
	if !id.IsUint64() {
		return 0, fmt.Errorf("%w: chain id %s out of range", types.ErrUnsupportedNetwork, id)
	}
	got := id.Uint64()
	if c.config.ChainID != 0 && got != c.config.ChainID {
		return 0, fmt.Errorf("%w: node reports chain %d, configured %d", types.ErrUnsupportedNetwork, got, c.config.ChainID)
	}
	return got, nil
}

// TransactionReceipt fetches a receipt. A pending tx yields ethereum.NotFound.
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	r, err := c.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	out := &types.Receipt{TxHash: r.TxHash.Hex(), Status: r.Status, GasUsed: r.GasUsed}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	return out, nil
}

// WaitForReceipt blocks until the tx is mined or timeout elapses. Running
// out of budget while ctx is still live wraps types.ErrTimedOut.
func (c *Client) WaitForReceipt(ctx context.Context, txHash string, timeout time.Duration) (*types.Receipt, error) {
	res, err := c.waiter.Wait(ctx, txHash, timeout)
	if err != nil {
		if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, waittx.ErrPollExhausted)) {
			return nil, fmt.Errorf("%w: %w", types.ErrTimedOut, err)
		}
		return nil, err
	}
	return &types.Receipt{
		TxHash:      res.TxHash,
		Status:      res.Status,
		BlockNumber: res.BlockNumber,
		GasUsed:     res.GasUsed,
	}, nil
}
