package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cosmos/cosmos-sdk/crypto/keyring"

	"github.com/todoledger/sdk-go/blockchain"
	"github.com/todoledger/sdk-go/blockchain/base"
	sdkcrypto "github.com/todoledger/sdk-go/pkg/crypto"
	sdklog "github.com/todoledger/sdk-go/pkg/log"
	"github.com/todoledger/sdk-go/tracker"
	"github.com/todoledger/sdk-go/tracker/event"
	"github.com/todoledger/sdk-go/types"
)

// Client provides unified access to the todo ledger: submission,
// confirmation tracking and the refreshed record view.
type Client struct {
	// High-level modules
	Blockchain *blockchain.Client
	Submitter  *tracker.Submitter
	Tracker    *tracker.ConfirmationTracker
	Refresher  *tracker.Refresher

	bus     *tracker.Bus
	network types.NetworkContext

	// Configuration
	config  *Config
	keyring keyring.Keyring
	logger  sdklog.Logger
}

// New creates a new unified client. A KeyName missing from kr is not fatal:
// reads keep working and writes fail with types.ErrSigningUnavailable.
func New(ctx context.Context, cfg Config, kr keyring.Keyring, opts ...Option) (*Client, error) {
	// Apply options
	for _, opt := range opts {
		opt(&cfg)
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := loggerOrNoop(cfg.Logger)

	blockchainClient, err := blockchain.New(ctx, blockchainConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blockchain client: %w", err)
	}

	var signer types.SigningIdentity
	if kr != nil && cfg.KeyName != "" {
		ks, err := sdkcrypto.NewKeyringSigner(kr, cfg.KeyName)
		if err != nil {
			sdklog.Warnf(logger, "signer %q unavailable, client is read-only: %v", cfg.KeyName, err)
		} else {
			signer = ks
		}
	}

	c, err := assemble(ctx, cfg, blockchainClient, signer, logger)
	if err != nil {
		if closeErr := blockchainClient.Close(); closeErr != nil {
			return nil, fmt.Errorf("%w; also failed to close blockchain client: %v", err, closeErr)
		}
		return nil, err
	}
	c.keyring = kr
	return c, nil
}

// NewWithBackend builds a client over an existing JSON-RPC backend and signer,
// e.g. a simulated chain. signer may be nil for a read-only client.
func NewWithBackend(ctx context.Context, cfg Config, backend base.Backend, signer types.SigningIdentity, opts ...Option) (*Client, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	blockchainClient, err := blockchain.NewWithBackend(blockchainConfig(cfg), backend)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blockchain client: %w", err)
	}
	return assemble(ctx, cfg, blockchainClient, signer, loggerOrNoop(cfg.Logger))
}

func assemble(ctx context.Context, cfg Config, bc *blockchain.Client, signer types.SigningIdentity, logger sdklog.Logger) (*Client, error) {
	network, err := bc.NetworkContext(ctx, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve network: %w", err)
	}
	chains := types.NewChainSet(cfg.SupportedChains...)
	if !chains.Supports(network.ChainID) {
		sdklog.Warnf(logger, "node serves unsupported chain %d; writes and reads will be refused", network.ChainID)
	}

	bus := tracker.NewBus()
	history := tracker.WithHistorySize(cfg.HistorySize)
	submitter, err := tracker.NewSubmitter(bc, chains, bus, logger, history)
	if err != nil {
		return nil, err
	}
	confirm, err := tracker.NewConfirmationTracker(bc, bus, logger, cfg.ConfirmTimeout, history)
	if err != nil {
		return nil, err
	}
	refresher, err := tracker.NewRefresher(bc, tracker.NewRecordCache(), chains, network, bus, logger)
	if err != nil {
		return nil, err
	}
	confirm.OnConfirmed(refresher)

	return &Client{
		Blockchain: bc,
		Submitter:  submitter,
		Tracker:    confirm,
		Refresher:  refresher,
		bus:        bus,
		network:    network,
		config:     &cfg,
		logger:     logger,
	}, nil
}

func blockchainConfig(cfg Config) blockchain.Config {
	return blockchain.Config{
		Config: base.Config{
			ChainID:     cfg.ChainID,
			RPCEndpoint: cfg.RPCEndpoint,
			WSEndpoint:  cfg.WSEndpoint,
			Timeout:     cfg.BlockchainTimeout,
			GasLimit:    cfg.GasLimit,
			WaitTx:      cfg.WaitTx,
		},
		ContractAddress: cfg.ContractAddress,
	}
}

func loggerOrNoop(l sdklog.Logger) sdklog.Logger {
	if l == nil {
		return sdklog.NoopLogger{}
	}
	return l
}

// Network returns the chain and signer the client acts with.
func (c *Client) Network() types.NetworkContext {
	return c.network
}

// Submit dispatches req without waiting for confirmation.
func (c *Client) Submit(ctx context.Context, req types.WriteRequest) (types.TransactionHandle, error) {
	return c.Submitter.Submit(ctx, req, c.network)
}

// Await resolves handle. A non-positive timeout uses Config.ConfirmTimeout.
func (c *Client) Await(ctx context.Context, handle types.TransactionHandle, timeout time.Duration) (types.Confirmation, error) {
	return c.Tracker.Await(ctx, handle, timeout)
}

// CreateRecord submits a new record, waits for it to be mined and returns the
// refreshed record view. Reverted and timed out writes return the partial
// result together with types.ErrReverted or types.ErrTimedOut.
func (c *Client) CreateRecord(ctx context.Context, title, description string) (*types.CreateResult, error) {
	req := types.NewCreateRecordRequest(title, description)
	handle, err := c.Submit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submit create record: %w", err)
	}

	result := &types.CreateResult{Handle: handle}
	conf, err := c.Await(ctx, handle, c.config.ConfirmTimeout)
	result.Confirmation = conf
	result.Records = c.Records()
	if err != nil {
		return result, fmt.Errorf("await %s: %w", handle, err)
	}
	if outcomeErr := conf.Outcome.Err(); outcomeErr != nil {
		return result, fmt.Errorf("tx %s: %w", handle, outcomeErr)
	}
	return result, nil
}

// Records returns the last refreshed record view.
func (c *Client) Records() []types.RecordView {
	return c.Refresher.Cache().Records()
}

// Refresh re-reads all records from the ledger.
func (c *Client) Refresh(ctx context.Context) ([]types.RecordView, error) {
	return c.Refresher.Refresh(ctx)
}

// Subscribe registers handler for one lifecycle event type.
func (c *Client) Subscribe(t event.EventType, handler event.Handler) {
	c.bus.Subscribe(t, handler)
}

// SubscribeAll registers handler for every lifecycle event.
func (c *Client) SubscribeAll(handler event.Handler) {
	c.bus.SubscribeAll(handler)
}

// Close releases all resources
func (c *Client) Close() error {
	var errs []error

	if c.Blockchain != nil {
		if err := c.Blockchain.Close(); err != nil {
			errs = append(errs, fmt.Errorf("blockchain close: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Config returns the client configuration
func (c *Client) Config() Config {
	return *c.config
}
