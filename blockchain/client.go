package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/todoledger/sdk-go/blockchain/base"
	waittx "github.com/todoledger/sdk-go/internal/wait-tx"
	"github.com/todoledger/sdk-go/types"
)

// Config for blockchain client
type Config struct {
	base.Config
	ContractAddress string
}

// Client provides access to the todo ledger
type Client struct {
	*base.Client

	// Contract bindings
	Todo *TodoContract

	config Config
}

// New creates a new blockchain client
func New(ctx context.Context, cfg Config) (*Client, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("%w: contract address %q", types.ErrInvalidConfig, cfg.ContractAddress)
	}
	baseClient, err := base.New(ctx, cfg.Config)
	if err != nil {
		return nil, err
	}
	return newClient(cfg, baseClient), nil
}

// NewWithBackend creates a client over an existing backend.
func NewWithBackend(cfg Config, backend base.Backend, opts ...waittx.Option) (*Client, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("%w: contract address %q", types.ErrInvalidConfig, cfg.ContractAddress)
	}
	baseClient, err := base.NewWithBackend(cfg.Config, backend, opts...)
	if err != nil {
		return nil, err
	}
	return newClient(cfg, baseClient), nil
}

func newClient(cfg Config, baseClient *base.Client) *Client {
	return &Client{
		Client: baseClient,
		Todo:   NewTodoContract(common.HexToAddress(cfg.ContractAddress), baseClient.Backend()),
		config: cfg,
	}
}

// NetworkContext pairs the node's chain id with signer.
func (c *Client) NetworkContext(ctx context.Context, signer types.SigningIdentity) (types.NetworkContext, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return types.NetworkContext{}, err
	}
	return types.NetworkContext{ChainID: chainID, Signer: signer}, nil
}
