package client

import (
	"time"

	sdklog "github.com/todoledger/sdk-go/pkg/log"
)

// Option is a function that modifies Config
type Option func(*Config)

// WithChainID sets the expected chain ID
func WithChainID(chainID uint64) Option {
	return func(c *Config) {
		c.ChainID = chainID
	}
}

// WithRPCEndpoint sets the JSON-RPC endpoint
func WithRPCEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.RPCEndpoint = endpoint
	}
}

// WithWSEndpoint sets the websocket endpoint used for head subscriptions
func WithWSEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.WSEndpoint = endpoint
	}
}

// WithContractAddress sets the Todo contract address
func WithContractAddress(addr string) Option {
	return func(c *Config) {
		c.ContractAddress = addr
	}
}

// WithKeyName selects the keyring key used for signing
func WithKeyName(name string) Option {
	return func(c *Config) {
		c.KeyName = name
	}
}

// WithSupportedChains replaces the chain allow-list
func WithSupportedChains(chainIDs ...uint64) Option {
	return func(c *Config) {
		c.SupportedChains = append([]uint64{}, chainIDs...)
	}
}

// WithBlockchainTimeout sets the per-RPC timeout
func WithBlockchainTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.BlockchainTimeout = timeout
	}
}

// WithConfirmTimeout sets how long CreateRecord waits for a receipt
func WithConfirmTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ConfirmTimeout = timeout
	}
}

// WithGasLimit pins the gas limit for writes
func WithGasLimit(limit uint64) Option {
	return func(c *Config) {
		c.GasLimit = limit
	}
}

// WithHistorySize caps how many settled requests and outcomes are remembered
func WithHistorySize(n int) Option {
	return func(c *Config) {
		c.HistorySize = n
	}
}

// WithWaitTx replaces the receipt wait settings
func WithWaitTx(waitTx WaitTxConfig) Option {
	return func(c *Config) {
		c.WaitTx = waitTx
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger sdklog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
