package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	sdklog "github.com/todoledger/sdk-go/pkg/log"
	"github.com/todoledger/sdk-go/types"
)

// Config holds all configuration for the todo ledger client.
type Config struct {
	// Ledger connection
	ChainID         uint64 `yaml:"chain_id"`         // expected chain; 0 accepts whatever the node reports
	RPCEndpoint     string `yaml:"rpc_endpoint"`     // JSON-RPC endpoint used for calls and receipts
	WSEndpoint      string `yaml:"ws_endpoint"`      // websocket endpoint for head subscriptions (optional)
	ContractAddress string `yaml:"contract_address"` // deployed Todo contract

	// Account settings
	KeyName string        `yaml:"key_name"` // Key name in keyring
	Keyring KeyringConfig `yaml:"keyring"`

	// SupportedChains overrides the default chain allow-list.
	SupportedChains []uint64 `yaml:"supported_chains"`

	// Timeouts
	BlockchainTimeout time.Duration `yaml:"blockchain_timeout"`
	ConfirmTimeout    time.Duration `yaml:"confirm_timeout"`

	// GasLimit pins the gas for writes (0 => estimate per call).
	GasLimit uint64 `yaml:"gas_limit"`

	// HistorySize caps remembered requests and outcomes (0 => 4096).
	HistorySize int `yaml:"history_size"`

	// WaitTx controls transaction confirmation behaviour.
	WaitTx WaitTxConfig `yaml:"wait_tx"`

	// Logger is optional; when set, SDK operations emit diagnostics.
	Logger sdklog.Logger `yaml:"-"`
}

// KeyringConfig selects the cosmos keyring holding signing keys.
type KeyringConfig struct {
	AppName string `yaml:"app_name"`
	Backend string `yaml:"backend"` // os | file | test | memory
	Dir     string `yaml:"dir"`
}

// WaitTxConfig configures how the SDK waits for transaction inclusion.
type WaitTxConfig struct {
	// SubscriberSetupTimeout defines how long we wait for the head subscription to report the receipt.
	SubscriberSetupTimeout time.Duration `yaml:"subscriber_setup_timeout"`

	// Polling is a fallback mechanism when a websocket subscription is not available.
	// PollInterval controls how frequently the fallback poller queries the receipt.
	PollInterval time.Duration `yaml:"poll_interval"`
	// PollMaxRetries limits the number of poll attempts before failing (0 => unlimited until ctx deadline).
	PollMaxRetries int `yaml:"poll_max_retries"`
	// PollBackoffMultiplier > 1 enables exponential growth for poll intervals.
	PollBackoffMultiplier float64 `yaml:"poll_backoff_multiplier"`
	// PollBackoffMaxInterval caps the exponential backoff delay (0 => unlimited).
	PollBackoffMaxInterval time.Duration `yaml:"poll_backoff_max_interval"`
	// PollBackoffJitter randomizes delays (0..1) to avoid synced retries.
	PollBackoffJitter float64 `yaml:"poll_backoff_jitter"`
}

// Validate checks if the configuration is valid and populates defaults.
func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("%w: rpc_endpoint is required", types.ErrInvalidConfig)
	}
	if c.ContractAddress == "" {
		return fmt.Errorf("%w: contract_address is required", types.ErrInvalidConfig)
	}
	if !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("%w: contract_address %q is not a hex address", types.ErrInvalidConfig, c.ContractAddress)
	}
	if c.WSEndpoint != "" && !strings.HasPrefix(c.WSEndpoint, "ws") {
		return fmt.Errorf("%w: ws_endpoint must use ws:// or wss://", types.ErrInvalidConfig)
	}

	// Set defaults
	if c.BlockchainTimeout == 0 {
		c.BlockchainTimeout = 10 * time.Second
	}
	if c.ConfirmTimeout == 0 {
		c.ConfirmTimeout = 2 * time.Minute
	}
	if c.HistorySize < 0 {
		return fmt.Errorf("%w: history_size must not be negative", types.ErrInvalidConfig)
	}
	if len(c.SupportedChains) == 0 {
		c.SupportedChains = types.DefaultChainIDs()
	}
	if c.ChainID != 0 && !types.NewChainSet(c.SupportedChains...).Supports(c.ChainID) {
		return fmt.Errorf("%w: chain_id %d is not in supported_chains", types.ErrInvalidConfig, c.ChainID)
	}
	if c.Keyring.AppName == "" {
		c.Keyring.AppName = "todoledger"
	}
	if c.Keyring.Backend == "" {
		c.Keyring.Backend = "os"
	}
	ApplyWaitTxDefaults(&c.WaitTx)

	return nil
}

// Default returns a configuration with sensible defaults for a local dev chain.
func Default() Config {
	return Config{
		ChainID:           types.ChainLocalDev,
		RPCEndpoint:       "http://localhost:8545",
		WSEndpoint:        "ws://localhost:8546",
		SupportedChains:   types.DefaultChainIDs(),
		BlockchainTimeout: 10 * time.Second,
		ConfirmTimeout:    2 * time.Minute,
		Keyring: KeyringConfig{
			AppName: "todoledger",
			Backend: "os",
		},
		WaitTx: DefaultWaitTxConfig(),
	}
}

// DefaultWaitTxConfig returns recommended defaults for wait-tx behaviour.
func DefaultWaitTxConfig() WaitTxConfig {
	return WaitTxConfig{
		SubscriberSetupTimeout: 5 * time.Second,
		PollInterval:           500 * time.Millisecond,
		PollMaxRetries:         0,
		PollBackoffMultiplier:  1.5,
		PollBackoffMaxInterval: 10 * time.Second,
		PollBackoffJitter:      0,
	}
}

// ApplyWaitTxDefaults normalizes zero or negative values using defaults.
func ApplyWaitTxDefaults(cfg *WaitTxConfig) {
	if cfg == nil {
		return
	}
	def := DefaultWaitTxConfig()

	if cfg.SubscriberSetupTimeout <= 0 {
		cfg.SubscriberSetupTimeout = def.SubscriberSetupTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PollMaxRetries < 0 {
		cfg.PollMaxRetries = 0
	}
	if cfg.PollBackoffMultiplier <= 0 {
		cfg.PollBackoffMultiplier = def.PollBackoffMultiplier
	}
	if cfg.PollBackoffMaxInterval <= 0 {
		cfg.PollBackoffMaxInterval = def.PollBackoffMaxInterval
	}
	if cfg.PollBackoffJitter < 0 {
		cfg.PollBackoffJitter = 0
	}
}

// Load reads a YAML config file on top of Default(). Validation is left to
// the caller so flags can still override fields.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %v", types.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}
