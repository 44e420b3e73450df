package client

import clientconfig "github.com/todoledger/sdk-go/client/config"

// Config re-exports the config.Config type.
type Config = clientconfig.Config

// WaitTxConfig re-exports the wait-tx config type.
type WaitTxConfig = clientconfig.WaitTxConfig

// KeyringConfig re-exports the keyring selection type.
type KeyringConfig = clientconfig.KeyringConfig

// DefaultConfig mirrors config.Default.
func DefaultConfig() Config {
	return clientconfig.Default()
}

// DefaultWaitTxConfig mirrors config.DefaultWaitTxConfig.
func DefaultWaitTxConfig() WaitTxConfig {
	return clientconfig.DefaultWaitTxConfig()
}

// LoadConfig mirrors config.Load.
func LoadConfig(path string) (Config, error) {
	return clientconfig.Load(path)
}
