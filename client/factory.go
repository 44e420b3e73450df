package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/crypto/keyring"

	sdkcrypto "github.com/todoledger/sdk-go/pkg/crypto"
)

// Factory keeps a base configuration and keyring so callers can easily create
// per-signer clients without re-specifying shared settings.
type Factory struct {
	baseCfg Config
	keyring keyring.Keyring
	opts    []Option
}

// NewFactory captures the shared configuration and keyring. The base config may
// omit KeyName; it is supplied when creating signer-specific clients.
func NewFactory(cfg Config, kr keyring.Keyring, opts ...Option) (*Factory, error) {
	if kr == nil {
		return nil, fmt.Errorf("keyring is required")
	}
	return &Factory{
		baseCfg: cfg,
		keyring: kr,
		opts:    append([]Option{}, opts...),
	}, nil
}

// WithSigner returns a Client bound to keyName. When address is non-empty it
// must match the account derived from the key. Extra options override/extend
// the factory defaults for this instance.
func (f *Factory) WithSigner(ctx context.Context, address, keyName string, extraOpts ...Option) (*Client, error) {
	if keyName == "" {
		return nil, fmt.Errorf("key name is required")
	}
	derived, err := sdkcrypto.AddressFromKey(f.keyring, keyName)
	if err != nil {
		return nil, err
	}
	if address != "" && !strings.EqualFold(address, derived.Hex()) {
		return nil, fmt.Errorf("key %q controls %s, not %s", keyName, derived.Hex(), address)
	}

	cfg := f.baseCfg
	cfg.KeyName = keyName

	opts := append([]Option{}, f.opts...)
	opts = append(opts, extraOpts...)

	return New(ctx, cfg, f.keyring, opts...)
}
