package crypto

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	sdkcrypto "github.com/cosmos/cosmos-sdk/crypto"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/todoledger/sdk-go/types"
)

// exportPassphrase only protects the armor between export and decrypt in-process.
const exportPassphrase = "todoledger-transactor"

var (
	_ types.SigningIdentity = (*KeyringSigner)(nil)
	_ types.SigningIdentity = (*PrivateKeySigner)(nil)
)

// KeyringSigner signs EVM transactions with a secp256k1 key held in a cosmos keyring.
type KeyringSigner struct {
	kr      keyring.Keyring
	keyName string
	address common.Address
}

// NewKeyringSigner resolves keyName in kr. Errors wrap types.ErrSigningUnavailable.
func NewKeyringSigner(kr keyring.Keyring, keyName string) (*KeyringSigner, error) {
	addr, err := AddressFromKey(kr, keyName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrSigningUnavailable, err)
	}
	return &KeyringSigner{kr: kr, keyName: keyName, address: addr}, nil
}

// Address returns the EVM account of the key.
func (s *KeyringSigner) Address() common.Address { return s.address }

// KeyName returns the keyring uid backing the signer.
func (s *KeyringSigner) KeyName() string { return s.keyName }

// TransactOpts builds a go-ethereum transactor bound to chainID.
func (s *KeyringSigner) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	key, err := s.privateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrSigningUnavailable, err)
	}
	return transactor(ctx, key, chainID)
}

func (s *KeyringSigner) privateKey() (*ecdsa.PrivateKey, error) {
	armor, err := s.kr.ExportPrivKeyArmor(s.keyName, exportPassphrase)
	if err != nil {
		return nil, fmt.Errorf("export key %s: %w", s.keyName, err)
	}
	priv, _, err := sdkcrypto.UnarmorDecryptPrivKey(armor, exportPassphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypt key %s: %w", s.keyName, err)
	}
	key, err := ethcrypto.ToECDSA(priv.Bytes())
	if err != nil {
		return nil, fmt.Errorf("key %s is not secp256k1: %w", s.keyName, err)
	}
	return key, nil
}

// PrivateKeySigner signs with an in-memory ECDSA key. Meant for dev chains and tests.
type PrivateKeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewPrivateKeySigner parses a hex encoded secp256k1 key, with or without 0x.
func NewPrivateKeySigner(hexKey string) (*PrivateKeySigner, error) {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %w", types.ErrSigningUnavailable, err)
	}
	return &PrivateKeySigner{key: key, address: ethcrypto.PubkeyToAddress(key.PublicKey)}, nil
}

func (s *PrivateKeySigner) Address() common.Address { return s.address }

func (s *PrivateKeySigner) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	return transactor(ctx, s.key, chainID)
}

func transactor(ctx context.Context, key *ecdsa.PrivateKey, chainID *big.Int) (*bind.TransactOpts, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("%w: chain id is required", types.ErrSigningUnavailable)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrSigningUnavailable, err)
	}
	opts.Context = ctx
	return opts, nil
}
