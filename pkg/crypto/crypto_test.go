package crypto

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/cosmos/go-bip39"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/todoledger/sdk-go/types"
)

// Well known dev-chain account #0.
const (
	devMnemonic   = "test test test test test test test test test test test junk"
	devPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

var zeroEntropyMnemonic = func() string {
	mnemonic, err := bip39.NewMnemonic(make([]byte, 32))
	if err != nil {
		panic(err)
	}
	return mnemonic
}()

func TestDefaultKeyringParams(t *testing.T) {
	params := DefaultKeyringParams()
	require.Equal(t, "todoledger", params.AppName)
	require.Equal(t, "os", params.Backend)
	if home, err := os.UserHomeDir(); err == nil {
		require.Equal(t, filepath.Join(home, ".todoledger"), params.Dir)
	}
}

func TestNewKeyring(t *testing.T) {
	kr := newTestKeyring(t)
	require.NotNil(t, kr)
	_, err := kr.Key("missing")
	require.Error(t, err)

	mem, err := NewKeyring(KeyringParams{Backend: BackendMemory})
	require.NoError(t, err)
	require.NotNil(t, mem)
}

func TestImportKeyFromMnemonicDerivesWalletAddress(t *testing.T) {
	kr := newTestKeyring(t)

	addr, err := ImportKeyFromMnemonic(kr, "dev", devMnemonic)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(devAddress), addr)

	again, err := ImportKeyFromMnemonic(kr, "dev", devMnemonic)
	require.NoError(t, err)
	require.Equal(t, addr, again)

	_, err = ImportKeyFromMnemonic(kr, "bad", "not a mnemonic")
	require.Error(t, err)
	_, err = ImportKeyFromMnemonic(nil, "dev", devMnemonic)
	require.Error(t, err)
	_, err = ImportKeyFromMnemonic(kr, "", devMnemonic)
	require.Error(t, err)
}

func TestImportKeyFromMnemonicFile(t *testing.T) {
	kr := newTestKeyring(t)
	path := filepath.Join(t.TempDir(), "mnemonic.txt")
	require.NoError(t, os.WriteFile(path, []byte(zeroEntropyMnemonic+"\n"), 0o600))

	addr, err := ImportKeyFromMnemonicFile(kr, "alice", path)
	require.NoError(t, err)
	require.NotEqual(t, common.Address{}, addr)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	_, err = ImportKeyFromMnemonicFile(kr, "bob", empty)
	require.Error(t, err)
}

func TestAddressFromKey(t *testing.T) {
	kr := newTestKeyring(t)
	want, err := ImportKeyFromMnemonic(kr, "alice", zeroEntropyMnemonic)
	require.NoError(t, err)

	addr, err := AddressFromKey(kr, "alice")
	require.NoError(t, err)
	require.Equal(t, want, addr)

	_, err = AddressFromKey(nil, "alice")
	require.Error(t, err)
	_, err = AddressFromKey(kr, "")
	require.Error(t, err)
	_, err = AddressFromKey(kr, "missing")
	require.Error(t, err)
}

func TestKeyringSignerSignsForItsAddress(t *testing.T) {
	kr := newTestKeyring(t)
	_, err := ImportKeyFromMnemonic(kr, "dev", devMnemonic)
	require.NoError(t, err)

	signer, err := NewKeyringSigner(kr, "dev")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(devAddress), signer.Address())
	require.Equal(t, "dev", signer.KeyName())

	chainID := big.NewInt(31337)
	opts, err := signer.TransactOpts(context.Background(), chainID)
	require.NoError(t, err)
	require.Equal(t, signer.Address(), opts.From)

	assertSignsAs(t, opts.Signer, opts.From, chainID)
}

func TestNewKeyringSignerMissingKey(t *testing.T) {
	kr := newTestKeyring(t)
	_, err := NewKeyringSigner(kr, "nobody")
	require.ErrorIs(t, err, types.ErrSigningUnavailable)
}

func TestPrivateKeySigner(t *testing.T) {
	signer, err := NewPrivateKeySigner(devPrivateKey)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(devAddress), signer.Address())

	chainID := big.NewInt(1)
	opts, err := signer.TransactOpts(context.Background(), chainID)
	require.NoError(t, err)
	assertSignsAs(t, opts.Signer, signer.Address(), chainID)

	_, err = signer.TransactOpts(context.Background(), nil)
	require.ErrorIs(t, err, types.ErrSigningUnavailable)

	_, err = NewPrivateKeySigner("zz")
	require.ErrorIs(t, err, types.ErrSigningUnavailable)
}

func assertSignsAs(t *testing.T, sign func(common.Address, *ethtypes.Transaction) (*ethtypes.Transaction, error), from common.Address, chainID *big.Int) {
	t.Helper()
	tx := ethtypes.NewTransaction(0, common.Address{}, big.NewInt(0), 21000, big.NewInt(1), nil)
	signed, err := sign(from, tx)
	require.NoError(t, err)
	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	require.Equal(t, from, sender)
}

func newTestKeyring(t *testing.T) keyring.Keyring {
	t.Helper()
	kr, err := NewKeyring(KeyringParams{
		AppName: "todoledger",
		Backend: keyring.BackendTest,
		Dir:     t.TempDir(),
	})
	require.NoError(t, err)
	return kr
}
