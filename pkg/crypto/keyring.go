package crypto

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/cosmos/cosmos-sdk/std"
	"github.com/cosmos/go-bip39"
	"github.com/ethereum/go-ethereum/common"
)

// EthereumHDPath is the BIP-44 path wallets use for the first EVM account.
const EthereumHDPath = "m/44'/60'/0'/0/0"

// BackendMemory keeps keys in process memory only.
const BackendMemory = "memory"

// KeyringParams holds configuration for initializing a Cosmos keyring.
type KeyringParams struct {
	// AppName names the keyring namespace. Default: "todoledger"
	AppName string
	// Backend selects the keyring backend ("os" | "file" | "test" | "memory"). Default: "os"
	Backend string
	// Dir is the root directory for the keyring (if Backend="file"). Default: $HOME/.todoledger
	Dir string
	// Input is an optional io.Reader for interactive backends (nil for non-interactive)
	Input io.Reader
}

// DefaultKeyringParams returns sensible defaults:
//   - AppName: "todoledger"
//   - Backend: "os"
//   - Dir: $HOME/.todoledger
func DefaultKeyringParams() KeyringParams {
	home, _ := os.UserHomeDir()
	return KeyringParams{
		AppName: "todoledger",
		Backend: keyring.BackendOS,
		Dir:     filepath.Join(home, ".todoledger"),
	}
}

// NewKeyring creates a new Cosmos keyring with the provided parameters.
func NewKeyring(p KeyringParams) (keyring.Keyring, error) {
	def := DefaultKeyringParams()
	app := p.AppName
	if app == "" {
		app = def.AppName
	}
	backend := p.Backend
	if backend == "" {
		backend = def.Backend
	}
	dir := expandHome(p.Dir)
	if dir == "" {
		dir = def.Dir
	}
	in := p.Input
	if in == nil {
		in = bufio.NewReader(os.Stdin)
	}

	reg := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(reg)
	cdc := codec.NewProtoCodec(reg)

	if backend == BackendMemory {
		return keyring.NewInMemory(cdc), nil
	}
	return keyring.New(app, backend, dir, in, cdc)
}

// ImportKeyFromMnemonic stores the first EVM account of mnemonic under keyName,
// unless a key with that name already exists, and returns its address.
func ImportKeyFromMnemonic(kr keyring.Keyring, keyName, mnemonic string) (common.Address, error) {
	if kr == nil {
		return common.Address{}, fmt.Errorf("keyring is nil")
	}
	if keyName == "" {
		return common.Address{}, fmt.Errorf("key name is required")
	}
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return common.Address{}, fmt.Errorf("invalid mnemonic")
	}

	if _, err := kr.Key(keyName); err != nil {
		if _, err := kr.NewAccount(keyName, mnemonic, "", EthereumHDPath, hd.Secp256k1); err != nil {
			return common.Address{}, fmt.Errorf("import key: %w", err)
		}
	}
	return AddressFromKey(kr, keyName)
}

// ImportKeyFromMnemonicFile is ImportKeyFromMnemonic reading the phrase from disk.
func ImportKeyFromMnemonicFile(kr keyring.Keyring, keyName, mnemonicFile string) (common.Address, error) {
	mnemonic, err := readMnemonicFile(mnemonicFile)
	if err != nil {
		return common.Address{}, err
	}
	return ImportKeyFromMnemonic(kr, keyName, mnemonic)
}

func readMnemonicFile(mnemonicFile string) (string, error) {
	mnemonicRaw, err := os.ReadFile(mnemonicFile)
	if err != nil {
		return "", fmt.Errorf("read mnemonic file: %w", err)
	}
	mnemonic := strings.TrimSpace(string(mnemonicRaw))
	if mnemonic == "" {
		return "", fmt.Errorf("mnemonic file is empty")
	}
	return mnemonic, nil
}

func expandHome(dir string) string {
	if strings.HasPrefix(dir, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, dir[2:])
	}
	return dir
}
