package crypto

import (
	"fmt"

	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// AddressFromKey derives the EVM address of the secp256k1 public key stored
// in the keyring under keyName.
func AddressFromKey(kr keyring.Keyring, keyName string) (common.Address, error) {
	if kr == nil {
		return common.Address{}, fmt.Errorf("keyring is required")
	}
	if keyName == "" {
		return common.Address{}, fmt.Errorf("key name is required")
	}
	rec, err := kr.Key(keyName)
	if err != nil {
		return common.Address{}, fmt.Errorf("key %s not found: %w", keyName, err)
	}
	pub, err := rec.GetPubKey()
	if err != nil {
		return common.Address{}, fmt.Errorf("get pubkey: %w", err)
	}
	if pub == nil {
		return common.Address{}, fmt.Errorf("nil pubkey for key %s", keyName)
	}
	uncompressed, err := ethcrypto.DecompressPubkey(pub.Bytes())
	if err != nil {
		return common.Address{}, fmt.Errorf("key %s is not secp256k1: %w", keyName, err)
	}
	return ethcrypto.PubkeyToAddress(*uncompressed), nil
}
