package types

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// SigningIdentity authorizes state-changing calls on behalf of a user.
type SigningIdentity interface {
	Address() common.Address
	TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// NetworkContext is supplied by the wallet/connection layer.
type NetworkContext struct {
	ChainID uint64
	Signer  SigningIdentity
}

// Well known chain ids.
const (
	ChainMainnet  uint64 = 1
	ChainSepolia  uint64 = 11155111
	ChainLocalDev uint64 = 31337
)

// ChainSet is an immutable set of supported chain ids.
type ChainSet struct {
	ids map[uint64]struct{}
}

// NewChainSet builds a set from the given ids.
func NewChainSet(ids ...uint64) ChainSet {
	m := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return ChainSet{ids: m}
}

// DefaultChainIDs lists the chains served when none are configured.
func DefaultChainIDs() []uint64 {
	return []uint64{ChainMainnet, ChainSepolia, ChainLocalDev}
}

// Supports reports whether chainID is in the set.
func (s ChainSet) Supports(chainID uint64) bool {
	_, ok := s.ids[chainID]
	return ok
}

// Len returns the number of chains in the set.
func (s ChainSet) Len() int { return len(s.ids) }

// IsSupportedChain checks chainID against the default chain list.
func IsSupportedChain(chainID uint64) bool {
	for _, id := range DefaultChainIDs() {
		if id == chainID {
			return true
		}
	}
	return false
}
