// Package testchain provides an in-memory Todo ledger implementing the
// JSON-RPC surface used by the SDK. It executes createTodo and getAllTodo
// against local state so client and server packages can be tested end to end.
package testchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/todoledger/sdk-go/blockchain"
)

// ContractAddress is where the simulated Todo contract lives.
const ContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

// Chain is a single-contract ledger. By default transactions stay pending
// until Mine or MineAll is called; set AutoMine to mine on send.
type Chain struct {
	bind.ContractBackend

	mu       sync.Mutex
	chainID  *big.Int
	contract common.Address
	abi      abi.ABI
	height   uint64
	todos    []blockchain.TodoItem
	pending  map[common.Hash]*ethtypes.Transaction
	receipts map[common.Hash]*ethtypes.Receipt
	sent     int
	revert   bool
	readErr  error
	autoMine bool
	closed   bool
}

// New creates an empty chain serving chainID.
func New(chainID uint64) *Chain {
	parsed, err := abi.JSON(strings.NewReader(blockchain.TodoABI))
	if err != nil {
		panic(err)
	}
	return &Chain{
		chainID:  new(big.Int).SetUint64(chainID),
		contract: common.HexToAddress(ContractAddress),
		abi:      parsed,
		height:   1,
		pending:  make(map[common.Hash]*ethtypes.Transaction),
		receipts: make(map[common.Hash]*ethtypes.Receipt),
	}
}

// SetAutoMine mines every accepted transaction immediately.
func (c *Chain) SetAutoMine(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoMine = on
}

// RevertNext makes the next mined transaction fail.
func (c *Chain) RevertNext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revert = true
}

// FailReads makes getAllTodo calls fail with err until cleared with nil.
func (c *Chain) FailReads(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
}

// Seed appends records as if mined earlier.
func (c *Chain) Seed(items ...blockchain.TodoItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.todos = append(c.todos, items...)
}

// Sent reports how many transactions were accepted.
func (c *Chain) Sent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

// Pending lists hashes of unmined transactions.
func (c *Chain) Pending() []common.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]common.Hash, 0, len(c.pending))
	for h := range c.pending {
		out = append(out, h)
	}
	return out
}

// Mine includes the pending tx in a new block.
func (c *Chain) Mine(hash common.Hash) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, ok := c.pending[hash]
	if !ok {
		return fmt.Errorf("tx %s is not pending", hash.Hex())
	}
	return c.mineLocked(tx)
}

// MineAll includes every pending tx, one block each.
func (c *Chain) MineAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tx := range c.pending {
		if err := c.mineLocked(tx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) mineLocked(tx *ethtypes.Transaction) error {
	delete(c.pending, tx.Hash())
	c.height++
	status := ethtypes.ReceiptStatusSuccessful
	if c.revert {
		c.revert = false
		status = ethtypes.ReceiptStatusFailed
	} else if err := c.applyLocked(tx); err != nil {
		status = ethtypes.ReceiptStatusFailed
	}
	c.receipts[tx.Hash()] = &ethtypes.Receipt{
		TxHash:      tx.Hash(),
		Status:      status,
		BlockNumber: new(big.Int).SetUint64(c.height),
		GasUsed:     tx.Gas() / 2,
	}
	return nil
}

func (c *Chain) applyLocked(tx *ethtypes.Transaction) error {
	data := tx.Data()
	if len(data) < 4 {
		return fmt.Errorf("short calldata")
	}
	method, err := c.abi.MethodById(data[:4])
	if err != nil {
		return err
	}
	if method.Name != "createTodo" {
		return fmt.Errorf("%s is not a write", method.Name)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return err
	}
	c.todos = append(c.todos, blockchain.TodoItem{
		Title:       args[0].(string),
		Description: args[1].(string),
	})
	return nil
}

func (c *Chain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

func (c *Chain) HeaderByNumber(context.Context, *big.Int) (*ethtypes.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &ethtypes.Header{Number: new(big.Int).SetUint64(c.height)}, nil
}

func (c *Chain) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	if account == c.contract {
		return []byte{0x60}, nil
	}
	return nil, nil
}

func (c *Chain) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return c.CodeAt(ctx, account, nil)
}

func (c *Chain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint64(c.sent), nil
}

func (c *Chain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (c *Chain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 120_000, nil
}

func (c *Chain) SendTransaction(_ context.Context, tx *ethtypes.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("connection closed")
	}
	if tx.To() == nil || *tx.To() != c.contract {
		return fmt.Errorf("unknown recipient")
	}
	c.sent++
	c.pending[tx.Hash()] = tx
	if c.autoMine {
		return c.mineLocked(tx)
	}
	return nil
}

func (c *Chain) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, c.readErr
	}
	if call.To == nil || *call.To != c.contract || len(call.Data) < 4 {
		return nil, fmt.Errorf("execution reverted")
	}
	method, err := c.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	if method.Name != "getAllTodo" {
		return nil, fmt.Errorf("%s is not a view", method.Name)
	}
	return method.Outputs.Pack(append([]blockchain.TodoItem{}, c.todos...))
}

func (c *Chain) TransactionReceipt(_ context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (c *Chain) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
