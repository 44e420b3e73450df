package blockchain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// TodoABI is the interface of the deployed Todo contract.
const TodoABI = `[
	{"inputs":[{"internalType":"string","name":"_title","type":"string"},{"internalType":"string","name":"_description","type":"string"}],"name":"createTodo","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"getAllTodo","outputs":[{"components":[{"internalType":"string","name":"title","type":"string"},{"internalType":"string","name":"description","type":"string"},{"internalType":"bool","name":"isCompleted","type":"bool"}],"internalType":"struct Todo.TodoList[]","name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"}
]`

const (
	methodCreateTodo = "createTodo"
	methodGetAllTodo = "getAllTodo"
)

// TodoItem mirrors the contract's TodoList struct.
type TodoItem struct {
	Title       string
	Description string
	IsCompleted bool
}

var todoABI = mustParseABI(TodoABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse todo abi: %v", err))
	}
	return parsed
}

// TodoContract is a thin binding over the Todo contract.
type TodoContract struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewTodoContract binds the contract at address to backend.
func NewTodoContract(address common.Address, backend bind.ContractBackend) *TodoContract {
	return &TodoContract{
		address:  address,
		contract: bind.NewBoundContract(address, todoABI, backend, backend, backend),
	}
}

// Address returns the bound contract address.
func (t *TodoContract) Address() common.Address {
	return t.address
}

// CreateTodo sends createTodo(title, description). It returns once the node
// accepted the tx; it does not wait for mining.
func (t *TodoContract) CreateTodo(opts *bind.TransactOpts, title, description string) (*ethtypes.Transaction, error) {
	return t.contract.Transact(opts, methodCreateTodo, title, description)
}

// GetAllTodo calls getAllTodo() and returns records in contract order.
func (t *TodoContract) GetAllTodo(opts *bind.CallOpts) ([]TodoItem, error) {
	var out []interface{}
	if err := t.contract.Call(opts, &out, methodGetAllTodo); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", methodGetAllTodo)
	}
	items := *abi.ConvertType(out[0], new([]TodoItem)).(*[]TodoItem)
	return items, nil
}
