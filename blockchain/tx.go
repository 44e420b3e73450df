package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/todoledger/sdk-go/types"
)

// CreateRecord signs and sends createTodo for payload using the signer in nc.
// Returns the tx hash without waiting for inclusion.
func (c *Client) CreateRecord(ctx context.Context, nc types.NetworkContext, payload types.RecordPayload) (string, error) {
	if nc.Signer == nil {
		return "", types.ErrSigningUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.Config().Timeout)
	defer cancel()

	opts, err := nc.Signer.TransactOpts(ctx, new(big.Int).SetUint64(nc.ChainID))
	if err != nil {
		if errors.Is(err, types.ErrSigningUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", types.ErrSigningUnavailable, err)
	}
	if gas := c.Config().GasLimit; gas > 0 {
		opts.GasLimit = gas
	}

	tx, err := c.Todo.CreateTodo(opts, payload.Title, payload.Description)
	if err != nil {
		return "", fmt.Errorf("%w: create todo: %w", types.ErrDispatchFailed, err)
	}
	return tx.Hash().Hex(), nil
}
