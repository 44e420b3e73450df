package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/todoledger/sdk-go/types"
)

// GetAllRecords reads every todo from the contract, in contract order.
func (c *Client) GetAllRecords(ctx context.Context) ([]types.RecordView, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Config().Timeout)
	defer cancel()

	items, err := c.Todo.GetAllTodo(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("get all todo: %w", err)
	}
	records := make([]types.RecordView, 0, len(items))
	for _, it := range items {
		records = append(records, types.RecordView{
			Title:       it.Title,
			Description: it.Description,
			Completed:   it.IsCompleted,
		})
	}
	return records, nil
}
