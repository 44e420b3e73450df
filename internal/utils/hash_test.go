package utils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/todoledger/sdk-go/types"
)

func TestHashRecordsIsOrderAndBoundarySensitive(t *testing.T) {
	a := types.RecordView{Title: "ab", Description: "c"}
	b := types.RecordView{Title: "a", Description: "bc"}

	require.Len(t, HashRecords(nil), 32)
	require.Equal(t, HashRecords([]types.RecordView{a, b}), HashRecords([]types.RecordView{a, b}))
	require.NotEqual(t, HashRecords([]types.RecordView{a}), HashRecords([]types.RecordView{b}))
	require.NotEqual(t, HashRecords([]types.RecordView{a, b}), HashRecords([]types.RecordView{b, a}))

	done := a
	done.Completed = true
	require.NotEqual(t, HashRecords([]types.RecordView{a}), HashRecords([]types.RecordView{done}))
}
