package utils

import (
	"encoding/binary"

	"lukechampine.com/blake3"

	"github.com/todoledger/sdk-go/types"
)

// HashRecords computes a Blake3 digest over an ordered record sequence.
// Equal sequences hash equal; order matters.
func HashRecords(records []types.RecordView) []byte {
	hasher := blake3.New(32, nil)
	var n [8]byte
	for _, r := range records {
		writeField(hasher, n[:], r.Title)
		writeField(hasher, n[:], r.Description)
		if r.Completed {
			hasher.Write([]byte{1})
		} else {
			hasher.Write([]byte{0})
		}
	}
	return hasher.Sum(nil)
}

// writeField length-prefixes s so ("ab","c") and ("a","bc") differ.
func writeField(h *blake3.Hasher, buf []byte, s string) {
	binary.BigEndian.PutUint64(buf, uint64(len(s)))
	h.Write(buf)
	h.Write([]byte(s))
}
