package tracker

import (
	"bytes"
	"sync"
	"time"

	"github.com/todoledger/sdk-go/internal/utils"
	"github.com/todoledger/sdk-go/types"
)

// Snapshot is a point-in-time copy of the record view.
type Snapshot struct {
	Records   []types.RecordView
	Version   uint64
	Digest    []byte
	UpdatedAt time.Time
}

// RecordCache holds the latest record sequence read from the ledger. Updates
// replace the whole sequence; readers never observe a partial merge.
//
// Each read takes a Ticket before contacting the ledger. Replace ignores
// results whose ticket is older than the last applied one, so a slow read can
// never overwrite a newer view.
type RecordCache struct {
	mu        sync.RWMutex
	records   []types.RecordView
	digest    []byte
	version   uint64
	issued    uint64
	applied   uint64
	updatedAt time.Time
}

// NewRecordCache returns an empty cache at version 0.
func NewRecordCache() *RecordCache {
	return &RecordCache{digest: utils.HashRecords(nil)}
}

// Ticket reserves the sequence number for a read that is about to start.
func (c *RecordCache) Ticket() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// Replace swaps in records read under ticket and bumps the version. applied is
// false when a read with a later ticket already landed; changed reports
// whether the content differs from what was cached.
func (c *RecordCache) Replace(ticket uint64, records []types.RecordView) (applied, changed bool) {
	cp := types.CloneRecords(records)
	digest := utils.HashRecords(cp)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ticket <= c.applied {
		return false, false
	}
	changed = !bytes.Equal(c.digest, digest)
	c.records = cp
	c.digest = digest
	c.applied = ticket
	c.version++
	c.updatedAt = time.Now()
	return true, changed
}

// Records returns a copy of the cached sequence in ledger order.
func (c *RecordCache) Records() []types.RecordView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return types.CloneRecords(c.records)
}

// Snapshot returns the records together with version metadata.
func (c *RecordCache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Records:   types.CloneRecords(c.records),
		Version:   c.version,
		Digest:    append([]byte(nil), c.digest...),
		UpdatedAt: c.updatedAt,
	}
}

// Version counts completed replacements.
func (c *RecordCache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}
