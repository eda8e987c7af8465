// Package rindex maintains the in-memory index of signatures keyed by
// their R value, the structure that detects nonce reuse.
package rindex

import (
	"sync"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
)

type bucketKey struct {
	r      string
	pubKey string
}

// Collision is one unordered pair of signatures sharing (r, pubkey).
type Collision struct {
	Existing model.SignatureRecord
	New      model.SignatureRecord
}

// Index is a multimap from (r, publicKey) to the signatures sharing
// them, in insertion order. All mutation is serialized; it is the
// single source of truth for reuse pair counting.
type Index struct {
	mu      sync.Mutex
	buckets map[bucketKey][]model.SignatureRecord
	records uint64
	pairs   uint64
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		buckets: make(map[bucketKey][]model.SignatureRecord),
	}
}

// Insert adds a record and returns the collision pairs it produced,
// one per existing record in its bucket. Each unordered pair is emitted
// exactly once: a record pairs only against records inserted before it,
// and re-inserting the same (txid, input) is a no-op, so reprocessing a
// transaction cannot double-count.
func (ix *Index) Insert(rec model.SignatureRecord) []Collision {
	key := bucketKey{r: rec.RHex(), pubKey: rec.PublicKeyHex()}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	bucket := ix.buckets[key]
	for _, existing := range bucket {
		if existing.TxID == rec.TxID && existing.InputIndex == rec.InputIndex {
			return nil
		}
	}

	collisions := make([]Collision, 0, len(bucket))
	for _, existing := range bucket {
		collisions = append(collisions, Collision{Existing: existing, New: rec})
	}

	ix.buckets[key] = append(bucket, rec)
	ix.records++
	ix.pairs += uint64(len(collisions))

	if len(collisions) == 0 {
		return nil
	}
	return collisions
}

// Size returns the number of indexed records.
func (ix *Index) Size() uint64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.records
}

// PairCount returns the number of collision pairs emitted so far.
func (ix *Index) PairCount() uint64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.pairs
}

// Reset drops all records and counters.
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.buckets = make(map[bucketKey][]model.SignatureRecord)
	ix.records = 0
	ix.pairs = 0
}
