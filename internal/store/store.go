package store

import (
	"sort"
	"sync"

	"lukechampine.com/blake3"
)

// KV is the authenticated append-and-overwrite key-value state store. Every
// entity the Layer touches (Player, GameSession, Leaderboard, Bridge,
// Ledger, Policy, HouseState, Tournament, Staker, AmmPool,
// GlobalTableRound, and per-height Commit metadata) lives here, addressed by
// an encoded Key.
type KV struct {
	mu      sync.RWMutex
	data    map[string][]byte
	opCount uint64
}

func NewKV() *KV {
	return &KV{data: make(map[string][]byte)}
}

func (s *KV) Put(key Key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(key.Encode())] = value
	s.opCount++
}

func (s *KV) Get(key Key) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[string(key.Encode())]
	return v, ok
}

func (s *KV) Delete(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key.Encode()))
	s.opCount++
}

// OpCount returns the number of Put/Delete calls since the store was
// created or since the counter was last reset by Commit.
func (s *KV) OpCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opCount
}

// Root computes a deterministic blake3 digest over every (key, value) pair,
// sorted by encoded key. Grounded on the teacher's state.go AppHash: Go map
// iteration order is randomized per-process, so every hash input here is
// built from a sorted slice, never from a live map range.
func (s *KV) Root() [32]byte {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := blake3.New(32, nil)
	for _, k := range keys {
		h.Write([]byte(k))
		v := s.data[k]
		h.Write(v)
	}
	s.mu.RUnlock()

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Commit resets the op counter; the root itself needs no separate commit
// step since Root() is always computed fresh from committed Put/Delete
// calls (there is no separate staging buffer — handlers write directly to
// the KV and the Layer only calls Root() once all of a block's
// transactions have executed).
func (s *KV) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opCount = 0
}

// Snapshot returns a defensive copy of every stored value, keyed by encoded
// Key bytes, for JSON-based persistence (see internal/chain/storage.go's
// chain_state.json). This is presentation-layer only; the canonical root
// hash is always computed by Root(), never derived from this snapshot's
// JSON encoding.
func (s *KV) Snapshot() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// Restore replaces the store's contents with snapshot, e.g. on node
// startup recovery.
func (s *KV) Restore(snapshot map[string][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte, len(snapshot))
	for k, v := range snapshot {
		cp := make([]byte, len(v))
		copy(cp, v)
		s.data[k] = cp
	}
	s.opCount = 0
}
