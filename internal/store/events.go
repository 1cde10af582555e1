package store

import (
	"sort"
	"sync"

	"lukechampine.com/blake3"
)

// Event is one entry in the append-only events log a block's execution
// produces: either a successful handler side-effect or a transaction-level
// CasinoError. The events store is written and its root folded BEFORE the
// state store's Commit, so on crash-recovery the invariant "events height >=
// state height" lets the Layer replay the tail deterministically without
// double-applying already-committed state (spec.md §4.3/§5).
type Event struct {
	Height uint64
	TxIdx  uint32
	Type   string
	Attrs  map[string]string
}

// Encode produces a deterministic byte representation of one event, sorting
// its attribute map the same way KV.Root sorts state keys.
func (e Event) Encode() []byte {
	attrKeys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		attrKeys = append(attrKeys, k)
	}
	sort.Strings(attrKeys)

	buf := make([]byte, 0, 64)
	buf = appendU64(buf, e.Height)
	buf = appendU32(buf, e.TxIdx)
	buf = append(buf, []byte(e.Type)...)
	buf = append(buf, 0)
	for _, k := range attrKeys {
		buf = append(buf, []byte(k)...)
		buf = append(buf, '=')
		buf = append(buf, []byte(e.Attrs[k])...)
		buf = append(buf, 0)
	}
	return buf
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return append(buf, b[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	for i := 3; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return append(buf, b[:]...)
}

// Events is the append-only per-height event log.
type Events struct {
	mu  sync.RWMutex
	log []Event
}

func NewEvents() *Events {
	return &Events{}
}

func (e *Events) Append(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, ev)
}

func (e *Events) AtHeight(height uint64) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Event
	for _, ev := range e.log {
		if ev.Height == height {
			out = append(out, ev)
		}
	}
	return out
}

func (e *Events) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.log)
}

// Root folds every event at a given height, in append order (NOT sorted —
// event order is significant, unlike state-store keys), into a single
// blake3 digest.
func (e *Events) Root(height uint64) [32]byte {
	events := e.AtHeight(height)
	h := blake3.New(32, nil)
	for _, ev := range events {
		h.Write(ev.Encode())
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
