// Package mempool implements the round-robin fair transaction scheduler
// described in spec.md §4.6, grounded 1:1 on
// original_source/node/src/application/mempool.rs.
package mempool

import (
	"sort"
	"sync"

	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/metrics"
)

// RejectReason mirrors original_source's AddRejectReason.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectGlobalCapacity
	RejectDuplicateNonce
	RejectBacklogLimit
)

// AddResult mirrors original_source's AddResult.
type AddResult struct {
	Added   bool
	Trimmed bool
	Reason  RejectReason
}

type entry struct {
	tx           codec.Transaction
	insertedAtMs int64
}

// account is a nonce-ordered backlog for one signer, equivalent to the
// original's BTreeMap<u64, MempoolEntry>. Kept as a map plus a sorted slice
// of nonces so first()/pop_first()/pop_last() stay cheap for the small
// per-account backlogs this mempool is sized for.
type account struct {
	byNonce map[uint64]entry
	nonces  []uint64 // kept sorted ascending
}

func newAccount() *account {
	return &account{byNonce: make(map[uint64]entry)}
}

func (a *account) insertSorted(nonce uint64) {
	i := sort.Search(len(a.nonces), func(i int) bool { return a.nonces[i] >= nonce })
	a.nonces = append(a.nonces, 0)
	copy(a.nonces[i+1:], a.nonces[i:])
	a.nonces[i] = nonce
}

func (a *account) removeSorted(nonce uint64) {
	i := sort.Search(len(a.nonces), func(i int) bool { return a.nonces[i] >= nonce })
	if i < len(a.nonces) && a.nonces[i] == nonce {
		a.nonces = append(a.nonces[:i], a.nonces[i+1:]...)
	}
}

func (a *account) len() int { return len(a.nonces) }

func (a *account) firstNonce() (uint64, bool) {
	if len(a.nonces) == 0 {
		return 0, false
	}
	return a.nonces[0], true
}

func (a *account) popFirst() (entry, bool) {
	if len(a.nonces) == 0 {
		return entry{}, false
	}
	nonce := a.nonces[0]
	e := a.byNonce[nonce]
	delete(a.byNonce, nonce)
	a.nonces = a.nonces[1:]
	return e, true
}

func (a *account) popLast() (uint64, entry, bool) {
	if len(a.nonces) == 0 {
		return 0, entry{}, false
	}
	last := len(a.nonces) - 1
	nonce := a.nonces[last]
	e := a.byNonce[nonce]
	delete(a.byNonce, nonce)
	a.nonces = a.nonces[:last]
	return nonce, e, true
}

// Mempool is the round-robin scheduler. The zero value is not usable; build
// one with New.
type Mempool struct {
	mu sync.Mutex

	maxBacklog      int
	maxTransactions int
	totalTx         int

	tracked map[[32]byte]*account

	minInsertedAtMs    int64
	haveMinInsertedAtMs bool

	queue         [][32]byte
	queuePositions map[[32]byte]int
	queueCursor   int

	metrics *metrics.Mempool
}

const (
	DefaultMaxBacklog      = 64
	DefaultMaxTransactions = 100_000
)

func New(maxBacklog, maxTransactions int, m *metrics.Mempool) *Mempool {
	return &Mempool{
		maxBacklog:      maxBacklog,
		maxTransactions: maxTransactions,
		tracked:         make(map[[32]byte]*account),
		queuePositions:  make(map[[32]byte]int),
		metrics:         m,
	}
}

func (m *Mempool) rebuildQueue() {
	m.queue = m.queue[:0]
	m.queuePositions = make(map[[32]byte]int, len(m.tracked))
	// Go map iteration order is randomized; round-robin fairness does not
	// depend on a specific starting order, only on rotating through all
	// tracked accounts, so this is safe unlike the state-store hash.
	for pk := range m.tracked {
		m.queuePositions[pk] = len(m.queue)
		m.queue = append(m.queue, pk)
	}
	m.queueCursor = 0
}

func (m *Mempool) ensureQueue() {
	if len(m.queue) == 0 && len(m.tracked) != 0 {
		m.rebuildQueue()
	}
}

func (m *Mempool) removeFromQueue(pk [32]byte) {
	idx, ok := m.queuePositions[pk]
	if !ok {
		return
	}
	delete(m.queuePositions, pk)

	lastIndex := len(m.queue) - 1
	removed := m.queue[idx]
	_ = removed
	m.queue[idx] = m.queue[lastIndex]
	m.queue = m.queue[:lastIndex]

	if idx < len(m.queue) {
		moved := m.queue[idx]
		m.queuePositions[moved] = idx
	}

	if len(m.queue) == 0 {
		m.queueCursor = 0
		return
	}
	if m.queueCursor == lastIndex {
		if idx < len(m.queue) {
			m.queueCursor = idx
		} else {
			m.queueCursor = 0
		}
	}
	if m.queueCursor >= len(m.queue) {
		m.queueCursor = 0
	}
}

func (m *Mempool) refreshGauges() {
	if m.metrics == nil {
		return
	}
	m.metrics.SetUnique(m.totalTx)
	m.metrics.SetAccounts(len(m.tracked))
}

// Add inserts tx into the mempool at time nowMs (milliseconds since an
// arbitrary epoch — never wall-clock inside the deterministic Layer, only
// here at the network-facing edge).
func (m *Mempool) Add(tx codec.Transaction, nowMs int64) AddResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.totalTx >= m.maxTransactions {
		if m.metrics != nil {
			m.metrics.IncRejected()
		}
		return AddResult{Reason: RejectGlobalCapacity}
	}

	public := tx.Public
	acc, ok := m.tracked[public]
	if !ok {
		acc = newAccount()
		m.tracked[public] = acc
	}
	wasEmpty := acc.len() == 0

	if _, exists := acc.byNonce[tx.Nonce]; exists {
		return AddResult{Reason: RejectDuplicateNonce}
	}

	acc.byNonce[tx.Nonce] = entry{tx: tx, insertedAtMs: nowMs}
	acc.insertSorted(tx.Nonce)
	m.totalTx++

	if !m.haveMinInsertedAtMs || nowMs < m.minInsertedAtMs {
		m.minInsertedAtMs = nowMs
		m.haveMinInsertedAtMs = true
	}

	trimmed := false
	trimmedNewTx := false
	if acc.len() > m.maxBacklog {
		trimmed = true
		removedNonce, removedEntry, ok := acc.popLast()
		if ok {
			if removedNonce == tx.Nonce {
				trimmedNewTx = true
			}
			if m.haveMinInsertedAtMs && removedEntry.insertedAtMs == m.minInsertedAtMs {
				m.haveMinInsertedAtMs = false
			}
		}
		if m.totalTx > 0 {
			m.totalTx--
		}
		if m.metrics != nil {
			m.metrics.IncTrimmed()
		}
	}

	if acc.len() == 0 {
		delete(m.tracked, public)
		m.removeFromQueue(public)
	} else if wasEmpty {
		if _, inQueue := m.queuePositions[public]; !inQueue {
			m.queuePositions[public] = len(m.queue)
			m.queue = append(m.queue, public)
		}
	}

	m.refreshGauges()

	if trimmedNewTx {
		return AddResult{Reason: RejectBacklogLimit}
	}
	return AddResult{Added: true, Trimmed: trimmed}
}

// Retain drops every tracked transaction for public with nonce < min,
// e.g. after a block advances that account's on-chain nonce.
func (m *Mempool) Retain(public [32]byte, min uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.tracked[public]
	if !ok {
		return
	}
	removedAccount := false
	for {
		nonce, first := acc.firstNonce()
		if !first {
			removedAccount = true
			break
		}
		if nonce >= min {
			break
		}
		e := acc.byNonce[nonce]
		if m.haveMinInsertedAtMs && e.insertedAtMs == m.minInsertedAtMs {
			m.haveMinInsertedAtMs = false
		}
		acc.popFirst()
		if m.totalTx > 0 {
			m.totalTx--
		}
	}
	if removedAccount {
		delete(m.tracked, public)
		m.removeFromQueue(public)
	}
	m.refreshGauges()
}

// Next pops and returns the next transaction to execute in round-robin
// order across accounts, or ok=false if the mempool is empty.
func (m *Mempool) Next() (codec.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		m.ensureQueue()
		if len(m.queue) == 0 {
			m.refreshGauges()
			return codec.Transaction{}, false
		}
		if m.queueCursor >= len(m.queue) {
			m.queueCursor = 0
		}
		public := m.queue[m.queueCursor]
		acc, ok := m.tracked[public]
		if !ok {
			m.removeFromQueue(public)
			continue
		}
		e, ok := acc.popFirst()
		if !ok {
			delete(m.tracked, public)
			m.removeFromQueue(public)
			continue
		}
		if m.haveMinInsertedAtMs && e.insertedAtMs == m.minInsertedAtMs {
			m.haveMinInsertedAtMs = false
		}
		becameEmpty := acc.len() == 0
		if m.totalTx > 0 {
			m.totalTx--
		}
		if becameEmpty {
			delete(m.tracked, public)
			m.removeFromQueue(public)
		} else {
			m.queueCursor = (m.queueCursor + 1) % len(m.queue)
		}
		m.refreshGauges()
		return e.tx, true
	}
}

// PeekBatch returns up to maxCount transactions, one per account in
// round-robin order, without removing them.
func (m *Mempool) PeekBatch(maxCount int) []codec.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	if maxCount == 0 {
		return nil
	}

	attempt := 0
	for {
		m.ensureQueue()
		var result []codec.Transaction
		if len(m.queue) == 0 {
			if len(m.tracked) != 0 {
				for _, acc := range m.tracked {
					if nonce, ok := acc.firstNonce(); ok {
						result = append(result, acc.byNonce[nonce].tx)
						if len(result) >= maxCount {
							break
						}
					}
				}
			}
			return result
		}

		cursor := m.queueCursor
		visited := 0
		total := len(m.queue)
		for len(result) < maxCount && visited < total {
			if cursor >= len(m.queue) {
				cursor = 0
			}
			public := m.queue[cursor]
			if acc, ok := m.tracked[public]; ok {
				if nonce, ok := acc.firstNonce(); ok {
					result = append(result, acc.byNonce[nonce].tx)
				}
			}
			cursor = (cursor + 1) % len(m.queue)
			visited++
		}

		if len(result) != 0 || len(m.tracked) == 0 || attempt > 0 {
			return result
		}
		m.rebuildQueue()
		attempt++
	}
}

// Stats returns (total transactions, distinct accounts).
func (m *Mempool) Stats() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalTx, len(m.tracked)
}

// OldestAgeMs returns the age, in milliseconds, of the oldest pending
// transaction relative to nowMs, recomputing the minimum lazily if the
// cached value was invalidated by a removal.
func (m *Mempool) OldestAgeMs(nowMs int64) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.totalTx == 0 {
		m.haveMinInsertedAtMs = false
		return 0, false
	}

	if !m.haveMinInsertedAtMs {
		var min int64
		have := false
		for _, acc := range m.tracked {
			for _, nonce := range acc.nonces {
				e := acc.byNonce[nonce]
				if !have || e.insertedAtMs < min {
					min = e.insertedAtMs
					have = true
				}
			}
		}
		m.minInsertedAtMs = min
		m.haveMinInsertedAtMs = have
	}
	if !m.haveMinInsertedAtMs {
		return 0, false
	}
	age := nowMs - m.minInsertedAtMs
	if age < 0 {
		age = 0
	}
	return uint64(age), true
}
