package mempool

import (
	"testing"

	"github.com/happybigmtn/nullspace/internal/codec"
)

func signedTx(t *testing.T, pkSeed byte, nonce uint64, bet uint64) codec.Transaction {
	t.Helper()
	var public [32]byte
	public[0] = pkSeed
	return codec.Transaction{
		Public: public,
		Nonce:  nonce,
		Instruction: codec.Instruction{
			Tag:       codec.InstrStartGame,
			StartGame: &codec.StartGameIx{GameType: codec.GameHiLo, Bet: bet},
		},
	}
}

func TestAddSingleTransaction(t *testing.T) {
	m := New(DefaultMaxBacklog, DefaultMaxTransactions, nil)
	tx := signedTx(t, 1, 0, 100)

	result := m.Add(tx, 0)
	if !result.Added {
		t.Fatalf("expected add to succeed, got %+v", result)
	}
	total, accounts := m.Stats()
	if total != 1 || accounts != 1 {
		t.Fatalf("expected 1 tx / 1 account, got %d/%d", total, accounts)
	}
}

func TestAddDuplicateTransactionIsIdempotent(t *testing.T) {
	m := New(DefaultMaxBacklog, DefaultMaxTransactions, nil)
	tx := signedTx(t, 1, 0, 100)
	m.Add(tx, 0)
	result := m.Add(tx, 0)
	if result.Added {
		t.Fatalf("expected duplicate add to be rejected")
	}
	if result.Reason != RejectDuplicateNonce {
		t.Fatalf("expected DuplicateNonce, got %v", result.Reason)
	}
}

func TestAddSameNonceDifferentTxDropped(t *testing.T) {
	m := New(DefaultMaxBacklog, DefaultMaxTransactions, nil)
	tx1 := signedTx(t, 1, 0, 100)
	tx2 := signedTx(t, 1, 0, 200)

	m.Add(tx1, 0)
	result := m.Add(tx2, 0)
	if result.Added {
		t.Fatalf("expected second tx at same nonce to be rejected")
	}
	total, _ := m.Stats()
	if total != 1 {
		t.Fatalf("expected exactly 1 tracked tx, got %d", total)
	}
}

func TestBacklogLimitTrimsFurthestNonce(t *testing.T) {
	m := New(2, DefaultMaxTransactions, nil)
	m.Add(signedTx(t, 1, 0, 1), 0)
	m.Add(signedTx(t, 1, 1, 1), 0)
	result := m.Add(signedTx(t, 1, 2, 1), 0)
	if result.Added || result.Reason != RejectBacklogLimit {
		t.Fatalf("expected third tx (the furthest nonce) to be trimmed with BacklogLimit, got %+v", result)
	}
}

func TestGlobalCapacityRejects(t *testing.T) {
	m := New(DefaultMaxBacklog, 1, nil)
	m.Add(signedTx(t, 1, 0, 1), 0)
	result := m.Add(signedTx(t, 2, 0, 1), 0)
	if result.Added {
		t.Fatalf("expected rejection at global capacity")
	}
	if result.Reason != RejectGlobalCapacity {
		t.Fatalf("expected GlobalCapacity, got %v", result.Reason)
	}
}

func TestNextRoundRobinAcrossAccounts(t *testing.T) {
	m := New(DefaultMaxBacklog, DefaultMaxTransactions, nil)
	m.Add(signedTx(t, 1, 0, 1), 0)
	m.Add(signedTx(t, 2, 0, 1), 0)
	m.Add(signedTx(t, 1, 1, 1), 0)

	seen := map[[32]byte]int{}
	for i := 0; i < 3; i++ {
		tx, ok := m.Next()
		if !ok {
			t.Fatalf("expected a transaction on iteration %d", i)
		}
		seen[tx.Public]++
	}
	if _, ok := m.Next(); ok {
		t.Fatalf("expected mempool to be drained")
	}
	if len(seen) != 2 {
		t.Fatalf("expected transactions from 2 distinct accounts, got %d", len(seen))
	}
}

func TestRetainDropsStaleNonces(t *testing.T) {
	m := New(DefaultMaxBacklog, DefaultMaxTransactions, nil)
	var pk [32]byte
	pk[0] = 1
	m.Add(signedTx(t, 1, 0, 1), 0)
	m.Add(signedTx(t, 1, 1, 1), 0)
	m.Add(signedTx(t, 1, 2, 1), 0)

	m.Retain(pk, 2)
	total, _ := m.Stats()
	if total != 1 {
		t.Fatalf("expected 1 tx remaining after retain, got %d", total)
	}
	tx, ok := m.Next()
	if !ok || tx.Nonce != 2 {
		t.Fatalf("expected remaining tx to have nonce 2, got %+v ok=%v", tx, ok)
	}
}

func TestOldestAgeMsTracksMinimum(t *testing.T) {
	m := New(DefaultMaxBacklog, DefaultMaxTransactions, nil)
	if _, ok := m.OldestAgeMs(100); ok {
		t.Fatalf("expected no age on empty mempool")
	}
	m.Add(signedTx(t, 1, 0, 1), 10)
	m.Add(signedTx(t, 2, 0, 1), 50)

	age, ok := m.OldestAgeMs(100)
	if !ok || age != 90 {
		t.Fatalf("expected age 90, got %d ok=%v", age, ok)
	}
}

func TestPeekBatchDoesNotRemove(t *testing.T) {
	m := New(DefaultMaxBacklog, DefaultMaxTransactions, nil)
	m.Add(signedTx(t, 1, 0, 1), 0)
	m.Add(signedTx(t, 2, 0, 1), 0)

	batch := m.PeekBatch(10)
	if len(batch) != 2 {
		t.Fatalf("expected 2 peeked txs, got %d", len(batch))
	}
	total, _ := m.Stats()
	if total != 2 {
		t.Fatalf("peek should not remove transactions, total=%d", total)
	}
}
