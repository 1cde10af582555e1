package layer

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/happybigmtn/nullspace/internal/chainerr"
	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/store"
)

func registerTx(t *testing.T, priv ed25519.PrivateKey, public [32]byte, nonce uint64) codec.Transaction {
	t.Helper()
	tx, err := codec.Sign(priv, public, nonce, codec.Instruction{
		Tag:             codec.InstrRegisterAccount,
		RegisterAccount: &codec.RegisterAccountIx{Account: public},
	})
	if err != nil {
		t.Fatalf("sign register tx: %v", err)
	}
	return tx
}

// TestExecuteBlockIdempotentReplay covers property 1: applying the same
// height twice (e.g. a retried FinalizeBlock) must be a no-op the second
// time, reusing the existing roots rather than re-running the handlers.
func TestExecuteBlockIdempotentReplay(t *testing.T) {
	e := newTestExecutor()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var public [32]byte
	copy(public[:], pub)

	txs := []codec.Transaction{registerTx(t, priv, public, 0)}

	first, err := e.ExecuteBlock(1, 1, nil, txs)
	if err != nil {
		t.Fatalf("execute height 1: %v", err)
	}
	if first.NoOp {
		t.Fatalf("expected first application of height 1 to execute, got NoOp")
	}
	if first.ExecutedTransactions != 1 {
		t.Fatalf("expected 1 executed transaction, got %d", first.ExecutedTransactions)
	}

	second, err := e.ExecuteBlock(1, 1, nil, txs)
	if err != nil {
		t.Fatalf("replay height 1: %v", err)
	}
	if !second.NoOp {
		t.Fatalf("expected replayed height 1 to be a no-op")
	}
	if second.StateRoot != first.StateRoot {
		t.Fatalf("expected replay to reuse the existing state root")
	}
	if second.EventsRoot != first.EventsRoot {
		t.Fatalf("expected replay to reuse the existing events root")
	}
}

// TestExecuteBlockRejectsNonSequentialHeight covers property 2 / S4: a gap
// in the requested height must fail with the exact spec-mandated message
// shape, leaving state_height unchanged.
func TestExecuteBlockRejectsNonSequentialHeight(t *testing.T) {
	e := newTestExecutor()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var public [32]byte
	copy(public[:], pub)

	if _, err := e.ExecuteBlock(1, 1, nil, []codec.Transaction{registerTx(t, priv, public, 0)}); err != nil {
		t.Fatalf("execute height 1: %v", err)
	}

	_, err = e.ExecuteBlock(3, 1, nil, nil)
	if err == nil {
		t.Fatalf("expected an error applying a non-sequential height")
	}
	ce, ok := err.(*chainerr.Error)
	if !ok {
		t.Fatalf("expected a *chainerr.Error, got %T", err)
	}
	msg := ce.Error()
	for _, want := range []string{"non-sequential height", "state_height=1", "expected=2", "requested=3"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected error message %q to contain %q", msg, want)
		}
	}

	if got := e.stateHeight(); got != 1 {
		t.Fatalf("expected state_height to remain 1 after a rejected height, got %d", got)
	}
}

// TestExecuteBlockRecoversWhenEventsAheadOfState covers S5: if a crash
// leaves the events store ahead of the state store's committed height (the
// window between spec.md §4.3 step 8's two commits), replaying the same
// height against the recovered state must be idempotent and reach the same
// state root as the original, uninterrupted application.
func TestExecuteBlockRecoversWhenEventsAheadOfState(t *testing.T) {
	e := newTestExecutor()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var public [32]byte
	copy(public[:], pub)

	txs := []codec.Transaction{registerTx(t, priv, public, 0)}

	original, err := e.ExecuteBlock(1, 1, nil, txs)
	if err != nil {
		t.Fatalf("execute height 1: %v", err)
	}

	// Simulate the crash window: the events store already recorded height
	// 1 (done above, never undone), but none of the state store's writes
	// for height 1, its Commit metadata included, landed.
	e.State = store.NewKV()
	if got := e.stateHeight(); got != 0 {
		t.Fatalf("expected rolled-back state_height 0, got %d", got)
	}

	recovered, err := e.ExecuteBlock(1, 1, nil, txs)
	if err != nil {
		t.Fatalf("recovery re-execution of height 1: %v", err)
	}
	if recovered.NoOp {
		t.Fatalf("expected recovery replay to re-execute, not no-op")
	}
	if recovered.StateRoot != original.StateRoot {
		t.Fatalf("expected recovery re-execution to reach the same state root")
	}
	if e.stateHeight() != 1 {
		t.Fatalf("expected state_height to be 1 again after recovery, got %d", e.stateHeight())
	}
}
