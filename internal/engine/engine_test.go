package engine

import (
	"testing"
	"time"

	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/mempool"
)

func testTx(public byte, nonce uint64) codec.Transaction {
	return codec.Transaction{
		Public:      [32]byte{public},
		Nonce:       nonce,
		Instruction: codec.Instruction{Tag: codec.InstrRegisterAccount, RegisterAccount: &codec.RegisterAccountIx{}},
	}
}

func TestIngestorDrainsIntoMempool(t *testing.T) {
	pool := mempool.New(mempool.DefaultMaxBacklog, mempool.DefaultMaxTransactions, nil)
	ig := NewIngestor(pool, nil, 4, PolicyBlock, nil)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = ig.Run(stop)
		close(done)
	}()

	if !ig.Submit(testTx(1, 0), stop) {
		t.Fatalf("expected submit to succeed")
	}

	deadline := time.After(time.Second)
	for {
		total, _ := pool.Stats()
		if total == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("transaction never reached the mempool")
		default:
		}
	}

	close(stop)
	<-done
}

func TestIngestorDropPolicyRejectsWhenFull(t *testing.T) {
	pool := mempool.New(mempool.DefaultMaxBacklog, mempool.DefaultMaxTransactions, nil)
	ig := NewIngestor(pool, nil, 1, PolicyDrop, nil)
	stop := make(chan struct{})
	defer close(stop)

	if !ig.Submit(testTx(1, 0), stop) {
		t.Fatalf("expected first submit to fill the single mailbox slot")
	}
	if ig.Submit(testTx(2, 0), stop) {
		t.Fatalf("expected second submit to be dropped while mailbox is full and undrained")
	}
}

func TestSupervisorStopsAllTasksWhenOneExits(t *testing.T) {
	var stopped int32
	finished := make(chan struct{})

	longRunner := func(stop <-chan struct{}) error {
		<-stop
		finished <- struct{}{}
		return nil
	}
	quickExit := func(stop <-chan struct{}) error {
		return nil
	}

	sup := NewSupervisor(longRunner, quickExit)
	errCh := make(chan error, 1)
	go func() { errCh <- sup.Run() }()

	select {
	case <-finished:
		stopped = 1
	case <-time.After(time.Second):
		t.Fatalf("long-running task was never stopped after sibling exited")
	}
	if stopped != 1 {
		t.Fatalf("expected long-running task to observe stop")
	}
	if err := <-errCh; err != nil {
		t.Fatalf("expected nil error from supervisor, got %v", err)
	}
}
