package layer

import (
	"fmt"
	"time"

	"github.com/happybigmtn/nullspace/internal/casinoerr"
	"github.com/happybigmtn/nullspace/internal/chain"
	"github.com/happybigmtn/nullspace/internal/chainerr"
	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/games"
	"github.com/happybigmtn/nullspace/internal/metrics"
	"github.com/happybigmtn/nullspace/internal/store"
)

// Executor is the per-block state-transition engine: the generalized,
// transport-agnostic descendant of the teacher's OCPApp.deliverTx loop. It
// owns the authenticated state store and event log and exposes a single
// entry point, ExecuteBlock, matching spec.md §4.3's 9-step algorithm.
type Executor struct {
	State     *store.KV
	Events    *store.Events
	Games     map[codec.GameType]games.Kernel
	AdminKeys map[[32]byte]bool
	Metrics   *metrics.Layer
}

// NewExecutor wires the default game kernel registry; AdminKeys is supplied
// by internal/config at startup.
func NewExecutor(state *store.KV, events *store.Events, adminKeys map[[32]byte]bool, m *metrics.Layer) *Executor {
	return &Executor{
		State:     state,
		Events:    events,
		Games:     games.Registry(),
		AdminKeys: adminKeys,
		Metrics:   m,
	}
}

// secondsPerView matches spec.md §4.3's determinism requirement: every
// timestamp used by a handler derives from view*3 seconds, never wall clock,
// so honest validators compute identical values.
const secondsPerView = 3

// BlockResult carries everything a caller (the ABCI adapter, block storage)
// needs after executing one height: the resulting roots and one receipt per
// transaction, in submission order. ExecutedTransactions mirrors spec.md
// §4.3 step 9's output field of the same name (the count of transactions in
// the block, rejected ones included, 0 on a no-op replay); StateStartOp/EventsStartOp are
// the op_count snapshots taken at block start, matching the remaining step 9
// fields spec.md names (state_start_op, events_start_op).
type BlockResult struct {
	StateRoot            [32]byte
	EventsRoot           [32]byte
	Receipts             []chain.Receipt
	NoOp                 bool
	ExecutedTransactions int
	StateStartOp         uint64
	EventsStartOp        uint64
}

// stateHeight reads spec.md §4.3 step 1's "state_store metadata": the
// monotonic block number of the last successful state-store commit, or 0 if
// the Commit metadata entry has never been written.
func (e *Executor) stateHeight() uint64 {
	raw, ok := e.State.Get(store.CommitKey())
	if !ok {
		return 0
	}
	height, _, err := store.DecodeCommit(raw)
	if err != nil {
		return 0
	}
	return height
}

// ExecuteBlock applies txs at height against the current state, in order.
// height must be exactly stateHeight+1, or the call is rejected with a
// chainerr (fatal) error; height <= stateHeight is treated as an
// already-applied no-op, reusing the existing roots, per spec.md §4.3 step 2
// (the recovery path that lets events-store-ahead-of-state-store replay
// safely). stateHeight itself is never taken from the caller: it is read
// fresh from the state store's own Commit metadata, so a restarted process
// recovers its height gate from the same snapshot that restored its data.
func (e *Executor) ExecuteBlock(height, view uint64, seedSig []byte, txs []codec.Transaction) (BlockResult, error) {
	stateHeight := e.stateHeight()
	if height <= stateHeight {
		return BlockResult{
			StateRoot:  e.State.Root(),
			EventsRoot: e.Events.Root(stateHeight),
			NoOp:       true,
		}, nil
	}
	if height != stateHeight+1 {
		return BlockResult{}, chainerr.NonSequentialHeight(stateHeight, stateHeight+1, height)
	}

	stateStartOp := e.State.OpCount()
	eventsStartOp := uint64(e.Events.Len())
	started := time.Now()
	nowMs := view * secondsPerView * 1000

	receipts := make([]chain.Receipt, 0, len(txs))
	txOK, txFailed := 0, 0

	for idx, tx := range txs {
		ctx := txContext{
			Signer:  tx.Public,
			Height:  height,
			TxIdx:   uint32(idx),
			NowMs:   nowMs,
			SeedSig: seedSig,
		}

		encoded, err := tx.Encode()
		if err != nil {
			return BlockResult{}, chainerr.CorruptState(err)
		}
		payloadHash := chain.PayloadHash(encoded)

		result, recErr := e.execOne(ctx, tx)
		if recErr != nil {
			return BlockResult{}, chainerr.CorruptState(recErr)
		}

		if result.Success {
			txOK++
			for _, ev := range result.Events {
				e.Events.Append(ev)
			}
			receipts = append(receipts, chain.SuccessReceipt(payloadHash, e.State.Root()))
		} else {
			txFailed++
			e.Events.Append(newEvent(ctx, "CasinoError", map[string]string{
				"code": result.Reject.Code.String(),
				"msg":  result.Reject.Msg,
			}))
			receipts = append(receipts, chain.FailureReceipt(payloadHash, e.State.Root(), result.Reject.Error()))
		}
	}

	e.Events.Append(store.Event{
		Height: height,
		TxIdx:  uint32(len(txs)),
		Type:   "Commit",
		Attrs:  map[string]string{"height": fmt.Sprintf("%d", height)},
	})

	// Step 8: events store committed above (the events log already carries
	// its own per-height Commit marker); state store commits last, so a
	// crash between the two leaves the events store ahead and recovery
	// re-executes this height against a fresh state, per spec.md §4.3 step 8.
	e.State.Put(store.CommitKey(), store.EncodeCommit(height, stateStartOp))

	if e.Metrics != nil {
		e.Metrics.ObserveBlock(time.Since(started).Seconds(), txOK, txFailed)
	}

	return BlockResult{
		StateRoot:            e.State.Root(),
		EventsRoot:           e.Events.Root(height),
		Receipts:             receipts,
		ExecutedTransactions: len(txs),
		StateStartOp:         stateStartOp,
		EventsStartOp:        eventsStartOp,
	}, nil
}

// execOne verifies the signature and nonce, then dispatches to the matching
// handler. A signature or nonce failure is a rejection like any other
// CasinoError (§4.3 step 5a): it does not abort the block.
func (e *Executor) execOne(ctx txContext, tx codec.Transaction) (ExecResult, error) {
	if err := tx.Verify(); err != nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidSignature, "signature verification failed")), nil
	}

	player, exists, err := e.getPlayer(tx.Public)
	if err != nil {
		return ExecResult{}, err
	}
	expectedNonce := uint64(0)
	if exists {
		expectedNonce = player.Nonce
	}
	if tx.Nonce != expectedNonce {
		return reject(casinoerr.New(casinoerr.CodeInvalidNonce, "")), nil
	}

	result, err := e.Dispatch(ctx, tx.Instruction)
	if err != nil {
		return ExecResult{}, err
	}
	if !result.Success {
		return result, nil
	}

	// Re-fetch: the handler may have created the player record (e.g.
	// RegisterAccount) or otherwise mutated it since the read above.
	updated, exists, err := e.getPlayer(tx.Public)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		updated = Player{Public: tx.Public}
	}
	updated.Nonce = tx.Nonce + 1
	if err := e.putPlayer(updated); err != nil {
		return ExecResult{}, err
	}
	return result, nil
}
