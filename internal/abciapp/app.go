// Package abciapp adapts internal/layer.Executor to CometBFT's ABCI
// lifecycle, grounded 1:1 on the teacher's internal/app/app.go (OCPApp):
// same mutex-guarded struct shape, same Info/CheckTx/InitChain/FinalizeBlock/
// Commit/Query method set, same okEvent-style sorted-attribute event
// construction (already generalized into internal/layer/dispatch.go's
// newEvent and internal/store's Event.Encode).
package abciapp

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/sirupsen/logrus"

	"github.com/happybigmtn/nullspace/internal/chain"
	"github.com/happybigmtn/nullspace/internal/chainerr"
	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/layer"
	"github.com/happybigmtn/nullspace/internal/metrics"
	"github.com/happybigmtn/nullspace/internal/seed"
	"github.com/happybigmtn/nullspace/internal/store"
)

// AppVersion is reported in Info and bumped on any wire-incompatible change.
const AppVersion uint64 = 1

// secondsPerView matches internal/layer.secondsPerView: view*3 seconds is
// the only clock every handler is allowed to read.
const secondsPerView = 3

// App is the ABCI boundary: the only internal package in this module that
// imports CometBFT (cmd/casinod imports it only to run the ABCI server).
// Every block it finalizes decodes to a single call into
// layer.Executor.ExecuteBlock, which knows nothing about ABCI at all.
type App struct {
	*abci.BaseApplication

	home string
	log  *logrus.Entry

	mu       sync.Mutex
	storage  *chain.FileBlockStorage
	state    *store.KV
	events   *store.Events
	executor *layer.Executor

	seedVerifier *seed.Verifier // nil in devnet mode: seed bytes are trusted, not verified

	height     uint64
	stateRoot  [32]byte
	parentHash [32]byte

	pendingReceipts []chain.Receipt // set by FinalizeBlock, persisted and cleared by Commit
}

// Config carries everything New needs beyond the home directory, so the
// caller (cmd/casinod) owns parsing internal/config and wiring metrics.
type Config struct {
	Home         string
	AdminKeys    map[[32]byte]bool
	SeedGroupKey []byte // compressed BLS12-381 G1 group public key; nil disables verification
	Metrics      *metrics.Layer
	StorageStats *metrics.Storage
	Log          *logrus.Entry
}

// New opens block storage under home, recovers the chain tip and full state
// snapshot if one exists, and wires a fresh layer.Executor against it. A
// brand-new home starts at height 0 with empty state.
func New(cfg Config) (*App, error) {
	log := cfg.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "abciapp")

	storage, err := chain.OpenFileBlockStorage(cfg.Home, cfg.StorageStats, log)
	if err != nil {
		return nil, fmt.Errorf("abciapp: open storage: %w", err)
	}

	state := store.NewKV()
	events := store.NewEvents()
	var height uint64
	var stateRoot [32]byte
	var parentHash [32]byte

	chainState, ok, err := storage.Recover()
	if err != nil {
		return nil, fmt.Errorf("abciapp: recover chain state: %w", err)
	}
	if ok {
		height = chainState.Height
		stateRoot = chainState.StateRoot
		parentHash = chainState.Tip
		if snapshot, hasSnapshot, err := storage.GetStateSnapshot(); err != nil {
			return nil, fmt.Errorf("abciapp: load state snapshot: %w", err)
		} else if hasSnapshot {
			state.Restore(snapshot)
		}
		if state.Root() != stateRoot {
			log.WithFields(logrus.Fields{
				"persisted_root": fmt.Sprintf("%x", stateRoot),
				"restored_root":  fmt.Sprintf("%x", state.Root()),
			}).Warn("restored state snapshot does not match persisted root; continuing with snapshot contents")
		}
	}

	var verifier *seed.Verifier
	if len(cfg.SeedGroupKey) != 0 {
		verifier, err = seed.NewVerifier(cfg.SeedGroupKey)
		if err != nil {
			return nil, fmt.Errorf("abciapp: seed verifier: %w", err)
		}
	} else {
		log.Warn("no seed group public key configured; running with unverified block seeds (devnet only)")
	}

	executor := layer.NewExecutor(state, events, cfg.AdminKeys, cfg.Metrics)

	return &App{
		BaseApplication: abci.NewBaseApplication(),
		home:            cfg.Home,
		log:             log,
		storage:         storage,
		state:           state,
		events:          events,
		executor:        executor,
		seedVerifier:    verifier,
		height:          height,
		stateRoot:       stateRoot,
		parentHash:      parentHash,
	}, nil
}

func (a *App) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "nullspace casino chain",
		Version:          "v1",
		AppVersion:       AppVersion,
		LastBlockHeight:  int64(a.height),
		LastBlockAppHash: a.stateRoot[:],
	}, nil
}

// CheckTx only performs structural validation (decode + signature), mirroring
// the teacher's "v0: only structural validation" note. Nonce/balance checks
// happen in FinalizeBlock, where the canonical player state is visible.
func (a *App) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	tx, err := codec.DecodeTransaction(req.Tx)
	if err != nil {
		return &abci.CheckTxResponse{Code: 1, Log: err.Error()}, nil
	}
	if err := tx.Verify(); err != nil {
		return &abci.CheckTxResponse{Code: 1, Log: err.Error()}, nil
	}
	return &abci.CheckTxResponse{Code: 0}, nil
}

func (a *App) InitChain(_ context.Context, _ *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	return &abci.InitChainResponse{}, nil
}

// FinalizeBlock realizes spec.md §6's consensus-ingress contract
// {height, seed: Seed{view, signature}, transactions} over CometBFT's actual
// FinalizeBlockRequest{Height, Time, Txs}: view is taken to be the block
// height itself (CometBFT has no separate view/round counter at this layer),
// and the seed's BLS signature is carried as the last entry of Txs rather
// than a dedicated request field — a devnet simplification of the real
// threshold-signature beacon the original system's seeder actor produces,
// documented in DESIGN.md.
func (a *App) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	height := uint64(req.Height)
	view := height

	rawTxs := req.Txs
	var seedSig []byte
	if len(rawTxs) > 0 {
		seedSig = rawTxs[len(rawTxs)-1]
		rawTxs = rawTxs[:len(rawTxs)-1]
	}
	if a.seedVerifier != nil {
		if err := a.seedVerifier.Verify(view, seedSig); err != nil {
			return nil, fmt.Errorf("abciapp: seed verification failed at height %d: %w", height, err)
		}
	}

	// Malformed transactions never reach the Layer at all: they are rejected
	// here with their own ExecTxResult, in req.Txs order, ahead of the
	// decodable batch's results.
	txs := make([]codec.Transaction, 0, len(rawTxs))
	malformed := 0
	for _, raw := range rawTxs {
		tx, err := codec.DecodeTransaction(raw)
		if err != nil {
			malformed++
			continue
		}
		txs = append(txs, tx)
	}

	result, err := a.executor.ExecuteBlock(height, view, seedSig, txs)
	if err != nil {
		if ce, ok := err.(*chainerr.Error); ok {
			return nil, fmt.Errorf("abciapp: fatal block error at height %d: %w", height, ce)
		}
		return nil, fmt.Errorf("abciapp: execute block %d: %w", height, err)
	}

	txResults := make([]*abci.ExecTxResult, 0, len(rawTxs))
	for i := 0; i < malformed; i++ {
		txResults = append(txResults, &abci.ExecTxResult{Code: 1, Log: "malformed transaction"})
	}
	for _, r := range result.Receipts {
		if r.Success {
			txResults = append(txResults, &abci.ExecTxResult{Code: 0})
		} else {
			txResults = append(txResults, &abci.ExecTxResult{Code: 1, Log: r.Error})
		}
	}

	if !result.NoOp {
		a.height = height
		a.stateRoot = result.StateRoot
		a.pendingReceipts = result.Receipts
	}

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.stateRoot[:],
	}, nil
}

// Commit persists the finalized block, its receipts, and a snapshot of the
// state store, following the teacher's "persist after each block for devnet
// durability" pattern in a crash-safe write-temp-then-rename sequence.
func (a *App) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.Commit()

	header := chain.BlockHeader{
		Version:      1,
		Height:       a.height,
		ParentHash:   a.parentHash,
		ReceiptsRoot: chain.ComputeReceiptsRoot(a.pendingReceipts),
		StateRoot:    a.stateRoot,
		TimestampMs:  a.height * secondsPerView * 1000,
	}
	block := chain.Block{Header: header}
	blockHash := header.BlockHash()
	fin := chain.NewFinalization(a.height, blockHash)
	chainState := chain.ChainState{
		Tip:        blockHash,
		Height:     a.height,
		StateRoot:  a.stateRoot,
		HasGenesis: true,
	}
	if err := a.storage.PersistFinalized(block, fin, a.pendingReceipts, chainState, a.state.Snapshot()); err != nil {
		return nil, fmt.Errorf("abciapp: persist finalized block %d: %w", a.height, err)
	}
	a.parentHash = blockHash
	a.pendingReceipts = nil

	return &abci.CommitResponse{}, nil
}

// Query exposes read-only state lookups: /account/<hex pubkey>,
// /session/<id> and /leaderboard, mirroring the teacher's /account,
// /table, /dealer/epoch paths.
func (a *App) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	path := strings.TrimSpace(req.Path)
	switch {
	case strings.HasPrefix(path, "/account/"):
		return a.queryAccount(strings.TrimPrefix(path, "/account/"))
	case strings.HasPrefix(path, "/session/"):
		return a.querySession(strings.TrimPrefix(path, "/session/"))
	case path == "/leaderboard":
		return a.queryLeaderboard()
	default:
		return &abci.QueryResponse{Code: 1, Log: "unknown query path", Height: int64(a.height)}, nil
	}
}

func (a *App) queryAccount(hexKey string) (*abci.QueryResponse, error) {
	raw, err := decodeHexKey(hexKey)
	if err != nil {
		return &abci.QueryResponse{Code: 1, Log: "invalid account key", Height: int64(a.height)}, nil
	}
	value, ok := a.state.Get(store.PlayerKey(raw))
	if !ok {
		return &abci.QueryResponse{Code: 1, Log: "account not found", Height: int64(a.height)}, nil
	}
	return &abci.QueryResponse{Code: 0, Value: value, Height: int64(a.height)}, nil
}

func (a *App) querySession(idStr string) (*abci.QueryResponse, error) {
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return &abci.QueryResponse{Code: 1, Log: "invalid session id", Height: int64(a.height)}, nil
	}
	value, ok := a.state.Get(store.GameSessionKey(id))
	if !ok {
		return &abci.QueryResponse{Code: 1, Log: "session not found", Height: int64(a.height)}, nil
	}
	return &abci.QueryResponse{Code: 0, Value: value, Height: int64(a.height)}, nil
}

func (a *App) queryLeaderboard() (*abci.QueryResponse, error) {
	value, ok := a.state.Get(store.LeaderboardKey())
	if !ok {
		return &abci.QueryResponse{Code: 0, Value: []byte(`{"entries":[]}`), Height: int64(a.height)}, nil
	}
	return &abci.QueryResponse{Code: 0, Value: value, Height: int64(a.height)}, nil
}

func decodeHexKey(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("abciapp: account key must be 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
