// Package games hosts the per-game-type execution kernels dispatched by
// internal/layer/handlers for casino/start_game and casino/play_move
// instructions. Every kernel is a pure function of (GameSession, payload,
// deterministic rng): no I/O, no wall-clock, no global state.
package games

import (
	"math"
	"math/bits"

	"github.com/happybigmtn/nullspace/internal/casinoerr"
	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/rng"
)

// MaxStateBlobLen is the hard cap on GameSession.StateBlob, matching spec.md's
// data model; kernels must never serialize past it.
const MaxStateBlobLen = 1024

// SuperModeState tracks the "super mode" streak-multiplier bonus referenced
// by the HiLo cashout path.
type SuperModeState struct {
	IsActive bool
}

// GameSession is the durable per-game record addressed by Key::GameSession(id)
// in the state store.
type GameSession struct {
	ID           uint64
	Player       [32]byte
	GameType     codec.GameType
	Bet          uint64
	StateBlob    []byte
	MoveCount    uint32
	CreatedAt    int64
	IsComplete   bool
	SuperMode    SuperModeState
	IsTournament bool
	TournamentID uint64
}

// ResultKind discriminates a kernel's outcome for a single move.
type ResultKind int

const (
	ResultContinue ResultKind = iota
	ResultWin
	ResultLoss
)

// Result is the outcome of Init or ProcessMove. Payout is only meaningful
// when Kind == ResultWin and is the TOTAL amount credited back to the player
// (stake + winnings), matching original_source's GameResult::Win semantics.
type Result struct {
	Kind   ResultKind
	Payout uint64
	Logs   []string
}

// Kernel is the interface every game-type implements. Init deals the opening
// state; ProcessMove applies one player-submitted move.
type Kernel interface {
	Init(session *GameSession, rng *rng.GameRng) Result
	ProcessMove(session *GameSession, payload []byte, rng *rng.GameRng) (Result, error)
}

// errInvalidPayload etc. map 1:1 onto original_source's GameError variants.
func errInvalidPayload() error        { return casinoerr.New(casinoerr.CodeInvalidPayload, "") }
func errInvalidMove() error           { return casinoerr.New(casinoerr.CodeInvalidMove, "") }
func errGameAlreadyComplete() error   { return casinoerr.New(casinoerr.CodeGameAlreadyComplete, "") }
func errDeckExhausted() error         { return casinoerr.New(casinoerr.CodeDeckExhausted, "") }
func errInvalidState() error          { return casinoerr.New(casinoerr.CodeInvalidState, "") }

// checkedMulDiv computes a*b/div with overflow detection, mirroring
// original_source's `checked_mul(...).and_then(checked_div)` pattern used on
// every payout/accumulator path (e.g. execution/src/casino/hilo.rs:282,418).
// Go's signed multiplication silently wraps on overflow instead of trapping,
// so the overflow check has to happen before the multiply ever executes.
func checkedMulDiv(a, b, div int64) (int64, bool) {
	if div == 0 {
		return 0, false
	}
	neg := (a < 0) != (b < 0)
	abs := func(v int64) uint64 {
		if v < 0 {
			return uint64(-v)
		}
		return uint64(v)
	}
	hi, lo := bits.Mul64(abs(a), abs(b))
	if hi != 0 {
		return 0, false
	}
	const magLimit = uint64(1) << 63 // |int64| <= 2^63, with 2^63 only valid when negative
	if neg {
		if lo > magLimit {
			return 0, false
		}
		if lo == magLimit {
			return math.MinInt64 / div, true
		}
		return -int64(lo) / div, true
	}
	if lo >= magLimit {
		return 0, false
	}
	return int64(lo) / div, true
}

// Registry maps a GameType to its kernel implementation.
func Registry() map[codec.GameType]Kernel {
	return map[codec.GameType]Kernel{
		codec.GameHiLo:  HiLo{},
		codec.GameCraps: Craps{},
	}
}
