// Package roundreplay implements event-sourced reconstruction of
// GlobalTableRound state, grounded 1:1 on
// original_source/execution/src/round_replay.rs. It is a standalone
// library: no other package in this module imports it, and neither the
// game kernels nor the executor produce its events.
package roundreplay

import "fmt"

type Phase uint8

const (
	PhaseCooldown Phase = iota
	PhaseOpen
	PhaseLocked
)

// Total is spec.md's GlobalTableTotal accumulator: the running sum wagered
// on one (bet_type, target) pair within a round.
type Total struct {
	BetType uint8
	Target  uint8
	Amount  uint64
}

// Round mirrors original_source's GlobalTableRound.
type Round struct {
	GameType              uint8
	RoundID               uint64
	Phase                 Phase
	PhaseEndsAtMs         uint64
	MainPoint             uint8
	D1                    uint8
	D2                    uint8
	MadePointsMask        uint8
	EpochPointEstablished bool
	FieldPaytable         uint8
	RngCommit             []byte
	RollSeed              []byte
	Totals                []Total
}

// Bet mirrors original_source's GlobalTableBet: one player's wager within a
// round, before accumulation into Totals.
type Bet struct {
	BetType uint8
	Target  uint8
	Amount  uint64
}

// EventKind discriminates the subset of store.Event.Type values this
// package folds into Round state; everything else is ignored during
// replay, matching the Rust original's catch-all `_ => {}` arm.
type EventKind string

const (
	EventRoundOpened    EventKind = "global_table_round_opened"
	EventBetAccepted    EventKind = "global_table_bet_accepted"
	EventLocked         EventKind = "global_table_locked"
	EventOutcome        EventKind = "global_table_outcome"
	EventPlayerSettled  EventKind = "global_table_player_settled"
	EventFinalized      EventKind = "global_table_finalized"
)

// Error mirrors original_source's ReplayError.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

func errRoundMismatch(expected, got uint64) error {
	return &Error{Msg: fmt.Sprintf("round mismatch: expected %d, got %d", expected, got)}
}

func errGameTypeMismatch(expected, got uint8) error {
	return &Error{Msg: fmt.Sprintf("game type mismatch: expected %d, got %d", expected, got)}
}

func errInvalidSnapshot(msg string) error {
	return &Error{Msg: fmt.Sprintf("invalid snapshot: %s", msg)}
}

// InitialSnapshot returns the zero-value starting point for a fresh round of
// gameType, used when no prior snapshot exists.
func InitialSnapshot(gameType uint8) Snapshot {
	return Snapshot{GameType: gameType, Phase: PhaseCooldown}
}
