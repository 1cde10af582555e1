package roundreplay

// Event is the typed global-table event payload folded by ApplyEvent.
// Exactly the fields relevant to round-state reconstruction are carried;
// player-specific fields (balances, individual bet lists) are irrelevant to
// replay and are omitted, matching original_source's `_` patterns on those
// fields.
type Event struct {
	Kind EventKind

	// RoundOpened
	OpenedRound *Round

	// BetAccepted
	BetRoundID uint64
	Bets       []Bet

	// Locked
	LockGameType      uint8
	LockRoundID       uint64
	LockPhaseEndsAtMs uint64

	// Outcome
	OutcomeRound *Round

	// PlayerSettled
	SettledRoundID uint64

	// Finalized
	FinalGameType uint8
	FinalRoundID  uint64
}
