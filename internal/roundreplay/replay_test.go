package roundreplay

import "testing"

func TestSnapshotRoundTrip(t *testing.T) {
	round := Round{
		GameType: 1,
		RoundID:  5,
		Phase:    PhaseOpen,
		Totals:   []Total{{BetType: 0, Target: 0, Amount: 10}},
	}
	snap := FromRound(round)
	restored := snap.ToRound()
	if restored.RoundID != round.RoundID || restored.Phase != round.Phase {
		t.Fatalf("roundtrip mismatch: %+v", restored)
	}
}

func TestReplayAccumulatesBets(t *testing.T) {
	snap := InitialSnapshot(1)
	snap.RoundID = 1
	snap.Phase = PhaseOpen

	events := []Event{
		{Kind: EventBetAccepted, BetRoundID: 1, Bets: []Bet{{BetType: 0, Target: 0, Amount: 10}}},
		{Kind: EventBetAccepted, BetRoundID: 1, Bets: []Bet{{BetType: 0, Target: 0, Amount: 5}}},
	}
	round, err := ReplayFromEvents(snap, events)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(round.Totals) != 1 || round.Totals[0].Amount != 15 {
		t.Fatalf("expected accumulated total of 15, got %+v", round.Totals)
	}
}

func TestReplayRejectsRoundMismatch(t *testing.T) {
	snap := InitialSnapshot(1)
	snap.RoundID = 1

	events := []Event{
		{Kind: EventBetAccepted, BetRoundID: 2, Bets: []Bet{{Amount: 1}}},
	}
	if _, err := ReplayFromEvents(snap, events); err == nil {
		t.Fatalf("expected round mismatch error")
	}
}

func TestReplayLockedThenOutcome(t *testing.T) {
	snap := InitialSnapshot(1)
	snap.RoundID = 1
	snap.Phase = PhaseOpen

	outcome := &Round{GameType: 1, RoundID: 1, Phase: PhaseCooldown, D1: 3, D2: 4, MainPoint: 7}
	events := []Event{
		{Kind: EventLocked, LockGameType: 1, LockRoundID: 1, LockPhaseEndsAtMs: 1000},
		{Kind: EventOutcome, OutcomeRound: outcome},
		{Kind: EventFinalized, FinalGameType: 1, FinalRoundID: 1},
	}
	round, err := ReplayFromEvents(snap, events)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if round.D1 != 3 || round.D2 != 4 {
		t.Fatalf("expected dice carried from outcome event, got %+v", round)
	}
	if round.Phase != PhaseCooldown {
		t.Fatalf("expected cooldown phase after finalize, got %v", round.Phase)
	}
}

func TestFilterRoundEventsByRoundID(t *testing.T) {
	events := []Event{
		{Kind: EventBetAccepted, BetRoundID: 1},
		{Kind: EventBetAccepted, BetRoundID: 2},
		{Kind: EventFinalized, FinalGameType: 1, FinalRoundID: 1},
	}
	filtered := FilterRoundEvents(events, 1, 1)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 events for round 1, got %d", len(filtered))
	}
}

func TestSnapshotValidateRejectsBadLengths(t *testing.T) {
	snap := InitialSnapshot(1)
	snap.RollSeed = []byte{1, 2, 3}
	if err := snap.Validate(); err == nil {
		t.Fatalf("expected validation error for short roll_seed")
	}
}
