package games

import (
	"testing"

	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/rng"
)

func TestCrapsInitComeOut(t *testing.T) {
	session := &GameSession{ID: 9, GameType: codec.GameCraps, Bet: 50}
	r := rng.New([]byte("seed"), session.ID, 0)
	Craps{}.Init(session, r)

	state, ok := parseCrapsState(session.StateBlob)
	if !ok {
		t.Fatalf("failed to parse craps state")
	}
	if state.phase != crapsPhaseComeOut {
		t.Fatalf("expected come-out phase, got %d", state.phase)
	}
}

func TestCrapsRollResolvesOrContinues(t *testing.T) {
	session := &GameSession{ID: 10, GameType: codec.GameCraps, Bet: 50}
	r := rng.New([]byte("seed"), session.ID, 0)
	Craps{}.Init(session, r)

	for i := uint64(1); i < 20 && !session.IsComplete; i++ {
		r := rng.New([]byte("seed"), session.ID, i)
		result, err := Craps{}.ProcessMove(session, []byte{0}, r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Kind == ResultWin && result.Payout == 0 {
			t.Fatalf("win result should carry nonzero payout")
		}
	}
}

func TestCrapsRejectsMoveAfterComplete(t *testing.T) {
	session := &GameSession{ID: 11, GameType: codec.GameCraps, Bet: 50, IsComplete: true}
	r := rng.New([]byte("seed"), session.ID, 0)
	if _, err := Craps{}.ProcessMove(session, []byte{0}, r); err == nil {
		t.Fatalf("expected error for move on completed session")
	}
}

func TestFieldPayout(t *testing.T) {
	if fieldPayoutBps(7) != 0 {
		t.Fatalf("7 should lose on field")
	}
	if fieldPayoutBps(2) != 3*hiloBaseMultiplier {
		t.Fatalf("2 should pay 3x on field")
	}
	if fieldPayoutBps(4) != 2*hiloBaseMultiplier {
		t.Fatalf("4 should pay 2x on field")
	}
}
