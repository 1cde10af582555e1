package games

import (
	"testing"

	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/rng"
)

func testSession(bet uint64) *GameSession {
	return &GameSession{
		ID:       1,
		GameType: codec.GameHiLo,
		Bet:      bet,
	}
}

func TestCardRank(t *testing.T) {
	cases := map[uint8]uint8{0: 1, 13: 1, 26: 1, 1: 2, 12: 13, 25: 13}
	for card, want := range cases {
		if got := cardRank(card); got != want {
			t.Fatalf("cardRank(%d) = %d, want %d", card, got, want)
		}
	}
}

func TestCalculateMultiplier(t *testing.T) {
	if m := calculateMultiplier(1, moveHigher); m != 12*hiloBaseMultiplier/12 {
		t.Fatalf("ace higher = %d", m)
	}
	if m := calculateMultiplier(13, moveLower); m != 12*hiloBaseMultiplier/12 {
		t.Fatalf("king lower = %d", m)
	}
	if m := calculateMultiplier(7, moveHigher); m != 12*hiloBaseMultiplier/6 {
		t.Fatalf("7 higher = %d", m)
	}
	if m := calculateMultiplier(7, moveLower); m != 12*hiloBaseMultiplier/6 {
		t.Fatalf("7 lower = %d", m)
	}
	if m := calculateMultiplier(2, moveLower); m != 12*hiloBaseMultiplier {
		t.Fatalf("2 lower = %d", m)
	}
	if m := calculateMultiplier(7, moveSame); m != 12*hiloBaseMultiplier {
		t.Fatalf("7 same = %d", m)
	}
}

func TestImpossibleGuess(t *testing.T) {
	if m := calculateMultiplier(13, moveHigher); m != 0 {
		t.Fatalf("king higher should be 0, got %d", m)
	}
	if m := calculateMultiplier(1, moveLower); m != 0 {
		t.Fatalf("ace lower should be 0, got %d", m)
	}
}

func TestParseSerializeRoundtrip(t *testing.T) {
	state := serializeHiloState(25, 15000, defaultHiloRules())
	parsed, ok := parseHiloState(state)
	if !ok {
		t.Fatalf("failed to parse state")
	}
	if parsed.currentCard != 25 || parsed.accumulator != 15000 {
		t.Fatalf("unexpected parsed state: %+v", parsed)
	}
}

func TestInitDealsCard(t *testing.T) {
	session := testSession(100)
	r := rng.New([]byte("seed"), session.ID, 0)
	HiLo{}.Init(session, r)

	parsed, ok := parseHiloState(session.StateBlob)
	if !ok {
		t.Fatalf("failed to parse state after init")
	}
	if parsed.currentCard >= codec.NumCards {
		t.Fatalf("invalid card %d", parsed.currentCard)
	}
	if parsed.accumulator != hiloBaseMultiplier {
		t.Fatalf("expected base accumulator, got %d", parsed.accumulator)
	}
	if session.IsComplete {
		t.Fatalf("session should not be complete after init")
	}
}

func TestCashoutImmediately(t *testing.T) {
	session := testSession(100)
	r := rng.New([]byte("seed"), session.ID, 0)
	HiLo{}.Init(session, r)

	r2 := rng.New([]byte("seed"), session.ID, 1)
	result, err := HiLo{}.ProcessMove(session, []byte{2}, r2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !session.IsComplete {
		t.Fatalf("expected session complete after cashout")
	}
	if result.Kind != ResultWin || result.Payout != 100 {
		t.Fatalf("expected win of 100, got %+v", result)
	}
}

func TestCannotGuessHigherThanKing(t *testing.T) {
	session := testSession(100)
	session.StateBlob = serializeHiloState(12, hiloBaseMultiplier, defaultHiloRules())
	r := rng.New([]byte("seed"), session.ID, 1)
	_, err := HiLo{}.ProcessMove(session, []byte{0}, r)
	if err == nil {
		t.Fatalf("expected InvalidMove error")
	}
}

func TestCannotGuessLowerThanAce(t *testing.T) {
	session := testSession(100)
	session.StateBlob = serializeHiloState(0, hiloBaseMultiplier, defaultHiloRules())
	r := rng.New([]byte("seed"), session.ID, 1)
	_, err := HiLo{}.ProcessMove(session, []byte{1}, r)
	if err == nil {
		t.Fatalf("expected InvalidMove error")
	}
}

func TestSameOnlyValidAtEdges(t *testing.T) {
	session := testSession(100)
	session.StateBlob = serializeHiloState(6, hiloBaseMultiplier, defaultHiloRules())
	r := rng.New([]byte("seed"), session.ID, 1)
	if _, err := HiLo{}.ProcessMove(session, []byte{3}, r); err == nil {
		t.Fatalf("expected InvalidMove at middle rank")
	}

	aceSession := testSession(100)
	aceSession.StateBlob = serializeHiloState(0, hiloBaseMultiplier, defaultHiloRules())
	r2 := rng.New([]byte("seed"), aceSession.ID, 1)
	if _, err := HiLo{}.ProcessMove(aceSession, []byte{3}, r2); err != nil {
		t.Fatalf("Same at Ace should be valid, got %v", err)
	}
}

func TestCashoutOverflowReturnsInvalidState(t *testing.T) {
	session := testSession(hiloMaxBaseBetAmount)
	session.StateBlob = serializeHiloState(2, hiloBaseMultiplier*1000, defaultHiloRules())
	r := rng.New([]byte("seed"), session.ID, 1)
	_, err := HiLo{}.ProcessMove(session, []byte{2}, r)
	if err == nil {
		t.Fatalf("expected InvalidState error on overflowing cashout math")
	}
}

func TestDrawWithReplacementDoesNotError(t *testing.T) {
	for moveNum := uint64(1); moveNum < 10; moveNum++ {
		session := testSession(100)
		session.StateBlob = serializeHiloState(0, hiloBaseMultiplier, defaultHiloRules())
		r := rng.New([]byte("seed"), session.ID, moveNum)
		if _, err := HiLo{}.ProcessMove(session, []byte{0}, r); err != nil {
			t.Fatalf("unexpected error on move %d: %v", moveNum, err)
		}
	}
}
