package layer

import (
	"testing"

	"github.com/happybigmtn/nullspace/internal/store"
)

func newTestExecutor() *Executor {
	return NewExecutor(store.NewKV(), store.NewEvents(), nil, nil)
}

func TestPutPlayerAssignsLeaderboardRank(t *testing.T) {
	e := newTestExecutor()

	pk1 := [32]byte{1}
	pk2 := [32]byte{2}

	if err := e.putPlayer(Player{Public: pk1, Chips: 100}); err != nil {
		t.Fatalf("put player 1: %v", err)
	}
	if err := e.putPlayer(Player{Public: pk2, Chips: 200}); err != nil {
		t.Fatalf("put player 2: %v", err)
	}

	p1, _, err := e.getPlayer(pk1)
	if err != nil {
		t.Fatalf("get player 1: %v", err)
	}
	p2, _, err := e.getPlayer(pk2)
	if err != nil {
		t.Fatalf("get player 2: %v", err)
	}

	if p2.Rank != 1 {
		t.Fatalf("expected player 2 (more chips) at rank 1, got %d", p2.Rank)
	}
	if p1.Rank != 2 {
		t.Fatalf("expected player 1 at rank 2, got %d", p1.Rank)
	}
}

func TestLeaderboardCapsAtTenAndClearsDroppedRank(t *testing.T) {
	e := newTestExecutor()

	var lowest [32]byte
	for i := 0; i < 10; i++ {
		pk := [32]byte{byte(i + 1)}
		if i == 0 {
			lowest = pk
		}
		if err := e.putPlayer(Player{Public: pk, Chips: uint64(100 + i)}); err != nil {
			t.Fatalf("seed player %d: %v", i, err)
		}
	}

	lowestBefore, _, err := e.getPlayer(lowest)
	if err != nil {
		t.Fatalf("get lowest: %v", err)
	}
	if lowestBefore.Rank != 10 {
		t.Fatalf("expected lowest-chip seeded player at rank 10, got %d", lowestBefore.Rank)
	}

	newcomer := [32]byte{99}
	if err := e.putPlayer(Player{Public: newcomer, Chips: 1000}); err != nil {
		t.Fatalf("put newcomer: %v", err)
	}

	board, err := e.getOrInitLeaderboard()
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if len(board.Entries) != 10 {
		t.Fatalf("expected leaderboard capped at 10, got %d", len(board.Entries))
	}
	if board.Entries[0].Public != newcomer {
		t.Fatalf("expected newcomer at the top of the leaderboard")
	}

	lowestAfter, _, err := e.getPlayer(lowest)
	if err != nil {
		t.Fatalf("get lowest after drop: %v", err)
	}
	if lowestAfter.Rank != 0 {
		t.Fatalf("expected dropped player's rank cleared to 0, got %d", lowestAfter.Rank)
	}
}

// TestLeaderboardReStampsShiftedRanks ensures a player who merely gets
// pushed down a slot (without falling off the board entirely) still has
// Player.Rank kept current, not just players who are dropped outright.
func TestLeaderboardReStampsShiftedRanks(t *testing.T) {
	e := newTestExecutor()

	pk1 := [32]byte{1}
	pk2 := [32]byte{2}

	if err := e.putPlayer(Player{Public: pk1, Chips: 300}); err != nil {
		t.Fatalf("put player 1: %v", err)
	}
	if err := e.putPlayer(Player{Public: pk2, Chips: 200}); err != nil {
		t.Fatalf("put player 2: %v", err)
	}

	p1, _, err := e.getPlayer(pk1)
	if err != nil {
		t.Fatalf("get player 1: %v", err)
	}
	if p1.Rank != 1 {
		t.Fatalf("expected player 1 at rank 1 before being overtaken, got %d", p1.Rank)
	}

	pk3 := [32]byte{3}
	if err := e.putPlayer(Player{Public: pk3, Chips: 400}); err != nil {
		t.Fatalf("put player 3: %v", err)
	}

	p1After, _, err := e.getPlayer(pk1)
	if err != nil {
		t.Fatalf("get player 1 after overtake: %v", err)
	}
	if p1After.Rank != 2 {
		t.Fatalf("expected player 1's rank re-stamped to 2 after being overtaken, got %d", p1After.Rank)
	}
	p2After, _, err := e.getPlayer(pk2)
	if err != nil {
		t.Fatalf("get player 2 after overtake: %v", err)
	}
	if p2After.Rank != 3 {
		t.Fatalf("expected player 2's rank re-stamped to 3 after being overtaken, got %d", p2After.Rank)
	}
}
