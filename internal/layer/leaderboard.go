package layer

import (
	"sort"

	"github.com/happybigmtn/nullspace/internal/store"
)

// updateLeaderboard inserts or refreshes pk's chip count in the leaderboard,
// keeping only the top 10 entries sorted by chips descending (ties keep
// existing relative order, per spec.md's stable-insertion requirement).
// Every retained entry's Player.Rank is re-stamped to its new position — a
// player who merely shifts down a slot because someone else overtook them
// still needs their cached rank updated, not just players pushed off the
// list entirely — and every dropped entry's Player.Rank is zeroed. Returns
// pk's new 1-based rank, or 0 if it didn't make the cut.
func (e *Executor) updateLeaderboard(pk [32]byte, chips uint64) (uint32, error) {
	board, err := e.getOrInitLeaderboard()
	if err != nil {
		return 0, err
	}

	entries := make([]LeaderboardEntry, 0, len(board.Entries)+1)
	for _, entry := range board.Entries {
		if entry.Public == pk {
			continue
		}
		entries = append(entries, entry)
	}
	entries = append(entries, LeaderboardEntry{Public: pk, Chips: chips})

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Chips > entries[j].Chips
	})

	var dropped []LeaderboardEntry
	const maxEntries = 10
	if len(entries) > maxEntries {
		dropped = entries[maxEntries:]
		entries = entries[:maxEntries]
	}

	if err := e.putLeaderboard(Leaderboard{Entries: entries}); err != nil {
		return 0, err
	}

	var pkRank uint32
	for i, entry := range entries {
		rank := uint32(i + 1)
		if entry.Public == pk {
			pkRank = rank
			continue
		}
		if err := e.setPlayerRank(entry.Public, rank); err != nil {
			return 0, err
		}
	}
	for _, d := range dropped {
		if d.Public == pk {
			continue
		}
		if err := e.setPlayerRank(d.Public, 0); err != nil {
			return 0, err
		}
	}

	return pkRank, nil
}

// setPlayerRank overwrites a player's cached rank without re-entering
// updateLeaderboard (the caller already owns the authoritative leaderboard
// state for this update).
func (e *Executor) setPlayerRank(pk [32]byte, rank uint32) error {
	p, ok, err := e.getPlayer(pk)
	if err != nil || !ok {
		return err
	}
	if p.Rank == rank {
		return nil
	}
	p.Rank = rank
	return putJSON(e.State, store.PlayerKey(p.Public), p)
}
