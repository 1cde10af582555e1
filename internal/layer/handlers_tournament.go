package layer

import (
	"fmt"

	"github.com/happybigmtn/nullspace/internal/casinoerr"
	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/store"
)

func (e *Executor) getTournament(id uint64) (Tournament, bool, error) {
	var t Tournament
	ok, err := getJSON(e.State, store.TournamentKey(id), &t)
	return t, ok, err
}

func (e *Executor) putTournament(t Tournament) error {
	return putJSON(e.State, store.TournamentKey(t.ID), t)
}

func containsEntrant(entrants [][32]byte, pk [32]byte) bool {
	for _, e := range entrants {
		if e == pk {
			return true
		}
	}
	return false
}

func removeEntrant(entrants [][32]byte, pk [32]byte) [][32]byte {
	out := entrants[:0]
	for _, e := range entrants {
		if e != pk {
			out = append(out, e)
		}
	}
	return out
}

// handleTournamentRegister adds the signer to a tournament's entrant pool,
// lazily opening the tournament record on its first registration.
func (e *Executor) handleTournamentRegister(ctx txContext, ix *codec.TournamentRegisterIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing tournament_register fields")), nil
	}
	player, exists, err := e.getPlayer(ctx.Signer)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeUnknownAccount, "")), nil
	}
	if player.IsTournament {
		return reject(casinoerr.New(casinoerr.CodeAlreadyRegistered, "already in a tournament")), nil
	}

	t, exists, err := e.getTournament(ix.TournamentID)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		t = Tournament{ID: ix.TournamentID, Open: true}
	}
	if !t.Open {
		return reject(casinoerr.New(casinoerr.CodeTournamentFull, "tournament is closed")), nil
	}
	if containsEntrant(t.Entrants, ctx.Signer) {
		return reject(casinoerr.New(casinoerr.CodeAlreadyRegistered, "")), nil
	}
	t.Entrants = append(t.Entrants, ctx.Signer)

	player.IsTournament = true
	player.TournamentID = ix.TournamentID
	if err := e.putPlayer(player); err != nil {
		return ExecResult{}, err
	}
	if err := e.putTournament(t); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "TournamentRegistered", map[string]string{
		"tournament_id": fmt.Sprintf("%d", ix.TournamentID),
		"player":        fmt.Sprintf("%x", ctx.Signer),
	})), nil
}

// handleTournamentWithdraw removes the signer from a tournament's entrant
// pool before it starts.
func (e *Executor) handleTournamentWithdraw(ctx txContext, ix *codec.TournamentWithdrawIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing tournament_withdraw fields")), nil
	}
	player, exists, err := e.getPlayer(ctx.Signer)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeUnknownAccount, "")), nil
	}
	if !player.IsTournament || player.TournamentID != ix.TournamentID {
		return reject(casinoerr.New(casinoerr.CodeInvalidState, "not registered in this tournament")), nil
	}

	t, exists, err := e.getTournament(ix.TournamentID)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeInvalidState, "tournament not found")), nil
	}
	t.Entrants = removeEntrant(t.Entrants, ctx.Signer)

	player.IsTournament = false
	player.TournamentID = 0
	if err := e.putPlayer(player); err != nil {
		return ExecResult{}, err
	}
	if err := e.putTournament(t); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "TournamentWithdrawn", map[string]string{
		"tournament_id": fmt.Sprintf("%d", ix.TournamentID),
		"player":        fmt.Sprintf("%x", ctx.Signer),
	})), nil
}
