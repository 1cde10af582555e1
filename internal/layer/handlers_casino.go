package layer

import (
	"fmt"

	"github.com/happybigmtn/nullspace/internal/casinoerr"
	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/games"
	"github.com/happybigmtn/nullspace/internal/rng"
	"github.com/happybigmtn/nullspace/internal/store"
)

func (e *Executor) getSession(id uint64) (games.GameSession, bool, error) {
	var s games.GameSession
	ok, err := getJSON(e.State, store.GameSessionKey(id), &s)
	return s, ok, err
}

func (e *Executor) putSession(s games.GameSession) error {
	return putJSON(e.State, store.GameSessionKey(s.ID), s)
}

// handleStartGame debits the bet, allocates a session id, and deals the
// kernel's opening state — the generalized analog of the teacher's
// poker/start_hand handler for a single-player game-type registry.
func (e *Executor) handleStartGame(ctx txContext, ix *codec.StartGameIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing start_game fields")), nil
	}
	kernel, known := e.Games[ix.GameType]
	if !known {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "unknown game type")), nil
	}
	if ix.Bet == 0 {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "bet must be > 0")), nil
	}
	player, exists, err := e.getPlayer(ctx.Signer)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeUnknownAccount, "")), nil
	}
	if err := debitChips(&player, ix.Bet); err != nil {
		return reject(err.(*casinoerr.Error)), nil
	}

	house, err := e.getOrInitHouseState()
	if err != nil {
		return ExecResult{}, err
	}
	sessionID := house.NextSessionID
	house.NextSessionID++
	house.TotalBetsOutstanding += ix.Bet

	session := games.GameSession{
		ID:           sessionID,
		Player:       ctx.Signer,
		GameType:     ix.GameType,
		Bet:          ix.Bet,
		CreatedAt:    int64(ctx.NowMs),
		IsTournament: ix.IsTournament,
		TournamentID: ix.TournamentID,
	}
	r := rng.New(ctx.SeedSig, sessionID, 0)
	result := kernel.Init(&session, r)

	if err := e.settleResult(&player, &house, result); err != nil {
		return ExecResult{}, err
	}
	if err := e.putPlayer(player); err != nil {
		return ExecResult{}, err
	}
	if err := e.putHouseState(house); err != nil {
		return ExecResult{}, err
	}
	if err := e.putSession(session); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "GameStarted", map[string]string{
		"session_id": fmt.Sprintf("%d", sessionID),
		"game_type":  fmt.Sprintf("%d", ix.GameType),
		"bet":        fmt.Sprintf("%d", ix.Bet),
	})), nil
}

// handlePlayMove applies one move to an existing session, using a stream
// keyed by (seed_sig, session_id, move_count) so replays of the same block
// always reproduce the same cards/rolls.
func (e *Executor) handlePlayMove(ctx txContext, ix *codec.PlayMoveIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing play_move fields")), nil
	}
	session, exists, err := e.getSession(ix.SessionID)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeSessionNotFound, "")), nil
	}
	if session.Player != ctx.Signer {
		return reject(casinoerr.New(casinoerr.CodeInvalidSignature, "not session owner")), nil
	}
	if session.IsComplete {
		return reject(casinoerr.New(casinoerr.CodeGameAlreadyComplete, "")), nil
	}
	kernel, known := e.Games[session.GameType]
	if !known {
		return reject(casinoerr.New(casinoerr.CodeInvalidState, "unknown game type in session")), nil
	}

	player, exists, err := e.getPlayer(ctx.Signer)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeUnknownAccount, "")), nil
	}
	house, err := e.getOrInitHouseState()
	if err != nil {
		return ExecResult{}, err
	}

	r := rng.New(ctx.SeedSig, session.ID, uint64(session.MoveCount)+1)
	result, moveErr := kernel.ProcessMove(&session, ix.Payload, r)
	if moveErr != nil {
		if ce, isCasino := moveErr.(*casinoerr.Error); isCasino {
			return reject(ce), nil
		}
		return ExecResult{}, moveErr
	}
	session.MoveCount++

	if err := e.settleResult(&player, &house, result); err != nil {
		return ExecResult{}, err
	}
	if err := e.putPlayer(player); err != nil {
		return ExecResult{}, err
	}
	if err := e.putHouseState(house); err != nil {
		return ExecResult{}, err
	}
	if err := e.putSession(session); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "MoveApplied", map[string]string{
		"session_id": fmt.Sprintf("%d", session.ID),
		"complete":   fmt.Sprintf("%t", session.IsComplete),
	})), nil
}

// settleResult applies a kernel Result to the player's balance and the
// house's outstanding-bet tally. A ResultContinue leaves both untouched: the
// bet stays outstanding until the session completes.
func (e *Executor) settleResult(player *Player, house *HouseState, result games.Result) error {
	switch result.Kind {
	case games.ResultWin:
		creditChips(player, result.Payout)
		if house.TotalBetsOutstanding > 0 {
			house.TotalBetsOutstanding--
		}
		house.TotalPaidOut += result.Payout
	case games.ResultLoss:
		if house.TotalBetsOutstanding > 0 {
			house.TotalBetsOutstanding--
		}
	case games.ResultContinue:
	}
	return nil
}
