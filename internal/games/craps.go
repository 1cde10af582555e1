package games

import (
	"fmt"

	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/rng"
)

// Craps is the second, single-session game kernel beside HiLo; it neither
// reads nor writes GlobalTableRound state (internal/roundreplay). Per
// spec.md §4.2's note that non-HiLo games are illustrative only, this
// resolves just pass-line and field bets, not the full craps rulebook. Init
// always opens a pass-line bet and no move payload selects the field bet.
//
// State blob: [phase:u8] [point:u8] [betType:u8] [betAmount:u32 BE]
// phase 0 = come-out, 1 = point established.
// betType 0 = pass line, 1 = field (single-roll).
// betAmount is the session bet, saturated at the uint32 maximum.
type Craps struct{}

const (
	crapsPhaseComeOut uint8 = 0
	crapsPhasePoint   uint8 = 1

	crapsBetPass  uint8 = 0
	crapsBetField uint8 = 1

	crapsStateLen = 7
)

type crapsState struct {
	phase     uint8
	point     uint8
	betType   uint8
	betAmount uint32
}

func parseCrapsState(state []byte) (crapsState, bool) {
	if len(state) != crapsStateLen {
		return crapsState{}, false
	}
	r := codec.NewStateReader(state)
	phase, ok := r.ReadU8()
	if !ok {
		return crapsState{}, false
	}
	point, ok := r.ReadU8()
	if !ok {
		return crapsState{}, false
	}
	betType, ok := r.ReadU8()
	if !ok {
		return crapsState{}, false
	}
	amount, ok := r.ReadU32BE()
	if !ok {
		return crapsState{}, false
	}
	return crapsState{phase: phase, point: point, betType: betType, betAmount: amount}, true
}

func serializeCrapsState(s crapsState) []byte {
	w := codec.NewStateWriter(crapsStateLen)
	w.PushU8(s.phase)
	w.PushU8(s.point)
	w.PushU8(s.betType)
	w.PushU32BE(s.betAmount)
	return w.Bytes()
}

func rollDie(r *rng.GameRng) uint8 {
	return r.GenRange(6) + 1
}

func (Craps) Init(session *GameSession, r *rng.GameRng) Result {
	amount := session.Bet
	if amount > uint64(^uint32(0)) {
		amount = uint64(^uint32(0))
	}
	session.StateBlob = serializeCrapsState(crapsState{
		phase:     crapsPhaseComeOut,
		betType:   crapsBetPass,
		betAmount: uint32(amount),
	})
	return Result{Kind: ResultContinue}
}

// fieldPayoutBps returns the field-bet payout multiplier in basis points for
// a given roll total, or 0 if the roll loses.
func fieldPayoutBps(sum uint8) int64 {
	switch sum {
	case 3, 4, 9, 10, 11:
		return 2 * hiloBaseMultiplier
	case 2, 12:
		return 3 * hiloBaseMultiplier
	default:
		return 0
	}
}

func (Craps) ProcessMove(session *GameSession, payload []byte, r *rng.GameRng) (Result, error) {
	if session.IsComplete {
		return Result{}, errGameAlreadyComplete()
	}
	if len(payload) == 0 {
		return Result{}, errInvalidPayload()
	}
	if payload[0] != 0 {
		return Result{}, errInvalidMove()
	}
	state, ok := parseCrapsState(session.StateBlob)
	if !ok {
		return Result{}, errInvalidState()
	}

	d1 := rollDie(r)
	d2 := rollDie(r)
	sum := d1 + d2

	if state.betType == crapsBetField {
		session.IsComplete = true
		bps := fieldPayoutBps(sum)
		logs := []string{fmt.Sprintf(`{"bet":"field","d1":%d,"d2":%d,"sum":%d}`, d1, d2, sum)}
		if bps == 0 {
			return Result{Kind: ResultLoss, Logs: logs}, nil
		}
		raw, ok := checkedMulDiv(int64(session.Bet), bps, hiloBaseMultiplier)
		if !ok || raw < 0 {
			return Result{}, errInvalidState()
		}
		return Result{Kind: ResultWin, Payout: uint64(raw), Logs: logs}, nil
	}

	// Pass line.
	logs := []string{fmt.Sprintf(`{"bet":"pass","phase":%d,"d1":%d,"d2":%d,"sum":%d}`, state.phase, d1, d2, sum)}
	if state.phase == crapsPhaseComeOut {
		switch sum {
		case 7, 11:
			session.IsComplete = true
			return Result{Kind: ResultWin, Payout: session.Bet * 2, Logs: logs}, nil
		case 2, 3, 12:
			session.IsComplete = true
			return Result{Kind: ResultLoss, Logs: logs}, nil
		default:
			state.phase = crapsPhasePoint
			state.point = sum
			session.StateBlob = serializeCrapsState(state)
			return Result{Kind: ResultContinue, Logs: logs}, nil
		}
	}

	// Point phase.
	switch {
	case sum == state.point:
		session.IsComplete = true
		return Result{Kind: ResultWin, Payout: session.Bet * 2, Logs: logs}, nil
	case sum == 7:
		session.IsComplete = true
		return Result{Kind: ResultLoss, Logs: logs}, nil
	default:
		return Result{Kind: ResultContinue, Logs: logs}, nil
	}
}
