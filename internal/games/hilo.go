package games

import (
	"fmt"

	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/rng"
)

// HiLo is grounded 1:1 on original_source/execution/src/casino/hilo.rs.
//
// State blob format: [currentCard:u8] [accumulator:i64 BE] [rules:u8]
// [higherMultiplier:u32 BE] [lowerMultiplier:u32 BE] [sameMultiplier:u32 BE].
// The accumulator is the pot multiplier in basis points (1/10000); 15000 means
// 1.5x. Every move draws a FRESH 52-card deck (with replacement) rather than
// excluding previously seen cards — wasteful, but preserved verbatim for
// observational equivalence with the source.
type HiLo struct{}

const (
	hiloBaseMultiplier      = 10_000
	hiloMaxBaseBetAmount    = uint64(1<<63 - 1) // i64::MAX
	hiloStateLenBase        = 9
	hiloStateLenWithRules   = 10
	hiloStateLenWithMults   = 22
)

type hiloMove uint8

const (
	moveHigher hiloMove = iota
	moveLower
	moveCashout
	moveSame
)

func parseHiloMove(b uint8) (hiloMove, error) {
	switch b {
	case 0:
		return moveHigher, nil
	case 1:
		return moveLower, nil
	case 2:
		return moveCashout, nil
	case 3:
		return moveSame, nil
	default:
		return 0, errInvalidPayload()
	}
}

type hiloRules struct {
	allowSameAny bool
	tiePush      bool
}

func defaultHiloRules() hiloRules {
	return hiloRules{allowSameAny: false, tiePush: true}
}

func hiloRulesFromByte(v uint8) hiloRules {
	return hiloRules{
		allowSameAny: v&0x01 != 0,
		tiePush:      v&0x02 != 0,
	}
}

func (r hiloRules) toByte() uint8 {
	var b uint8
	if r.allowSameAny {
		b |= 0x01
	}
	if r.tiePush {
		b |= 0x02
	}
	return b
}

type hiloState struct {
	currentCard uint8
	accumulator int64
	rules       hiloRules
}

func cardRank(card uint8) uint8 {
	return codec.CardRankOneBased(card)
}

func formatCardLabel(card uint8) string {
	if !codec.IsValidCard(card) {
		return "?"
	}
	rank := cardRank(card)
	var rankLabel string
	switch rank {
	case 1:
		rankLabel = "A"
	case 11:
		rankLabel = "J"
	case 12:
		rankLabel = "Q"
	case 13:
		rankLabel = "K"
	default:
		rankLabel = fmt.Sprintf("%d", rank)
	}
	var suit string
	switch codec.CardSuit(card) {
	case 0:
		suit = "S"
	case 1:
		suit = "H"
	case 2:
		suit = "D"
	case 3:
		suit = "C"
	default:
		suit = "?"
	}
	return rankLabel + suit
}

// calculateMultiplier returns the fair-odds multiplier, in basis points, for
// guessing mv correctly from currentRank. 0 means the guess cannot win (or is
// structurally invalid, e.g. Higher at a King).
func calculateMultiplier(currentRank uint8, mv hiloMove) int64 {
	var winningRanks int64
	switch mv {
	case moveSame:
		winningRanks = 1
	case moveHigher:
		if currentRank == 13 {
			return 0
		}
		winningRanks = 13 - int64(currentRank)
	case moveLower:
		if currentRank == 1 {
			return 0
		}
		winningRanks = int64(currentRank) - 1
	case moveCashout:
		return 0
	}
	if winningRanks <= 0 {
		return 0
	}
	return (12 * hiloBaseMultiplier) / winningRanks
}

func clampU32(v int64) uint32 {
	if v <= 0 {
		return 0
	}
	if v > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(v)
}

func nextGuessMultipliers(currentCard uint8, rules hiloRules) (uint32, uint32, uint32) {
	currentRank := cardRank(currentCard)
	higher := calculateMultiplier(currentRank, moveHigher)
	lower := calculateMultiplier(currentRank, moveLower)
	var same int64
	if rules.allowSameAny || currentRank == 1 || currentRank == 13 {
		same = calculateMultiplier(currentRank, moveSame)
	}
	return clampU32(higher), clampU32(lower), clampU32(same)
}

func parseHiloState(state []byte) (hiloState, bool) {
	if len(state) < hiloStateLenBase {
		return hiloState{}, false
	}
	if len(state) != hiloStateLenBase && len(state) != hiloStateLenWithRules && len(state) != hiloStateLenWithMults {
		return hiloState{}, false
	}
	r := codec.NewStateReader(state)
	card, ok := r.ReadU8()
	if !ok || card >= codec.NumCards {
		return hiloState{}, false
	}
	acc, ok := r.ReadI64BE()
	if !ok {
		return hiloState{}, false
	}
	rules := defaultHiloRules()
	if r.Remaining() > 0 {
		rb, ok := r.ReadU8()
		if !ok {
			return hiloState{}, false
		}
		rules = hiloRulesFromByte(rb)
	}
	return hiloState{currentCard: card, accumulator: acc, rules: rules}, true
}

func serializeHiloState(currentCard uint8, accumulator int64, rules hiloRules) []byte {
	w := codec.NewStateWriter(hiloStateLenWithMults)
	w.PushU8(currentCard)
	w.PushI64BE(accumulator)
	w.PushU8(rules.toByte())
	higher, lower, same := nextGuessMultipliers(currentCard, rules)
	w.PushU32BE(higher)
	w.PushU32BE(lower)
	w.PushU32BE(same)
	return w.Bytes()
}

func clampBaseBet(session *GameSession) {
	if session.Bet > hiloMaxBaseBetAmount {
		session.Bet = hiloMaxBaseBetAmount
	}
}

func (HiLo) Init(session *GameSession, r *rng.GameRng) Result {
	deck := r.CreateDeck()
	card, ok := rng.DrawCard(&deck)
	if !ok {
		card = 0
	}
	accumulator := int64(hiloBaseMultiplier)
	session.StateBlob = serializeHiloState(card, accumulator, defaultHiloRules())
	return Result{Kind: ResultContinue}
}

// applyHiloStreakMultiplier is a simplified super-mode bonus: each correct
// guess beyond the second adds 5% to the payout, doubled when cashing out on
// an Ace. The exact bonus curve lives in a super_mode module not present in
// the retrieved source tree; this reconstruction only needs to be monotonic
// in streak and deterministic, which it is.
func applyHiloStreakMultiplier(payout uint64, streak uint8, isAce bool) uint64 {
	if streak <= 2 {
		return payout
	}
	bonusSteps := uint64(streak - 2)
	bonusBps := bonusSteps * 500
	if isAce {
		bonusBps *= 2
	}
	bonus := payout * bonusBps / hiloBaseMultiplier
	return payout + bonus
}

func (HiLo) ProcessMove(session *GameSession, payload []byte, r *rng.GameRng) (Result, error) {
	if session.IsComplete {
		return Result{}, errGameAlreadyComplete()
	}
	if len(payload) == 0 {
		return Result{}, errInvalidPayload()
	}
	clampBaseBet(session)

	mv, err := parseHiloMove(payload[0])
	if err != nil {
		return Result{}, err
	}
	state, ok := parseHiloState(session.StateBlob)
	if !ok {
		return Result{}, errInvalidPayload()
	}
	currentCard := state.currentCard
	accumulator := state.accumulator
	rules := state.rules

	if mv == moveCashout {
		session.IsComplete = true
		basePayout, ok := checkedMulDiv(int64(session.Bet), accumulator, hiloBaseMultiplier)
		if !ok {
			return Result{}, errInvalidState()
		}
		if basePayout > 0 {
			payout := uint64(basePayout)
			final := payout
			if session.SuperMode.IsActive && session.MoveCount > 0 {
				isAce := cardRank(currentCard) == 1
				streak := session.MoveCount
				if streak > 255 {
					streak = 255
				}
				final = applyHiloStreakMultiplier(payout, uint8(streak), isAce)
			}
			summary := fmt.Sprintf("Cashout: %s", formatCardLabel(currentCard))
			logs := []string{fmt.Sprintf(
				`{"summary":%q,"card":%d,"guess":"CASHOUT","multiplier":%d,"streak":%d,"payout":%d}`,
				summary, currentCard, accumulator, session.MoveCount, final,
			)}
			return Result{Kind: ResultWin, Payout: final, Logs: logs}, nil
		}
		summary := fmt.Sprintf("Cashout: %s", formatCardLabel(currentCard))
		logs := []string{fmt.Sprintf(
			`{"summary":%q,"card":%d,"guess":"CASHOUT","multiplier":0,"streak":%d,"payout":0}`,
			summary, currentCard, session.MoveCount,
		)}
		return Result{Kind: ResultLoss, Logs: logs}, nil
	}

	currentRank := cardRank(currentCard)
	switch mv {
	case moveSame:
		if !rules.allowSameAny && currentRank != 1 && currentRank != 13 {
			return Result{}, errInvalidMove()
		}
	case moveHigher:
		if currentRank == 13 {
			return Result{}, errInvalidMove()
		}
	case moveLower:
		if currentRank == 1 {
			return Result{}, errInvalidMove()
		}
	}

	deck := r.CreateDeck()
	newCard, ok := rng.DrawCard(&deck)
	if !ok {
		return Result{}, errDeckExhausted()
	}
	newRank := cardRank(newCard)
	session.MoveCount++

	isPush := rules.tiePush && (mv == moveHigher || mv == moveLower) && newRank == currentRank

	var correct bool
	switch mv {
	case moveSame:
		correct = newRank == currentRank
	case moveHigher:
		correct = newRank > currentRank
	case moveLower:
		correct = newRank < currentRank
	}

	guessStr := map[hiloMove]string{moveHigher: "HIGHER", moveLower: "LOWER", moveSame: "SAME"}[mv]

	if isPush {
		session.StateBlob = serializeHiloState(newCard, accumulator, rules)
		summary := fmt.Sprintf("%s -> %s", formatCardLabel(currentCard), formatCardLabel(newCard))
		logs := []string{fmt.Sprintf(
			`{"summary":%q,"previousCard":%d,"newCard":%d,"guess":%q,"push":true,"multiplier":%d,"streak":%d}`,
			summary, currentCard, newCard, guessStr, accumulator, session.MoveCount,
		)}
		return Result{Kind: ResultContinue, Logs: logs}, nil
	}

	if correct {
		multiplier := calculateMultiplier(currentRank, mv)
		newAccumulator, ok := checkedMulDiv(accumulator, multiplier, hiloBaseMultiplier)
		if !ok {
			return Result{}, errInvalidState()
		}
		session.StateBlob = serializeHiloState(newCard, newAccumulator, rules)
		summary := fmt.Sprintf("%s -> %s", formatCardLabel(currentCard), formatCardLabel(newCard))
		logs := []string{fmt.Sprintf(
			`{"summary":%q,"previousCard":%d,"newCard":%d,"guess":%q,"correct":true,"multiplier":%d,"streak":%d}`,
			summary, currentCard, newCard, guessStr, newAccumulator, session.MoveCount,
		)}
		return Result{Kind: ResultContinue, Logs: logs}, nil
	}

	session.StateBlob = serializeHiloState(newCard, 0, rules)
	session.IsComplete = true
	summary := fmt.Sprintf("%s -> %s", formatCardLabel(currentCard), formatCardLabel(newCard))
	logs := []string{fmt.Sprintf(
		`{"summary":%q,"previousCard":%d,"newCard":%d,"guess":%q,"correct":false,"multiplier":0,"streak":%d,"payout":0}`,
		summary, currentCard, newCard, guessStr, session.MoveCount,
	)}
	return Result{Kind: ResultLoss, Logs: logs}, nil
}
