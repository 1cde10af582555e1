package roundreplay

// ReplayFromEvents applies events, in order, to snapshot and returns the
// reconstructed Round. Grounded 1:1 on
// original_source's replay_round_from_events.
func ReplayFromEvents(snapshot Snapshot, events []Event) (Round, error) {
	if err := snapshot.Validate(); err != nil {
		return Round{}, err
	}
	round := snapshot.ToRound()
	for _, ev := range events {
		if err := applyEventToRound(&round, ev); err != nil {
			return Round{}, err
		}
	}
	return round, nil
}

func applyEventToRound(round *Round, ev Event) error {
	switch ev.Kind {
	case EventRoundOpened:
		if ev.OpenedRound != nil {
			*round = *ev.OpenedRound
		}

	case EventBetAccepted:
		if ev.BetRoundID != round.RoundID {
			return errRoundMismatch(round.RoundID, ev.BetRoundID)
		}
		accumulateBets(&round.Totals, ev.Bets)

	case EventLocked:
		if ev.LockRoundID != round.RoundID {
			return errRoundMismatch(round.RoundID, ev.LockRoundID)
		}
		if ev.LockGameType != round.GameType {
			return errGameTypeMismatch(round.GameType, ev.LockGameType)
		}
		round.Phase = PhaseLocked
		round.PhaseEndsAtMs = ev.LockPhaseEndsAtMs

	case EventOutcome:
		if ev.OutcomeRound == nil {
			return errInvalidSnapshot("outcome event missing round payload")
		}
		if ev.OutcomeRound.RoundID != round.RoundID {
			return errRoundMismatch(round.RoundID, ev.OutcomeRound.RoundID)
		}
		if ev.OutcomeRound.GameType != round.GameType {
			return errGameTypeMismatch(round.GameType, ev.OutcomeRound.GameType)
		}
		round.Phase = ev.OutcomeRound.Phase
		round.PhaseEndsAtMs = ev.OutcomeRound.PhaseEndsAtMs
		round.RollSeed = ev.OutcomeRound.RollSeed
		round.D1 = ev.OutcomeRound.D1
		round.D2 = ev.OutcomeRound.D2
		round.MainPoint = ev.OutcomeRound.MainPoint
		round.MadePointsMask = ev.OutcomeRound.MadePointsMask
		round.EpochPointEstablished = ev.OutcomeRound.EpochPointEstablished

	case EventPlayerSettled:
		if ev.SettledRoundID != round.RoundID {
			return errRoundMismatch(round.RoundID, ev.SettledRoundID)
		}

	case EventFinalized:
		if ev.FinalRoundID != round.RoundID {
			return errRoundMismatch(round.RoundID, ev.FinalRoundID)
		}
		if ev.FinalGameType != round.GameType {
			return errGameTypeMismatch(round.GameType, ev.FinalGameType)
		}
		round.Phase = PhaseCooldown

	default:
		// Non-global-table events are ignored, matching the Rust original's
		// catch-all arm.
	}
	return nil
}

// accumulateBets folds bets into totals by (bet_type, target), using
// saturating addition to match original_source's checked_add-free
// saturating_add call.
func accumulateBets(totals *[]Total, bets []Bet) {
	for _, bet := range bets {
		found := false
		for i := range *totals {
			t := &(*totals)[i]
			if t.BetType == bet.BetType && t.Target == bet.Target {
				t.Amount = saturatingAddU64(t.Amount, bet.Amount)
				found = true
				break
			}
		}
		if !found {
			*totals = append(*totals, Total{BetType: bet.BetType, Target: bet.Target, Amount: bet.Amount})
		}
	}
}

func saturatingAddU64(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

// FilterRoundEvents returns the subset of events relevant to (gameType,
// roundID), in original order.
func FilterRoundEvents(events []Event, gameType uint8, roundID uint64) []Event {
	var out []Event
	for _, ev := range events {
		switch ev.Kind {
		case EventRoundOpened:
			if ev.OpenedRound != nil && ev.OpenedRound.GameType == gameType && ev.OpenedRound.RoundID == roundID {
				out = append(out, ev)
			}
		case EventBetAccepted:
			if ev.BetRoundID == roundID {
				out = append(out, ev)
			}
		case EventLocked:
			if ev.LockGameType == gameType && ev.LockRoundID == roundID {
				out = append(out, ev)
			}
		case EventOutcome:
			if ev.OutcomeRound != nil && ev.OutcomeRound.GameType == gameType && ev.OutcomeRound.RoundID == roundID {
				out = append(out, ev)
			}
		case EventPlayerSettled:
			if ev.SettledRoundID == roundID {
				out = append(out, ev)
			}
		case EventFinalized:
			if ev.FinalGameType == gameType && ev.FinalRoundID == roundID {
				out = append(out, ev)
			}
		}
	}
	return out
}
