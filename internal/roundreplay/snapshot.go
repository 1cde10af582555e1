package roundreplay

// Snapshot captures Round state at a round boundary, taken right after a
// RoundOpened event or a Finalized event, so replay only has to fold events
// since the last boundary rather than the round's entire history.
type Snapshot struct {
	GameType              uint8
	RoundID               uint64
	Phase                 Phase
	PhaseEndsAtMs         uint64
	MainPoint             uint8
	D1                    uint8
	D2                    uint8
	MadePointsMask        uint8
	EpochPointEstablished bool
	FieldPaytable         uint8
	RngCommit             []byte
	RollSeed              []byte
	Totals                []Total
}

func FromRound(r Round) Snapshot {
	return Snapshot{
		GameType:              r.GameType,
		RoundID:                r.RoundID,
		Phase:                 r.Phase,
		PhaseEndsAtMs:         r.PhaseEndsAtMs,
		MainPoint:             r.MainPoint,
		D1:                    r.D1,
		D2:                    r.D2,
		MadePointsMask:        r.MadePointsMask,
		EpochPointEstablished: r.EpochPointEstablished,
		FieldPaytable:         r.FieldPaytable,
		RngCommit:             append([]byte(nil), r.RngCommit...),
		RollSeed:              append([]byte(nil), r.RollSeed...),
		Totals:                append([]Total(nil), r.Totals...),
	}
}

func (s Snapshot) ToRound() Round {
	return Round{
		GameType:              s.GameType,
		RoundID:               s.RoundID,
		Phase:                 s.Phase,
		PhaseEndsAtMs:         s.PhaseEndsAtMs,
		MainPoint:             s.MainPoint,
		D1:                    s.D1,
		D2:                    s.D2,
		MadePointsMask:        s.MadePointsMask,
		EpochPointEstablished: s.EpochPointEstablished,
		FieldPaytable:         s.FieldPaytable,
		RngCommit:             append([]byte(nil), s.RngCommit...),
		RollSeed:              append([]byte(nil), s.RollSeed...),
		Totals:                append([]Total(nil), s.Totals...),
	}
}

// Validate mirrors original_source's RoundSnapshot::validate: rng_commit and
// roll_seed must each be either empty or exactly 32 bytes.
func (s Snapshot) Validate() error {
	if len(s.RngCommit) != 0 && len(s.RngCommit) != 32 {
		return errInvalidSnapshot("rng_commit has invalid length")
	}
	if len(s.RollSeed) != 0 && len(s.RollSeed) != 32 {
		return errInvalidSnapshot("roll_seed has invalid length")
	}
	return nil
}
