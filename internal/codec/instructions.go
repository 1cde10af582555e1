package codec

import (
	"encoding/binary"
	"fmt"
)

// InstructionTag is the 1-byte discriminant of the Instruction tagged union
// carried in every Transaction. Wire format per variant is documented inline;
// all multi-byte integers are big-endian, matching StateReader/StateWriter's
// convention elsewhere in this package.
type InstructionTag uint8

const (
	InstrRegisterAccount InstructionTag = iota
	InstrDeposit
	InstrStartGame
	InstrPlayMove
	InstrBridgeDeposit
	InstrBridgeWithdraw
	InstrFinalizeBridgeWithdrawal
	InstrTournamentRegister
	InstrTournamentWithdraw
	InstrStakingRegister
	InstrStakingBond
	InstrStakingUnbond
	InstrStakingUnjail
	InstrAmmSwap
	InstrAdminSetPause
	InstrAdminUpdatePolicy
)

// GameType mirrors spec.md's GameSession.game_type domain.
type GameType uint8

const (
	GameHiLo GameType = iota
	GameCraps
)

type RegisterAccountIx struct {
	Account [32]byte
}

type DepositIx struct {
	Account [32]byte
	Amount  uint64
}

type StartGameIx struct {
	GameType     GameType
	Bet          uint64
	IsTournament bool
	TournamentID uint64
}

type PlayMoveIx struct {
	SessionID uint64
	Payload   []byte
}

type BridgeDepositIx struct {
	Account [32]byte
	Amount  uint64
	TxRef   [32]byte
}

type BridgeWithdrawIx struct {
	Amount uint64
}

type FinalizeBridgeWithdrawalIx struct {
	RequestID uint64
}

type TournamentRegisterIx struct {
	TournamentID uint64
}

type TournamentWithdrawIx struct {
	TournamentID uint64
}

type StakingRegisterIx struct {
	ValidatorID [32]byte
	Power       uint64
}

type StakingBondIx struct {
	ValidatorID [32]byte
	Amount      uint64
}

type StakingUnbondIx struct {
	ValidatorID [32]byte
	Amount      uint64
}

type StakingUnjailIx struct {
	ValidatorID [32]byte
}

type AmmSwapIx struct {
	PoolID   uint64
	In       uint64
	MinOut   uint64
	ChipToVu bool
}

type AdminSetPauseIx struct {
	Paused bool
}

type AdminUpdatePolicyIx struct {
	DailyLimit         uint64
	DailyLimitPerAcct  uint64
	MinWithdraw        uint64
	MaxWithdraw        uint64
	DelaySecs          uint64
}

// Instruction is a closed tagged union: exactly one of the pointer fields
// matching Tag is non-nil.
type Instruction struct {
	Tag InstructionTag

	RegisterAccount          *RegisterAccountIx
	Deposit                  *DepositIx
	StartGame                *StartGameIx
	PlayMove                 *PlayMoveIx
	BridgeDeposit            *BridgeDepositIx
	BridgeWithdraw           *BridgeWithdrawIx
	FinalizeBridgeWithdrawal *FinalizeBridgeWithdrawalIx
	TournamentRegister       *TournamentRegisterIx
	TournamentWithdraw       *TournamentWithdrawIx
	StakingRegister          *StakingRegisterIx
	StakingBond              *StakingBondIx
	StakingUnbond            *StakingUnbondIx
	StakingUnjail            *StakingUnjailIx
	AmmSwap                  *AmmSwapIx
	AdminSetPause            *AdminSetPauseIx
	AdminUpdatePolicy        *AdminUpdatePolicyIx
}

func putBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func putU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func putBytes(buf []byte, v []byte) []byte {
	buf = putU64(buf, uint64(len(v)))
	return append(buf, v...)
}

func getU64(buf []byte) (uint64, []byte, error) {
	if len(buf) < 8 {
		return 0, nil, fmt.Errorf("codec: short buffer for u64")
	}
	return binary.BigEndian.Uint64(buf[:8]), buf[8:], nil
}

func getBool(buf []byte) (bool, []byte, error) {
	if len(buf) < 1 {
		return false, nil, fmt.Errorf("codec: short buffer for bool")
	}
	return buf[0] != 0, buf[1:], nil
}

func getBytes32(buf []byte) ([32]byte, []byte, error) {
	var out [32]byte
	if len(buf) < 32 {
		return out, nil, fmt.Errorf("codec: short buffer for 32-byte field")
	}
	copy(out[:], buf[:32])
	return out, buf[32:], nil
}

func getBytes(buf []byte) ([]byte, []byte, error) {
	n, rest, err := getU64(buf)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(rest)) < n {
		return nil, nil, fmt.Errorf("codec: short buffer for length-prefixed bytes")
	}
	return append([]byte(nil), rest[:n]...), rest[n:], nil
}

// EncodeInstruction writes the tag byte followed by the variant's fields.
func EncodeInstruction(ix Instruction) ([]byte, error) {
	buf := []byte{byte(ix.Tag)}
	switch ix.Tag {
	case InstrRegisterAccount:
		if ix.RegisterAccount == nil {
			return nil, fmt.Errorf("codec: RegisterAccount field missing")
		}
		buf = append(buf, ix.RegisterAccount.Account[:]...)
	case InstrDeposit:
		if ix.Deposit == nil {
			return nil, fmt.Errorf("codec: Deposit field missing")
		}
		buf = append(buf, ix.Deposit.Account[:]...)
		buf = putU64(buf, ix.Deposit.Amount)
	case InstrStartGame:
		if ix.StartGame == nil {
			return nil, fmt.Errorf("codec: StartGame field missing")
		}
		buf = append(buf, byte(ix.StartGame.GameType))
		buf = putU64(buf, ix.StartGame.Bet)
		buf = putBool(buf, ix.StartGame.IsTournament)
		buf = putU64(buf, ix.StartGame.TournamentID)
	case InstrPlayMove:
		if ix.PlayMove == nil {
			return nil, fmt.Errorf("codec: PlayMove field missing")
		}
		buf = putU64(buf, ix.PlayMove.SessionID)
		buf = putBytes(buf, ix.PlayMove.Payload)
	case InstrBridgeDeposit:
		if ix.BridgeDeposit == nil {
			return nil, fmt.Errorf("codec: BridgeDeposit field missing")
		}
		buf = append(buf, ix.BridgeDeposit.Account[:]...)
		buf = putU64(buf, ix.BridgeDeposit.Amount)
		buf = append(buf, ix.BridgeDeposit.TxRef[:]...)
	case InstrBridgeWithdraw:
		if ix.BridgeWithdraw == nil {
			return nil, fmt.Errorf("codec: BridgeWithdraw field missing")
		}
		buf = putU64(buf, ix.BridgeWithdraw.Amount)
	case InstrFinalizeBridgeWithdrawal:
		if ix.FinalizeBridgeWithdrawal == nil {
			return nil, fmt.Errorf("codec: FinalizeBridgeWithdrawal field missing")
		}
		buf = putU64(buf, ix.FinalizeBridgeWithdrawal.RequestID)
	case InstrTournamentRegister:
		if ix.TournamentRegister == nil {
			return nil, fmt.Errorf("codec: TournamentRegister field missing")
		}
		buf = putU64(buf, ix.TournamentRegister.TournamentID)
	case InstrTournamentWithdraw:
		if ix.TournamentWithdraw == nil {
			return nil, fmt.Errorf("codec: TournamentWithdraw field missing")
		}
		buf = putU64(buf, ix.TournamentWithdraw.TournamentID)
	case InstrStakingRegister:
		if ix.StakingRegister == nil {
			return nil, fmt.Errorf("codec: StakingRegister field missing")
		}
		buf = append(buf, ix.StakingRegister.ValidatorID[:]...)
		buf = putU64(buf, ix.StakingRegister.Power)
	case InstrStakingBond:
		if ix.StakingBond == nil {
			return nil, fmt.Errorf("codec: StakingBond field missing")
		}
		buf = append(buf, ix.StakingBond.ValidatorID[:]...)
		buf = putU64(buf, ix.StakingBond.Amount)
	case InstrStakingUnbond:
		if ix.StakingUnbond == nil {
			return nil, fmt.Errorf("codec: StakingUnbond field missing")
		}
		buf = append(buf, ix.StakingUnbond.ValidatorID[:]...)
		buf = putU64(buf, ix.StakingUnbond.Amount)
	case InstrStakingUnjail:
		if ix.StakingUnjail == nil {
			return nil, fmt.Errorf("codec: StakingUnjail field missing")
		}
		buf = append(buf, ix.StakingUnjail.ValidatorID[:]...)
	case InstrAmmSwap:
		if ix.AmmSwap == nil {
			return nil, fmt.Errorf("codec: AmmSwap field missing")
		}
		buf = putU64(buf, ix.AmmSwap.PoolID)
		buf = putU64(buf, ix.AmmSwap.In)
		buf = putU64(buf, ix.AmmSwap.MinOut)
		buf = putBool(buf, ix.AmmSwap.ChipToVu)
	case InstrAdminSetPause:
		if ix.AdminSetPause == nil {
			return nil, fmt.Errorf("codec: AdminSetPause field missing")
		}
		buf = putBool(buf, ix.AdminSetPause.Paused)
	case InstrAdminUpdatePolicy:
		if ix.AdminUpdatePolicy == nil {
			return nil, fmt.Errorf("codec: AdminUpdatePolicy field missing")
		}
		p := ix.AdminUpdatePolicy
		buf = putU64(buf, p.DailyLimit)
		buf = putU64(buf, p.DailyLimitPerAcct)
		buf = putU64(buf, p.MinWithdraw)
		buf = putU64(buf, p.MaxWithdraw)
		buf = putU64(buf, p.DelaySecs)
	default:
		return nil, fmt.Errorf("codec: unknown instruction tag %d", ix.Tag)
	}
	return buf, nil
}

// DecodeInstruction is the exact inverse of EncodeInstruction.
func DecodeInstruction(buf []byte) (Instruction, error) {
	if len(buf) < 1 {
		return Instruction{}, fmt.Errorf("codec: empty instruction buffer")
	}
	tag := InstructionTag(buf[0])
	rest := buf[1:]
	ix := Instruction{Tag: tag}
	var err error
	switch tag {
	case InstrRegisterAccount:
		var v RegisterAccountIx
		v.Account, rest, err = getBytes32(rest)
		ix.RegisterAccount = &v
	case InstrDeposit:
		var v DepositIx
		v.Account, rest, err = getBytes32(rest)
		if err == nil {
			v.Amount, rest, err = getU64(rest)
		}
		ix.Deposit = &v
	case InstrStartGame:
		var v StartGameIx
		if len(rest) < 1 {
			return Instruction{}, fmt.Errorf("codec: short StartGame buffer")
		}
		v.GameType = GameType(rest[0])
		rest = rest[1:]
		v.Bet, rest, err = getU64(rest)
		if err == nil {
			v.IsTournament, rest, err = getBool(rest)
		}
		if err == nil {
			v.TournamentID, rest, err = getU64(rest)
		}
		ix.StartGame = &v
	case InstrPlayMove:
		var v PlayMoveIx
		v.SessionID, rest, err = getU64(rest)
		if err == nil {
			v.Payload, rest, err = getBytes(rest)
		}
		ix.PlayMove = &v
	case InstrBridgeDeposit:
		var v BridgeDepositIx
		v.Account, rest, err = getBytes32(rest)
		if err == nil {
			v.Amount, rest, err = getU64(rest)
		}
		if err == nil {
			v.TxRef, rest, err = getBytes32(rest)
		}
		ix.BridgeDeposit = &v
	case InstrBridgeWithdraw:
		var v BridgeWithdrawIx
		v.Amount, rest, err = getU64(rest)
		ix.BridgeWithdraw = &v
	case InstrFinalizeBridgeWithdrawal:
		var v FinalizeBridgeWithdrawalIx
		v.RequestID, rest, err = getU64(rest)
		ix.FinalizeBridgeWithdrawal = &v
	case InstrTournamentRegister:
		var v TournamentRegisterIx
		v.TournamentID, rest, err = getU64(rest)
		ix.TournamentRegister = &v
	case InstrTournamentWithdraw:
		var v TournamentWithdrawIx
		v.TournamentID, rest, err = getU64(rest)
		ix.TournamentWithdraw = &v
	case InstrStakingRegister:
		var v StakingRegisterIx
		v.ValidatorID, rest, err = getBytes32(rest)
		if err == nil {
			v.Power, rest, err = getU64(rest)
		}
		ix.StakingRegister = &v
	case InstrStakingBond:
		var v StakingBondIx
		v.ValidatorID, rest, err = getBytes32(rest)
		if err == nil {
			v.Amount, rest, err = getU64(rest)
		}
		ix.StakingBond = &v
	case InstrStakingUnbond:
		var v StakingUnbondIx
		v.ValidatorID, rest, err = getBytes32(rest)
		if err == nil {
			v.Amount, rest, err = getU64(rest)
		}
		ix.StakingUnbond = &v
	case InstrStakingUnjail:
		var v StakingUnjailIx
		v.ValidatorID, rest, err = getBytes32(rest)
		ix.StakingUnjail = &v
	case InstrAmmSwap:
		var v AmmSwapIx
		v.PoolID, rest, err = getU64(rest)
		if err == nil {
			v.In, rest, err = getU64(rest)
		}
		if err == nil {
			v.MinOut, rest, err = getU64(rest)
		}
		if err == nil {
			v.ChipToVu, rest, err = getBool(rest)
		}
		ix.AmmSwap = &v
	case InstrAdminSetPause:
		var v AdminSetPauseIx
		v.Paused, rest, err = getBool(rest)
		ix.AdminSetPause = &v
	case InstrAdminUpdatePolicy:
		var v AdminUpdatePolicyIx
		v.DailyLimit, rest, err = getU64(rest)
		if err == nil {
			v.DailyLimitPerAcct, rest, err = getU64(rest)
		}
		if err == nil {
			v.MinWithdraw, rest, err = getU64(rest)
		}
		if err == nil {
			v.MaxWithdraw, rest, err = getU64(rest)
		}
		if err == nil {
			v.DelaySecs, rest, err = getU64(rest)
		}
		ix.AdminUpdatePolicy = &v
	default:
		return Instruction{}, fmt.Errorf("codec: unknown instruction tag %d", tag)
	}
	if err != nil {
		return Instruction{}, err
	}
	_ = rest
	return ix, nil
}
