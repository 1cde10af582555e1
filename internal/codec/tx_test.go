package codec

import (
	"crypto/ed25519"
	"testing"
)

func TestSignVerifyRoundtrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var public [32]byte
	copy(public[:], pub)

	ix := Instruction{
		Tag:       InstrStartGame,
		StartGame: &StartGameIx{GameType: GameHiLo, Bet: 100},
	}

	tx, err := Sign(priv, public, 1, ix)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := tx.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyRejectsTamperedNonce(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var public [32]byte
	copy(public[:], pub)

	ix := Instruction{Tag: InstrBridgeWithdraw, BridgeWithdraw: &BridgeWithdrawIx{Amount: 10}}
	tx, err := Sign(priv, public, 1, ix)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tx.Nonce = 2
	if err := tx.Verify(); err == nil {
		t.Fatalf("expected verification failure after nonce tamper")
	}
}

func TestTransactionEncodeDecodeRoundtrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var public [32]byte
	copy(public[:], pub)

	ix := Instruction{
		Tag:     InstrPlayMove,
		PlayMove: &PlayMoveIx{SessionID: 42, Payload: []byte{3}},
	}
	tx, err := Sign(priv, public, 7, ix)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	encoded, err := tx.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeTransaction(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Nonce != 7 || decoded.Public != public {
		t.Fatalf("roundtrip mismatch: %+v", decoded)
	}
	if decoded.Instruction.Tag != InstrPlayMove || decoded.Instruction.PlayMove.SessionID != 42 {
		t.Fatalf("instruction roundtrip mismatch: %+v", decoded.Instruction)
	}
	if err := decoded.Verify(); err != nil {
		t.Fatalf("verify after roundtrip: %v", err)
	}
}

func TestInstructionEncodeDecodeAllVariants(t *testing.T) {
	cases := []Instruction{
		{Tag: InstrRegisterAccount, RegisterAccount: &RegisterAccountIx{}},
		{Tag: InstrDeposit, Deposit: &DepositIx{Amount: 5}},
		{Tag: InstrStartGame, StartGame: &StartGameIx{GameType: GameCraps, Bet: 1}},
		{Tag: InstrPlayMove, PlayMove: &PlayMoveIx{SessionID: 1, Payload: []byte{1, 2, 3}}},
		{Tag: InstrBridgeDeposit, BridgeDeposit: &BridgeDepositIx{Amount: 1}},
		{Tag: InstrBridgeWithdraw, BridgeWithdraw: &BridgeWithdrawIx{Amount: 1}},
		{Tag: InstrFinalizeBridgeWithdrawal, FinalizeBridgeWithdrawal: &FinalizeBridgeWithdrawalIx{RequestID: 9}},
		{Tag: InstrTournamentRegister, TournamentRegister: &TournamentRegisterIx{TournamentID: 1}},
		{Tag: InstrTournamentWithdraw, TournamentWithdraw: &TournamentWithdrawIx{TournamentID: 1}},
		{Tag: InstrStakingRegister, StakingRegister: &StakingRegisterIx{Power: 1}},
		{Tag: InstrStakingBond, StakingBond: &StakingBondIx{Amount: 1}},
		{Tag: InstrStakingUnbond, StakingUnbond: &StakingUnbondIx{Amount: 1}},
		{Tag: InstrStakingUnjail, StakingUnjail: &StakingUnjailIx{}},
		{Tag: InstrAmmSwap, AmmSwap: &AmmSwapIx{PoolID: 1, In: 10, MinOut: 1}},
		{Tag: InstrAdminSetPause, AdminSetPause: &AdminSetPauseIx{Paused: true}},
		{Tag: InstrAdminUpdatePolicy, AdminUpdatePolicy: &AdminUpdatePolicyIx{DailyLimit: 100}},
	}
	for _, ix := range cases {
		encoded, err := EncodeInstruction(ix)
		if err != nil {
			t.Fatalf("encode tag %d: %v", ix.Tag, err)
		}
		decoded, err := DecodeInstruction(encoded)
		if err != nil {
			t.Fatalf("decode tag %d: %v", ix.Tag, err)
		}
		if decoded.Tag != ix.Tag {
			t.Fatalf("tag mismatch: got %d want %d", decoded.Tag, ix.Tag)
		}
	}
}
