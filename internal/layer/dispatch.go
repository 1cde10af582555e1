package layer

import (
	"github.com/happybigmtn/nullspace/internal/casinoerr"
	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/store"
)

// ExecResult is one transaction's outcome: either a list of events to append
// to the log, or a rejection reason. Unlike the teacher's abci.ExecTxResult
// (CometBFT Code/Log fields), this carries no transport framing — ExecuteBlock
// turns it into a chain.Receipt, which the ABCI adapter maps to
// abci.ExecTxResult on its own.
type ExecResult struct {
	Success bool
	Events  []store.Event
	Reject  *casinoerr.Error
}

func ok(events ...store.Event) ExecResult {
	return ExecResult{Success: true, Events: events}
}

func reject(err *casinoerr.Error) ExecResult {
	return ExecResult{Success: false, Reject: err}
}

// txContext carries the ambient values a handler needs beyond the
// instruction payload itself: who signed it, when, and at what height.
type txContext struct {
	Signer  [32]byte
	Height  uint64
	TxIdx   uint32
	NowMs   uint64
	SeedSig []byte
}

func newEvent(ctx txContext, typ string, attrs map[string]string) store.Event {
	return store.Event{Height: ctx.Height, TxIdx: ctx.TxIdx, Type: typ, Attrs: attrs}
}

// Dispatch routes one decoded instruction to its handler. This is the
// direct generalization of the teacher's deliverTx switch on env.Type,
// widened from a JSON envelope's string tag to codec.InstructionTag.
func (e *Executor) Dispatch(ctx txContext, ix codec.Instruction) (ExecResult, error) {
	switch ix.Tag {
	case codec.InstrRegisterAccount:
		return e.handleRegisterAccount(ctx, ix.RegisterAccount)
	case codec.InstrDeposit:
		return e.handleDeposit(ctx, ix.Deposit)
	case codec.InstrStartGame:
		return e.handleStartGame(ctx, ix.StartGame)
	case codec.InstrPlayMove:
		return e.handlePlayMove(ctx, ix.PlayMove)
	case codec.InstrBridgeDeposit:
		return e.handleBridgeDeposit(ctx, ix.BridgeDeposit)
	case codec.InstrBridgeWithdraw:
		return e.handleBridgeWithdraw(ctx, ix.BridgeWithdraw)
	case codec.InstrFinalizeBridgeWithdrawal:
		return e.handleFinalizeBridgeWithdrawal(ctx, ix.FinalizeBridgeWithdrawal)
	case codec.InstrTournamentRegister:
		return e.handleTournamentRegister(ctx, ix.TournamentRegister)
	case codec.InstrTournamentWithdraw:
		return e.handleTournamentWithdraw(ctx, ix.TournamentWithdraw)
	case codec.InstrStakingRegister:
		return e.handleStakingRegister(ctx, ix.StakingRegister)
	case codec.InstrStakingBond:
		return e.handleStakingBond(ctx, ix.StakingBond)
	case codec.InstrStakingUnbond:
		return e.handleStakingUnbond(ctx, ix.StakingUnbond)
	case codec.InstrStakingUnjail:
		return e.handleStakingUnjail(ctx, ix.StakingUnjail)
	case codec.InstrAmmSwap:
		return e.handleAmmSwap(ctx, ix.AmmSwap)
	case codec.InstrAdminSetPause:
		return e.handleAdminSetPause(ctx, ix.AdminSetPause)
	case codec.InstrAdminUpdatePolicy:
		return e.handleAdminUpdatePolicy(ctx, ix.AdminUpdatePolicy)
	default:
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "unknown instruction tag")), nil
	}
}
