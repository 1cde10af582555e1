package layer

import (
	"fmt"

	"github.com/happybigmtn/nullspace/internal/casinoerr"
	"github.com/happybigmtn/nullspace/internal/codec"
)

// handleStakingRegister is idempotent for re-registration by the same
// validator, matching the teacher's stakingRegisterValidator: power can be
// updated on an existing record, but the identity never changes.
func (e *Executor) handleStakingRegister(ctx txContext, ix *codec.StakingRegisterIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing staking_register fields")), nil
	}
	staker, exists, err := e.getStaker(ix.ValidatorID)
	if err != nil {
		return ExecResult{}, err
	}
	if exists {
		if ix.Power != 0 {
			staker.Power = ix.Power
		}
		if err := e.putStaker(staker); err != nil {
			return ExecResult{}, err
		}
		return ok(newEvent(ctx, "ValidatorRegistered", map[string]string{
			"validator_id": fmt.Sprintf("%x", ix.ValidatorID),
			"existing":     "true",
		})), nil
	}
	staker = Staker{ValidatorID: ix.ValidatorID, Power: ix.Power}
	if err := e.putStaker(staker); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "ValidatorRegistered", map[string]string{
		"validator_id": fmt.Sprintf("%x", ix.ValidatorID),
	})), nil
}

// handleStakingBond moves chips from the signer's balance into a validator's
// bond, matching the teacher's stakingBond.
func (e *Executor) handleStakingBond(ctx txContext, ix *codec.StakingBondIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing staking_bond fields")), nil
	}
	if ix.Amount == 0 {
		return reject(casinoerr.New(casinoerr.CodeInvalidMove, "amount must be > 0")), nil
	}
	staker, exists, err := e.getStaker(ix.ValidatorID)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeInvalidState, "validator not registered")), nil
	}
	player, exists, err := e.getPlayer(ctx.Signer)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeUnknownAccount, "")), nil
	}
	if err := debitChips(&player, ix.Amount); err != nil {
		return reject(err.(*casinoerr.Error)), nil
	}
	staker.Bond += ix.Amount
	if err := e.putPlayer(player); err != nil {
		return ExecResult{}, err
	}
	if err := e.putStaker(staker); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "ValidatorBonded", map[string]string{
		"validator_id": fmt.Sprintf("%x", ix.ValidatorID),
		"amount":       fmt.Sprintf("%d", ix.Amount),
		"bond":         fmt.Sprintf("%d", staker.Bond),
	})), nil
}

// handleStakingUnbond returns bonded chips to the signer's balance, matching
// the teacher's stakingUnbond.
func (e *Executor) handleStakingUnbond(ctx txContext, ix *codec.StakingUnbondIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing staking_unbond fields")), nil
	}
	if ix.Amount == 0 {
		return reject(casinoerr.New(casinoerr.CodeInvalidMove, "amount must be > 0")), nil
	}
	staker, exists, err := e.getStaker(ix.ValidatorID)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeInvalidState, "validator not registered")), nil
	}
	if staker.Bond < ix.Amount {
		return reject(casinoerr.New(casinoerr.CodeInsufficientFunds, "insufficient bond")), nil
	}
	player, exists, err := e.getPlayer(ctx.Signer)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeUnknownAccount, "")), nil
	}
	staker.Bond -= ix.Amount
	creditChips(&player, ix.Amount)
	if err := e.putPlayer(player); err != nil {
		return ExecResult{}, err
	}
	if err := e.putStaker(staker); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "ValidatorUnbonded", map[string]string{
		"validator_id": fmt.Sprintf("%x", ix.ValidatorID),
		"amount":       fmt.Sprintf("%d", ix.Amount),
		"bond":         fmt.Sprintf("%d", staker.Bond),
	})), nil
}

// handleStakingUnjail clears a validator's jailed status, matching the
// teacher's stakingUnjail.
func (e *Executor) handleStakingUnjail(ctx txContext, ix *codec.StakingUnjailIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing staking_unjail fields")), nil
	}
	staker, exists, err := e.getStaker(ix.ValidatorID)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeInvalidState, "validator not registered")), nil
	}
	if !staker.Jailed {
		return reject(casinoerr.New(casinoerr.CodeInvalidState, "validator is not jailed")), nil
	}
	staker.Jailed = false
	if err := e.putStaker(staker); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "ValidatorUnjailed", map[string]string{
		"validator_id": fmt.Sprintf("%x", ix.ValidatorID),
	})), nil
}
