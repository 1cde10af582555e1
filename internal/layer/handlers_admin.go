package layer

import (
	"fmt"

	"github.com/happybigmtn/nullspace/internal/casinoerr"
	"github.com/happybigmtn/nullspace/internal/codec"
)

// handleAdminSetPause flips the global pause flag, halting bridge
// withdrawals without touching any in-flight game sessions.
func (e *Executor) handleAdminSetPause(ctx txContext, ix *codec.AdminSetPauseIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing admin_set_pause fields")), nil
	}
	if !e.isAdmin(ctx.Signer) {
		return reject(casinoerr.New(casinoerr.CodeNotAdmin, "")), nil
	}
	policy, err := e.getOrInitPolicy()
	if err != nil {
		return ExecResult{}, err
	}
	policy.Paused = ix.Paused
	if err := e.putPolicy(policy); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "PauseUpdated", map[string]string{
		"paused": fmt.Sprintf("%t", ix.Paused),
	})), nil
}

// handleAdminUpdatePolicy replaces the bridge's tunable limits wholesale,
// matching original_source's update_policy (no partial-field updates).
func (e *Executor) handleAdminUpdatePolicy(ctx txContext, ix *codec.AdminUpdatePolicyIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing admin_update_policy fields")), nil
	}
	if !e.isAdmin(ctx.Signer) {
		return reject(casinoerr.New(casinoerr.CodeNotAdmin, "")), nil
	}
	if ix.MinWithdraw > 0 && ix.MaxWithdraw > 0 && ix.MinWithdraw > ix.MaxWithdraw {
		return reject(casinoerr.New(casinoerr.CodePolicyViolation, "min_withdraw exceeds max_withdraw")), nil
	}

	policy, err := e.getOrInitPolicy()
	if err != nil {
		return ExecResult{}, err
	}
	policy.BridgeDailyLimit = ix.DailyLimit
	policy.BridgeDailyLimitPerAcct = ix.DailyLimitPerAcct
	policy.BridgeMinWithdraw = ix.MinWithdraw
	policy.BridgeMaxWithdraw = ix.MaxWithdraw
	policy.BridgeDelaySecs = ix.DelaySecs
	if err := e.putPolicy(policy); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "PolicyUpdated", map[string]string{
		"daily_limit":           fmt.Sprintf("%d", ix.DailyLimit),
		"daily_limit_per_acct":  fmt.Sprintf("%d", ix.DailyLimitPerAcct),
		"min_withdraw":          fmt.Sprintf("%d", ix.MinWithdraw),
		"max_withdraw":          fmt.Sprintf("%d", ix.MaxWithdraw),
		"delay_secs":            fmt.Sprintf("%d", ix.DelaySecs),
	})), nil
}
