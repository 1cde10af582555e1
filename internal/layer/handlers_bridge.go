package layer

import (
	"fmt"

	"github.com/happybigmtn/nullspace/internal/casinoerr"
	"github.com/happybigmtn/nullspace/internal/codec"
)

// secondsPerDay and currentTimeSec ground this package's daily-cap resets on
// original_source/execution/src/layer/handlers/bridge.rs: views advance in
// fixed 3-second steps, so wall-clock seconds are derived from the view
// number rather than read from the OS clock (keeping replay deterministic).
const secondsPerDay = 24 * 60 * 60

func currentTimeSec(nowMs uint64) uint64 {
	return nowMs / 1000
}

func resetBridgeDailyIfNeeded(bridge *BridgeState, currentDay uint64) {
	if bridge.DailyDay != currentDay {
		bridge.DailyDay = currentDay
		bridge.DailyWithdrawn = 0
	}
}

func resetPlayerBridgeDailyIfNeeded(p *Player, currentDay uint64) {
	if p.BridgeDailyDay != currentDay {
		p.BridgeDailyDay = currentDay
		p.BridgeDailyWithdrawn = 0
	}
}

// handleBridgeWithdraw debits the player and opens a pending withdrawal
// subject to the admin policy's daily caps and release delay, 1:1 with
// original_source's handle_bridge_withdraw.
func (e *Executor) handleBridgeWithdraw(ctx txContext, ix *codec.BridgeWithdrawIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing bridge_withdraw fields")), nil
	}
	if ix.Amount == 0 {
		return reject(casinoerr.New(casinoerr.CodeInvalidMove, "bridge withdraw amount must be > 0")), nil
	}

	policy, err := e.getOrInitPolicy()
	if err != nil {
		return ExecResult{}, err
	}
	if policy.Paused {
		return reject(casinoerr.New(casinoerr.CodeBridgePaused, "")), nil
	}
	if policy.BridgeDailyLimit == 0 || policy.BridgeDailyLimitPerAcct == 0 {
		return reject(casinoerr.New(casinoerr.CodePolicyViolation, "bridge limits not configured")), nil
	}
	if policy.BridgeMinWithdraw > 0 && ix.Amount < policy.BridgeMinWithdraw {
		return reject(casinoerr.New(casinoerr.CodeBridgeAmountOutOfRange, "below minimum")), nil
	}
	if policy.BridgeMaxWithdraw > 0 && ix.Amount > policy.BridgeMaxWithdraw {
		return reject(casinoerr.New(casinoerr.CodeBridgeAmountOutOfRange, "above maximum")), nil
	}

	player, exists, err := e.getPlayer(ctx.Signer)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeUnknownAccount, "")), nil
	}
	if player.Chips < ix.Amount {
		return reject(casinoerr.New(casinoerr.CodeInsufficientFunds, "")), nil
	}

	now := currentTimeSec(ctx.NowMs)
	currentDay := now / secondsPerDay
	resetPlayerBridgeDailyIfNeeded(&player, currentDay)

	bridge, err := e.getOrInitBridgeState()
	if err != nil {
		return ExecResult{}, err
	}
	resetBridgeDailyIfNeeded(&bridge, currentDay)

	bridgeDailyAfter := bridge.DailyWithdrawn + ix.Amount
	if bridgeDailyAfter > policy.BridgeDailyLimit {
		return reject(casinoerr.New(casinoerr.CodeBridgeLimitExceeded, "bridge daily cap reached")), nil
	}
	accountDailyAfter := player.BridgeDailyWithdrawn + ix.Amount
	if accountDailyAfter > policy.BridgeDailyLimitPerAcct {
		return reject(casinoerr.New(casinoerr.CodeBridgeLimitExceeded, "account bridge daily cap reached")), nil
	}

	player.Chips -= ix.Amount
	player.BridgeDailyDay = currentDay
	player.BridgeDailyWithdrawn = accountDailyAfter

	bridge.DailyDay = currentDay
	bridge.DailyWithdrawn = bridgeDailyAfter
	bridge.TotalWithdrawn += ix.Amount
	withdrawalID := bridge.NextWithdrawalID
	bridge.NextWithdrawalID++

	requestedTs := now
	availableTs := now + policy.BridgeDelaySecs
	withdrawal := BridgeWithdrawal{
		ID:          withdrawalID,
		Player:      ctx.Signer,
		Amount:      ix.Amount,
		RequestedTs: requestedTs,
		AvailableTs: availableTs,
	}

	if err := e.putPlayer(player); err != nil {
		return ExecResult{}, err
	}
	if err := e.putBridgeState(bridge); err != nil {
		return ExecResult{}, err
	}
	if err := e.putBridgeWithdrawal(withdrawal); err != nil {
		return ExecResult{}, err
	}

	ledger, err := e.getOrInitLedgerState()
	if err != nil {
		return ExecResult{}, err
	}
	entryID := ledger.NextEntryID
	ledger.NextEntryID++
	ledger.TotalWithdrawalRequests += ix.Amount
	ledger.PendingReconciliationCount++
	entry := LedgerEntry{
		ID:           entryID,
		Type:         LedgerWithdrawalRequest,
		Player:       ctx.Signer,
		Amount:       ix.Amount,
		CreatedTs:    requestedTs,
		BalanceAfter: player.Chips,
		WithdrawalID: &withdrawalID,
	}
	if err := e.putLedgerState(ledger); err != nil {
		return ExecResult{}, err
	}
	if err := e.putLedgerEntry(entry); err != nil {
		return ExecResult{}, err
	}

	return ok(newEvent(ctx, "BridgeWithdrawalRequested", map[string]string{
		"withdrawal_id": fmt.Sprintf("%d", withdrawalID),
		"player":        fmt.Sprintf("%x", ctx.Signer),
		"amount":        fmt.Sprintf("%d", ix.Amount),
		"available_ts":  fmt.Sprintf("%d", availableTs),
	})), nil
}

// handleBridgeDeposit is an admin-only credit against an off-chain deposit,
// 1:1 with original_source's handle_bridge_deposit.
func (e *Executor) handleBridgeDeposit(ctx txContext, ix *codec.BridgeDepositIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing bridge_deposit fields")), nil
	}
	if !e.isAdmin(ctx.Signer) {
		return reject(casinoerr.New(casinoerr.CodeNotAdmin, "")), nil
	}
	if ix.Amount == 0 {
		return reject(casinoerr.New(casinoerr.CodeInvalidMove, "bridge deposit amount must be > 0")), nil
	}

	player, exists, err := e.getPlayer(ix.Account)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeUnknownAccount, "recipient not found")), nil
	}
	creditChips(&player, ix.Amount)

	bridge, err := e.getOrInitBridgeState()
	if err != nil {
		return ExecResult{}, err
	}
	bridge.TotalDeposited += ix.Amount

	now := currentTimeSec(ctx.NowMs)
	ledger, err := e.getOrInitLedgerState()
	if err != nil {
		return ExecResult{}, err
	}
	entryID := ledger.NextEntryID
	ledger.NextEntryID++
	ledger.TotalDeposits += ix.Amount
	ledger.PendingReconciliationCount++
	entry := LedgerEntry{
		ID:           entryID,
		Type:         LedgerDeposit,
		Player:       ix.Account,
		Amount:       ix.Amount,
		CreatedTs:    now,
		BalanceAfter: player.Chips,
	}

	if err := e.putPlayer(player); err != nil {
		return ExecResult{}, err
	}
	if err := e.putBridgeState(bridge); err != nil {
		return ExecResult{}, err
	}
	if err := e.putLedgerState(ledger); err != nil {
		return ExecResult{}, err
	}
	if err := e.putLedgerEntry(entry); err != nil {
		return ExecResult{}, err
	}

	return ok(newEvent(ctx, "BridgeDepositCredited", map[string]string{
		"admin":     fmt.Sprintf("%x", ctx.Signer),
		"recipient": fmt.Sprintf("%x", ix.Account),
		"amount":    fmt.Sprintf("%d", ix.Amount),
		"tx_ref":    fmt.Sprintf("%x", ix.TxRef),
	})), nil
}

// handleFinalizeBridgeWithdrawal marks a pending withdrawal fulfilled once
// its release delay has elapsed, 1:1 with
// original_source's handle_finalize_bridge_withdrawal.
func (e *Executor) handleFinalizeBridgeWithdrawal(ctx txContext, ix *codec.FinalizeBridgeWithdrawalIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing finalize_bridge_withdrawal fields")), nil
	}
	if !e.isAdmin(ctx.Signer) {
		return reject(casinoerr.New(casinoerr.CodeNotAdmin, "")), nil
	}

	withdrawal, exists, err := e.getBridgeWithdrawal(ix.RequestID)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeInvalidMove, "bridge withdrawal not found")), nil
	}
	if withdrawal.Fulfilled {
		return reject(casinoerr.New(casinoerr.CodeInvalidMove, "bridge withdrawal already finalized")), nil
	}

	now := currentTimeSec(ctx.NowMs)
	if now < withdrawal.AvailableTs {
		return reject(casinoerr.New(casinoerr.CodeBridgeLimitExceeded, "withdrawal delay not elapsed")), nil
	}

	withdrawal.Fulfilled = true
	if err := e.putBridgeWithdrawal(withdrawal); err != nil {
		return ExecResult{}, err
	}

	ledger, err := e.getOrInitLedgerState()
	if err != nil {
		return ExecResult{}, err
	}
	entryID := ledger.NextEntryID
	ledger.NextEntryID++
	ledger.TotalWithdrawalsFulfilled += withdrawal.Amount
	if ledger.PendingReconciliationCount > 0 {
		ledger.PendingReconciliationCount--
	}
	entry := LedgerEntry{
		ID:           entryID,
		Type:         LedgerWithdrawalFulfilled,
		Player:       withdrawal.Player,
		Amount:       withdrawal.Amount,
		CreatedTs:    now,
		WithdrawalID: &ix.RequestID,
	}
	if err := e.putLedgerState(ledger); err != nil {
		return ExecResult{}, err
	}
	if err := e.putLedgerEntry(entry); err != nil {
		return ExecResult{}, err
	}

	return ok(newEvent(ctx, "BridgeWithdrawalFinalized", map[string]string{
		"withdrawal_id": fmt.Sprintf("%d", ix.RequestID),
		"amount":        fmt.Sprintf("%d", withdrawal.Amount),
	})), nil
}
