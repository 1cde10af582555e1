package layer

import (
	"fmt"

	"github.com/happybigmtn/nullspace/internal/casinoerr"
	"github.com/happybigmtn/nullspace/internal/codec"
)

// handleRegisterAccount creates a zero-balance Player record the first time
// an account is seen. Re-registration by the same signer is idempotent,
// matching the teacher's auth/register_account handling.
func (e *Executor) handleRegisterAccount(ctx txContext, ix *codec.RegisterAccountIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing register_account fields")), nil
	}
	if ix.Account != ctx.Signer {
		return reject(casinoerr.New(casinoerr.CodeInvalidSignature, "account must match signer")), nil
	}
	if _, exists, err := e.getPlayer(ix.Account); err != nil {
		return ExecResult{}, err
	} else if exists {
		return ok(newEvent(ctx, "AccountRegistered", map[string]string{
			"account":  fmt.Sprintf("%x", ix.Account),
			"existing": "true",
		})), nil
	}
	p := Player{Public: ix.Account}
	if err := e.putPlayer(p); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "AccountRegistered", map[string]string{
		"account": fmt.Sprintf("%x", ix.Account),
	})), nil
}

// handleDeposit is an admin-gated direct chip credit, distinct from
// BridgeDeposit: used for off-chain-reconciled top-ups that don't need the
// bridge's ledger/rate-limit machinery.
func (e *Executor) handleDeposit(ctx txContext, ix *codec.DepositIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing deposit fields")), nil
	}
	if !e.isAdmin(ctx.Signer) {
		return reject(casinoerr.New(casinoerr.CodeNotAdmin, "")), nil
	}
	if ix.Amount == 0 {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "amount must be > 0")), nil
	}
	p, exists, err := e.getPlayer(ix.Account)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		p = Player{Public: ix.Account}
	}
	creditChips(&p, ix.Amount)
	if err := e.putPlayer(p); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "Deposited", map[string]string{
		"account": fmt.Sprintf("%x", ix.Account),
		"amount":  fmt.Sprintf("%d", ix.Amount),
		"balance": fmt.Sprintf("%d", p.Chips),
	})), nil
}
