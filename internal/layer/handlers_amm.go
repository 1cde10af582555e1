package layer

import (
	"fmt"

	"github.com/happybigmtn/nullspace/internal/casinoerr"
	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/store"
)

func (e *Executor) getAmmPool(id uint64) (AmmPool, bool, error) {
	var p AmmPool
	ok, err := getJSON(e.State, store.AmmPoolKey(id), &p)
	return p, ok, err
}

func (e *Executor) putAmmPool(p AmmPool) error {
	return putJSON(e.State, store.AmmPoolKey(p.ID), p)
}

// constantProductOut computes the output amount for a constant-product
// (x*y=k) swap, taking the input side's current reserve and the other side's
// reserve as arguments.
func constantProductOut(reserveIn, reserveOut, amountIn uint64) uint64 {
	if reserveIn == 0 || reserveOut == 0 || amountIn == 0 {
		return 0
	}
	k := reserveIn * reserveOut
	newReserveIn := reserveIn + amountIn
	newReserveOut := k / newReserveIn
	if newReserveOut >= reserveOut {
		return 0
	}
	return reserveOut - newReserveOut
}

// handleAmmSwap exchanges chips for vu (or vu for chips) against a pool's
// constant-product reserves, rejecting if slippage would push the output
// below the signer's declared minimum.
func (e *Executor) handleAmmSwap(ctx txContext, ix *codec.AmmSwapIx) (ExecResult, error) {
	if ix == nil {
		return reject(casinoerr.New(casinoerr.CodeInvalidPayload, "missing amm_swap fields")), nil
	}
	if ix.In == 0 {
		return reject(casinoerr.New(casinoerr.CodeInvalidMove, "swap input must be > 0")), nil
	}
	pool, exists, err := e.getAmmPool(ix.PoolID)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeInvalidState, "pool not found")), nil
	}
	player, exists, err := e.getPlayer(ctx.Signer)
	if err != nil {
		return ExecResult{}, err
	}
	if !exists {
		return reject(casinoerr.New(casinoerr.CodeUnknownAccount, "")), nil
	}

	var amountOut uint64
	if ix.ChipToVu {
		amountOut = constantProductOut(pool.ChipResv, pool.VuResv, ix.In)
	} else {
		amountOut = constantProductOut(pool.VuResv, pool.ChipResv, ix.In)
	}
	if amountOut == 0 || amountOut < ix.MinOut {
		return reject(casinoerr.New(casinoerr.CodePolicyViolation, "slippage exceeds minimum out")), nil
	}

	if ix.ChipToVu {
		if err := debitChips(&player, ix.In); err != nil {
			return reject(err.(*casinoerr.Error)), nil
		}
		creditVu(&player, amountOut)
		pool.ChipResv += ix.In
		pool.VuResv -= amountOut
	} else {
		if err := debitVu(&player, ix.In); err != nil {
			return reject(err.(*casinoerr.Error)), nil
		}
		creditChips(&player, amountOut)
		pool.VuResv += ix.In
		pool.ChipResv -= amountOut
	}

	if err := e.putPlayer(player); err != nil {
		return ExecResult{}, err
	}
	if err := e.putAmmPool(pool); err != nil {
		return ExecResult{}, err
	}
	return ok(newEvent(ctx, "AmmSwapExecuted", map[string]string{
		"pool_id":     fmt.Sprintf("%d", ix.PoolID),
		"chip_to_vu":  fmt.Sprintf("%t", ix.ChipToVu),
		"amount_in":   fmt.Sprintf("%d", ix.In),
		"amount_out":  fmt.Sprintf("%d", amountOut),
	})), nil
}
