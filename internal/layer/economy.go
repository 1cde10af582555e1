package layer

import "github.com/happybigmtn/nullspace/internal/casinoerr"

// debitChips subtracts amount from the player's balance, rejecting rather
// than going negative — real money, not a saturating counter like the
// bet-accumulation totals in internal/roundreplay.
func debitChips(p *Player, amount uint64) error {
	if p.Chips < amount {
		return casinoerr.New(casinoerr.CodeInsufficientFunds, "")
	}
	p.Chips -= amount
	return nil
}

func creditChips(p *Player, amount uint64) {
	p.Chips += amount
}

// debitVu mirrors debitChips for the vusdt side of the amm pool.
func debitVu(p *Player, amount uint64) error {
	if p.VuBalance < amount {
		return casinoerr.New(casinoerr.CodeInsufficientFunds, "insufficient vu balance")
	}
	p.VuBalance -= amount
	return nil
}

func creditVu(p *Player, amount uint64) {
	p.VuBalance += amount
}

func (e *Executor) isAdmin(public [32]byte) bool {
	if e.AdminKeys == nil {
		return false
	}
	return e.AdminKeys[public]
}
