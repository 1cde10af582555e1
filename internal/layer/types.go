// Package layer executes transactions against the authenticated key-value
// store, producing events and per-height receipts. It is the generalized,
// transport-agnostic descendant of the teacher's OCPApp.deliverTx dispatch:
// where the teacher switches on a JSON envelope's Type string inside a
// CometBFT-specific ExecTxResult, Executor switches on codec.InstructionTag
// and returns an ExecResult the ABCI adapter (or any other transport) can
// translate on its own terms.
package layer

// Player is this chain's account record: chip balance, nonce tracking and
// the bridge bookkeeping handlers_bridge.go needs for daily-cap resets.
type Player struct {
	Public              [32]byte `json:"public"`
	Chips               uint64   `json:"chips"`
	VuBalance           uint64   `json:"vu_balance"`
	Nonce               uint64   `json:"nonce"`
	BridgeDailyDay      uint64   `json:"bridge_daily_day"`
	BridgeDailyWithdrawn uint64  `json:"bridge_daily_withdrawn"`
	IsTournament        bool     `json:"is_tournament"`
	TournamentID        uint64   `json:"tournament_id"`
	Rank                uint32   `json:"rank"`
}

// LeaderboardEntry is one row of Leaderboard, grounded on spec.md's
// `{pk, chips, rank}` Leaderboard entity (the player name is omitted: this
// chain's Player record carries no name field, so the leaderboard is keyed
// on the public key alone). The rank is not stored in the entry: it is the
// entry's 1-based position, stamped onto Player.Rank.
type LeaderboardEntry struct {
	Public [32]byte `json:"public"`
	Chips  uint64   `json:"chips"`
}

// Leaderboard holds at most the top 10 players by chip balance, sorted
// descending with stable insertion on ties.
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// Policy is the admin-tunable bridge/economy policy, grounded on
// original_source's Policy value and spec.md §3.
type Policy struct {
	Paused                  bool   `json:"paused"`
	BridgeDailyLimit        uint64 `json:"bridge_daily_limit"`
	BridgeDailyLimitPerAcct uint64 `json:"bridge_daily_limit_per_account"`
	BridgeMinWithdraw       uint64 `json:"bridge_min_withdraw"`
	BridgeMaxWithdraw       uint64 `json:"bridge_max_withdraw"`
	BridgeDelaySecs         uint64 `json:"bridge_delay_secs"`
}

// BridgeState is the bridge's aggregate daily/lifetime counters.
type BridgeState struct {
	DailyDay          uint64 `json:"daily_day"`
	DailyWithdrawn    uint64 `json:"daily_withdrawn"`
	TotalWithdrawn    uint64 `json:"total_withdrawn"`
	TotalDeposited    uint64 `json:"total_deposited"`
	NextWithdrawalID  uint64 `json:"next_withdrawal_id"`
}

// BridgeWithdrawal is a pending or fulfilled bridge withdrawal request.
type BridgeWithdrawal struct {
	ID          uint64   `json:"id"`
	Player      [32]byte `json:"player"`
	Amount      uint64   `json:"amount"`
	RequestedTs uint64   `json:"requested_ts"`
	AvailableTs uint64   `json:"available_ts"`
	Fulfilled   bool     `json:"fulfilled"`
}

// LedgerEntryType discriminates ledger entries, grounded on
// original_source's LedgerEntryType enum.
type LedgerEntryType string

const (
	LedgerDeposit             LedgerEntryType = "deposit"
	LedgerWithdrawalRequest   LedgerEntryType = "withdrawal_request"
	LedgerWithdrawalFulfilled LedgerEntryType = "withdrawal_fulfilled"
)

// LedgerEntry is a single reconciliation-tracked bridge movement.
type LedgerEntry struct {
	ID             uint64          `json:"id"`
	Type           LedgerEntryType `json:"type"`
	Player         [32]byte        `json:"player"`
	Amount         uint64          `json:"amount"`
	CreatedTs      uint64          `json:"created_ts"`
	BalanceAfter   uint64          `json:"balance_after"`
	WithdrawalID   *uint64         `json:"withdrawal_id,omitempty"`
}

// LedgerState is the running summary of ledger activity, persisted
// alongside individual LedgerEntry records.
type LedgerState struct {
	NextEntryID                uint64 `json:"next_entry_id"`
	TotalDeposits               uint64 `json:"total_deposits"`
	TotalWithdrawalRequests     uint64 `json:"total_withdrawal_requests"`
	TotalWithdrawalsFulfilled   uint64 `json:"total_withdrawals_fulfilled"`
	PendingReconciliationCount  uint64 `json:"pending_reconciliation_count"`
}

// Staker is a registered validator's bonding record, adapted from the
// teacher's state.Validator.
type Staker struct {
	ValidatorID [32]byte `json:"validator_id"`
	Power       uint64   `json:"power"`
	Bond        uint64   `json:"bond"`
	Jailed      bool     `json:"jailed"`
}

// Tournament tracks a running multi-table tournament's registration pool.
type Tournament struct {
	ID       uint64     `json:"id"`
	Entrants [][32]byte `json:"entrants"`
	Open     bool       `json:"open"`
}

// AmmPool is a constant-product chip/vu liquidity pool.
type AmmPool struct {
	ID       uint64 `json:"id"`
	ChipResv uint64 `json:"chip_reserve"`
	VuResv   uint64 `json:"vu_reserve"`
}

// HouseState tracks aggregate house exposure across all running games and
// the session-id counter new games are allocated from.
type HouseState struct {
	TotalBetsOutstanding uint64 `json:"total_bets_outstanding"`
	TotalPaidOut         uint64 `json:"total_paid_out"`
	NextSessionID        uint64 `json:"next_session_id"`
}
