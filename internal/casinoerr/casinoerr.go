// Package casinoerr defines the transaction-level error taxonomy.
//
// A CasinoError never aborts block execution: the Layer catches it, emits an
// event carrying the code, and moves on to the next transaction. Contrast
// with chainerr, whose errors are fatal and propagate out of ExecuteBlock.
package casinoerr

import "fmt"

// Code enumerates transaction-level failure reasons, stable across releases
// so off-chain observers can match on the numeric value rather than the
// message string.
type Code uint16

const (
	CodeUnknown Code = iota
	CodeInvalidSignature
	CodeInvalidNonce
	CodeUnknownAccount
	CodeInsufficientFunds
	CodeInvalidPayload
	CodeInvalidMove
	CodeGameAlreadyComplete
	CodeDeckExhausted
	CodeInvalidState
	CodeSessionNotFound
	CodeNotAdmin
	CodeBridgePaused
	CodeBridgeLimitExceeded
	CodeBridgeAmountOutOfRange
	CodeTournamentFull
	CodeAlreadyRegistered
	CodePolicyViolation
)

func (c Code) String() string {
	switch c {
	case CodeInvalidSignature:
		return "invalid_signature"
	case CodeInvalidNonce:
		return "invalid_nonce"
	case CodeUnknownAccount:
		return "unknown_account"
	case CodeInsufficientFunds:
		return "insufficient_funds"
	case CodeInvalidPayload:
		return "invalid_payload"
	case CodeInvalidMove:
		return "invalid_move"
	case CodeGameAlreadyComplete:
		return "game_already_complete"
	case CodeDeckExhausted:
		return "deck_exhausted"
	case CodeInvalidState:
		return "invalid_state"
	case CodeSessionNotFound:
		return "session_not_found"
	case CodeNotAdmin:
		return "not_admin"
	case CodeBridgePaused:
		return "bridge_paused"
	case CodeBridgeLimitExceeded:
		return "bridge_limit_exceeded"
	case CodeBridgeAmountOutOfRange:
		return "bridge_amount_out_of_range"
	case CodeTournamentFull:
		return "tournament_full"
	case CodeAlreadyRegistered:
		return "already_registered"
	case CodePolicyViolation:
		return "policy_violation"
	default:
		return "unknown"
	}
}

// Error is a transaction-level failure: reject this one transaction, keep
// executing the block.
type Error struct {
	Code Code
	Msg  string
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}
