// Package store implements the tagged-union-addressed state store and the
// parallel events store described in spec.md §3/§4.8, following the
// teacher's internal/state/state.go AppHash technique: never hash Go map
// iteration order directly, always sort first.
package store

import (
	"encoding/binary"
	"fmt"
)

// KeyKind is the discriminant of the Key tagged union used to address every
// entity in the state store.
type KeyKind uint8

const (
	KeyPlayer KeyKind = iota
	KeyGameSession
	KeyLeaderboard
	KeyBridge
	KeyLedger
	KeyPolicy
	KeyHouseState
	KeyTournament
	KeyStaker
	KeyAmmPool
	KeyGlobalTableRound
	KeyCommit
	KeyBridgeWithdrawal
)

// Key is a tagged union: (kind, numeric id, optional 32-byte public key).
// Singleton entities (Leaderboard, Bridge, Policy, HouseState) use only Kind.
type Key struct {
	Kind KeyKind
	ID   uint64
	PK   [32]byte
}

// Encode produces the canonical byte representation used both as the store's
// map key and as part of the root-hash preimage. Deterministic across
// processes: no map iteration, no pointer addresses.
func (k Key) Encode() []byte {
	buf := make([]byte, 0, 1+8+32)
	buf = append(buf, byte(k.Kind))
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], k.ID)
	buf = append(buf, idBuf[:]...)
	buf = append(buf, k.PK[:]...)
	return buf
}

func PlayerKey(pk [32]byte) Key           { return Key{Kind: KeyPlayer, PK: pk} }
func GameSessionKey(id uint64) Key        { return Key{Kind: KeyGameSession, ID: id} }
func LeaderboardKey() Key                 { return Key{Kind: KeyLeaderboard} }
func BridgeKey() Key                      { return Key{Kind: KeyBridge} }
func LedgerKey(id uint64) Key             { return Key{Kind: KeyLedger, ID: id} }
func PolicyKey() Key                      { return Key{Kind: KeyPolicy} }
func HouseStateKey() Key                  { return Key{Kind: KeyHouseState} }
func TournamentKey(id uint64) Key         { return Key{Kind: KeyTournament, ID: id} }
func StakerKey(pk [32]byte) Key           { return Key{Kind: KeyStaker, PK: pk} }
func AmmPoolKey(id uint64) Key            { return Key{Kind: KeyAmmPool, ID: id} }
func GlobalTableRoundKey(id uint64) Key   { return Key{Kind: KeyGlobalTableRound, ID: id} }
func BridgeWithdrawalKey(id uint64) Key   { return Key{Kind: KeyBridgeWithdrawal, ID: id} }

// CommitKey addresses the well-known state-store metadata entry described in
// spec.md §6: "on each successful commit, store a Value::Commit{height,
// start} entry under a well-known metadata key." It is a singleton like
// LeaderboardKey, overwritten on every height rather than keyed by one.
func CommitKey() Key { return Key{Kind: KeyCommit} }

// EncodeCommit serializes the Commit{height, start} metadata value: height
// is the monotonic block number just committed, start is the state store's
// op_count snapshot taken before that block's transactions were applied.
func EncodeCommit(height, start uint64) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], height)
	binary.BigEndian.PutUint64(buf[8:], start)
	return buf
}

// DecodeCommit parses a Commit metadata value written by EncodeCommit.
func DecodeCommit(b []byte) (height, start uint64, err error) {
	if len(b) != 16 {
		return 0, 0, fmt.Errorf("store: commit metadata must be 16 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint64(b[:8]), binary.BigEndian.Uint64(b[8:]), nil
}
