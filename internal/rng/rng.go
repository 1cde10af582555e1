// Package rng provides the deterministic per-(seed, session_id, move_index)
// randomness source every game kernel draws from. Two executions of the same
// block, on any honest node, must derive byte-for-byte identical keystreams:
// no wall-clock, no crypto/rand, no goroutine-local state.
package rng

import (
	"crypto/cipher"
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
	"lukechampine.com/blake3"

	"github.com/happybigmtn/nullspace/internal/codec"
)

// GameRng is a single-use keystream seeded from the consensus beacon
// signature, the game session id, and the move index within that session.
// Grounded on original_source/execution/src/casino/hilo.rs's GameRng::new
// contract (create_deck/draw_card/gen_range) and on the teacher's
// DeterministicDeck sha256-per-swap technique, generalized here to a single
// keyed stream instead of re-hashing per draw.
type GameRng struct {
	stream cipher.Stream
}

// New derives the keystream key as blake3(seedSig || sessionID_be ||
// moveIndex_be) and uses it, with an all-zero nonce, to key a chacha20
// stream. The (key, nonce) pair is unique per (seed, session, move) by
// construction, so a fixed nonce is safe here.
func New(seedSig []byte, sessionID uint64, moveIndex uint64) *GameRng {
	h := blake3.New(32, nil)
	h.Write(seedSig)
	var idBuf [16]byte
	binary.BigEndian.PutUint64(idBuf[0:8], sessionID)
	binary.BigEndian.PutUint64(idBuf[8:16], moveIndex)
	h.Write(idBuf[:])
	key := h.Sum(nil)

	var nonce [chacha20.NonceSize]byte
	stream, err := chacha20.NewUnauthenticatedCipher(key, nonce[:])
	if err != nil {
		// key is always exactly 32 bytes and nonce exactly 12 zero bytes;
		// chacha20.NewUnauthenticatedCipher only errors on bad key/nonce
		// lengths, which cannot happen here.
		panic(err)
	}
	return &GameRng{stream: stream}
}

// nextBytes fills buf with the next len(buf) keystream bytes.
func (r *GameRng) nextBytes(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	r.stream.XORKeyStream(buf, buf)
}

// GenRange returns a uniform integer in [0, n) via rejection sampling over
// keystream bytes; n must be > 0 and <= 256. No floating point division is
// used anywhere in this computation, per the no-float design constraint.
func (r *GameRng) GenRange(n uint8) uint8 {
	if n == 0 {
		return 0
	}
	limit := uint32(256) - uint32(256)%uint32(n)
	var b [1]byte
	for {
		r.nextBytes(b[:])
		v := uint32(b[0])
		if v < limit {
			return uint8(v % uint32(n))
		}
	}
}

// CreateDeck returns a freshly Fisher-Yates shuffled 52-card deck using this
// stream. HiLo draws a fresh deck on every move (with replacement, Open
// Question: preserved verbatim for observational equivalence — see
// SPEC_FULL.md), so CreateDeck is called once per move, not once per session.
func (r *GameRng) CreateDeck() []uint8 {
	deck := make([]uint8, codec.NumCards)
	for i := range deck {
		deck[i] = uint8(i)
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := r.genRangeInt(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// genRangeInt draws uniformly from [0, n) for n up to len(deck)==52, reusing
// GenRange's rejection-sampling technique over a full byte range per call.
func (r *GameRng) genRangeInt(n int) int {
	return int(r.GenRange(uint8(n)))
}

// DrawCard pops and returns the last card of deck, or false if the deck is
// empty. Mirrors original_source's draw_card: pop-from-end, not
// pop-from-front, so repeated draws from one shuffled deck never rescan.
func DrawCard(deck *[]uint8) (uint8, bool) {
	d := *deck
	if len(d) == 0 {
		return 0, false
	}
	last := len(d) - 1
	card := d[last]
	*deck = d[:last]
	return card, true
}
