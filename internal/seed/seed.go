// Package seed verifies the per-view BLS12-381 threshold signature that
// stands in for the beacon randomness feeding internal/rng. Grounded on
// wyf-ACCEPT-eth2030/pkg/crypto/bls_blst_adapter.go's supranational/blst
// bindings usage, adapted from Ethereum's MinPk attestation scheme (pubkey
// in G1, signature in G2) to a single verifying key: the consensus
// committee's group public key, reconstructed once from its threshold
// shares by the external consensus layer and supplied to this node as a
// fixed value at startup.
package seed

import (
	"encoding/binary"
	"fmt"

	blst "github.com/supranational/blst/bindings/go"
)

// DomainSeparationTag pins the hash-to-curve domain for seed signatures,
// distinct from any other BLS signature this network might produce.
const DomainSeparationTag = "NULLSPACE_SEED_BLS12381G2_XMD:SHA-256_SSWU_RO_"

const (
	GroupPublicKeySize = 48 // compressed G1
	SignatureSize      = 96 // compressed G2
)

// Verifier holds one committee's uncompressed group public key, amortizing
// the uncompress/subgroup-check cost across every view it verifies.
type Verifier struct {
	groupPublic *blst.P1Affine
}

// NewVerifier decodes and validates a compressed G1 group public key.
func NewVerifier(groupPublicKey []byte) (*Verifier, error) {
	if len(groupPublicKey) != GroupPublicKeySize {
		return nil, fmt.Errorf("seed: group public key must be %d bytes, got %d", GroupPublicKeySize, len(groupPublicKey))
	}
	pk := new(blst.P1Affine).Uncompress(groupPublicKey)
	if pk == nil {
		return nil, fmt.Errorf("seed: invalid group public key encoding")
	}
	if !pk.KeyValidate() {
		return nil, fmt.Errorf("seed: group public key fails subgroup validation")
	}
	return &Verifier{groupPublic: pk}, nil
}

// ViewMessage is the exact byte string signed for a given view: an 8-byte
// big-endian view number, nothing else. Every validator signs the same
// message for the same view, which is what lets the aggregated signature
// double as a VRF-style source of shared randomness.
func ViewMessage(view uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, view)
	return buf
}

// Verify checks that sig is a valid committee signature over view, per
// DomainSeparationTag. On success, sig itself is the value internal/rng
// should be keyed from: it is unpredictable before the view closes and
// identical across every honest node that reconstructs it.
func (v *Verifier) Verify(view uint64, sig []byte) error {
	if len(sig) != SignatureSize {
		return fmt.Errorf("seed: signature must be %d bytes, got %d", SignatureSize, len(sig))
	}
	s := new(blst.P2Affine).Uncompress(sig)
	if s == nil {
		return fmt.Errorf("seed: invalid signature encoding")
	}
	if !s.Verify(true, v.groupPublic, true, ViewMessage(view), []byte(DomainSeparationTag)) {
		return fmt.Errorf("seed: signature verification failed for view %d", view)
	}
	return nil
}
