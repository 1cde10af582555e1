package codec

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
)

// TxAuthDomain replaces the teacher's "ocp/tx/v0" domain tag; same
// domain-separated preimage construction, new domain string.
const TxAuthDomain = "nullspace.transaction.v1"

// Transaction is the signed envelope carried over the consensus ingress
// channel: public key, replay-protection nonce, the tagged-union
// instruction, and a 64-byte ed25519 signature.
type Transaction struct {
	Public      [32]byte
	Nonce       uint64
	Instruction Instruction
	Signature   [64]byte
}

// SignBytes mirrors the teacher's txAuthSignBytesV0: domain || 0x00 ||
// nonce(be) || 0x00 || signer || 0x00 || sha256(encode(instruction)).
func SignBytes(public [32]byte, nonce uint64, encodedInstruction []byte) []byte {
	sum := sha256.Sum256(encodedInstruction)
	out := make([]byte, 0, len(TxAuthDomain)+1+8+1+32+1+sha256.Size)
	out = append(out, []byte(TxAuthDomain)...)
	out = append(out, 0)
	out = putU64(out, nonce)
	out = append(out, 0)
	out = append(out, public[:]...)
	out = append(out, 0)
	out = append(out, sum[:]...)
	return out
}

// Verify checks the ed25519 signature over SignBytes(tx.Public, tx.Nonce, encode(tx.Instruction)).
func (tx Transaction) Verify() error {
	encoded, err := EncodeInstruction(tx.Instruction)
	if err != nil {
		return err
	}
	msg := SignBytes(tx.Public, tx.Nonce, encoded)
	if !ed25519.Verify(ed25519.PublicKey(tx.Public[:]), msg, tx.Signature[:]) {
		return fmt.Errorf("codec: invalid transaction signature")
	}
	return nil
}

// Sign populates tx.Signature in place using priv, after setting tx.Public
// from the corresponding public key.
func Sign(priv ed25519.PrivateKey, public [32]byte, nonce uint64, ix Instruction) (Transaction, error) {
	encoded, err := EncodeInstruction(ix)
	if err != nil {
		return Transaction{}, err
	}
	msg := SignBytes(public, nonce, encoded)
	sig := ed25519.Sign(priv, msg)
	var tx Transaction
	tx.Public = public
	tx.Nonce = nonce
	tx.Instruction = ix
	copy(tx.Signature[:], sig)
	return tx, nil
}

// Encode serializes a full Transaction: public(32) || nonce(8,be) ||
// len-prefixed encoded instruction || signature(64).
func (tx Transaction) Encode() ([]byte, error) {
	encoded, err := EncodeInstruction(tx.Instruction)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 32+8+8+len(encoded)+64)
	buf = append(buf, tx.Public[:]...)
	buf = putU64(buf, tx.Nonce)
	buf = putBytes(buf, encoded)
	buf = append(buf, tx.Signature[:]...)
	return buf, nil
}

// DecodeTransaction is the exact inverse of Transaction.Encode.
func DecodeTransaction(buf []byte) (Transaction, error) {
	var tx Transaction
	public, rest, err := getBytes32(buf)
	if err != nil {
		return tx, err
	}
	nonce, rest, err := getU64(rest)
	if err != nil {
		return tx, err
	}
	encoded, rest, err := getBytes(rest)
	if err != nil {
		return tx, err
	}
	if len(rest) != 64 {
		return tx, fmt.Errorf("codec: transaction signature must be 64 bytes, got %d", len(rest))
	}
	ix, err := DecodeInstruction(encoded)
	if err != nil {
		return tx, err
	}
	tx.Public = public
	tx.Nonce = nonce
	tx.Instruction = ix
	copy(tx.Signature[:], rest)
	return tx, nil
}
