// Package chain implements the block, header, body and receipt types that
// make up this node's chain history, grounded on
// original_source/ralph/crates/codexpoker-onchain/src/block.rs.
package chain

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

const (
	domainBlockHeader = "nullspace.block_header.v1"
	domainBlockBody   = "nullspace.block_body.v1"
	domainReceipt     = "nullspace.receipt.v1"
)

// MaxReceiptErrorLen bounds receipt error messages to prevent unbounded
// allocations from malformed receipts.
const MaxReceiptErrorLen = 256

func canonicalHash(preimage []byte) [32]byte {
	return blake3.Sum256(preimage)
}

// PayloadHash is the commitment hash BlockBody.Preimage folds in for each
// payload, and the value Layer uses as Receipt.PayloadHash so a receipt can
// be linked back to the exact transaction it resulted from.
func PayloadHash(payload []byte) [32]byte {
	return canonicalHash(payload)
}

// BlockHeader commits to a block's parent, payload outcomes and resulting
// state.
type BlockHeader struct {
	Version      uint8
	Height       uint64
	ParentHash   [32]byte
	ReceiptsRoot [32]byte
	StateRoot    [32]byte
	TimestampMs  uint64
	Proposer     [32]byte
}

// GenesisHeader builds the height-0 header with a zero parent hash.
func GenesisHeader(version uint8, receiptsRoot, stateRoot [32]byte, timestampMs uint64, proposer [32]byte) BlockHeader {
	return BlockHeader{
		Version:      version,
		Height:       0,
		ReceiptsRoot: receiptsRoot,
		StateRoot:    stateRoot,
		TimestampMs:  timestampMs,
		Proposer:     proposer,
	}
}

// Preimage is the domain-separated encoding hashed to produce BlockHash.
// Field order and little-endian widths follow original_source exactly so
// the resulting hash is bit-identical across any re-implementation of this
// node.
func (h BlockHeader) Preimage() []byte {
	buf := make([]byte, 0, len(domainBlockHeader)+1+8+32+32+32+8+32)
	buf = append(buf, domainBlockHeader...)
	buf = append(buf, h.Version)
	buf = binary.LittleEndian.AppendUint64(buf, h.Height)
	buf = append(buf, h.ParentHash[:]...)
	buf = append(buf, h.ReceiptsRoot[:]...)
	buf = append(buf, h.StateRoot[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, h.TimestampMs)
	buf = append(buf, h.Proposer[:]...)
	return buf
}

// BlockHash is this header's canonical identifier: a child's ParentHash,
// a storage key, and the subject of finalization certificates.
func (h BlockHeader) BlockHash() [32]byte {
	return canonicalHash(h.Preimage())
}

// IsGenesis reports whether this is the height-0 header.
func (h BlockHeader) IsGenesis() bool {
	return h.Height == 0 && h.ParentHash == [32]byte{}
}

// BlockBody holds the ordered transactions executed within a block. Empty
// bodies are valid and advance the chain without effect.
type BlockBody struct {
	Payloads [][]byte
}

// Preimage encodes a payload count followed by each payload's commitment
// hash (the payload's own canonical hash), mirroring the Rust original's
// use of referenced_commitment_hash per ConsensusPayload.
func (b BlockBody) Preimage() []byte {
	buf := make([]byte, 0, len(domainBlockBody)+4+32*len(b.Payloads))
	buf = append(buf, domainBlockBody...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.Payloads)))
	for _, payload := range b.Payloads {
		h := canonicalHash(payload)
		buf = append(buf, h[:]...)
	}
	return buf
}

// BodyHash is this body's canonical hash.
func (b BlockBody) BodyHash() [32]byte {
	return canonicalHash(b.Preimage())
}

// IsEmpty reports whether the body carries no payloads.
func (b BlockBody) IsEmpty() bool { return len(b.Payloads) == 0 }

// Len returns the payload count.
func (b BlockBody) Len() int { return len(b.Payloads) }

// Block pairs a header with its body, the unit of storage and transmission
// for this chain.
type Block struct {
	Header BlockHeader
	Body   BlockBody
}

// BlockHash delegates to the header.
func (blk Block) BlockHash() [32]byte { return blk.Header.BlockHash() }

// Height returns the block's height.
func (blk Block) Height() uint64 { return blk.Header.Height }

// Receipt captures the outcome of executing one payload. PostStateRoot
// always reflects the state after the attempt, whether it succeeded or
// was rolled back on failure.
type Receipt struct {
	PayloadHash   [32]byte
	Success       bool
	PostStateRoot [32]byte
	Error         string
}

// SuccessReceipt builds a receipt for a payload that applied cleanly.
func SuccessReceipt(payloadHash, postStateRoot [32]byte) Receipt {
	return Receipt{PayloadHash: payloadHash, Success: true, PostStateRoot: postStateRoot}
}

// FailureReceipt builds a receipt for a payload that was rejected, with its
// error message truncated to MaxReceiptErrorLen.
func FailureReceipt(payloadHash, postStateRoot [32]byte, errMsg string) Receipt {
	if len(errMsg) > MaxReceiptErrorLen {
		errMsg = errMsg[:MaxReceiptErrorLen]
	}
	return Receipt{PayloadHash: payloadHash, Success: false, PostStateRoot: postStateRoot, Error: errMsg}
}

// Preimage encodes the receipt for hashing.
func (r Receipt) Preimage() []byte {
	errBytes := []byte(r.Error)
	buf := make([]byte, 0, len(domainReceipt)+32+1+32+2+len(errBytes))
	buf = append(buf, domainReceipt...)
	buf = append(buf, r.PayloadHash[:]...)
	if r.Success {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, r.PostStateRoot[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(errBytes)))
	buf = append(buf, errBytes...)
	return buf
}

// ReceiptHash is this receipt's canonical hash.
func (r Receipt) ReceiptHash() [32]byte {
	return canonicalHash(r.Preimage())
}

// ComputeReceiptsRoot folds receipts right-to-left into a single root:
// hash(r0 || hash(r1 || ... || hash(rn || [0;32]))). Receipts must be
// given in execution order; an empty list roots to the zero hash.
func ComputeReceiptsRoot(receipts []Receipt) [32]byte {
	if len(receipts) == 0 {
		return [32]byte{}
	}
	var acc [32]byte
	for i := len(receipts) - 1; i >= 0; i-- {
		h := receipts[i].ReceiptHash()
		combined := make([]byte, 0, 64)
		combined = append(combined, h[:]...)
		combined = append(combined, acc[:]...)
		acc = canonicalHash(combined)
	}
	return acc
}
