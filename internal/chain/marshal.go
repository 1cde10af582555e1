package chain

import (
	"encoding/hex"
	"encoding/json"
)

// jsonBlock, jsonHeader and jsonBody are the wire/storage representation of
// Block: JSON, matching the teacher's state snapshot convention of
// encoding/json for everything that isn't hashed directly.
type jsonHeader struct {
	Version      uint8  `json:"version"`
	Height       uint64 `json:"height"`
	ParentHash   string `json:"parent_hash"`
	ReceiptsRoot string `json:"receipts_root"`
	StateRoot    string `json:"state_root"`
	TimestampMs  uint64 `json:"timestamp_ms"`
	Proposer     string `json:"proposer"`
}

type jsonBlock struct {
	Header   jsonHeader `json:"header"`
	Payloads []string   `json:"payloads"`
}

type jsonReceipt struct {
	PayloadHash   string `json:"payload_hash"`
	Success       bool   `json:"success"`
	PostStateRoot string `json:"post_state_root"`
	Error         string `json:"error,omitempty"`
}

// EncodeBlock serializes a Block for storage.
func EncodeBlock(b Block) ([]byte, error) {
	jb := jsonBlock{
		Header: jsonHeader{
			Version:      b.Header.Version,
			Height:       b.Header.Height,
			ParentHash:   hexEncode(b.Header.ParentHash[:]),
			ReceiptsRoot: hexEncode(b.Header.ReceiptsRoot[:]),
			StateRoot:    hexEncode(b.Header.StateRoot[:]),
			TimestampMs:  b.Header.TimestampMs,
			Proposer:     hexEncode(b.Header.Proposer[:]),
		},
	}
	for _, p := range b.Body.Payloads {
		jb.Payloads = append(jb.Payloads, hexEncode(p))
	}
	return json.Marshal(jb)
}

// DecodeBlock is the exact inverse of EncodeBlock.
func DecodeBlock(data []byte) (Block, error) {
	var jb jsonBlock
	if err := json.Unmarshal(data, &jb); err != nil {
		return Block{}, err
	}
	var blk Block
	blk.Header.Version = jb.Header.Version
	blk.Header.Height = jb.Header.Height
	if err := hexDecodeInto(blk.Header.ParentHash[:], jb.Header.ParentHash); err != nil {
		return Block{}, err
	}
	if err := hexDecodeInto(blk.Header.ReceiptsRoot[:], jb.Header.ReceiptsRoot); err != nil {
		return Block{}, err
	}
	if err := hexDecodeInto(blk.Header.StateRoot[:], jb.Header.StateRoot); err != nil {
		return Block{}, err
	}
	blk.Header.TimestampMs = jb.Header.TimestampMs
	if err := hexDecodeInto(blk.Header.Proposer[:], jb.Header.Proposer); err != nil {
		return Block{}, err
	}
	for _, p := range jb.Payloads {
		raw, err := hexDecode(p)
		if err != nil {
			return Block{}, err
		}
		blk.Body.Payloads = append(blk.Body.Payloads, raw)
	}
	return blk, nil
}

// EncodeReceipts serializes a receipt slice for storage.
func EncodeReceipts(receipts []Receipt) ([]byte, error) {
	jrs := make([]jsonReceipt, 0, len(receipts))
	for _, r := range receipts {
		jrs = append(jrs, jsonReceipt{
			PayloadHash:   hexEncode(r.PayloadHash[:]),
			Success:       r.Success,
			PostStateRoot: hexEncode(r.PostStateRoot[:]),
			Error:         r.Error,
		})
	}
	return json.Marshal(jrs)
}

// DecodeReceipts is the exact inverse of EncodeReceipts.
func DecodeReceipts(data []byte) ([]Receipt, error) {
	var jrs []jsonReceipt
	if err := json.Unmarshal(data, &jrs); err != nil {
		return nil, err
	}
	out := make([]Receipt, 0, len(jrs))
	for _, jr := range jrs {
		var r Receipt
		if err := hexDecodeInto(r.PayloadHash[:], jr.PayloadHash); err != nil {
			return nil, err
		}
		r.Success = jr.Success
		if err := hexDecodeInto(r.PostStateRoot[:], jr.PostStateRoot); err != nil {
			return nil, err
		}
		r.Error = jr.Error
		out = append(out, r)
	}
	return out, nil
}

func hexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

func hexDecodeInto(dst []byte, s string) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(raw) != len(dst) {
		return errInvalidHexLength
	}
	copy(dst, raw)
	return nil
}

var errInvalidHexLength = &hexError{"invalid hex length"}

type hexError struct{ msg string }

func (e *hexError) Error() string { return e.msg }
