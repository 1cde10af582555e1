package chain

import "testing"

func TestBlockEncodeDecodeRoundtrip(t *testing.T) {
	blk := Block{
		Header: GenesisHeader(1, [32]byte{1}, [32]byte{2}, 1700000000000, [32]byte{3}),
		Body:   BlockBody{Payloads: [][]byte{[]byte("tx-a"), []byte("tx-b")}},
	}
	encoded, err := EncodeBlock(blk)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeBlock(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.BlockHash() != blk.BlockHash() {
		t.Fatalf("expected matching block hash after roundtrip")
	}
	if len(decoded.Body.Payloads) != 2 || string(decoded.Body.Payloads[0]) != "tx-a" {
		t.Fatalf("payload roundtrip mismatch: %+v", decoded.Body.Payloads)
	}
}

func TestReceiptsEncodeDecodeRoundtrip(t *testing.T) {
	receipts := []Receipt{
		SuccessReceipt([32]byte{1}, [32]byte{2}),
		FailureReceipt([32]byte{3}, [32]byte{4}, "invalid nonce"),
	}
	encoded, err := EncodeReceipts(receipts)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeReceipts(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 || decoded[1].Error != "invalid nonce" {
		t.Fatalf("roundtrip mismatch: %+v", decoded)
	}
}
