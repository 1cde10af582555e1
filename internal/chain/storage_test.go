package chain

import "testing"

func testBlock(height uint64) Block {
	var header BlockHeader
	if height == 0 {
		header = GenesisHeader(1, [32]byte{1}, [32]byte{2}, 1700000000000, [32]byte{3})
	} else {
		header = BlockHeader{
			Version:      1,
			Height:       height,
			ParentHash:   [32]byte{byte(height - 1)},
			ReceiptsRoot: [32]byte{1},
			StateRoot:    [32]byte{2},
			TimestampMs:  1700000000000 + height,
			Proposer:     [32]byte{3},
		}
	}
	return Block{Header: header, Body: BlockBody{}}
}

func testFinalization(height uint64, block Block) Finalization {
	fin := NewFinalization(height, block.BlockHash())
	fin.AddSignature([32]byte{1}, []byte{0xaa, 0xaa})
	return fin
}

func testReceipts() []Receipt {
	return []Receipt{
		SuccessReceipt([32]byte{1}, [32]byte{2}),
		SuccessReceipt([32]byte{3}, [32]byte{4}),
	}
}

func TestFileStorageCreatesDirectories(t *testing.T) {
	storage, err := OpenFileBlockStorage(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if storage.HasBlock(0) {
		t.Fatalf("expected no blocks in a fresh store")
	}
	if _, ok := storage.MaxHeight(); ok {
		t.Fatalf("expected no blocks in a fresh store")
	}
}

func TestFileStorageBlockRoundtrip(t *testing.T) {
	storage, err := OpenFileBlockStorage(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	blk := testBlock(0)
	if err := storage.PutBlock(0, blk); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !storage.HasBlock(0) || storage.HasBlock(1) {
		t.Fatalf("unexpected HasBlock results")
	}
	got, err := storage.GetBlock(0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BlockHash() != blk.BlockHash() {
		t.Fatalf("hash mismatch after roundtrip")
	}
}

func TestFileStorageBlockNotFound(t *testing.T) {
	storage, err := OpenFileBlockStorage(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := storage.GetBlock(99); err != ErrBlockNotFound {
		t.Fatalf("expected ErrBlockNotFound, got %v", err)
	}
}

func TestFileStoragePersistFinalizedAndRecover(t *testing.T) {
	dir := t.TempDir()
	{
		storage, err := OpenFileBlockStorage(dir, nil, nil)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		for height := uint64(0); height < 5; height++ {
			blk := testBlock(height)
			fin := testFinalization(height, blk)
			receipts := testReceipts()
			state := ChainState{Tip: blk.BlockHash(), Height: height, StateRoot: blk.Header.StateRoot, HasGenesis: true}
			snapshot := map[string][]byte{"k": {byte(height)}}
			if err := storage.PersistFinalized(blk, fin, receipts, state, snapshot); err != nil {
				t.Fatalf("persist at height %d: %v", height, err)
			}
		}
	}
	{
		storage, err := OpenFileBlockStorage(dir, nil, nil)
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		state, ok, err := storage.Recover()
		if err != nil || !ok {
			t.Fatalf("recover: ok=%v err=%v", ok, err)
		}
		if state.Height != 4 || !state.HasGenesis {
			t.Fatalf("unexpected recovered state: %+v", state)
		}
		for height := uint64(0); height < 5; height++ {
			if !storage.HasBlock(height) || !storage.HasFinalization(height) || !storage.HasReceipts(height) {
				t.Fatalf("missing data at height %d after reopen", height)
			}
		}
		snapshot, ok, err := storage.GetStateSnapshot()
		if err != nil || !ok {
			t.Fatalf("get state snapshot: ok=%v err=%v", ok, err)
		}
		if string(snapshot["k"]) != string([]byte{4}) {
			t.Fatalf("unexpected snapshot contents after reopen: %+v", snapshot)
		}
	}
}

func TestFileStorageRecoveryRebuildsOnMismatch(t *testing.T) {
	dir := t.TempDir()
	storage, err := OpenFileBlockStorage(dir, nil, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	blk := testBlock(0)
	fin := testFinalization(0, blk)
	receipts := testReceipts()
	if err := storage.PutBlock(0, blk); err != nil {
		t.Fatalf("put block: %v", err)
	}
	if err := storage.PutFinalization(0, fin); err != nil {
		t.Fatalf("put finalization: %v", err)
	}
	if err := storage.PutReceipts(0, receipts); err != nil {
		t.Fatalf("put receipts: %v", err)
	}
	invalid := ChainState{Tip: [32]byte{0x99}, Height: 99, StateRoot: [32]byte{0x88}, HasGenesis: true}
	if err := storage.PutChainState(invalid); err != nil {
		t.Fatalf("put chain state: %v", err)
	}

	recovered, ok, err := storage.Recover()
	if err != nil || !ok {
		t.Fatalf("recover: ok=%v err=%v", ok, err)
	}
	if recovered.Height != 0 || recovered.Tip != blk.BlockHash() {
		t.Fatalf("expected rebuild from stored block, got %+v", recovered)
	}
}

func TestFileStorageMaxHeightTracksInsertOrder(t *testing.T) {
	storage, err := OpenFileBlockStorage(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := storage.PutBlock(5, testBlock(5)); err != nil {
		t.Fatalf("put 5: %v", err)
	}
	if h, ok := storage.MaxHeight(); !ok || h != 5 {
		t.Fatalf("expected max height 5, got %d ok=%v", h, ok)
	}
	if err := storage.PutBlock(10, testBlock(10)); err != nil {
		t.Fatalf("put 10: %v", err)
	}
	if h, ok := storage.MaxHeight(); !ok || h != 10 {
		t.Fatalf("expected max height 10, got %d ok=%v", h, ok)
	}
	if err := storage.PutBlock(3, testBlock(3)); err != nil {
		t.Fatalf("put 3: %v", err)
	}
	if h, ok := storage.MaxHeight(); !ok || h != 10 {
		t.Fatalf("expected max height still 10, got %d ok=%v", h, ok)
	}
}

func TestHeightFilenameEncoding(t *testing.T) {
	if got := heightToFilename(0); got != "0000000000000000" {
		t.Fatalf("unexpected filename: %s", got)
	}
	if got := heightToFilename(255); got != "00000000000000ff" {
		t.Fatalf("unexpected filename: %s", got)
	}
	if height, ok := filenameToHeight("00000000000000ff.block"); !ok || height != 255 {
		t.Fatalf("unexpected parse: height=%d ok=%v", height, ok)
	}
}
