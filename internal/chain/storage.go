package chain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/happybigmtn/nullspace/internal/metrics"
)

// Finalization is the certificate a consensus collaborator attaches to a
// block once it has committed, carrying the signatures that justify
// treating the block as final.
type Finalization struct {
	Height     uint64
	Digest     [32]byte
	Signatures map[[32]byte][]byte
}

// NewFinalization starts a finalization certificate with no signatures yet.
func NewFinalization(height uint64, digest [32]byte) Finalization {
	return Finalization{Height: height, Digest: digest, Signatures: map[[32]byte][]byte{}}
}

// AddSignature records one validator's signature over Digest.
func (f *Finalization) AddSignature(validator [32]byte, sig []byte) {
	if f.Signatures == nil {
		f.Signatures = map[[32]byte][]byte{}
	}
	f.Signatures[validator] = append([]byte(nil), sig...)
}

// ChainState is the persisted tip pointer used to skip a full block scan on
// restart.
type ChainState struct {
	Tip        [32]byte
	Height     uint64
	StateRoot  [32]byte
	HasGenesis bool
}

// Store errors.
var (
	ErrBlockNotFound       = fmt.Errorf("block not found")
	ErrFinalizationMissing = fmt.Errorf("finalization not found")
	ErrReceiptsMissing     = fmt.Errorf("receipts not found")
)

// BlockStorage persists blocks, finalization certificates and receipts,
// keyed by height, following the layout and atomic write-rename pattern of
// original_source's FileBlockStorage.
type BlockStorage interface {
	PutBlock(height uint64, block Block) error
	GetBlock(height uint64) (Block, error)
	HasBlock(height uint64) bool

	PutFinalization(height uint64, fin Finalization) error
	GetFinalization(height uint64) (Finalization, error)
	HasFinalization(height uint64) bool

	PutReceipts(height uint64, receipts []Receipt) error
	GetReceipts(height uint64) ([]Receipt, error)
	HasReceipts(height uint64) bool

	PutChainState(state ChainState) error
	GetChainState() (ChainState, bool, error)

	PutStateSnapshot(snapshot map[string][]byte) error
	GetStateSnapshot() (map[string][]byte, bool, error)

	MaxHeight() (uint64, bool)

	PersistFinalized(block Block, fin Finalization, receipts []Receipt, state ChainState, snapshot map[string][]byte) error
}

// FileBlockStorage is the production backend: one file per height under
// blocks/, finalizations/ and receipts/, plus a chain_state.json tip
// pointer, all written via write-temp-then-rename for crash safety.
type FileBlockStorage struct {
	basePath         string
	blocksDir        string
	finalizationsDir string
	receiptsDir      string
	metrics          *metrics.Storage
	log              *logrus.Entry
}

// OpenFileBlockStorage creates or opens file-based storage at basePath,
// creating the directory structure if it doesn't exist.
func OpenFileBlockStorage(basePath string, m *metrics.Storage, log *logrus.Entry) (*FileBlockStorage, error) {
	blocksDir := filepath.Join(basePath, "blocks")
	finalizationsDir := filepath.Join(basePath, "finalizations")
	receiptsDir := filepath.Join(basePath, "receipts")
	for _, dir := range []string{blocksDir, finalizationsDir, receiptsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FileBlockStorage{
		basePath:         basePath,
		blocksDir:        blocksDir,
		finalizationsDir: finalizationsDir,
		receiptsDir:      receiptsDir,
		metrics:          m,
		log:              log,
	}, nil
}

func heightToFilename(height uint64) string {
	return fmt.Sprintf("%016x", height)
}

func filenameToHeight(name string) (uint64, bool) {
	stem := name
	if idx := indexByte(name, '.'); idx >= 0 {
		stem = name[:idx]
	}
	var height uint64
	if _, err := fmt.Sscanf(stem, "%016x", &height); err != nil {
		return 0, false
	}
	return height, true
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func (s *FileBlockStorage) blockPath(height uint64) string {
	return filepath.Join(s.blocksDir, heightToFilename(height)+".block")
}

func (s *FileBlockStorage) finalizationPath(height uint64) string {
	return filepath.Join(s.finalizationsDir, heightToFilename(height)+".fin")
}

func (s *FileBlockStorage) receiptsPath(height uint64) string {
	return filepath.Join(s.receiptsDir, heightToFilename(height)+".receipts")
}

func (s *FileBlockStorage) chainStatePath() string {
	return filepath.Join(s.basePath, "chain_state.json")
}

func (s *FileBlockStorage) stateSnapshotPath() string {
	return filepath.Join(s.basePath, "state_snapshot.json")
}

// atomicWrite writes data to path via a temp file, fsync, then rename so a
// crash mid-write never leaves a partial file in place.
func (s *FileBlockStorage) atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncErrors()
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		if s.metrics != nil {
			s.metrics.IncErrors()
		}
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		if s.metrics != nil {
			s.metrics.IncErrors()
		}
		return err
	}
	if err := f.Close(); err != nil {
		if s.metrics != nil {
			s.metrics.IncErrors()
		}
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		if s.metrics != nil {
			s.metrics.IncErrors()
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.IncWrites()
	}
	return nil
}

func (s *FileBlockStorage) readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if s.metrics != nil && !os.IsNotExist(err) {
			s.metrics.IncErrors()
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncReads()
	}
	return data, nil
}

func (s *FileBlockStorage) PutBlock(height uint64, block Block) error {
	encoded, err := EncodeBlock(block)
	if err != nil {
		return err
	}
	return s.atomicWrite(s.blockPath(height), encoded)
}

func (s *FileBlockStorage) GetBlock(height uint64) (Block, error) {
	data, err := s.readFile(s.blockPath(height))
	if err != nil {
		if os.IsNotExist(err) {
			return Block{}, ErrBlockNotFound
		}
		return Block{}, err
	}
	return DecodeBlock(data)
}

func (s *FileBlockStorage) HasBlock(height uint64) bool {
	_, err := os.Stat(s.blockPath(height))
	return err == nil
}

func (s *FileBlockStorage) PutFinalization(height uint64, fin Finalization) error {
	encoded, err := encodeFinalization(fin)
	if err != nil {
		return err
	}
	return s.atomicWrite(s.finalizationPath(height), encoded)
}

func (s *FileBlockStorage) GetFinalization(height uint64) (Finalization, error) {
	data, err := s.readFile(s.finalizationPath(height))
	if err != nil {
		if os.IsNotExist(err) {
			return Finalization{}, ErrFinalizationMissing
		}
		return Finalization{}, err
	}
	return decodeFinalization(data)
}

func (s *FileBlockStorage) HasFinalization(height uint64) bool {
	_, err := os.Stat(s.finalizationPath(height))
	return err == nil
}

func (s *FileBlockStorage) PutReceipts(height uint64, receipts []Receipt) error {
	encoded, err := EncodeReceipts(receipts)
	if err != nil {
		return err
	}
	return s.atomicWrite(s.receiptsPath(height), encoded)
}

func (s *FileBlockStorage) GetReceipts(height uint64) ([]Receipt, error) {
	data, err := s.readFile(s.receiptsPath(height))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrReceiptsMissing
		}
		return nil, err
	}
	return DecodeReceipts(data)
}

func (s *FileBlockStorage) HasReceipts(height uint64) bool {
	_, err := os.Stat(s.receiptsPath(height))
	return err == nil
}

func (s *FileBlockStorage) PutChainState(state ChainState) error {
	encoded, err := encodeChainState(state)
	if err != nil {
		return err
	}
	return s.atomicWrite(s.chainStatePath(), encoded)
}

func (s *FileBlockStorage) GetChainState() (ChainState, bool, error) {
	data, err := s.readFile(s.chainStatePath())
	if err != nil {
		if os.IsNotExist(err) {
			return ChainState{}, false, nil
		}
		return ChainState{}, false, err
	}
	state, err := decodeChainState(data)
	if err != nil {
		return ChainState{}, false, err
	}
	return state, true, nil
}

// PutStateSnapshot persists a full copy of the state store's contents
// alongside chain_state.json, keyed by hex-encoded Key bytes. chain_state.json
// carries only the root hashes a restart needs to validate continuity;
// rebuilding the actual store.KV requires this snapshot too, since the root
// is one-way.
func (s *FileBlockStorage) PutStateSnapshot(snapshot map[string][]byte) error {
	encoded, err := encodeStateSnapshot(snapshot)
	if err != nil {
		return err
	}
	return s.atomicWrite(s.stateSnapshotPath(), encoded)
}

func (s *FileBlockStorage) GetStateSnapshot() (map[string][]byte, bool, error) {
	data, err := s.readFile(s.stateSnapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	snapshot, err := decodeStateSnapshot(data)
	if err != nil {
		return nil, false, err
	}
	return snapshot, true, nil
}

func (s *FileBlockStorage) MaxHeight() (uint64, bool) {
	entries, err := os.ReadDir(s.blocksDir)
	if err != nil {
		return 0, false
	}
	var max uint64
	found := false
	for _, e := range entries {
		height, ok := filenameToHeight(e.Name())
		if !ok {
			continue
		}
		if !found || height > max {
			max = height
			found = true
		}
	}
	return max, found
}

func (s *FileBlockStorage) PersistFinalized(block Block, fin Finalization, receipts []Receipt, state ChainState, snapshot map[string][]byte) error {
	height := block.Header.Height
	if err := s.PutBlock(height, block); err != nil {
		return err
	}
	if err := s.PutFinalization(height, fin); err != nil {
		return err
	}
	if err := s.PutReceipts(height, receipts); err != nil {
		return err
	}
	if err := s.PutStateSnapshot(snapshot); err != nil {
		return err
	}
	return s.PutChainState(state)
}

// Recover scans storage and returns the ChainState reflecting the highest
// finalized block. It first trusts chain_state.json if it matches the
// stored tip block; otherwise it rebuilds from the highest stored block.
func (s *FileBlockStorage) Recover() (ChainState, bool, error) {
	if state, ok, err := s.GetChainState(); err != nil {
		return ChainState{}, false, err
	} else if ok {
		if s.HasBlock(state.Height) && s.HasFinalization(state.Height) {
			block, err := s.GetBlock(state.Height)
			if err != nil {
				return ChainState{}, false, err
			}
			if block.BlockHash() == state.Tip && block.Header.StateRoot == state.StateRoot {
				return state, true, nil
			}
		}
		s.log.WithField("persisted_height", state.Height).Warn("chain_state.json mismatched stored blocks, rebuilding from disk")
	}

	maxHeight, ok := s.MaxHeight()
	if !ok {
		return ChainState{}, false, nil
	}
	block, err := s.GetBlock(maxHeight)
	if err != nil {
		return ChainState{}, false, err
	}
	return ChainState{
		Tip:        block.BlockHash(),
		Height:     maxHeight,
		StateRoot:  block.Header.StateRoot,
		HasGenesis: true,
	}, true, nil
}

type jsonFinalization struct {
	Height     uint64            `json:"height"`
	Digest     string            `json:"digest"`
	Signatures map[string]string `json:"signatures"`
}

func encodeFinalization(f Finalization) ([]byte, error) {
	jf := jsonFinalization{
		Height:     f.Height,
		Digest:     hexEncode(f.Digest[:]),
		Signatures: map[string]string{},
	}
	for validator, sig := range f.Signatures {
		jf.Signatures[hexEncode(validator[:])] = hexEncode(sig)
	}
	return json.Marshal(jf)
}

func decodeFinalization(data []byte) (Finalization, error) {
	var jf jsonFinalization
	if err := json.Unmarshal(data, &jf); err != nil {
		return Finalization{}, err
	}
	var f Finalization
	f.Height = jf.Height
	if err := hexDecodeInto(f.Digest[:], jf.Digest); err != nil {
		return Finalization{}, err
	}
	f.Signatures = map[[32]byte][]byte{}
	keys := make([]string, 0, len(jf.Signatures))
	for k := range jf.Signatures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var validator [32]byte
		if err := hexDecodeInto(validator[:], k); err != nil {
			return Finalization{}, err
		}
		sig, err := hexDecode(jf.Signatures[k])
		if err != nil {
			return Finalization{}, err
		}
		f.Signatures[validator] = sig
	}
	return f, nil
}

func encodeStateSnapshot(snapshot map[string][]byte) ([]byte, error) {
	out := make(map[string]string, len(snapshot))
	for k, v := range snapshot {
		out[hexEncode([]byte(k))] = hexEncode(v)
	}
	return json.Marshal(out)
}

func decodeStateSnapshot(data []byte) (map[string][]byte, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(raw))
	for k, v := range raw {
		key, err := hexDecode(k)
		if err != nil {
			return nil, err
		}
		value, err := hexDecode(v)
		if err != nil {
			return nil, err
		}
		out[string(key)] = value
	}
	return out, nil
}

type jsonChainState struct {
	Tip        string `json:"tip"`
	Height     uint64 `json:"height"`
	StateRoot  string `json:"state_root"`
	HasGenesis bool   `json:"has_genesis"`
}

func encodeChainState(s ChainState) ([]byte, error) {
	return json.Marshal(jsonChainState{
		Tip:        hexEncode(s.Tip[:]),
		Height:     s.Height,
		StateRoot:  hexEncode(s.StateRoot[:]),
		HasGenesis: s.HasGenesis,
	})
}

func decodeChainState(data []byte) (ChainState, error) {
	var js jsonChainState
	if err := json.Unmarshal(data, &js); err != nil {
		return ChainState{}, err
	}
	var state ChainState
	if err := hexDecodeInto(state.Tip[:], js.Tip); err != nil {
		return ChainState{}, err
	}
	state.Height = js.Height
	if err := hexDecodeInto(state.StateRoot[:], js.StateRoot); err != nil {
		return ChainState{}, err
	}
	state.HasGenesis = js.HasGenesis
	return state, nil
}
