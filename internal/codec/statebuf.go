package codec

import "encoding/binary"

// StateReader/StateWriter mirror original_source's StateReader/StateWriter:
// small big-endian cursors over a game's state_blob, used by game kernels to
// parse and serialize their packed byte layouts without pulling in a general
// binary-codec library for what is, in every kernel, a fixed handful of
// scalar fields.

type StateReader struct {
	buf []byte
	pos int
}

func NewStateReader(buf []byte) *StateReader {
	return &StateReader{buf: buf}
}

func (r *StateReader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *StateReader) ReadU8() (uint8, bool) {
	if r.Remaining() < 1 {
		return 0, false
	}
	v := r.buf[r.pos]
	r.pos++
	return v, true
}

func (r *StateReader) ReadI64BE() (int64, bool) {
	if r.Remaining() < 8 {
		return 0, false
	}
	v := int64(binary.BigEndian.Uint64(r.buf[r.pos : r.pos+8]))
	r.pos += 8
	return v, true
}

func (r *StateReader) ReadU32BE() (uint32, bool) {
	if r.Remaining() < 4 {
		return 0, false
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, true
}

type StateWriter struct {
	buf []byte
}

func NewStateWriter(capacity int) *StateWriter {
	return &StateWriter{buf: make([]byte, 0, capacity)}
}

func (w *StateWriter) PushU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *StateWriter) PushI64BE(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *StateWriter) PushU32BE(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *StateWriter) Bytes() []byte {
	return w.buf
}
