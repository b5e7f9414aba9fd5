package codec

import (
	"encoding/binary"
	"math"
)

// Writer encodes values in the same little-endian, length-prefixed layout
// Reader decodes. Every account's Encode method appends to a Writer sized
// exactly to its Size().
type Writer struct {
	buf []byte
}

func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteU8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
}

func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteU128(v Uint128) {
	w.WriteU64(v.Low)
	w.WriteU64(v.High)
}

func (w *Writer) WriteF64(v float64) {
	w.WriteU64(math.Float64bits(v))
}

func (w *Writer) WritePubkey(v [32]byte) { w.buf = append(w.buf, v[:]...) }

func (w *Writer) WritePubkeySlice(v [][32]byte) {
	w.WriteU32(uint32(len(v)))
	for _, pk := range v {
		w.WritePubkey(pk)
	}
}

func (w *Writer) WriteIPv4(v [4]byte) { w.buf = append(w.buf, v[:]...) }

func (w *Writer) WriteNetworkV4(v [5]byte) { w.buf = append(w.buf, v[:]...) }

func (w *Writer) WriteNetworkV4Slice(v [][5]byte) {
	w.WriteU32(uint32(len(v)))
	for _, n := range v {
		w.WriteNetworkV4(n)
	}
}

func (w *Writer) WriteString(v string) {
	w.WriteU32(uint32(len(v)))
	w.buf = append(w.buf, v...)
}

func (w *Writer) WriteBytes(v []byte) { w.buf = append(w.buf, v...) }

func (w *Writer) WriteVarBytes(v []byte) {
	w.WriteU32(uint32(len(v)))
	w.buf = append(w.buf, v...)
}

func (w *Writer) WriteU32Slice(v []uint32) {
	w.WriteU32(uint32(len(v)))
	for _, s := range v {
		w.WriteU32(s)
	}
}

// StringSize returns the encoded byte length of a length-prefixed string.
func StringSize(s string) int { return 4 + len(s) }

// NetworkV4SliceSize returns the encoded byte length of a length-prefixed
// []NetworkV4.
func NetworkV4SliceSize(v [][5]byte) int { return 4 + 5*len(v) }

// PubkeySliceSize returns the encoded byte length of a length-prefixed
// [][32]byte.
func PubkeySliceSize(v [][32]byte) int { return 4 + 32*len(v) }

// VarBytesSize returns the encoded byte length of a length-prefixed []byte.
func VarBytesSize(v []byte) int { return 4 + len(v) }
