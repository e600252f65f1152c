// Package binary implements the OPC UA binary wire codec (spec.md C1):
// little-endian, length-prefixed primitive encode/decode over a cursor.
//
// Every Write* function takes a Writer so that the exact same code path
// drives both real encoding (into a *bytes.Buffer) and calc-size (into a
// Counter that only tallies bytes). This guarantees CalcSize(v) equals
// len(Encode(v)) by construction rather than by two independently
// maintained implementations drifting apart.
package binary

import (
	"encoding/binary"
	"math"
)

// Writer is the minimal sink every encoder writes through.
type Writer interface {
	WriteByte(b byte) error
	Write(p []byte) (int, error)
}

// Counter is a Writer that only counts bytes, never storing them. Used
// in "calc-only" mode per spec.md §4.1.
type Counter struct{ N int }

func (c *Counter) WriteByte(byte) error { c.N++; return nil }

func (c *Counter) Write(p []byte) (int, error) { c.N += len(p); return len(p), nil }

// CalcSize runs enc against a Counter and returns the byte count it
// would occupy on the wire.
func CalcSize(enc func(Writer) error) int {
	c := &Counter{}
	_ = enc(c) // Counter never errors
	return c.N
}

func WriteBool(w Writer, v bool) error {
	if v {
		return w.WriteByte(1)
	}
	return w.WriteByte(0)
}

func WriteSByte(w Writer, v int8) error { return w.WriteByte(byte(v)) }
func WriteByte(w Writer, v uint8) error { return w.WriteByte(v) }

func WriteInt16(w Writer, v int16) error { return writeFixed(w, uint64(uint16(v)), 2) }
func WriteUint16(w Writer, v uint16) error { return writeFixed(w, uint64(v), 2) }
func WriteInt32(w Writer, v int32) error { return writeFixed(w, uint64(uint32(v)), 4) }
func WriteUint32(w Writer, v uint32) error { return writeFixed(w, uint64(v), 4) }
func WriteInt64(w Writer, v int64) error { return writeFixed(w, uint64(v), 8) }
func WriteUint64(w Writer, v uint64) error { return writeFixed(w, v, 8) }

func WriteFloat(w Writer, v float32) error {
	return WriteUint32(w, math.Float32bits(v))
}

func WriteDouble(w Writer, v float64) error {
	return WriteUint64(w, math.Float64bits(v))
}

// writeFixed writes an unsigned integer of the given little-endian
// width. size is 2, 4, or 8.
func writeFixed(w Writer, v uint64, size int) error {
	var buf [8]byte
	switch size {
	case 2:
		binary.LittleEndian.PutUint16(buf[:2], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(buf[:4], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(buf[:8], v)
	}
	_, err := w.Write(buf[:size])
	return err
}

// WriteByteArray encodes a length-prefixed opaque byte array. A nil
// slice with ok=false encodes the null sentinel (-1); ok=true with a
// nil/empty slice encodes length 0.
func WriteByteArray(w Writer, data []byte, ok bool) error {
	if !ok {
		return WriteInt32(w, -1)
	}
	if err := WriteInt32(w, int32(len(data))); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	_, err := w.Write(data)
	return err
}

// WriteString encodes a UA String: Int32 length (-1 for null) followed
// by the UTF-8 bytes, per spec.md §4.1.
func WriteString(w Writer, s string, valid bool) error {
	if !valid {
		return WriteByteArray(w, nil, false)
	}
	return WriteByteArray(w, []byte(s), true)
}
