package binary

import (
	"encoding/binary"
	"math"

	"github.com/ua-stack/opcua/pkg/ua/status"
)

// Reader is a bounded cursor over a decode buffer. Every Read*
// function enforces the remaining-bytes bound and returns
// status.BadDecodingError (malformed data) or
// status.BadEncodingLimitsExceeded (declared length exceeds what's
// left in the buffer) rather than panicking, so a caller can safely
// clear its destination value on any error per spec.md §7.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps buf for decoding. The Reader does not copy buf.
func NewReader(buf []byte) *Reader { return &Reader{data: buf} }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Take reads and returns the next n raw bytes, bounds-checked. The
// returned slice aliases the Reader's backing buffer.
func (r *Reader) Take(n int) ([]byte, error) { return r.take(n) }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, status.BadDecodingError
	}
	if n > r.Remaining() {
		return nil, status.BadEncodingLimitsExceeded
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func ReadBool(r *Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, status.BadDecodingError
	}
}

func ReadSByte(r *Reader) (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

func ReadUInt16(r *Reader) (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func ReadInt16(r *Reader) (int16, error) {
	v, err := ReadUInt16(r)
	return int16(v), err
}

func ReadUInt32(r *Reader) (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func ReadInt32(r *Reader) (int32, error) {
	v, err := ReadUInt32(r)
	return int32(v), err
}

func ReadUInt64(r *Reader) (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func ReadInt64(r *Reader) (int64, error) {
	v, err := ReadUInt64(r)
	return int64(v), err
}

func ReadFloat(r *Reader) (float32, error) {
	v, err := ReadUInt32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func ReadDouble(r *Reader) (float64, error) {
	v, err := ReadUInt64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadByteArray decodes a length-prefixed opaque array. ok=false means
// the wire value was the null sentinel (length -1).
func ReadByteArray(r *Reader) (data []byte, ok bool, err error) {
	n, err := ReadInt32(r)
	if err != nil {
		return nil, false, err
	}
	if n < -1 {
		return nil, false, status.BadDecodingError
	}
	if n == -1 {
		return nil, false, nil
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, false, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true, nil
}

// ReadString decodes a UA String. ok=false means the null string.
func ReadString(r *Reader) (s string, ok bool, err error) {
	data, ok, err := ReadByteArray(r)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(data), true, nil
}
