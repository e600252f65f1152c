package binary

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ua-stack/opcua/pkg/ua/status"
)

func TestBooleanLiteralEncoding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBool(&buf, true))
	assert.Equal(t, []byte{0x01}, buf.Bytes())

	buf.Reset()
	require.NoError(t, WriteBool(&buf, false))
	assert.Equal(t, []byte{0x00}, buf.Bytes())

	_, err := ReadBool(NewReader([]byte{0x02}))
	assert.ErrorIs(t, err, status.BadDecodingError)
}

func TestStringLiteralEncoding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "hello", true))
	assert.Equal(t, []byte{0x05, 0x00, 0x00, 0x00, 'h', 'e', 'l', 'l', 'o'}, buf.Bytes())

	buf.Reset()
	require.NoError(t, WriteString(&buf, "", false))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, buf.Bytes())

	buf.Reset()
	require.NoError(t, WriteString(&buf, "", true))
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, buf.Bytes())
}

func TestStringRoundTrip(t *testing.T) {
	r := NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	_, ok, err := ReadString(r)
	require.NoError(t, err)
	assert.False(t, ok)

	r = NewReader([]byte{0x00, 0x00, 0x00, 0x00})
	s, ok, err := ReadString(r)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", s)
}

func TestIntegerBoundaries(t *testing.T) {
	cases := []struct {
		name       string
		encode     func(Writer) error
		decode     func(*Reader) (any, error)
		oneOverLen int // extra bytes needed to trigger decode error test separately
	}{
		{
			name:   "int32 max",
			encode: func(w Writer) error { return WriteInt32(w, math.MaxInt32) },
			decode: func(r *Reader) (any, error) { return ReadInt32(r) },
		},
		{
			name:   "int32 min",
			encode: func(w Writer) error { return WriteInt32(w, math.MinInt32) },
			decode: func(r *Reader) (any, error) { return ReadInt32(r) },
		},
		{
			name:   "uint32 max",
			encode: func(w Writer) error { return WriteUint32(w, math.MaxUint32) },
			decode: func(r *Reader) (any, error) { return ReadUInt32(r) },
		},
		{
			name:   "int64 max",
			encode: func(w Writer) error { return WriteInt64(w, math.MaxInt64) },
			decode: func(r *Reader) (any, error) { return ReadInt64(r) },
		},
		{
			name:   "uint64 max",
			encode: func(w Writer) error { return WriteUint64(w, math.MaxUint64) },
			decode: func(r *Reader) (any, error) { return ReadUInt64(r) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tc.encode(&buf))
			size := CalcSize(tc.encode)
			assert.Equal(t, buf.Len(), size, "calc-size must match encode output")

			r := NewReader(buf.Bytes())
			_, err := tc.decode(r)
			require.NoError(t, err)
			assert.Equal(t, 0, r.Remaining())
		})
	}
}

func TestDecodeTruncatedBufferFails(t *testing.T) {
	_, err := ReadUInt32(NewReader([]byte{0x01, 0x02}))
	assert.ErrorIs(t, err, status.BadEncodingLimitsExceeded)
}

func TestFloatRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFloat(&buf, float32(math.Inf(1))))
	v, err := ReadFloat(NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(v), 1))

	buf.Reset()
	require.NoError(t, WriteDouble(&buf, math.NaN()))
	d, err := ReadDouble(NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(d))
}

func TestCalcSizeMatchesStringEncode(t *testing.T) {
	enc := func(w Writer) error { return WriteString(w, "a longer test string", true) }
	size := CalcSize(enc)

	var buf bytes.Buffer
	require.NoError(t, enc(&buf))
	assert.Equal(t, buf.Len(), size)
}
