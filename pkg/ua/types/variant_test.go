package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ua-stack/opcua/pkg/ua/binary"
)

func TestVariantScalarRoundTrip(t *testing.T) {
	v := NewScalarVariant(KindInt32, int32(-42))

	var buf bytes.Buffer
	require.NoError(t, v.EncodeBinary(&buf))

	got, err := ReadVariant(binary.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestVariantArrayRoundTrip(t *testing.T) {
	v := NewArrayVariant(KindDouble, []any{1.5, 2.5, 3.5}, nil)

	var buf bytes.Buffer
	require.NoError(t, v.EncodeBinary(&buf))

	got, err := ReadVariant(binary.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestVariantArrayDimensionsMustMatchFlatLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, buf.WriteByte(byte(KindInt32)|variantArrayFlag|variantDimsFlag))
	require.NoError(t, binary.WriteInt32(&buf, 4)) // flat length 4
	for i := 0; i < 4; i++ {
		require.NoError(t, binary.WriteInt32(&buf, int32(i)))
	}
	require.NoError(t, binary.WriteInt32(&buf, 2)) // 2 dims
	require.NoError(t, binary.WriteInt32(&buf, 2))
	require.NoError(t, binary.WriteInt32(&buf, 3)) // 2*3=6 != 4

	_, err := ReadVariant(binary.NewReader(buf.Bytes()))
	assert.Error(t, err)
}

func TestVariantEmpty(t *testing.T) {
	v := Variant{Empty: true}
	var buf bytes.Buffer
	require.NoError(t, v.EncodeBinary(&buf))
	assert.Equal(t, []byte{0x00}, buf.Bytes())

	got, err := ReadVariant(binary.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, got.Empty)
}

func TestDataValueRoundTrip(t *testing.T) {
	dv := DataValue{
		HasValue:           true,
		Value:              NewScalarVariant(KindBoolean, true),
		HasStatus:          true,
		Status:             0,
		HasSourceTimestamp: true,
		SourceTimestamp:    DateTimeFromTime(TimeFromDateTime(0)),
	}
	var buf bytes.Buffer
	require.NoError(t, dv.EncodeBinary(&buf))

	got, err := ReadDataValue(binary.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, dv, got)
}
