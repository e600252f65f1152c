package typetable

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ua-stack/opcua/pkg/ua/binary"
	"github.com/ua-stack/opcua/pkg/ua/types"
)

type sampleStruct struct {
	RequestHandle uint32
	Tags          []uint32
	Comment       types.NullableString
}

var sampleLayout = Layout{
	Name: "SampleStruct",
	Members: []Member{
		{FieldName: "RequestHandle", Kind: builtinKind(types.KindUInt32)},
		{FieldName: "Tags", Kind: builtinKind(types.KindUInt32), IsArray: true},
		{FieldName: "Comment", Kind: builtinKind(types.KindString)},
	},
}

func TestEncodeDecodeStructRoundTrip(t *testing.T) {
	in := sampleStruct{
		RequestHandle: 7,
		Tags:          []uint32{1, 2, 3},
		Comment:       types.NullableString{Valid: true, Value: "hi"},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeStruct(Global, &buf, sampleLayout, in))

	var out sampleStruct
	require.NoError(t, DecodeStruct(Global, binary.NewReader(buf.Bytes()), sampleLayout, &out))
	assert.Equal(t, in, out)
}

type sampleOptStruct struct {
	Always   uint32
	Sometime types.NullableString
}

var sampleOptLayout = Layout{
	Name:      "SampleOptStruct",
	OptStruct: true,
	Members: []Member{
		{FieldName: "Always", Kind: builtinKind(types.KindUInt32)},
		{FieldName: "Sometime", Kind: builtinKind(types.KindString), Optional: true},
	},
}

func TestOptStructOmitsAbsentMember(t *testing.T) {
	in := sampleOptStruct{Always: 9}

	var buf bytes.Buffer
	require.NoError(t, EncodeStruct(Global, &buf, sampleOptLayout, in))

	// presence mask (4) + Always (4), no Sometime bytes
	assert.Equal(t, 8, buf.Len())

	var out sampleOptStruct
	require.NoError(t, DecodeStruct(Global, binary.NewReader(buf.Bytes()), sampleOptLayout, &out))
	assert.Equal(t, in, out)
}

func TestUnionRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeUnion(Global, &buf, 2, builtinKind(types.KindUInt32), uint32(99)))

	idx, val, err := DecodeUnion(Global, binary.NewReader(buf.Bytes()), func(i uint32) (Kind, bool) {
		if i == 2 {
			return builtinKind(types.KindUInt32), true
		}
		return 0, false
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), idx)
	assert.Equal(t, uint32(99), val)
}
