package types

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ua-stack/opcua/pkg/ua/binary"
)

func TestNodeIdLiteralEncoding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewNumericNodeId(0, 5555).EncodeBinary(&buf))
	assert.Equal(t, []byte{0x01, 0x00, 0xB3, 0x15}, buf.Bytes())

	buf.Reset()
	require.NoError(t, NewStringNodeId(5, "foobar").EncodeBinary(&buf))
	assert.Equal(t, []byte{0x03, 0x05, 0x00, 0x06, 0x00, 0x00, 0x00, 'f', 'o', 'o', 'b', 'a', 'r'}, buf.Bytes())
}

func TestNodeIdTextualGrammarRoundTrip(t *testing.T) {
	cases := []string{
		"i=5555",
		"ns=5;s=foobar",
		"g=00000003-0009-000A-0807-060504030201",
		"ns=5;b=YXNkZmFzZGY=",
	}
	for _, s := range cases {
		n, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, n.String(), "round trip must be verbatim")
	}
}

func TestNodeIdBinaryRoundTrip(t *testing.T) {
	ids := []NodeId{
		NewNumericNodeId(0, 5),
		NewNumericNodeId(3, 300),
		NewNumericNodeId(12345, 999999),
		NewStringNodeId(1, "hello.world"),
		NewGUIDNodeId(2, uuid.New()),
		NewByteStringNodeId(7, []byte{1, 2, 3, 4}),
	}
	for _, id := range ids {
		var buf bytes.Buffer
		require.NoError(t, id.EncodeBinary(&buf))
		got, err := ReadNodeId(binary.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.True(t, id.Equal(got))
	}
}
