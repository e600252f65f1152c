package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceWrapAtThreshold(t *testing.T) {
	assert.Equal(t, uint32(1), nextSequenceNumber(sequenceWrapThreshold))
}

func TestSequenceWrapRejectsNonWrappedSuccessor(t *testing.T) {
	assert.False(t, isLegalSuccessor(sequenceWrapThreshold, sequenceWrapThreshold+1))
	assert.False(t, isLegalSuccessor(sequenceWrapThreshold, 2))
	assert.True(t, isLegalSuccessor(sequenceWrapThreshold, 1))
}

func TestSequenceCounterSendAdvancesAndWraps(t *testing.T) {
	var c sequenceCounter
	assert.Equal(t, uint32(1), c.Send())
	assert.Equal(t, uint32(2), c.Send())

	c.last = sequenceWrapThreshold
	assert.Equal(t, uint32(1), c.Send())
}

func TestSequenceCounterAcceptWindow(t *testing.T) {
	var c sequenceCounter
	require := assert.New(t)
	require.True(c.Accept(5))
	require.True(c.Accept(6))
	require.False(c.Accept(6))       // not strictly greater
	require.True(c.Accept(1000))     // within window
	require.False(c.Accept(1))       // outside window, not a wrap
}
