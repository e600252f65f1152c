package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()
	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}
	return buf, cleanup
}

func TestLevelFilteringDebugShowsEverything(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("DEBUG")
	Debug("debug message")
	Info("info message")

	out := buf.String()
	assert.Contains(t, out, "debug message")
	assert.Contains(t, out, "info message")
}

func TestLevelFilteringWarnHidesDebugAndInfo(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("WARN")
	Debug("debug message")
	Info("info message")
	Warn("warn message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
}

func TestJSONFormatProducesValidJSON(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("json")
	defer SetFormat("text")

	Info("opened channel", ChannelID(7))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "opened channel", decoded["msg"])
	assert.EqualValues(t, 7, decoded[KeyChannelID])
}

func TestContextFieldsArePropagatedByCtxVariants(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("json")
	defer SetFormat("text")

	lc := NewLogContext(3).WithService("Read", 42)
	ctx := WithContext(context.Background(), lc)

	InfoCtx(ctx, "dispatched service")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.EqualValues(t, 3, decoded[KeyChannelID])
	assert.Equal(t, "Read", decoded[KeyServiceName])
	assert.EqualValues(t, 42, decoded[KeyRequestHandle])
}

func TestLogContextCloneIsIndependent(t *testing.T) {
	lc := NewLogContext(1)
	clone := lc.WithSession("abc")
	assert.Empty(t, lc.SessionID)
	assert.Equal(t, "abc", clone.SessionID)
}

func TestSetLevelIgnoresInvalidValue(t *testing.T) {
	SetLevel("INFO")
	before := Level(currentLevel.Load())
	SetLevel("NOT_A_LEVEL")
	assert.Equal(t, before, Level(currentLevel.Load()))
}
