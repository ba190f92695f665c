package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogfLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	prevLog, prevLevel, prevColor := Log, LogLevel, LogColor
	defer func() {
		Log, LogLevel, LogColor = prevLog, prevLevel, prevColor
	}()
	Log = buf
	LogLevel = 0
	LogColor = false

	Logf(0, "shown: %d", 1)
	Logf(1, "hidden")
	Logf(-1, "error: %s", "boom")

	assert.Equal(t, "shown: 1\nerror: boom\n", buf.String())
}

func TestLogfColor(t *testing.T) {
	buf := &bytes.Buffer{}
	prevLog, prevLevel, prevColor := Log, LogLevel, LogColor
	defer func() {
		Log, LogLevel, LogColor = prevLog, prevLevel, prevColor
	}()
	Log = buf
	LogLevel = 0
	LogColor = true

	Logf(-1, "bad")

	assert.Equal(t, "\u001b[31;1mbad\u001b[0m\n", buf.String())
}
