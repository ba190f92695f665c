package ioutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncWriteCloser(t *testing.T) {
	buf := &bytes.Buffer{}
	closes := 0
	w := FuncWriteCloser(buf, func() error {
		closes++
		return nil
	})

	_, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.Equal(t, "hello", buf.String())
	assert.Equal(t, 1, closes)
}

func TestFuncWriteCloserRetriesFailedClose(t *testing.T) {
	calls := 0
	w := FuncWriteCloser(io.Discard, func() error {
		calls++
		if calls == 1 {
			return fmt.Errorf("busy")
		}
		return nil
	})

	assert.Error(t, w.Close())
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.Equal(t, 2, calls)
}

func TestIsIOClosedErr(t *testing.T) {
	assert.True(t, IsIOClosedErr(io.ErrClosedPipe))
	assert.True(t, IsIOClosedErr(fmt.Errorf("write: %w", os.ErrClosed)))
	assert.False(t, IsIOClosedErr(io.EOF))
}
