package seedog

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecSink(t *testing.T) {
	captureLog(t)
	stdout := &bytes.Buffer{}
	tee := &bytes.Buffer{}

	s, err := NewExecSink([]string{"cat"}, stdout, tee)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), Record{Name: "Ada", Email: "ada@example.com", Password: "pw"}))
	require.NoError(t, s.Close())

	want := `{"name":"Ada","email":"ada@example.com","password":"pw"}` + "\n"
	assert.Equal(t, want, stdout.String())
	assert.Equal(t, want, tee.String())
}

func TestExecSinkStderr(t *testing.T) {
	logBuf := captureLog(t)

	s, err := NewExecSink([]string{"sh", "-c", "cat >/dev/null; echo oops >&2"}, &bytes.Buffer{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Contains(t, logBuf.String(), ": oops")
}

func TestExecSinkExitStatus(t *testing.T) {
	captureLog(t)

	s, err := NewExecSink([]string{"sh", "-c", "cat >/dev/null; exit 3"}, &bytes.Buffer{}, nil)
	require.NoError(t, err)
	assert.ErrorContains(t, s.Close(), "exit status 3")
}

func TestExecSinkEmptyCommand(t *testing.T) {
	_, err := NewExecSink(nil, &bytes.Buffer{}, nil)
	assert.Error(t, err)
}
