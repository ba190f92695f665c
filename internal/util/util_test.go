package util

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/isobit/seedog/internal/log"
)

func TestLogHeaders(t *testing.T) {
	buf := &bytes.Buffer{}
	prevLog, prevLevel := log.Log, log.LogLevel
	defer func() {
		log.Log, log.LogLevel = prevLog, prevLevel
	}()
	log.Log = buf
	log.LogLevel = 1

	header := http.Header{}
	header.Add("X-B", "2")
	header.Add("X-A", "1")
	header.Add("X-A", "one")

	LogHeaders(1, "h: ", header)
	LogHeaders(2, "hidden: ", header)

	assert.Equal(t, "h: X-A: 1\nh: X-A: one\nh: X-B: 2\n", buf.String())
}
