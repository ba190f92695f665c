package seedog

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/isobit/seedog/internal/log"
)

// LogTransport logs every request and response body sent through the
// wrapped transport.
type LogTransport struct {
	Transport
	Name string
}

func NewLogTransport(delegate Transport, name string) *LogTransport {
	return &LogTransport{
		Transport: delegate,
		Name:      name,
	}
}

func (t *LogTransport) Send(ctx context.Context, req Request) (*Response, error) {
	if body, err := json.Marshal(req); err == nil {
		log.Logf(0, "->%s %s", t.Name, strconv.Quote(string(body)))
	}
	resp, err := t.Transport.Send(ctx, req)
	if err != nil {
		log.Logf(0, "<-%s error: %s", t.Name, err)
		return resp, err
	}
	if resp != nil {
		log.Logf(0, "<-%s %s", t.Name, strconv.Quote(string(resp.Body)))
	}
	return resp, nil
}
