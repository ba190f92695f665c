package seedog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/tinylib/msgp/msgp"
)

// Sink records generated users after they were dispatched. Implementations
// must be safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

type MultiSink []Sink

func (ms MultiSink) Write(ctx context.Context, rec Record) error {
	for _, s := range ms {
		if err := s.Write(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (ms MultiSink) Close() error {
	var errs []error
	for _, s := range ms {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JSONSink writes one JSON object per line.
type JSONSink struct {
	mu  sync.Mutex
	w   io.WriteCloser
	enc *json.Encoder
}

func NewJSONSink(w io.WriteCloser) *JSONSink {
	return &JSONSink{
		w:   w,
		enc: json.NewEncoder(w),
	}
}

func (s *JSONSink) Write(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(rec)
}

func (s *JSONSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}

// MsgpackSink writes each record as a msgpack map with the same keys as the
// JSON encoding.
type MsgpackSink struct {
	mu sync.Mutex
	w  io.WriteCloser
	mw *msgp.Writer
}

func NewMsgpackSink(w io.WriteCloser) *MsgpackSink {
	return &MsgpackSink{
		w:  w,
		mw: msgp.NewWriter(w),
	}
}

func (s *MsgpackSink) Write(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := recordFields(rec)
	if err := s.mw.WriteMapHeader(uint32(len(fields))); err != nil {
		return err
	}
	for _, f := range fields {
		if err := s.mw.WriteString(f.name); err != nil {
			return err
		}
		if err := s.mw.WriteString(f.value); err != nil {
			return err
		}
	}
	return s.mw.Flush()
}

func (s *MsgpackSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mw.Flush(); err != nil {
		return err
	}
	return s.w.Close()
}
