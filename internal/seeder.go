package seedog

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sourcegraph/conc/pool"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/isobit/seedog/internal/log"
)

// AggregateDispatchError is returned by Run and Dispatch when one or more
// requests failed. It does not say which ones.
type AggregateDispatchError struct {
	Err error
}

func (e *AggregateDispatchError) Error() string {
	return fmt.Sprintf("one or more dispatches failed: %s", e.Err)
}

func (e *AggregateDispatchError) Unwrap() error {
	return e.Err
}

// Seeder generates records, sends a registration mutation for each one
// concurrently, and waits for all of them to settle.
type Seeder struct {
	Generator Generator
	Mutation  Mutation

	// Lookup resolves endpoint URL schemes for Run.
	Lookup func(scheme string) *Scheme
	// Config carries the options and TLS settings used to dial the
	// endpoint; its URL is replaced by the endpoint passed to Run.
	Config Config
	// LogIO wraps the dialed transport in a LogTransport.
	LogIO bool

	// Schema, if set, is used to check every request before it is sent.
	Schema *ast.Schema
	// Strict treats HTTP error statuses and GraphQL errors as failures.
	Strict bool
	// Sink, if set, receives every record whose request succeeded.
	Sink Sink
}

// Run dials endpoint and dispatches count registrations to it.
func (s *Seeder) Run(ctx context.Context, count int, endpoint *url.URL) error {
	if endpoint == nil {
		return fmt.Errorf("no endpoint")
	}
	if s.Lookup == nil {
		return fmt.Errorf("no scheme lookup configured")
	}
	scheme := s.Lookup(endpoint.Scheme)
	if scheme == nil || scheme.Dial == nil {
		return fmt.Errorf("unknown endpoint scheme: %s", endpoint.Scheme)
	}

	cfg := s.Config.Clone()
	cfg.URL = endpoint
	transport, err := scheme.Dial(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := transport.Close(); err != nil {
			log.Logf(-1, "error closing transport: %s", err)
		}
	}()
	if s.LogIO {
		transport = NewLogTransport(transport, endpoint.Host)
	}

	return s.Dispatch(ctx, transport, count)
}

// Dispatch sends count registrations through transport without waiting for
// each one, then waits for every request to reach a terminal state.
func (s *Seeder) Dispatch(ctx context.Context, transport Transport, count int) error {
	if count < 0 {
		return fmt.Errorf("invalid count: %d", count)
	}

	p := pool.New().WithErrors().WithContext(ctx)
	for i := 0; i < count; i++ {
		rec := s.Generator.Generate()
		req := s.Mutation.Build(rec)
		if s.Schema != nil {
			if err := CheckRequest(s.Schema, req); err != nil {
				log.Logf(1, "waiting for %d dispatched requests", i)
				p.Wait()
				return err
			}
		}
		p.Go(func(ctx context.Context) error {
			return s.send(ctx, transport, rec, req)
		})
	}
	log.Logf(1, "dispatched: %d requests", count)

	if err := p.Wait(); err != nil {
		return &AggregateDispatchError{Err: err}
	}
	log.Logf(0, "finished: %d requests", count)
	return nil
}

func (s *Seeder) send(ctx context.Context, transport Transport, rec Record, req Request) error {
	resp, err := transport.Send(ctx, req)
	if err != nil {
		log.Logf(1, "request failed: %s: %s", rec.Email, err)
		return err
	}
	if resp != nil && resp.Status != "" {
		log.Logf(1, "response: %s: %s", rec.Email, resp.Status)
	}
	if s.Strict {
		if err := resp.Err(); err != nil {
			return err
		}
	}
	if s.Sink != nil {
		if err := s.Sink.Write(ctx, rec); err != nil {
			return fmt.Errorf("error writing record: %w", err)
		}
	}
	return nil
}
