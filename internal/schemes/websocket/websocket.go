package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc"

	"github.com/isobit/seedog/internal"
	"github.com/isobit/seedog/internal/log"
)

var Scheme = &seedog.Scheme{
	Names: []string{"ws", "wss"},
	Dial:  Dial,

	Description: `
Dial opens one WebSocket connection to the endpoint and sends every
registration mutation over it using the graphql-transport-ws protocol (or the
legacy graphql-ws protocol).

Examples:
	seedog -e 'ws://127.0.0.1:8080/subscriptions'
	seedog -e 'ws://127.0.0.1:8080/' -o 'protocol=graphql-ws'
	`,
	DialOptionHelp: dialOptionHelp,
}

type protocol struct {
	Name      string
	Subscribe string
	Next      string
	Stop      string
}

var protocols = map[string]protocol{
	"graphql-transport-ws": {
		Name:      "graphql-transport-ws",
		Subscribe: "subscribe",
		Next:      "next",
		Stop:      "complete",
	},
	"graphql-ws": {
		Name:      "graphql-ws",
		Subscribe: "start",
		Next:      "data",
		Stop:      "stop",
	},
}

type message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type dialOptions struct {
	Protocol    protocol
	Origin      string
	Headers     map[string]string
	InitPayload map[string]string
}

var dialOptionHelp = seedog.OptionsHelp{}.
	Add("header.<NAME>", "<VALUE>", "extra handshake headers to send").
	Add("init.<KEY>", "<VALUE>", "connection_init payload entries").
	Add("origin", "<ORIGIN>", "").
	Add("protocol", "<PROTOCOL>", "graphql-transport-ws (default) or graphql-ws")

func extractDialOptions(opts seedog.Options) (dialOptions, error) {
	o := dialOptions{
		Protocol: protocols["graphql-transport-ws"],
	}

	if val, ok := opts.Pop("protocol"); ok {
		p, ok := protocols[val]
		if !ok {
			return o, fmt.Errorf("unknown protocol: %s", val)
		}
		o.Protocol = p
	}

	if val, ok := opts.Pop("origin"); ok {
		o.Origin = val
	}

	o.Headers = opts.PopPrefix("header.")
	o.InitPayload = opts.PopPrefix("init.")

	return o, opts.Done()
}

type result struct {
	resp *seedog.Response
	err  error
}

type Transport struct {
	conn       *websocket.Conn
	proto      protocol
	remoteAddr net.Addr

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan result
	err     error

	closing atomic.Bool
	wg      conc.WaitGroup
}

func Dial(cfg seedog.Config) (seedog.Transport, error) {
	opts, err := extractDialOptions(cfg.Options)
	if err != nil {
		return nil, err
	}

	tlsConfig, err := cfg.TLS.ClientConfig()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	for key, val := range opts.Headers {
		header.Add(key, val)
	}
	if opts.Origin != "" {
		header.Set("Origin", opts.Origin)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
		TLSClientConfig:  tlsConfig,
		Subprotocols:     []string{opts.Protocol.Name},
	}

	conn, _, err := dialer.Dial(cfg.URL.String(), header)
	if err != nil {
		return nil, err
	}

	t := &Transport{
		conn:       conn,
		proto:      opts.Protocol,
		remoteAddr: conn.RemoteAddr(),
		pending:    map[string]chan result{},
	}
	log.Logf(0, "connected: %s", t.remoteAddr)

	if err := t.init(opts.InitPayload); err != nil {
		conn.Close()
		return nil, err
	}
	log.Logf(1, "initialized: %s (%s)", t.remoteAddr, t.proto.Name)

	t.wg.Go(t.readLoop)
	return t, nil
}

func (t *Transport) init(initPayload map[string]string) error {
	payload, err := json.Marshal(initPayload)
	if err != nil {
		return err
	}
	if err := t.write(message{Type: "connection_init", Payload: payload}); err != nil {
		return err
	}
	for {
		var msg message
		if err := t.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("error waiting for connection_ack: %w", err)
		}
		switch msg.Type {
		case "connection_ack":
			return nil
		case "ka", "pong":
		case "ping":
			if err := t.write(message{Type: "pong"}); err != nil {
				return err
			}
		case "connection_error":
			return fmt.Errorf("connection error: %s", msg.Payload)
		default:
			return fmt.Errorf("unexpected message before connection_ack: %s", msg.Type)
		}
	}
}

func (t *Transport) write(msg message) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteJSON(msg)
}

func (t *Transport) readLoop() {
	for {
		var msg message
		if err := t.conn.ReadJSON(&msg); err != nil {
			t.fail(err)
			return
		}
		log.Logf(2, "received message: %s %s", msg.Type, msg.ID)

		switch msg.Type {
		case t.proto.Next:
			resp := &seedog.Response{}
			resp.DecodeGraphQLResponse(msg.Payload)
			t.resolve(msg.ID, result{resp: resp})
		case "error":
			t.resolve(msg.ID, result{resp: errorResponse(msg.Payload)})
		case "complete":
			t.resolve(msg.ID, result{resp: &seedog.Response{}})
		case "ping":
			if err := t.write(message{Type: "pong"}); err != nil {
				log.Logf(-1, "write error: %s", err)
			}
		case "ka", "pong":
		default:
			log.Logf(1, "ignoring message: %s", msg.Type)
		}
	}
}

// errorResponse converts an error message payload, an array of GraphQL
// errors or a single error object for graphql-ws, into a Response.
func errorResponse(payload json.RawMessage) *seedog.Response {
	resp := &seedog.Response{Body: payload}
	var errs []json.RawMessage
	if err := json.Unmarshal(payload, &errs); err == nil {
		resp.Errors = errs
	} else {
		resp.Errors = []json.RawMessage{payload}
	}
	return resp
}

func (t *Transport) resolve(id string, r result) {
	t.mu.Lock()
	ch, ok := t.pending[id]
	delete(t.pending, id)
	t.mu.Unlock()
	if ok {
		ch <- r
	}
}

func (t *Transport) forget(id string) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

func (t *Transport) fail(err error) {
	if !t.closing.Load() && !errors.Is(err, net.ErrClosed) {
		log.Logf(-1, "read error: %s", err)
	}
	t.mu.Lock()
	t.err = err
	pending := t.pending
	t.pending = map[string]chan result{}
	t.mu.Unlock()
	for _, ch := range pending {
		ch <- result{err: fmt.Errorf("connection closed: %w", err)}
	}
}

func (t *Transport) Send(ctx context.Context, req seedog.Request) (*seedog.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ch := make(chan result, 1)

	t.mu.Lock()
	if t.err != nil {
		err := t.err
		t.mu.Unlock()
		return nil, fmt.Errorf("connection closed: %w", err)
	}
	t.pending[id] = ch
	t.mu.Unlock()

	if err := t.write(message{ID: id, Type: t.proto.Subscribe, Payload: payload}); err != nil {
		t.forget(id)
		return nil, err
	}
	log.Logf(2, "sent message: %s %s", t.proto.Subscribe, id)

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-ctx.Done():
		t.forget(id)
		if err := t.write(message{ID: id, Type: t.proto.Stop}); err != nil {
			log.Logf(1, "write error: %s", err)
		}
		return nil, ctx.Err()
	}
}

func (t *Transport) Close() error {
	if t.closing.Swap(true) {
		return nil
	}
	t.writeMu.Lock()
	err := t.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	t.writeMu.Unlock()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		log.Logf(1, "error sending close message: %s", err)
	}
	closeErr := t.conn.Close()
	t.wg.Wait()
	log.Logf(0, "closed: %s", t.remoteAddr)
	if closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		return closeErr
	}
	return nil
}
