package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isobit/seedog/internal"
)

type serverState struct {
	mu          sync.Mutex
	initPayload map[string]string
	gotPong     bool
}

// newGraphQLWSServer serves a minimal GraphQL-over-WebSocket server that
// echoes the registered email back as the token value. The password "reject"
// gets an error message and "hangup" closes the connection.
func newGraphQLWSServer(t *testing.T, proto protocol) (*httptest.Server, *serverState) {
	t.Helper()
	state := &serverState{}
	upgrader := &websocket.Upgrader{Subprotocols: []string{proto.Name}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var msg message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case "connection_init":
				state.mu.Lock()
				json.Unmarshal(msg.Payload, &state.initPayload)
				state.mu.Unlock()
				conn.WriteJSON(message{Type: "connection_ack"})
				conn.WriteJSON(message{Type: "ping"})
			case "pong":
				state.mu.Lock()
				state.gotPong = true
				state.mu.Unlock()
			case proto.Subscribe:
				var req seedog.Request
				if err := json.Unmarshal(msg.Payload, &req); err != nil {
					return
				}
				if req.Variables["password"] == "hangup" {
					return
				}
				if req.Variables["password"] == "reject" {
					errPayload := `[{"message":"password rejected"}]`
					if proto.Name == "graphql-ws" {
						errPayload = `{"message":"password rejected"}`
					}
					conn.WriteJSON(message{ID: msg.ID, Type: "error", Payload: json.RawMessage(errPayload)})
					continue
				}
				data := fmt.Sprintf(`{"data":{"register":{"value":%q}}}`, req.Variables["email"])
				conn.WriteJSON(message{ID: msg.ID, Type: proto.Next, Payload: json.RawMessage(data)})
				conn.WriteJSON(message{ID: msg.ID, Type: "complete"})
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, state
}

func dialServer(t *testing.T, srv *httptest.Server, opts seedog.Options) seedog.Transport {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	u.Scheme = "ws"
	tr, err := Dial(seedog.Config{URL: u, Options: opts})
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func registerRequest(email string, password string) seedog.Request {
	return seedog.DefaultMutation().Build(seedog.Record{
		Name:     "Ada",
		Email:    email,
		Password: password,
	})
}

func TestSendConcurrent(t *testing.T) {
	for _, name := range []string{"graphql-transport-ws", "graphql-ws"} {
		t.Run(name, func(t *testing.T) {
			srv, _ := newGraphQLWSServer(t, protocols[name])
			tr := dialServer(t, srv, seedog.Options{"protocol": name})

			p := pool.New().WithErrors()
			for i := 0; i < 20; i++ {
				email := fmt.Sprintf("user%d@example.com", i)
				p.Go(func() error {
					resp, err := tr.Send(context.Background(), registerRequest(email, "hunter22"))
					if err != nil {
						return err
					}
					want := fmt.Sprintf(`{"register":{"value":%q}}`, email)
					if string(resp.Data) != want {
						return fmt.Errorf("got %s, want %s", resp.Data, want)
					}
					return nil
				})
			}
			require.NoError(t, p.Wait())
		})
	}
}

func TestSendError(t *testing.T) {
	for _, name := range []string{"graphql-transport-ws", "graphql-ws"} {
		t.Run(name, func(t *testing.T) {
			srv, _ := newGraphQLWSServer(t, protocols[name])
			tr := dialServer(t, srv, seedog.Options{"protocol": name})

			resp, err := tr.Send(context.Background(), registerRequest("ada@example.com", "reject"))
			require.NoError(t, err)
			require.Len(t, resp.Errors, 1)
			assert.ErrorContains(t, resp.Err(), "password rejected")
		})
	}
}

func TestInitPayloadAndPing(t *testing.T) {
	srv, state := newGraphQLWSServer(t, protocols["graphql-transport-ws"])
	tr := dialServer(t, srv, seedog.Options{"init.Authorization": "Bearer xyz"})

	_, err := tr.Send(context.Background(), registerRequest("ada@example.com", "hunter22"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		state.mu.Lock()
		defer state.mu.Unlock()
		return state.gotPong
	}, time.Second, time.Millisecond)
	require.NoError(t, tr.Close())

	state.mu.Lock()
	defer state.mu.Unlock()
	assert.Equal(t, map[string]string{"Authorization": "Bearer xyz"}, state.initPayload)
}

func TestSendAfterServerClose(t *testing.T) {
	srv, _ := newGraphQLWSServer(t, protocols["graphql-transport-ws"])
	tr := dialServer(t, srv, nil)

	_, err := tr.Send(context.Background(), registerRequest("ada@example.com", "hangup"))
	assert.ErrorContains(t, err, "connection closed")

	_, err = tr.Send(context.Background(), registerRequest("ada@example.com", "hunter22"))
	assert.ErrorContains(t, err, "connection closed")
}

func TestSendCanceled(t *testing.T) {
	srv, _ := newGraphQLWSServer(t, protocols["graphql-transport-ws"])
	tr := dialServer(t, srv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Send(ctx, registerRequest("ada@example.com", "hunter22"))
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestDialOptions(t *testing.T) {
	_, err := extractDialOptions(seedog.Options{"protocol": "subscriptions-transport-ws"})
	assert.EqualError(t, err, "unknown protocol: subscriptions-transport-ws")

	_, err = extractDialOptions(seedog.Options{"text": ""})
	assert.EqualError(t, err, "unknown options: text")

	o, err := extractDialOptions(seedog.Options{"protocol": "graphql-ws", "header.X-A": "1", "origin": "http://localhost"})
	require.NoError(t, err)
	assert.Equal(t, "start", o.Protocol.Subscribe)
	assert.Equal(t, map[string]string{"X-A": "1"}, o.Headers)
	assert.Equal(t, "http://localhost", o.Origin)
}
