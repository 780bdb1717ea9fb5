/*
Package transport provides the thin publish/subscribe layer a chat session talks to.

An Adapter hides the broker client behind connect / subscribe / publish primitives and
reports connection lifecycle through Handlers callbacks. Two implementations exist: a NATS
adapter (nats://, tls://, ws:// and wss:// endpoints) and an in-process memory broker (mem://)
used for offline runs and tests.
*/
package transport

import (
	"context"
	"errors"
	"net/url"
	"time"
)

// ErrClosed is returned by adapter operations after Close has been called.
var ErrClosed = errors.New("transport: adapter closed")

// ErrNotConnected is returned by Subscribe and Publish before Connect has succeeded.
var ErrNotConnected = errors.New("transport: not connected")

// ClientOptions carries the per-connection parameters handed to Connect.
type ClientOptions struct {
	// ClientID identifies this connection on the broker. It must be unique per attempt.
	ClientID string

	// ConnectTimeout bounds how long Connect may block.
	ConnectTimeout time.Duration
}

// Handlers are the event callbacks an adapter invokes. Any of them may run on a goroutine
// owned by the adapter, so implementations must not block for long.
type Handlers struct {
	// OnOpen fires once after Connect succeeds.
	OnOpen func()

	// OnMessage fires for every payload received on a subscribed topic.
	OnMessage func(topic string, payload []byte)

	// OnError fires when the connection fails or drops.
	OnError func(err error)

	// OnClose fires when the connection is closed for any reason.
	OnClose func()
}

// Adapter is a single broker connection. It is owned by exactly one session.
type Adapter interface {
	// Connect opens the connection. It blocks until the broker accepts the client,
	// the timeout passes, or ctx is done.
	Connect(ctx context.Context, endpoint string, opts ClientOptions) error

	// Subscribe starts delivering messages published on topic to Handlers.OnMessage.
	Subscribe(topic string) error

	// Publish sends payload to every subscriber of topic. Delivery is best effort.
	Publish(topic string, payload []byte) error

	// Close releases the connection. It is idempotent and safe to call concurrently with Connect.
	Close() error
}

// Factory builds a fresh, unconnected adapter bound to the given handlers.
type Factory func(handlers Handlers) Adapter

// NewFactory returns the adapter factory for endpoint: the shared memory broker for mem://
// endpoints, NATS for everything else.
func NewFactory(endpoint string) Factory {
	if u, err := url.Parse(endpoint); err == nil && u.Scheme == MemoryScheme {
		broker := SharedMemoryBroker()
		return broker.NewAdapter
	}

	return NewNATSAdapter
}

// fill replaces nil callbacks with no-ops so adapters can call them unconditionally.
func (h Handlers) fill() Handlers {
	if h.OnOpen == nil {
		h.OnOpen = func() {}
	}
	if h.OnMessage == nil {
		h.OnMessage = func(string, []byte) {}
	}
	if h.OnError == nil {
		h.OnError = func(error) {}
	}
	if h.OnClose == nil {
		h.OnClose = func() {}
	}
	return h
}
