package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"nickchat/internal/pkg/logx"
)

// natsAdapter implements Adapter on top of a core NATS connection.
// Core NATS is at-most-once, which matches the best-effort broadcast model of the chat.
type natsAdapter struct {
	// handlers receives lifecycle and message callbacks.
	handlers Handlers

	// mu protects nc, subs and closed.
	mu sync.Mutex

	// nc is the live connection, nil until Connect succeeds.
	nc *nats.Conn

	// subs holds every subscription created through Subscribe.
	subs []*nats.Subscription

	// closed is set by Close; callbacks are silenced afterwards.
	closed bool

	// structured logger with transport context.
	logger zerolog.Logger
}

// NewNATSAdapter returns an unconnected NATS adapter. It satisfies Factory.
func NewNATSAdapter(handlers Handlers) Adapter {
	return &natsAdapter{
		handlers: handlers.fill(),
		logger:   logx.Component("nats_transport"),
	}
}

// Connect dials endpoint with automatic reconnection disabled: a dropped connection is
// reported once through OnError/OnClose and the owner decides whether to retry.
func (a *natsAdapter) Connect(ctx context.Context, endpoint string, opts ClientOptions) error {
	a.mu.Lock()
	switch {
	case a.closed:
		a.mu.Unlock()
		return ErrClosed
	case a.nc != nil:
		a.mu.Unlock()
		return fmt.Errorf("transport: already connected")
	}
	a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = nats.DefaultTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	nc, err := nats.Connect(endpoint,
		nats.Name(opts.ClientID),
		nats.NoReconnect(),
		nats.Timeout(timeout),
		nats.DisconnectErrHandler(a.onDisconnect),
		nats.ClosedHandler(a.onClosed),
		nats.ErrorHandler(a.onAsyncError),
	)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", endpoint, err)
	}

	a.mu.Lock()
	if a.closed || ctx.Err() != nil {
		a.closed = true
		a.mu.Unlock()
		nc.Close()

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return ErrClosed
	}
	a.nc = nc
	a.mu.Unlock()

	a.logger.Info().
		Str("client_id", opts.ClientID).
		Str("server", nc.ConnectedUrlRedacted()).
		Msg("Connected to broker.")

	a.handlers.OnOpen()
	return nil
}

// Subscribe registers a subscription that forwards every message to OnMessage.
func (a *natsAdapter) Subscribe(topic string) error {
	nc, err := a.conn()
	if err != nil {
		return err
	}

	sub, err := nc.Subscribe(topic, func(msg *nats.Msg) {
		a.handlers.OnMessage(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	a.mu.Lock()
	a.subs = append(a.subs, sub)
	a.mu.Unlock()

	return nil
}

// Publish hands payload to the NATS client's outbound buffer.
func (a *natsAdapter) Publish(topic string, payload []byte) error {
	nc, err := a.conn()
	if err != nil {
		return err
	}

	if err := nc.Publish(topic, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close tears down the connection exactly once. A Connect still in flight notices the
// closed flag when it returns and closes the connection it just opened.
func (a *natsAdapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	nc := a.nc
	a.subs = nil
	a.mu.Unlock()

	if nc != nil {
		nc.Close()
		a.logger.Info().Msg("Broker connection released.")
	}
	return nil
}

// conn returns the live connection or the reason there is none.
func (a *natsAdapter) conn() (*nats.Conn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrClosed
	}
	if a.nc == nil {
		return nil, ErrNotConnected
	}
	return a.nc, nil
}

// silenced reports whether the owner already closed the adapter.
func (a *natsAdapter) silenced() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *natsAdapter) onDisconnect(_ *nats.Conn, err error) {
	if err == nil || a.silenced() {
		return
	}

	a.logger.Warn().Err(err).Msg("Broker connection dropped.")
	a.handlers.OnError(err)
}

func (a *natsAdapter) onClosed(_ *nats.Conn) {
	if a.silenced() {
		return
	}

	a.logger.Info().Msg("Broker connection closed.")
	a.handlers.OnClose()
}

// onAsyncError logs asynchronous client errors (slow consumer, permission violations).
// They do not end the connection, so they are not reported as OnError.
func (a *natsAdapter) onAsyncError(_ *nats.Conn, sub *nats.Subscription, err error) {
	event := a.logger.Warn().Err(err)
	if sub != nil {
		event = event.Str("subject", sub.Subject)
	}
	if errors.Is(err, nats.ErrSlowConsumer) {
		event.Msg("Slow consumer, inbound messages dropped.")
		return
	}
	event.Msg("Asynchronous broker error.")
}
