package transport

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"nickchat/internal/pkg/logx"
)

// MemoryScheme is the endpoint scheme that selects the in-process broker.
const MemoryScheme = "mem"

var (
	// ErrBrokerUnavailable is returned by Connect while the memory broker is marked down.
	ErrBrokerUnavailable = errors.New("transport: broker unavailable")

	// ErrConnectionDropped is reported through OnError when the broker severs a client.
	ErrConnectionDropped = errors.New("transport: connection dropped by broker")

	// ErrClientIDInUse is returned by Connect when another live client holds the same ID.
	ErrClientIDInUse = errors.New("transport: client id already in use")
)

var sharedBroker = sync.OnceValue(NewMemoryBroker)

// SharedMemoryBroker returns the process-wide broker used for mem:// endpoints, so every
// session in one bridge process can talk to the others without a network broker.
func SharedMemoryBroker() *MemoryBroker {
	return sharedBroker()
}

// MemoryBroker is an in-process publish/subscribe broker. Messages are delivered
// synchronously to every subscriber of a topic, the publisher included, like a real broker echo.
type MemoryBroker struct {
	// mu protects clients and unavailable.
	mu sync.RWMutex

	// clients maps client IDs to their connected adapters.
	clients map[string]*memoryAdapter

	// unavailable makes every Connect fail when set.
	unavailable bool

	// structured logger with broker context.
	logger zerolog.Logger
}

// NewMemoryBroker creates an empty broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		clients: make(map[string]*memoryAdapter),
		logger:  logx.Component("memory_broker"),
	}
}

// NewAdapter returns an unconnected adapter attached to this broker. It satisfies Factory.
func (b *MemoryBroker) NewAdapter(handlers Handlers) Adapter {
	return &memoryAdapter{
		broker:   b,
		handlers: handlers.fill(),
		topics:   make(map[string]struct{}),
	}
}

// setAvailable toggles whether new connections are accepted. Existing clients stay connected.
func (b *MemoryBroker) setAvailable(available bool) {
	b.mu.Lock()
	b.unavailable = !available
	b.mu.Unlock()
}

// clientIDs returns the IDs of the connected clients, sorted.
func (b *MemoryBroker) clientIDs() []string {
	b.mu.RLock()
	ids := make([]string, 0, len(b.clients))
	for id := range b.clients {
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// drop severs the client with the given ID, firing its OnError and OnClose callbacks.
// It reports whether such a client was connected.
func (b *MemoryBroker) drop(clientID string) bool {
	b.mu.Lock()
	client, ok := b.clients[clientID]
	if ok {
		delete(b.clients, clientID)
	}
	b.mu.Unlock()

	if !ok {
		return false
	}

	b.logger.Info().Str("client_id", clientID).Msg("Dropping client.")
	client.markDisconnected()
	client.handlers.OnError(ErrConnectionDropped)
	client.handlers.OnClose()
	return true
}

func (b *MemoryBroker) register(clientID string, client *memoryAdapter) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unavailable {
		return ErrBrokerUnavailable
	}
	if _, taken := b.clients[clientID]; taken {
		return ErrClientIDInUse
	}

	b.clients[clientID] = client
	return nil
}

func (b *MemoryBroker) unregister(clientID string, client *memoryAdapter) {
	b.mu.Lock()
	if current, ok := b.clients[clientID]; ok && current == client {
		delete(b.clients, clientID)
	}
	b.mu.Unlock()
}

// deliver fans payload out to subscribers. Callbacks run outside the broker lock.
func (b *MemoryBroker) deliver(topic string, payload []byte) {
	b.mu.RLock()
	targets := make([]*memoryAdapter, 0, len(b.clients))
	for _, client := range b.clients {
		if client.subscribed(topic) {
			targets = append(targets, client)
		}
	}
	b.mu.RUnlock()

	for _, client := range targets {
		client.handlers.OnMessage(topic, slices.Clone(payload))
	}
}

// memoryAdapter is one client connection to a MemoryBroker.
type memoryAdapter struct {
	broker   *MemoryBroker
	handlers Handlers

	mu        sync.Mutex
	clientID  string
	topics    map[string]struct{}
	connected bool
	closed    bool
}

func (a *memoryAdapter) Connect(ctx context.Context, _ string, opts ClientOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if opts.ClientID == "" {
		return fmt.Errorf("transport: client id is required")
	}

	a.mu.Lock()
	switch {
	case a.closed:
		a.mu.Unlock()
		return ErrClosed
	case a.connected:
		a.mu.Unlock()
		return fmt.Errorf("transport: already connected")
	}
	a.mu.Unlock()

	// The broker lock is taken before adapter locks during delivery, so register
	// without holding a.mu.
	if err := a.broker.register(opts.ClientID, a); err != nil {
		return fmt.Errorf("connect %s: %w", opts.ClientID, err)
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.broker.unregister(opts.ClientID, a)
		return ErrClosed
	}
	a.clientID = opts.ClientID
	a.connected = true
	a.mu.Unlock()

	a.handlers.OnOpen()
	return nil
}

func (a *memoryAdapter) Subscribe(topic string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.usableLocked(); err != nil {
		return err
	}
	a.topics[topic] = struct{}{}
	return nil
}

func (a *memoryAdapter) Publish(topic string, payload []byte) error {
	a.mu.Lock()
	err := a.usableLocked()
	a.mu.Unlock()
	if err != nil {
		return err
	}

	a.broker.deliver(topic, payload)
	return nil
}

func (a *memoryAdapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	wasConnected := a.connected
	a.connected = false
	clientID := a.clientID
	a.mu.Unlock()

	if wasConnected {
		a.broker.unregister(clientID, a)
	}
	return nil
}

func (a *memoryAdapter) subscribed(topic string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.connected {
		return false
	}
	_, ok := a.topics[topic]
	return ok
}

func (a *memoryAdapter) markDisconnected() {
	a.mu.Lock()
	a.connected = false
	a.mu.Unlock()
}

func (a *memoryAdapter) usableLocked() error {
	if a.closed {
		return ErrClosed
	}
	if !a.connected {
		return ErrNotConnected
	}
	return nil
}
