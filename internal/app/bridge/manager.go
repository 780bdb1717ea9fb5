/*
Package bridge connects browser tabs to chat sessions over WebSocket.

This file defines the Manager struct, which tracks every live browser connection by its
session handle. It creates a chat session per connection, looks sessions up for the HTTP
endpoints, and tears everything down on shutdown.
*/
package bridge

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"nickchat/internal/app/chat"
	"nickchat/internal/app/transport"
	"nickchat/internal/pkg/errs"
	"nickchat/internal/pkg/logx"
	"nickchat/internal/pkg/randx"
)

// handleAttempts bounds the retries on the (unlikely) event of a handle collision.
const handleAttempts = 3

// Manager struct is responsible for coordinating all live browser sessions.
type Manager struct {
	// clients stores every connected Client, keyed by session handle.
	clients map[string]*Client

	// sessionConfig is handed to every new chat session.
	sessionConfig chat.Config

	// factory builds the broker adapters used by sessions.
	factory transport.Factory

	// mu protects concurrent access to the clients map and the closed flag.
	mu sync.RWMutex

	// closed is set by Shutdown; no new clients are accepted afterwards.
	closed bool

	// structured logger with Manager context.
	logger zerolog.Logger
}

// NewManager constructs and returns a new Manager instance.
func NewManager(cfg chat.Config, factory transport.Factory) *Manager {
	return &Manager{
		clients:       make(map[string]*Client),
		sessionConfig: cfg,
		factory:       factory,
		logger:        logx.Component("Manager"),
	}
}

// Register creates a chat session for a freshly upgraded connection and queues its init frame.
// The caller starts the client's pumps.
func (m *Manager) Register(conn *websocket.Conn) (*Client, *errs.CustomError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errs.NewError(errs.ErrSessionClosed)
	}

	handle, err := m.newHandleLocked()
	if err != nil {
		return nil, errs.NewError(errs.ErrUnknown, err)
	}

	client := newClient(handle, conn, m)
	client.session = chat.NewSession(
		m.sessionConfig,
		m.factory,
		chat.WithNotifier(client),
		chat.WithLogger(logx.Component("session").With().Str("handle", handle).Logger()),
	)

	if err := client.sendInit(); err != nil {
		client.session.Close()
		return nil, errs.NewError(errs.ErrUnknown, err)
	}

	m.clients[handle] = client

	m.logger.Info().Str("handle", handle).Int("total_clients", len(m.clients)).Msg("Browser session registered.")
	return client, nil
}

func (m *Manager) newHandleLocked() (string, error) {
	var lastErr error

	for range handleAttempts {
		handle, err := randx.SessionHandle()
		if err != nil {
			lastErr = err
			continue
		}

		if _, taken := m.clients[handle]; !taken {
			return handle, nil
		}
	}

	if lastErr == nil {
		lastErr = errs.NewError(errs.ErrUnknown)
	}
	return "", lastErr
}

// GetClient retrieves a live client by session handle, or nil.
func (m *Manager) GetClient(handle string) *Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.clients[handle]
}

// Count returns the number of live browser sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.clients)
}

// release removes c and closes its session. Safe to call more than once.
func (m *Manager) release(c *Client) {
	m.mu.Lock()
	if current, ok := m.clients[c.Handle]; ok && current == c {
		delete(m.clients, c.Handle)
		m.logger.Info().Str("handle", c.Handle).Int("total_clients", len(m.clients)).Msg("Browser session removed.")
	}
	m.mu.Unlock()

	c.session.Close()
}

// Shutdown closes every session and asks every browser connection to go away.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down Manager...")

	m.mu.Lock()
	m.closed = true
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.mu.Unlock()

	for _, client := range clients {
		client.Notify(chat.NoticeInfo, shutdownReason)
		client.session.Close()
		client.Kick(shutdownReason)
	}

	m.logger.Info().Int("closed_sessions", len(clients)).Msg("Manager shutdown complete.")
}
