/*
Package chat contains the core logic of a nickname-based group chat session.

This file defines the Session struct, which owns the local user, the connection status,
the set of known users and the append-only conversation log. All state changes happen on
a single event loop goroutine that consumes broker callbacks and local actions one at a time,
so each of them is applied atomically with respect to the others.
*/
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nickchat/internal/app/transport"
	"nickchat/internal/app/user"
	"nickchat/internal/pkg/errs"
	"nickchat/internal/pkg/logx"
)

const (
	// eventChannelBuffer bounds the queue of broker callbacks waiting for the loop.
	eventChannelBuffer = 256

	// updateChannelBuffer bounds the queue of updates waiting for a renderer.
	updateChannelBuffer = 256

	// DefaultConnectTimeout is used when Config.ConnectTimeout is not set.
	DefaultConnectTimeout = 10 * time.Second
)

// Config holds the broker parameters a session connects with.
type Config struct {
	// Endpoint is the broker URL handed to the transport adapter.
	Endpoint string

	// ChatTopic carries text and image envelopes.
	ChatTopic string

	// PresenceTopic carries join envelopes.
	PresenceTopic string

	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout time.Duration
}

// Option customizes a Session at construction time.
type Option func(*Session)

// WithNotifier routes user-facing notices to n.
func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock replaces the wall clock used for local timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger replaces the session's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

type eventKind int

const (
	eventOpened eventKind = iota
	eventMessage
	eventFailed
	eventClosed
)

// event is a transport callback tagged with the connection attempt that produced it.
type event struct {
	kind       eventKind
	generation uint64
	topic      string
	payload    []byte
	err        error
}

// action is a local request executed on the loop goroutine.
type action struct {
	fn    func() error
	reply chan error
}

// Session struct represents one participant's view of the shared chat.
type Session struct {
	cfg Config

	// newTransport builds a fresh adapter for every connection attempt.
	newTransport transport.Factory

	notifier Notifier
	clock    func() time.Time

	// a buffered channel of transport callbacks.
	events chan event

	// an unbuffered channel of local actions; a send returns once the loop has picked it up.
	actions chan action

	// a buffered channel of state changes for the renderer.
	updates chan Update

	// the following fields are owned by the loop goroutine.
	adapter       transport.Adapter
	generation    uint64
	lastTimestamp int64
	knownIDs      map[string]struct{}

	// mu protects the fields below; only the loop writes them.
	mu          sync.RWMutex
	currentUser *user.User
	status      Status
	users       []user.User
	userIndex   map[string]int
	messages    []Message

	// ctx is canceled on Close and bounds in-flight connection attempts.
	ctx    context.Context
	cancel context.CancelFunc

	// used to signal the loop to stop.
	stopChan chan struct{}

	// closed when the loop has returned.
	done chan struct{}

	closeOnce sync.Once

	// structured logger with session context.
	logger zerolog.Logger
}

// NewSession creates a disconnected session and starts its event loop.
// The caller must call Close to release it.
func NewSession(cfg Config, factory transport.Factory, opts ...Option) *Session {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		cfg:          cfg,
		newTransport: factory,
		notifier:     logNotifier{},
		clock:        time.Now,
		events:       make(chan event, eventChannelBuffer),
		actions:      make(chan action),
		updates:      make(chan Update, updateChannelBuffer),
		knownIDs:     make(map[string]struct{}),
		userIndex:    make(map[string]int),
		status:       StatusDisconnected,
		ctx:          ctx,
		cancel:       cancel,
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logx.Component("session"),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.run()

	return s
}

// Updates returns the channel on which state changes are published.
// It is closed once the session has been closed.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Status:   s.status,
		Users:    append([]user.User{}, s.users...),
		Messages: append([]Message{}, s.messages...),
	}

	if s.currentUser != nil {
		u := *s.currentUser
		snap.CurrentUser = &u
	}

	return snap
}

// SetNickname creates (or, after a disconnect, renames) the local user and starts
// connecting to the broker. It returns once the attempt has started; the outcome is
// reported through Updates and the Notifier.
func (s *Session) SetNickname(ctx context.Context, nickname string) error {
	return s.exec(ctx, func() error {
		return s.join(nickname)
	})
}

// SendText publishes a text message and appends it to the local log.
func (s *Session) SendText(ctx context.Context, text string) error {
	return s.exec(ctx, func() error {
		return s.publishText(text)
	})
}

// SendImage publishes an image given as a base64 data URI and appends it to the local log.
func (s *Session) SendImage(ctx context.Context, dataURI string) error {
	return s.exec(ctx, func() error {
		return s.publishImage(dataURI)
	})
}

// Close stops the event loop and releases the broker connection. It is safe to call
// more than once and from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Info().Msg("Received stop signal. Closing session.")

		s.cancel()
		close(s.stopChan)
		<-s.done

		// The loop has exited; its fields now belong to this goroutine.
		if s.adapter != nil {
			s.release(s.adapter)
			s.adapter = nil
		}

		if s.status != StatusDisconnected {
			s.setStatus(StatusDisconnected)
		}

		close(s.updates)
	})
}

// run is the session's event loop. It is the only writer of session state.
func (s *Session) run() {
	defer func() {
		s.logger.Info().Msg("Session loop finished.")
		close(s.done)
	}()

	for {
		select {
		case ev := <-s.events:
			s.handleEvent(ev)

		case act := <-s.actions:
			act.reply <- act.fn()

		case <-s.stopChan:
			return
		}
	}
}

// exec runs fn on the loop goroutine and waits for its result.
func (s *Session) exec(ctx context.Context, fn func() error) error {
	act := action{fn: fn, reply: make(chan error, 1)}

	select {
	case s.actions <- act:
		return <-act.reply
	case <-s.stopChan:
		return errs.NewError(errs.ErrSessionClosed)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) handleEvent(ev event) {
	if ev.generation != s.generation || s.adapter == nil {
		s.logger.Debug().
			Uint64("event_generation", ev.generation).
			Uint64("generation", s.generation).
			Msg("Ignoring event from a superseded connection.")
		return
	}

	switch ev.kind {
	case eventOpened:
		s.onOpen()
	case eventMessage:
		s.onMessage(ev.topic, ev.payload)
	case eventFailed:
		s.onConnectionLost(ev.err)
	case eventClosed:
		s.onConnectionLost(nil)
	}
}

// handlersFor binds transport callbacks to one connection attempt.
func (s *Session) handlersFor(generation uint64) transport.Handlers {
	return transport.Handlers{
		OnOpen: func() {
			s.pushLifecycle(event{kind: eventOpened, generation: generation})
		},
		OnMessage: func(topic string, payload []byte) {
			s.pushMessage(event{kind: eventMessage, generation: generation, topic: topic, payload: payload})
		},
		OnError: func(err error) {
			s.pushLifecycle(event{kind: eventFailed, generation: generation, err: err})
		},
		OnClose: func() {
			s.pushLifecycle(event{kind: eventClosed, generation: generation})
		},
	}
}

// pushMessage queues an inbound payload, dropping it when the loop is behind.
func (s *Session) pushMessage(ev event) {
	select {
	case s.events <- ev:
	case <-s.stopChan:
	default:
		s.logger.Warn().
			Str("topic", ev.topic).
			Int("queue_len", len(s.events)).
			Msg("Session event channel full, dropping inbound message.")
	}
}

// pushLifecycle queues a connection event. It waits for room in the queue.
func (s *Session) pushLifecycle(ev event) {
	select {
	case s.events <- ev:
	case <-s.stopChan:
	}
}

// setStatus records a new connection status and publishes it.
func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	s.logger.Info().Stringer("status", status).Msg("Connection status changed.")
	s.emit(Update{Kind: UpdateStatus, Status: status})
}

// appendMessage adds msg to the log unless its id is already present.
func (s *Session) appendMessage(msg Message) bool {
	if _, seen := s.knownIDs[msg.ID]; seen {
		s.logger.Debug().Str("message_id", msg.ID).Msg("Dropping duplicate message.")
		return false
	}
	s.knownIDs[msg.ID] = struct{}{}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	s.emit(Update{Kind: UpdateMessage, Message: msg})
	return true
}

// putUser inserts u, or replaces the entry with the same id in place.
func (s *Session) putUser(u user.User) {
	s.mu.Lock()
	if i, ok := s.userIndex[u.ID]; ok {
		s.users[i] = u
	} else {
		s.userIndex[u.ID] = len(s.users)
		s.users = append(s.users, u)
	}
	s.mu.Unlock()

	s.emit(Update{Kind: UpdateUser, User: u})
}

func (s *Session) knownUser(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.userIndex[id]
	return ok
}

// emit hands an update to the renderer without ever blocking the loop.
func (s *Session) emit(u Update) {
	select {
	case s.updates <- u:
	default:
		s.logger.Warn().
			Str("update_kind", string(u.Kind)).
			Msg("Session update channel full, dropping update.")
	}
}

// now returns a local timestamp in milliseconds, strictly greater than the previous one.
func (s *Session) now() int64 {
	ts := s.clock().UnixMilli()
	if ts <= s.lastTimestamp {
		ts = s.lastTimestamp + 1
	}
	s.lastTimestamp = ts
	return ts
}
