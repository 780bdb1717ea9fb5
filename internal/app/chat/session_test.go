package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickchat/internal/app/transport"
	"nickchat/internal/app/user"
	"nickchat/internal/pkg/errs"
	"nickchat/internal/pkg/randx"
)

const (
	testChatTopic     = "test.chat"
	testPresenceTopic = "test.presence"
	waitFor           = 2 * time.Second
	tick              = 5 * time.Millisecond
)

var testConfig = Config{
	Endpoint:       "mem://test",
	ChatTopic:      testChatTopic,
	PresenceTopic:  testPresenceTopic,
	ConnectTimeout: time.Second,
}

type publication struct {
	topic   string
	payload []byte
}

// fakeNetwork hands out fakeAdapters and controls how their Connect behaves.
type fakeNetwork struct {
	mu         sync.Mutex
	adapters   []*fakeAdapter
	connectErr error
	gate       chan struct{}
}

func (n *fakeNetwork) factory(h transport.Handlers) transport.Adapter {
	n.mu.Lock()
	defer n.mu.Unlock()

	a := &fakeAdapter{network: n, handlers: h}
	n.adapters = append(n.adapters, a)
	return a
}

func (n *fakeNetwork) adapter(i int) *fakeAdapter {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.adapters[i]
}

func (n *fakeNetwork) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.adapters)
}

type fakeAdapter struct {
	network  *fakeNetwork
	handlers transport.Handlers

	mu         sync.Mutex
	clientID   string
	subscribed []string
	published  []publication
	closeCalls int
}

func (a *fakeAdapter) Connect(ctx context.Context, _ string, opts transport.ClientOptions) error {
	a.network.mu.Lock()
	gate, connectErr := a.network.gate, a.network.connectErr
	a.network.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if connectErr != nil {
		return connectErr
	}

	a.mu.Lock()
	if a.closeCalls > 0 {
		a.mu.Unlock()
		return transport.ErrClosed
	}
	a.clientID = opts.ClientID
	a.mu.Unlock()

	a.handlers.OnOpen()
	return nil
}

func (a *fakeAdapter) Subscribe(topic string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribed = append(a.subscribed, topic)
	return nil
}

func (a *fakeAdapter) Publish(topic string, payload []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.published = append(a.published, publication{topic: topic, payload: payload})
	return nil
}

func (a *fakeAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closeCalls++
	return nil
}

func (a *fakeAdapter) publications() []publication {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]publication(nil), a.published...)
}

func (a *fakeAdapter) subscriptions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.subscribed...)
}

func (a *fakeAdapter) closed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closeCalls
}

func (a *fakeAdapter) id() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clientID
}

func (a *fakeAdapter) inject(t *testing.T, topic string, env Envelope) {
	t.Helper()

	payload, err := EncodeEnvelope(env)
	require.NoError(t, err)
	a.handlers.OnMessage(topic, payload)
}

func (a *fakeAdapter) drop(err error) {
	a.handlers.OnError(err)
	a.handlers.OnClose()
}

type notice struct {
	kind NoticeKind
	text string
}

type noticeRecorder struct {
	mu    sync.Mutex
	items []notice
}

func (r *noticeRecorder) Notify(kind NoticeKind, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, notice{kind: kind, text: text})
}

func (r *noticeRecorder) all() []notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notice(nil), r.items...)
}

func newTestSession(t *testing.T, network *fakeNetwork, opts ...Option) *Session {
	t.Helper()

	s := NewSession(testConfig, network.factory, opts...)
	t.Cleanup(s.Close)
	return s
}

func waitStatus(t *testing.T, s *Session, want Status) {
	t.Helper()

	require.Eventually(t, func() bool {
		return s.Snapshot().Status == want
	}, waitFor, tick, "status never became %s", want)
}

// joinAs connects s through network and returns the adapter of that attempt.
func joinAs(t *testing.T, s *Session, network *fakeNetwork, nickname string) *fakeAdapter {
	t.Helper()

	require.NoError(t, s.SetNickname(context.Background(), nickname))
	waitStatus(t, s, StatusConnected)
	return network.adapter(network.count() - 1)
}

// barrier injects a text message from a third peer and waits until it is in the log.
// Everything injected before it on the same adapter has been processed by then.
func barrier(t *testing.T, s *Session, a *fakeAdapter) {
	t.Helper()

	env := TextEnvelope{ID: "barrier-" + randx.MessageID(), SenderID: "barrier", Nickname: "Barrier", Text: "sync", Timestamp: 1}
	a.inject(t, testChatTopic, env)

	require.Eventually(t, func() bool {
		for _, m := range s.Snapshot().Messages {
			if m.ID == env.ID {
				return true
			}
		}
		return false
	}, waitFor, tick)
}

func messagesOfKind(snap Snapshot, kind Kind) []Message {
	var out []Message
	for _, m := range snap.Messages {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func imageDataURI(size int) string {
	prefix := "data:image/png;base64,"
	return prefix + strings.Repeat("A", size-len(prefix))
}

func TestSessionJoinTransitions(t *testing.T) {
	network := &fakeNetwork{}
	notices := &noticeRecorder{}
	s := newTestSession(t, network, WithNotifier(notices))

	assert.Equal(t, StatusDisconnected, s.Snapshot().Status)
	require.NoError(t, s.SetNickname(context.Background(), "Ann"))

	var statuses []Status
	timeout := time.After(waitFor)
	for len(statuses) == 0 || statuses[len(statuses)-1] != StatusConnected {
		select {
		case u := <-s.Updates():
			if u.Kind == UpdateStatus {
				statuses = append(statuses, u.Status)
			}
		case <-timeout:
			t.Fatalf("never connected, statuses so far: %v", statuses)
		}
	}
	assert.Equal(t, []Status{StatusConnecting, StatusConnected}, statuses)

	adapter := network.adapter(0)

	snap := s.Snapshot()
	require.NotNil(t, snap.CurrentUser)
	assert.Equal(t, "Ann", snap.CurrentUser.Nickname)
	assert.Equal(t, []user.User{*snap.CurrentUser}, snap.Users)

	require.Len(t, snap.Messages, 1)
	assert.Equal(t, KindSystem, snap.Messages[0].Kind)
	assert.Equal(t, SystemNickname, snap.Messages[0].Nickname)
	assert.Equal(t, "You joined the chat as Ann", snap.Messages[0].Text)

	assert.Equal(t, []notice{{kind: NoticeSuccess, text: "Connected as Ann"}}, notices.all())

	assert.True(t, strings.HasPrefix(adapter.id(), snap.CurrentUser.ID+"-"))
	assert.Len(t, adapter.id(), len(snap.CurrentUser.ID)+7)
	assert.Equal(t, []string{testChatTopic, testPresenceTopic}, adapter.subscriptions())

	pubs := adapter.publications()
	require.Len(t, pubs, 1)
	assert.Equal(t, testPresenceTopic, pubs[0].topic)

	env, err := DecodeEnvelope(pubs[0].payload)
	require.NoError(t, err)
	assert.Equal(t, JoinEnvelope{User: *snap.CurrentUser}, env)
}

func TestSessionRemoteJoin(t *testing.T) {
	network := &fakeNetwork{}
	s := newTestSession(t, network)
	adapter := joinAs(t, s, network, "Ann")

	bob := user.User{ID: "u2", Nickname: "Bob"}
	adapter.inject(t, testPresenceTopic, JoinEnvelope{User: bob})

	require.Eventually(t, func() bool {
		return len(s.Snapshot().Users) == 2
	}, waitFor, tick)

	snap := s.Snapshot()
	assert.Equal(t, bob, snap.Users[1])

	system := messagesOfKind(snap, KindSystem)
	require.Len(t, system, 2)
	assert.Equal(t, "Bob joined the chat", system[1].Text)
	assert.NotEmpty(t, system[1].ID)
	assert.NotEqual(t, system[0].ID, system[1].ID)
}

func TestSessionDuplicateJoinsAreIdempotent(t *testing.T) {
	network := &fakeNetwork{}
	s := newTestSession(t, network)
	adapter := joinAs(t, s, network, "Ann")

	bob := user.User{ID: "u2", Nickname: "Bob"}
	adapter.inject(t, testPresenceTopic, JoinEnvelope{User: bob})
	adapter.inject(t, testPresenceTopic, JoinEnvelope{User: bob})
	adapter.inject(t, testPresenceTopic, JoinEnvelope{User: user.User{ID: "u2", Nickname: "Bobby"}})
	barrier(t, s, adapter)

	snap := s.Snapshot()
	assert.Equal(t, bob, snap.Users[1])
	assert.Len(t, snap.Users, 2)

	joined := 0
	for _, m := range messagesOfKind(snap, KindSystem) {
		if strings.HasSuffix(m.Text, "joined the chat") {
			joined++
		}
	}
	assert.Equal(t, 1, joined)
}

func TestSessionIgnoresOwnJoin(t *testing.T) {
	network := &fakeNetwork{}
	s := newTestSession(t, network)
	adapter := joinAs(t, s, network, "Ann")

	self := *s.Snapshot().CurrentUser
	adapter.inject(t, testPresenceTopic, JoinEnvelope{User: self})
	barrier(t, s, adapter)

	snap := s.Snapshot()
	assert.Len(t, snap.Users, 1)
	assert.Len(t, messagesOfKind(snap, KindSystem), 1)
}

func TestSessionSendText(t *testing.T) {
	network := &fakeNetwork{}
	s := newTestSession(t, network)
	adapter := joinAs(t, s, network, "Ann")

	require.NoError(t, s.SendText(context.Background(), "hi"))

	texts := messagesOfKind(s.Snapshot(), KindText)
	require.Len(t, texts, 1)
	assert.Equal(t, "Ann", texts[0].Nickname)
	assert.Equal(t, "hi", texts[0].Text)

	pubs := adapter.publications()
	require.Len(t, pubs, 2)
	assert.Equal(t, testChatTopic, pubs[1].topic)

	env, err := DecodeEnvelope(pubs[1].payload)
	require.NoError(t, err)

	text, ok := env.(TextEnvelope)
	require.True(t, ok)
	assert.Equal(t, texts[0], text.Message())
	assert.Equal(t, s.Snapshot().CurrentUser.ID, text.SenderID)
}

func TestSessionSuppressesSelfEcho(t *testing.T) {
	network := &fakeNetwork{}
	s := newTestSession(t, network)
	adapter := joinAs(t, s, network, "Ann")

	require.NoError(t, s.SendText(context.Background(), "hi"))

	pubs := adapter.publications()
	adapter.handlers.OnMessage(testChatTopic, pubs[len(pubs)-1].payload)
	barrier(t, s, adapter)

	var hi int
	for _, m := range s.Snapshot().Messages {
		if m.Text == "hi" {
			hi++
		}
	}
	assert.Equal(t, 1, hi)
}

func TestSessionDropsMalformedEnvelopes(t *testing.T) {
	network := &fakeNetwork{}
	s := newTestSession(t, network)
	adapter := joinAs(t, s, network, "Ann")

	before := s.Snapshot()

	raw := []struct {
		topic   string
		payload string
	}{
		{topic: testChatTopic, payload: `not json`},
		{topic: testChatTopic, payload: `{"type":"message","messageKind":"text","senderId":"u2","nickname":"Bob","text":"no id","timestamp":1}`},
		{topic: testChatTopic, payload: `{"type":"message","messageKind":"text","id":"m1","senderId":"u2","nickname":"Bob","timestamp":1}`},
		{topic: testChatTopic, payload: `{"type":"message","messageKind":"image","id":"m2","senderId":"u2","nickname":"Bob","text":"x","timestamp":1}`},
		{topic: testChatTopic, payload: `{"type":"join","user":{"id":"u3","nickname":"Carol"}}`},
		{topic: testPresenceTopic, payload: `{"type":"message","messageKind":"text","id":"m3","senderId":"u2","nickname":"Bob","text":"wrong topic","timestamp":1}`},
	}
	for _, r := range raw {
		adapter.handlers.OnMessage(r.topic, []byte(r.payload))
	}
	barrier(t, s, adapter)

	after := s.Snapshot()
	assert.Equal(t, before.Users, after.Users)
	require.Len(t, after.Messages, len(before.Messages)+1)
	assert.Equal(t, "sync", after.Messages[len(after.Messages)-1].Text)
}

func TestSessionDropsDuplicateMessageIDs(t *testing.T) {
	network := &fakeNetwork{}
	s := newTestSession(t, network)
	adapter := joinAs(t, s, network, "Ann")

	env := TextEnvelope{ID: "dup", SenderID: "u2", Nickname: "Bob", Text: "once", Timestamp: 42}
	adapter.inject(t, testChatTopic, env)
	adapter.inject(t, testChatTopic, env)
	barrier(t, s, adapter)

	var count int
	for _, m := range s.Snapshot().Messages {
		if m.ID == "dup" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSessionRefusesSendWhileConnecting(t *testing.T) {
	network := &fakeNetwork{gate: make(chan struct{})}
	defer close(network.gate)

	s := newTestSession(t, network)
	require.NoError(t, s.SetNickname(context.Background(), "Ann"))
	assert.Equal(t, StatusConnecting, s.Snapshot().Status)

	err := s.SendText(context.Background(), "hi")
	assert.True(t, errs.HasCode(err, errs.ErrNotConnected))

	err = s.SendImage(context.Background(), imageDataURI(64))
	assert.True(t, errs.HasCode(err, errs.ErrNotConnected))

	err = s.SetNickname(context.Background(), "Ann again")
	assert.True(t, errs.HasCode(err, errs.ErrAlreadyJoined))

	assert.Empty(t, s.Snapshot().Messages)
	assert.Empty(t, network.adapter(0).publications())
}

func TestSessionPreconditions(t *testing.T) {
	network := &fakeNetwork{}
	s := newTestSession(t, network)

	err := s.SendText(context.Background(), "hi")
	assert.True(t, errs.HasCode(err, errs.ErrNotConnected))
	assert.True(t, errs.IsPrecondition(err))

	err = s.SetNickname(context.Background(), "  <b></b> ")
	assert.True(t, errs.HasCode(err, errs.ErrInvalidNickname))
	assert.Nil(t, s.Snapshot().CurrentUser)
	assert.Zero(t, network.count())

	joinAs(t, s, network, "Ann")

	err = s.SendText(context.Background(), " \n\t ")
	assert.True(t, errs.HasCode(err, errs.ErrEmptyText))

	err = s.SetNickname(context.Background(), "Other")
	assert.True(t, errs.HasCode(err, errs.ErrAlreadyJoined))
}

func TestSessionImageCeiling(t *testing.T) {
	network := &fakeNetwork{}
	s := newTestSession(t, network)
	adapter := joinAs(t, s, network, "Ann")

	before := len(s.Snapshot().Messages)

	err := s.SendImage(context.Background(), imageDataURI(MaxImageBytes+1))
	assert.True(t, errs.HasCode(err, errs.ErrPayloadTooLarge))
	assert.Len(t, s.Snapshot().Messages, before)
	assert.Len(t, adapter.publications(), 1)

	err = s.SendImage(context.Background(), "data:text/plain;base64,aGk=")
	assert.True(t, errs.HasCode(err, errs.ErrUnsupportedImage))
	assert.Len(t, s.Snapshot().Messages, before)

	exact := imageDataURI(MaxImageBytes)
	require.NoError(t, s.SendImage(context.Background(), exact))

	images := messagesOfKind(s.Snapshot(), KindImage)
	require.Len(t, images, 1)
	assert.Equal(t, ImageCaption, images[0].Text)
	assert.Equal(t, exact, images[0].ImageData)

	pubs := adapter.publications()
	require.Len(t, pubs, 2)
	assert.Equal(t, testChatTopic, pubs[1].topic)
}

func TestSessionConnectFailure(t *testing.T) {
	network := &fakeNetwork{connectErr: errors.New("connection refused")}
	notices := &noticeRecorder{}
	s := newTestSession(t, network, WithNotifier(notices))

	require.NoError(t, s.SetNickname(context.Background(), "Ann"))
	waitStatus(t, s, StatusDisconnected)

	assert.Equal(t, []notice{{kind: NoticeError, text: "Connection to the chat server failed"}}, notices.all())
	assert.Empty(t, s.Snapshot().Messages)

	adapter := network.adapter(0)
	require.Eventually(t, func() bool { return adapter.closed() == 1 }, waitFor, tick)
}

func TestSessionRetryAfterDisconnect(t *testing.T) {
	network := &fakeNetwork{}
	notices := &noticeRecorder{}
	s := newTestSession(t, network, WithNotifier(notices))

	first := joinAs(t, s, network, "Ann")
	userID := s.Snapshot().CurrentUser.ID
	require.NoError(t, s.SendText(context.Background(), "before"))

	first.drop(errors.New("socket closed"))
	waitStatus(t, s, StatusDisconnected)
	require.Eventually(t, func() bool { return first.closed() == 1 }, waitFor, tick)

	assert.Contains(t, notices.all(), notice{kind: NoticeError, text: "Disconnected from the chat server"})
	assert.Len(t, messagesOfKind(s.Snapshot(), KindText), 1)

	second := joinAs(t, s, network, "Annie")

	snap := s.Snapshot()
	assert.Equal(t, userID, snap.CurrentUser.ID)
	assert.Equal(t, "Annie", snap.CurrentUser.Nickname)
	assert.Equal(t, []user.User{{ID: userID, Nickname: "Annie"}}, snap.Users)
	assert.NotEqual(t, first.id(), second.id())
	assert.True(t, strings.HasPrefix(second.id(), userID+"-"))
}

// journalSession returns a session whose notices are recorded at their position in the
// update stream. The returned func closes the session and yields the merged sequence.
func journalSession(t *testing.T, network *fakeNetwork) (*Session, func() []string) {
	t.Helper()

	type placedNotice struct {
		text  string
		after int
	}

	var (
		mu      sync.Mutex
		s       *Session
		notices []placedNotice
	)

	// Notify runs on the loop, right where the loop emits updates. Nothing reads Updates
	// until the end, so the channel length is the number of updates emitted so far.
	s = newTestSession(t, network, WithNotifier(NotifierFunc(func(_ NoticeKind, text string) {
		mu.Lock()
		defer mu.Unlock()
		notices = append(notices, placedNotice{text: text, after: len(s.Updates())})
	})))

	return s, func() []string {
		s.Close()

		var journal []string
		mu.Lock()
		pending := append([]placedNotice(nil), notices...)
		mu.Unlock()

		flush := func(emitted int) {
			for len(pending) > 0 && pending[0].after == emitted {
				journal = append(journal, "notice:"+pending[0].text)
				pending = pending[1:]
			}
		}

		emitted := 0
		for u := range s.Updates() {
			flush(emitted)
			switch u.Kind {
			case UpdateStatus:
				journal = append(journal, "status:"+u.Status.String())
			case UpdateMessage:
				journal = append(journal, "message:"+u.Message.Text)
			case UpdateUser:
				journal = append(journal, "user:"+u.User.Nickname)
			}
			emitted++
		}
		flush(emitted)

		return journal
	}
}

func TestSessionNoticeOrdering(t *testing.T) {
	t.Run("connect and disconnect", func(t *testing.T) {
		network := &fakeNetwork{}
		s, journal := journalSession(t, network)

		adapter := joinAs(t, s, network, "Ann")
		adapter.drop(errors.New("socket closed"))
		waitStatus(t, s, StatusDisconnected)

		assert.Equal(t, []string{
			"user:Ann",
			"status:connecting",
			"message:You joined the chat as Ann",
			"notice:Connected as Ann",
			"status:connected",
			"notice:Disconnected from the chat server",
			"status:disconnected",
		}, journal())
	})

	t.Run("failed connect", func(t *testing.T) {
		network := &fakeNetwork{connectErr: errors.New("connection refused")}
		s, journal := journalSession(t, network)

		require.NoError(t, s.SetNickname(context.Background(), "Ann"))
		waitStatus(t, s, StatusDisconnected)

		assert.Equal(t, []string{
			"user:Ann",
			"status:connecting",
			"notice:Connection to the chat server failed",
			"status:disconnected",
		}, journal())
	})
}

func TestSessionIgnoresStaleConnectionEvents(t *testing.T) {
	network := &fakeNetwork{}
	s := newTestSession(t, network)

	first := joinAs(t, s, network, "Ann")
	first.drop(errors.New("socket closed"))
	waitStatus(t, s, StatusDisconnected)

	second := joinAs(t, s, network, "Ann")

	first.inject(t, testChatTopic, TextEnvelope{ID: "stale", SenderID: "u2", Nickname: "Bob", Text: "late", Timestamp: 1})
	first.handlers.OnClose()
	barrier(t, s, second)

	snap := s.Snapshot()
	assert.Equal(t, StatusConnected, snap.Status)
	for _, m := range snap.Messages {
		assert.NotEqual(t, "stale", m.ID)
	}
	assert.Zero(t, second.closed())
}

func TestSessionCloseDuringConnect(t *testing.T) {
	network := &fakeNetwork{gate: make(chan struct{})}
	s := NewSession(testConfig, network.factory)

	require.NoError(t, s.SetNickname(context.Background(), "Ann"))
	s.Close()
	s.Close()

	adapter := network.adapter(0)
	assert.Equal(t, 1, adapter.closed())
	assert.Equal(t, StatusDisconnected, s.Snapshot().Status)

	close(network.gate)

	err := s.SendText(context.Background(), "hi")
	assert.True(t, errs.HasCode(err, errs.ErrSessionClosed))

	for range s.Updates() {
	}
	assert.Equal(t, 1, adapter.closed())
}

func TestSessionTimestampsIncrease(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	network := &fakeNetwork{}
	s := newTestSession(t, network, WithClock(func() time.Time { return fixed }))
	joinAs(t, s, network, "Ann")

	require.NoError(t, s.SendText(context.Background(), "one"))
	require.NoError(t, s.SendText(context.Background(), "two"))

	msgs := s.Snapshot().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, fixed.UnixMilli(), msgs[0].Timestamp)
	assert.Equal(t, fixed.UnixMilli()+1, msgs[1].Timestamp)
	assert.Equal(t, fixed.UnixMilli()+2, msgs[2].Timestamp)
}

func TestSessionsOverMemoryBroker(t *testing.T) {
	broker := transport.NewMemoryBroker()

	bob := NewSession(testConfig, broker.NewAdapter)
	t.Cleanup(bob.Close)
	require.NoError(t, bob.SetNickname(context.Background(), "Bob"))
	waitStatus(t, bob, StatusConnected)

	ann := NewSession(testConfig, broker.NewAdapter)
	t.Cleanup(ann.Close)
	require.NoError(t, ann.SetNickname(context.Background(), "Ann"))
	waitStatus(t, ann, StatusConnected)

	require.Eventually(t, func() bool {
		return len(bob.Snapshot().Users) == 2
	}, waitFor, tick)

	require.NoError(t, ann.SendText(context.Background(), "hello bob"))

	require.Eventually(t, func() bool {
		return len(messagesOfKind(bob.Snapshot(), KindText)) == 1
	}, waitFor, tick)

	sent := messagesOfKind(ann.Snapshot(), KindText)
	received := messagesOfKind(bob.Snapshot(), KindText)
	require.Len(t, sent, 1)
	assert.Equal(t, sent[0], received[0])

	bobSystem := messagesOfKind(bob.Snapshot(), KindSystem)
	require.Len(t, bobSystem, 2)
	assert.Equal(t, "Ann joined the chat", bobSystem[1].Text)

	// Peers that joined earlier are only learned from later join announcements.
	assert.Len(t, ann.Snapshot().Users, 1)
	assert.Len(t, messagesOfKind(ann.Snapshot(), KindText), 1)
}

func TestSnapshotJSON(t *testing.T) {
	snap := Snapshot{Status: StatusConnecting, Users: []user.User{}, Messages: []Message{}}

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"currentUser":null,"connectionStatus":"connecting","users":[],"messages":[]}`, string(data))
}
