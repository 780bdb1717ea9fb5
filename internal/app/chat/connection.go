package chat

import (
	"context"
	"fmt"

	"nickchat/internal/app/transport"
	"nickchat/internal/app/user"
	"nickchat/internal/pkg/errs"
	"nickchat/internal/pkg/randx"
	"nickchat/internal/pkg/sanitize"
)

const (
	noticeConnectFailed = "Connection to the chat server failed"
	noticeDisconnected  = "Disconnected from the chat server"
)

// join moves a disconnected session to connecting. Runs on the loop.
func (s *Session) join(nickname string) error {
	if s.status != StatusDisconnected {
		return errs.NewError(errs.ErrAlreadyJoined)
	}

	clean := sanitize.Nickname(nickname)
	if clean == "" {
		return errs.NewError(errs.ErrInvalidNickname)
	}

	var local user.User
	if s.currentUser == nil {
		created, ok := user.New(clean)
		if !ok {
			return errs.NewError(errs.ErrInvalidNickname)
		}
		local = created
	} else {
		local = *s.currentUser
		local.Nickname = clean
	}

	clientID, err := randx.ClientID(local.ID)
	if err != nil {
		return errs.NewError(errs.ErrUnknown, err)
	}

	s.mu.Lock()
	s.currentUser = &local
	s.mu.Unlock()
	s.putUser(local)

	s.generation++
	adapter := s.newTransport(s.handlersFor(s.generation))
	s.adapter = adapter
	s.setStatus(StatusConnecting)

	s.logger.Info().
		Str("user_id", local.ID).
		Str("client_id", clientID).
		Str("endpoint", s.cfg.Endpoint).
		Msg("Connecting to broker.")

	go s.dial(adapter, s.generation, clientID)

	return nil
}

// dial performs the blocking connect off the loop. A failure is fed back as an event.
func (s *Session) dial(adapter transport.Adapter, generation uint64, clientID string) {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.ConnectTimeout)
	defer cancel()

	opts := transport.ClientOptions{ClientID: clientID, ConnectTimeout: s.cfg.ConnectTimeout}

	if err := adapter.Connect(ctx, s.cfg.Endpoint, opts); err != nil {
		s.pushLifecycle(event{kind: eventFailed, generation: generation, err: err})
	}
}

// onOpen finishes a connection attempt: subscribe, announce, greet.
func (s *Session) onOpen() {
	if s.status != StatusConnecting {
		s.logger.Warn().Stringer("status", s.status).Msg("Ignoring open event outside of connecting state.")
		return
	}

	for _, topic := range []string{s.cfg.ChatTopic, s.cfg.PresenceTopic} {
		if err := s.adapter.Subscribe(topic); err != nil {
			s.onConnectionLost(fmt.Errorf("subscribe %s: %w", topic, err))
			return
		}
	}

	local := *s.currentUser

	if err := s.publishJoin(local); err != nil {
		s.onConnectionLost(fmt.Errorf("announce join: %w", err))
		return
	}

	s.appendMessage(newSystemMessage(fmt.Sprintf("You joined the chat as %s", local.Nickname), s.now()))
	s.notifier.Notify(NoticeSuccess, fmt.Sprintf("Connected as %s", local.Nickname))
	s.setStatus(StatusConnected)
}

// onConnectionLost handles a failed connect, an error or a close. The log and user set
// are kept; the user has to submit a nickname again to reconnect.
func (s *Session) onConnectionLost(cause error) {
	if s.status == StatusDisconnected {
		return
	}

	notice := noticeDisconnected
	if s.status == StatusConnecting {
		notice = noticeConnectFailed
	}

	s.logger.Warn().
		Err(cause).
		Int("code", errs.ErrConnection).
		Stringer("status", s.status).
		Msg("Broker connection lost.")

	adapter := s.adapter
	s.adapter = nil
	s.generation++
	go s.release(adapter)

	s.notifier.Notify(NoticeError, notice)
	s.setStatus(StatusDisconnected)
}

// release closes an adapter the session no longer uses.
func (s *Session) release(adapter transport.Adapter) {
	if err := adapter.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to close broker connection.")
	}
}
