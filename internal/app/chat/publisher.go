package chat

import (
	"strings"

	"nickchat/internal/app/user"
	"nickchat/internal/pkg/errs"
	"nickchat/internal/pkg/randx"
)

// publishJoin announces the local user on the presence topic.
func (s *Session) publishJoin(local user.User) error {
	return s.publish(s.cfg.PresenceTopic, JoinEnvelope{User: local})
}

// publishText appends a text message locally and sends it. Runs on the loop.
func (s *Session) publishText(text string) error {
	if s.status != StatusConnected || s.currentUser == nil {
		return errs.NewError(errs.ErrNotConnected)
	}

	if strings.TrimSpace(text) == "" {
		return errs.NewError(errs.ErrEmptyText)
	}

	env := TextEnvelope{
		ID:        randx.MessageID(),
		SenderID:  s.currentUser.ID,
		Nickname:  s.currentUser.Nickname,
		Text:      text,
		Timestamp: s.now(),
	}

	s.appendMessage(env.Message())

	// The local copy stands even if the broker rejects it.
	_ = s.publish(s.cfg.ChatTopic, env)

	return nil
}

// publishImage appends an image message locally and sends it. Runs on the loop.
func (s *Session) publishImage(dataURI string) error {
	if s.status != StatusConnected || s.currentUser == nil {
		return errs.NewError(errs.ErrNotConnected)
	}

	if err := ValidateImageData(dataURI); err != nil {
		s.logger.Info().
			Int("code", err.Code).
			Int("size", len(dataURI)).
			Msg("Rejected outbound image.")
		return err
	}

	env := ImageEnvelope{
		ID:        randx.MessageID(),
		SenderID:  s.currentUser.ID,
		Nickname:  s.currentUser.Nickname,
		Caption:   ImageCaption,
		Timestamp: s.now(),
		ImageData: dataURI,
	}

	s.appendMessage(env.Message())
	_ = s.publish(s.cfg.ChatTopic, env)

	return nil
}

// publish encodes env and hands it to the adapter. Failures are logged and returned, never retried.
func (s *Session) publish(topic string, env Envelope) error {
	payload, err := EncodeEnvelope(env)
	if err != nil {
		s.logger.Error().Err(err).Str("topic", topic).Msg("Failed to encode envelope.")
		return err
	}

	if s.adapter == nil {
		return errs.NewError(errs.ErrNotConnected)
	}

	if err := s.adapter.Publish(topic, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("Failed to publish envelope.")
		return err
	}

	return nil
}
