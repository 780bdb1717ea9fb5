package chat

// onMessage validates an inbound payload and routes it by topic and type. Runs on the loop.
func (s *Session) onMessage(topic string, payload []byte) {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		s.logger.Debug().Err(err).Str("topic", topic).Int("size", len(payload)).Msg("Dropping malformed envelope.")
		return
	}

	switch env := env.(type) {
	case JoinEnvelope:
		if topic != s.cfg.PresenceTopic {
			s.logger.Debug().Str("topic", topic).Msg("Dropping join envelope outside the presence topic.")
			return
		}
		s.reconcileJoin(env)

	case TextEnvelope:
		if topic != s.cfg.ChatTopic {
			s.logger.Debug().Str("topic", topic).Msg("Dropping text envelope outside the chat topic.")
			return
		}
		s.ingest(env.SenderID, env.Message())

	case ImageEnvelope:
		if topic != s.cfg.ChatTopic {
			s.logger.Debug().Str("topic", topic).Msg("Dropping image envelope outside the chat topic.")
			return
		}
		s.ingest(env.SenderID, env.Message())
	}
}

// ingest appends a remote message in arrival order, skipping our own echoes.
func (s *Session) ingest(senderID string, msg Message) {
	if s.isLocal(senderID) {
		return
	}

	s.appendMessage(msg)
}

func (s *Session) isLocal(userID string) bool {
	return s.currentUser != nil && s.currentUser.ID == userID
}
