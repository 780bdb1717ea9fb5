package chat

import "fmt"

// reconcileJoin adds a newly seen peer to the user set and announces it in the log.
func (s *Session) reconcileJoin(env JoinEnvelope) {
	if s.isLocal(env.User.ID) || s.knownUser(env.User.ID) {
		return
	}

	s.putUser(env.User)
	s.appendMessage(newSystemMessage(fmt.Sprintf("%s joined the chat", env.User.Nickname), s.now()))

	s.logger.Info().
		Str("peer_id", env.User.ID).
		Str("nickname", env.User.Nickname).
		Msg("Peer joined.")
}
