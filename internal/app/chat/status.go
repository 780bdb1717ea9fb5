package chat

import "fmt"

// Status is the connection state of a session.
type Status int8

const (
	// StatusDisconnected is the initial state, and the state after any connection failure.
	StatusDisconnected Status = iota

	// StatusConnecting means a nickname was submitted and the broker has not accepted the client yet.
	StatusConnecting

	// StatusConnected means the session is subscribed and has announced itself.
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return fmt.Sprintf("status(%d)", int8(s))
	}
}

// MarshalText encodes the status by name so snapshots and bridge frames read naturally.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name produced by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "disconnected":
		*s = StatusDisconnected
	case "connecting":
		*s = StatusConnecting
	case "connected":
		*s = StatusConnected
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}
