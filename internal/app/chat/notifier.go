package chat

import "nickchat/internal/pkg/logx"

// NoticeKind is the tone of a user-facing notice.
type NoticeKind string

const (
	// NoticeSuccess reports a connection that was established.
	NoticeSuccess NoticeKind = "success"
	// NoticeError reports a failed or lost connection.
	NoticeError NoticeKind = "error"
	// NoticeInfo is for announcements from the bridge itself, such as a shutdown.
	NoticeInfo NoticeKind = "info"
)

// Notifier shows transient notices to the user, such as "connected" or "disconnected".
type Notifier interface {
	Notify(kind NoticeKind, text string)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(kind NoticeKind, text string)

func (f NotifierFunc) Notify(kind NoticeKind, text string) {
	f(kind, text)
}

// logNotifier is used when nobody is listening; notices end up in the log.
type logNotifier struct{}

func (logNotifier) Notify(kind NoticeKind, text string) {
	logx.Info("Session notice", "notice_kind", string(kind), "text", text)
}
