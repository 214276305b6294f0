package core

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient, human-readable condition shown to the user.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier is the user-facing notification channel. How a notice is shown
// is up to the implementation.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

func notify(n Notifier, level NoticeLevel, msg string) {
	if n == nil {
		return
	}
	n.Notify(Notice{Level: level, Message: msg})
}
