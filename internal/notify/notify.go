// package notify delivers user-facing messages (toasts) from the room and playback cores to whatever is showing them.
package notify

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Level is the severity of a [Notification].
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return ""
	}
}

// Notification is a single user-facing message.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

func (n Notification) String() string {
	if n.Message == "" {
		return n.Title
	}
	return fmt.Sprintf("%s: %s", n.Title, n.Message)
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// Func adapts a function to [Notifier].
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Channel forwards notifications to a buffered channel, dropping them when the buffer is full.
type Channel struct {
	ch chan Notification
}

// NewChannel creates a [Channel] with the given buffer size.
func NewChannel(size int) *Channel {
	if size <= 0 {
		size = 16
	}
	return &Channel{ch: make(chan Notification, size)}
}

func (c *Channel) Notify(n Notification) {
	select {
	case c.ch <- n:
	default:
	}
}

// C returns the receive side of the channel.
func (c *Channel) C() <-chan Notification { return c.ch }

// Log writes notifications to a [log.Logger] at a level matching theirs.
type Log struct {
	Logger *log.Logger
}

func (l Log) Notify(n Notification) {
	kv := []any{"title", n.Title}
	switch n.Level {
	case Error:
		l.Logger.Error(n.Message, kv...)
	case Warning:
		l.Logger.Warn(n.Message, kv...)
	default:
		l.Logger.Info(n.Message, kv...)
	}
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, x := range m {
		if x != nil {
			x.Notify(n)
		}
	}
}

func Infof(n Notifier, title, format string, args ...any) {
	n.Notify(Notification{Level: Info, Title: title, Message: fmt.Sprintf(format, args...)})
}

func Successf(n Notifier, title, format string, args ...any) {
	n.Notify(Notification{Level: Success, Title: title, Message: fmt.Sprintf(format, args...)})
}

func Warnf(n Notifier, title, format string, args ...any) {
	n.Notify(Notification{Level: Warning, Title: title, Message: fmt.Sprintf(format, args...)})
}

func Errorf(n Notifier, title, format string, args ...any) {
	n.Notify(Notification{Level: Error, Title: title, Message: fmt.Sprintf(format, args...)})
}

// Recorder keeps every notification it receives. Safe for concurrent use.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.all = append(r.all, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}

// Last returns the most recent notification and whether there was one.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}
