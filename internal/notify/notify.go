// Package notify holds the transient status message shown to an author.
// Each session owns one Notifier; a new message replaces the visible one and
// restarts its dismiss timer.
package notify

import (
	"sync"
	"time"

	"github.com/debemdeboas/the-archive-admin/internal/model"
)

const DefaultDismissAfter = 3000 * time.Millisecond

type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

type Notifier struct {
	// pushMu is held from a state change until onChange has seen it, so
	// listeners observe changes in the order they were made.
	pushMu sync.Mutex

	mu           sync.Mutex
	current      model.Notification
	timer        Timer
	gen          uint64
	closed       bool
	dismissAfter time.Duration
	afterFunc    AfterFunc
	onChange     func(model.Notification)
}

type Option func(*Notifier)

// WithOnChange registers fn to be called after every set or dismiss.
func WithOnChange(fn func(model.Notification)) Option {
	return func(n *Notifier) { n.onChange = fn }
}

func WithAfterFunc(af AfterFunc) Option {
	return func(n *Notifier) { n.afterFunc = af }
}

func New(dismissAfter time.Duration, opts ...Option) *Notifier {
	if dismissAfter <= 0 {
		dismissAfter = DefaultDismissAfter
	}
	n := &Notifier{
		dismissAfter: dismissAfter,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify shows message. Empty kind or message is ignored.
func (n *Notifier) Notify(kind model.NotificationKind, message string) {
	if kind == model.KindNone || message == "" {
		return
	}

	n.pushMu.Lock()
	defer n.pushMu.Unlock()

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	if n.timer != nil {
		n.timer.Stop()
	}
	n.gen++
	gen := n.gen
	n.current = model.Notification{Kind: kind, Message: message}
	n.timer = n.afterFunc(n.dismissAfter, func() { n.expire(gen) })
	current := n.current
	n.mu.Unlock()

	n.changed(current)
}

func (n *Notifier) Error(message string)   { n.Notify(model.KindError, message) }
func (n *Notifier) Warning(message string) { n.Notify(model.KindWarning, message) }
func (n *Notifier) Success(message string) { n.Notify(model.KindSuccess, message) }

// Current returns the visible notification, or the zero value.
func (n *Notifier) Current() model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Dismiss hides the visible notification now.
func (n *Notifier) Dismiss() {
	n.pushMu.Lock()
	defer n.pushMu.Unlock()

	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.gen++
	wasVisible := n.current.Visible()
	n.current = model.Notification{}
	n.mu.Unlock()

	if wasVisible {
		n.changed(model.Notification{})
	}
}

// Close stops the pending timer. Later calls to Notify are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

// A timer that already fired when it was replaced must not clear the newer
// message, so expiry is tied to the generation that scheduled it.
func (n *Notifier) expire(gen uint64) {
	n.pushMu.Lock()
	defer n.pushMu.Unlock()

	n.mu.Lock()
	if gen != n.gen {
		n.mu.Unlock()
		return
	}
	n.timer = nil
	n.current = model.Notification{}
	n.mu.Unlock()

	n.changed(model.Notification{})
}

func (n *Notifier) changed(current model.Notification) {
	if n.onChange != nil {
		n.onChange(current)
	}
}
