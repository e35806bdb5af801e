// Package notify turns classified catalog errors into user feedback.
// Every failure is written to the diagnostic log; only authentication
// failures additionally produce a timed notice on the attached Display.
package notify

import (
	"sync"
	"time"

	"github.com/atinyakov/BookKeeper/internal/client/api"
	"go.uber.org/zap"
)

// Kind is the severity of a Notice.
type Kind string

const (
	KindError Kind = "error"
	KindInfo  Kind = "info"
)

// DefaultDuration is how long an authentication notice stays visible.
const DefaultDuration = 5 * time.Second

// UnauthorizedTitle is the text of the notice shown on AuthError.
const UnauthorizedTitle = "Unauthorized"

// Notice is a transient, user-visible message.
type Notice struct {
	Title    string
	Kind     Kind
	Duration time.Duration
	At       time.Time
}

// Expired reports whether the notice is no longer visible at now.
func (n Notice) Expired(now time.Time) bool {
	return !now.Before(n.At.Add(n.Duration))
}

// Display shows notices to the user.
type Display interface {
	Show(Notice)
}

// Notifier routes errors to the log and, for AuthError, to a Display.
type Notifier struct {
	log      *zap.Logger
	display  Display
	duration time.Duration
	now      func() time.Time
}

// New returns a Notifier. log and display may be nil.
func New(log *zap.Logger, display Display) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{log: log, display: display, duration: DefaultDuration, now: time.Now}
}

// Report logs err and shows the Unauthorized notice when err is an AuthError.
// It returns the classification so callers can branch without classifying again.
// A nil err is ignored.
func (n *Notifier) Report(op string, err error) api.Class {
	class := api.Classify(err)
	if class == api.ClassNone {
		return class
	}

	n.log.Error("catalog request failed",
		zap.String("op", op),
		zap.Stringer("class", class),
		zap.Error(err))

	if class == api.ClassAuth && n.display != nil {
		n.display.Show(Notice{
			Title:    UnauthorizedTitle,
			Kind:     KindError,
			Duration: n.duration,
			At:       n.now(),
		})
	}
	return class
}

// Board is a Display that keeps the most recent notice until it expires.
type Board struct {
	mu     sync.Mutex
	notice *Notice
}

// Show replaces the current notice.
func (b *Board) Show(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = &n
}

// Current returns the visible notice at now, if any. Expired notices are dropped.
func (b *Board) Current(now time.Time) (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.notice == nil {
		return Notice{}, false
	}
	if b.notice.Expired(now) {
		b.notice = nil
		return Notice{}, false
	}
	return *b.notice, true
}

// Dismiss removes the current notice.
func (b *Board) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = nil
}
