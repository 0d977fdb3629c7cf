package section

import (
	"sync"
	"time"
)

// DefaultNotificationTTL is how long a notification stays on screen.
const DefaultNotificationTTL = 5 * time.Second

// Severity distinguishes success, error and muted informational banners.
type Severity int

const (
	SeveritySuccess Severity = iota
	SeverityError
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityInfo:
		return "info"
	}
	return "success"
}

// Notification is a transient message.
type Notification struct {
	ID       uint64
	Severity Severity
	Message  string
	Created  time.Time
}

// Notifier keeps the stack of visible notifications. Each one is
// independent; dismissing one leaves the others in place.
type Notifier struct {
	mu    sync.Mutex
	next  uint64
	items []Notification
	ttl   time.Duration
	now   func() time.Time
}

// NewNotifier returns a notifier whose entries expire after ttl. A
// non-positive ttl uses DefaultNotificationTTL.
func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Notifier{ttl: ttl, now: time.Now}
}

// TTL returns the display duration.
func (n *Notifier) TTL() time.Duration { return n.ttl }

// Success pushes a success notification.
func (n *Notifier) Success(msg string) Notification {
	return n.Push(SeveritySuccess, msg)
}

// Error pushes an error notification.
func (n *Notifier) Error(msg string) Notification {
	return n.Push(SeverityError, msg)
}

// Push appends a notification and returns it.
func (n *Notifier) Push(sev Severity, msg string) Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	note := Notification{ID: n.next, Severity: sev, Message: msg, Created: n.now()}
	n.items = append(n.items, note)
	return note
}

// Dismiss removes the notification with the given id.
func (n *Notifier) Dismiss(id uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, note := range n.items {
		if note.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	return false
}

// Expire drops notifications older than the TTL and returns how many went.
func (n *Notifier) Expire() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := n.now().Add(-n.ttl)
	kept := n.items[:0]
	for _, note := range n.items {
		if note.Created.After(cutoff) {
			kept = append(kept, note)
		}
	}
	dropped := len(n.items) - len(kept)
	n.items = kept
	return dropped
}

// Active returns the visible notifications, oldest first.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Count returns the number of visible notifications of the given severity.
func (n *Notifier) Count(sev Severity) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, note := range n.items {
		if note.Severity == sev {
			count++
		}
	}
	return count
}
