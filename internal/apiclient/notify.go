package apiclient

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n LogNotifier) Notify(level Level, message string) {
	entry := n.Log.WithField("notification", string(level))
	if level == LevelError {
		entry.Error(message)
		return
	}
	entry.Warn(message)
}

type Notification struct {
	Level   Level
	Message string
}

// Recorder keeps the most recent notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	max   int
	items []Notification
}

func NewRecorder(max int) *Recorder {
	if max <= 0 {
		max = 50
	}
	return &Recorder{max: max}
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Message: message})
	if len(r.items) > r.max {
		r.items = r.items[len(r.items)-r.max:]
	}
}

// Drain returns and forgets the recorded notifications.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}

// RouteTracker is a Navigator that only remembers where it was sent.
type RouteTracker struct {
	mu    sync.Mutex
	route string
}

func NewRouteTracker(initial string) *RouteTracker {
	return &RouteTracker{route: initial}
}

func (t *RouteTracker) CurrentRoute() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.route
}

func (t *RouteTracker) Navigate(route string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.route = route
}
