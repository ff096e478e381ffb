// Package nav tracks where the client UI currently is. It replaces browser
// history so that backend-driven redirects (session expiry, post-submit
// navigation) are observable and testable.
package nav

import (
	"sync"
	"time"
)

// Navigator moves the UI to a new path.
type Navigator interface {
	Navigate(path string)
}

// Canceler drops navigations scheduled but not yet performed.
type Canceler interface {
	CancelPending()
}

// Redirect cancels any pending navigation on n, when supported, and moves to
// path. Session expiry and logout use it so a delayed redirect cannot move
// the user off the login page.
func Redirect(n Navigator, path string) {
	if n == nil {
		return
	}
	if c, ok := n.(Canceler); ok {
		c.CancelPending()
	}
	n.Navigate(path)
}

// Location is the process-wide current location.
type Location struct {
	mu      sync.RWMutex
	current string
	history []string
	pending map[uint64]*time.Timer
	nextID  uint64
}

func NewLocation(initial string) *Location {
	if initial == "" {
		initial = "/"
	}
	return &Location{
		current: initial,
		history: []string{initial},
		pending: make(map[uint64]*time.Timer),
	}
}

func (l *Location) Navigate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.moveLocked(path)
}

func (l *Location) moveLocked(path string) {
	l.current = path
	l.history = append(l.history, path)
}

// NavigateAfter schedules a navigation, leaving time for a success message.
func (l *Location) NavigateAfter(delay time.Duration, path string) {
	if delay <= 0 {
		l.Navigate(path)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.pending[id] = time.AfterFunc(delay, func() { l.fire(id, path) })
}

// fire performs a scheduled navigation unless it was cancelled meanwhile.
func (l *Location) fire(id uint64, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.pending[id]; !ok {
		return
	}
	delete(l.pending, id)
	l.moveLocked(path)
}

// Pending counts scheduled navigations that have not fired.
func (l *Location) Pending() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.pending)
}

func (l *Location) Current() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

func (l *Location) History() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.history...)
}

// CancelPending drops every scheduled navigation.
func (l *Location) CancelPending() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, t := range l.pending {
		t.Stop()
		delete(l.pending, id)
	}
}

// Stop cancels pending scheduled navigations on shutdown.
func (l *Location) Stop() {
	l.CancelPending()
}
