// Package navigation tracks which screen the reporter is on and the hidden
// gesture that opens the settings panel.
package navigation

import (
	"fmt"
	"sync"
	"time"
)

// View is a top-level screen.
type View string

const (
	ViewForm     View = "form"
	ViewList     View = "list"
	ViewSettings View = "settings"
)

const (
	// UnlockTaps is the number of consecutive form taps that open settings.
	UnlockTaps = 7
	// TapWindow is the longest gap between two taps of one sequence.
	TapWindow = 1500 * time.Millisecond
)

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewForm, ViewList, ViewSettings:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

// Navigator holds the current view. Safe for concurrent use.
type Navigator struct {
	mu      sync.Mutex
	view    View
	taps    int
	lastTap time.Time
	now     func() time.Time
}

// New starts on the report form.
func New() *Navigator {
	return NewWithClock(time.Now)
}

// NewWithClock is New with an injected clock.
func NewWithClock(now func() time.Time) *Navigator {
	return &Navigator{view: ViewForm, now: now}
}

// View returns the current view.
func (n *Navigator) View() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view
}

// Navigate switches to target and returns the resulting view. Tapping the
// form UnlockTaps times in a row, each within TapWindow of the last, lands
// on settings instead. Any other target resets the sequence.
func (n *Navigator) Navigate(target View) View {
	n.mu.Lock()
	defer n.mu.Unlock()

	if target != ViewForm {
		n.taps = 0
		n.view = target
		return n.view
	}

	now := n.now()
	if n.taps > 0 && now.Sub(n.lastTap) > TapWindow {
		n.taps = 0
	}
	n.taps++
	n.lastTap = now

	if n.taps >= UnlockTaps {
		n.taps = 0
		n.view = ViewSettings
		return n.view
	}
	n.view = ViewForm
	return n.view
}
