package models

import "sync/atomic"

// Toggle is a UI control bound to one model identifier
type Toggle struct {
	ID     string
	active atomic.Bool
}

// NewToggle creates an inactive toggle
func NewToggle(id string) *Toggle {
	return &Toggle{ID: id}
}

// Active reports whether the control is switched on
func (t *Toggle) Active() bool {
	return t.active.Load()
}

// SetActive switches the control on or off
func (t *Toggle) SetActive(active bool) {
	t.active.Store(active)
}

// Flip inverts the control and returns the new state
func (t *Toggle) Flip() bool {
	for {
		old := t.active.Load()
		if t.active.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
