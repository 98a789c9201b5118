package calendar

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// Navigator holds the month currently shown by the grid. The cursor is
// always a whole month; the day is implicitly the 1st.
type Navigator struct {
	mu    sync.Mutex
	now   Clock
	year  int
	month time.Month
}

// NewNavigator starts at the current month according to now.
func NewNavigator(now Clock) *Navigator {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Navigator{now: now, year: t.Year(), month: t.Month()}
}

// Current returns the displayed year and month.
func (n *Navigator) Current() (int, time.Month) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.year, n.month
}

// Set jumps to an arbitrary month; out-of-range months roll over.
func (n *Navigator) Set(year int, month time.Month) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.year, n.month = NormalizeMonth(year, month)
}

// Prev moves to the previous month, crossing into the prior year from January.
func (n *Navigator) Prev() (int, time.Month) {
	return n.step(-1)
}

// Next moves to the following month, crossing into the next year from December.
func (n *Navigator) Next() (int, time.Month) {
	return n.step(1)
}

// Today returns to the current month; the day of month is discarded.
func (n *Navigator) Today() (int, time.Month) {
	t := n.now()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.year, n.month = t.Year(), t.Month()
	return n.year, n.month
}

func (n *Navigator) step(delta int) (int, time.Month) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.year, n.month = NormalizeMonth(n.year, n.month+time.Month(delta))
	return n.year, n.month
}
