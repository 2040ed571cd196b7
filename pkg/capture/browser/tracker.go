package browser

import "sync"

// Tracker maintains the ordered list of open tabs and the index of the
// active one. Browser events (tab opened, closed, clicked) may arrive at
// arbitrary times from the backend's event goroutines; every method is safe
// for concurrent use, and a command reading the active tab sees a
// consistent snapshot taken at the moment of the call.
//
// Invariant: the active index is always valid for the current tab list, or
// 0 when the list is empty.
type Tracker struct {
	mu     sync.Mutex
	tabs   []Tab
	active int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add appends a newly opened tab.
func (t *Tracker) Add(tab Tab) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tabs = append(t.tabs, tab)
}

// Remove drops a closed tab from the list. If the removal invalidates the
// active index it is clamped to the last valid index and that tab is
// brought to the foreground; with no tabs left the index resets to 0.
func (t *Tracker) Remove(tab Tab) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexOf(tab)
	if idx < 0 {
		return
	}
	t.tabs = append(t.tabs[:idx], t.tabs[idx+1:]...)

	if len(t.tabs) == 0 {
		t.active = 0
		return
	}
	switch {
	case idx < t.active:
		// The active tab shifted down one slot; keep pointing at it.
		t.active--
	case t.active >= len(t.tabs):
		t.active = len(t.tabs) - 1
		// Foreground errors are non-fatal here; the next command that
		// needs the active tab will retry.
		_ = t.tabs[t.active].BringToFront()
	}
}

// MarkActive records a click-focus event: the clicked tab becomes active.
// Unknown tabs (already removed by a concurrent close) are ignored.
func (t *Tracker) MarkActive(tab Tab) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexOf(tab)
	if idx < 0 {
		return
	}
	t.active = idx
}

// Active returns the active tab after bringing it to the foreground.
// The second return is false when no tabs are open.
func (t *Tracker) Active() (Tab, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.tabs) == 0 {
		return nil, false
	}
	tab := t.tabs[t.active]
	_ = tab.BringToFront()
	return tab, true
}

// Next advances the active index with wraparound and foregrounds the
// result. No-op when no tabs are open.
func (t *Tracker) Next() (Tab, bool) {
	return t.shift(1)
}

// Prev moves the active index backwards with wraparound and foregrounds
// the result. No-op when no tabs are open.
func (t *Tracker) Prev() (Tab, bool) {
	return t.shift(-1)
}

func (t *Tracker) shift(delta int) (Tab, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.tabs)
	if n == 0 {
		return nil, false
	}
	t.active = ((t.active+delta)%n + n) % n
	tab := t.tabs[t.active]
	_ = tab.BringToFront()
	return tab, true
}

// List returns a snapshot of all tracked tabs.
func (t *Tracker) List() []TabInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	infos := make([]TabInfo, len(t.tabs))
	for i, tab := range t.tabs {
		infos[i] = TabInfo{Index: i, URL: tab.URL(), Active: i == t.active}
	}
	return infos
}

// Len returns the number of tracked tabs.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tabs)
}

func (t *Tracker) indexOf(tab Tab) int {
	for i, candidate := range t.tabs {
		if candidate == tab {
			return i
		}
	}
	return -1
}
