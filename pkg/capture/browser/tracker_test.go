package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTab records foreground calls so tests can assert on them.
type fakeTab struct {
	url        string
	foreground int
	closed     bool
}

func (f *fakeTab) URL() string { return f.url }

func (f *fakeTab) BringToFront() error {
	f.foreground++
	return nil
}

func (f *fakeTab) Evaluate(expr string) (any, error) { return nil, nil }

func (f *fakeTab) Close() error {
	f.closed = true
	return nil
}

func threeTabs() (*Tracker, *fakeTab, *fakeTab, *fakeTab) {
	tr := NewTracker()
	a := &fakeTab{url: "https://a.example"}
	b := &fakeTab{url: "https://b.example"}
	c := &fakeTab{url: "https://c.example"}
	tr.Add(a)
	tr.Add(b)
	tr.Add(c)
	return tr, a, b, c
}

func TestActive_EmptyTracker(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.Active()
	assert.False(t, ok)
	assert.Equal(t, 0, tr.Len())
}

func TestMarkActive_ClickSelectsTab(t *testing.T) {
	tr, _, b, _ := threeTabs()

	tr.MarkActive(b)

	active, ok := tr.Active()
	require.True(t, ok)
	assert.Same(t, b, active)
	assert.Equal(t, 1, b.foreground, "Active must foreground the tab")
}

func TestMarkActive_UnknownTabIgnored(t *testing.T) {
	tr, a, _, _ := threeTabs()
	tr.MarkActive(a)

	tr.MarkActive(&fakeTab{url: "https://stranger.example"})

	active, ok := tr.Active()
	require.True(t, ok)
	assert.Same(t, a, active)
}

func TestRemove_ClampsActiveAndForegrounds(t *testing.T) {
	tr, _, b, c := threeTabs()
	tr.MarkActive(c)

	tr.Remove(c)

	require.Equal(t, 2, tr.Len())
	assert.Equal(t, 1, b.foreground, "clamped tab must be foregrounded")

	active, ok := tr.Active()
	require.True(t, ok)
	assert.Same(t, b, active)
}

func TestRemove_ActiveTabMidList(t *testing.T) {
	tr, a, b, c := threeTabs()
	tr.MarkActive(b)

	tr.Remove(b)

	// Index 1 is still valid after the removal; it now points at c.
	active, ok := tr.Active()
	require.True(t, ok)
	assert.Same(t, c, active)
	assert.Equal(t, 0, a.foreground)
}

func TestRemove_TabBeforeActiveKeepsActive(t *testing.T) {
	tr, a, _, c := threeTabs()
	tr.MarkActive(c)

	tr.Remove(a)

	active, ok := tr.Active()
	require.True(t, ok)
	assert.Same(t, c, active, "closing an earlier tab must not steal focus")
}

func TestRemove_LastTabResets(t *testing.T) {
	tr := NewTracker()
	a := &fakeTab{url: "https://a.example"}
	tr.Add(a)

	tr.Remove(a)

	assert.Equal(t, 0, tr.Len())
	_, ok := tr.Active()
	assert.False(t, ok)

	// A tab added after the reset becomes active at index 0.
	b := &fakeTab{url: "https://b.example"}
	tr.Add(b)
	active, ok := tr.Active()
	require.True(t, ok)
	assert.Same(t, b, active)
}

func TestNextPrev_Wraparound(t *testing.T) {
	tr, a, b, c := threeTabs()

	tab, ok := tr.Next()
	require.True(t, ok)
	assert.Same(t, b, tab)

	tab, _ = tr.Next()
	assert.Same(t, c, tab)

	tab, _ = tr.Next()
	assert.Same(t, a, tab, "next past the end wraps to the first tab")

	tab, _ = tr.Prev()
	assert.Same(t, c, tab, "prev before the start wraps to the last tab")
}

func TestNextPrev_Empty(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.Next()
	assert.False(t, ok)
	_, ok = tr.Prev()
	assert.False(t, ok)
}

func TestList_Snapshot(t *testing.T) {
	tr, _, b, _ := threeTabs()
	tr.MarkActive(b)

	infos := tr.List()
	require.Len(t, infos, 3)
	assert.Equal(t, TabInfo{Index: 0, URL: "https://a.example", Active: false}, infos[0])
	assert.Equal(t, TabInfo{Index: 1, URL: "https://b.example", Active: true}, infos[1])
	assert.Equal(t, TabInfo{Index: 2, URL: "https://c.example", Active: false}, infos[2])
}
