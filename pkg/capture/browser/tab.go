// Package browser tracks which tab of a multi-tab browser the operator is
// looking at. Browser backends cannot reliably be polled for focus, so
// focus is push-only: a click inside a tab reports that tab as active.
// The Tracker keeps the bookkeeping; the playwright adapter in this package
// feeds it events from a real Chromium instance.
package browser

// Tab is one open page, the surface the capture session needs from the
// page automation backend.
type Tab interface {
	// URL returns the tab's current address.
	URL() string

	// BringToFront raises the tab in the operator's browser window.
	BringToFront() error

	// Evaluate runs a JavaScript expression in the tab and returns its
	// result.
	Evaluate(expr string) (any, error)

	// Close closes the tab.
	Close() error
}

// TabInfo is a read-only snapshot of one tracked tab.
type TabInfo struct {
	Index  int
	URL    string
	Active bool
}
