package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/scrapbook/pkg/logging"
)

// clickScript reports every click inside a page back to the process. The
// binding is installed per context, so it survives navigations and applies
// to every tab the operator opens.
const clickScript = `document.addEventListener('click', () => { window.scrapbookTabClick(); }, true);`

// ConnectOptions configures the browser connection.
type ConnectOptions struct {
	// Headless launches the browser without a window. Interactive capture
	// sessions want a headed browser; headless exists for automated jobs.
	Headless bool

	// StartURL, if set, is opened in the first tab.
	StartURL string
}

// Connection owns a running Chromium instance and feeds its tab lifecycle
// events (open, close, click-focus) into a Tracker.
type Connection struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	tracker *Tracker
	log     *logging.Logger

	mu   sync.Mutex
	tabs map[playwright.Page]*pwTab
}

// Connect installs and starts Playwright, launches Chromium and wires tab
// tracking. The returned connection must be closed to release the browser.
func Connect(opts ConnectOptions) (*Connection, error) {
	logger, _ := logging.NewLogger("browser")

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browserInst, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browserInst.NewContext()
	if err != nil {
		browserInst.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	c := &Connection{
		pw:      pw,
		browser: browserInst,
		context: context,
		tracker: NewTracker(),
		log:     logger,
		tabs:    make(map[playwright.Page]*pwTab),
	}

	if err := context.ExposeBinding("scrapbookTabClick", c.onTabClick); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to expose click binding: %w", err)
	}
	if err := context.AddInitScript(playwright.Script{Content: playwright.String(clickScript)}); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to install click script: %w", err)
	}

	// Hooks for tabs the operator opens later, plus any already open.
	context.OnPage(c.onNewPage)
	for _, page := range context.Pages() {
		c.onNewPage(page)
	}

	page, err := context.NewPage()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open first tab: %w", err)
	}
	if opts.StartURL != "" {
		if _, err := page.Goto(opts.StartURL); err != nil {
			logger.Warnf("failed to open start url %s: %v", opts.StartURL, err)
		}
	}

	return c, nil
}

// Tracker returns the tab tracker fed by this connection.
func (c *Connection) Tracker() *Tracker {
	return c.tracker
}

// NewTab opens a new tab. Tracking is handled by the context's page hook.
func (c *Connection) NewTab() (Tab, error) {
	page, err := c.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	return c.wrap(page), nil
}

// Close tears down the browser connection and Playwright itself.
func (c *Connection) Close() error {
	if err := c.context.Close(); err != nil {
		c.log.Warnf("context close: %v", err)
	}
	if err := c.browser.Close(); err != nil {
		c.log.Warnf("browser close: %v", err)
	}
	if err := c.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

func (c *Connection) onNewPage(page playwright.Page) {
	tab := c.wrap(page)
	c.tracker.Add(tab)
	c.log.Debugf("tab opened: %s", page.URL())

	page.OnClose(func(closed playwright.Page) {
		c.mu.Lock()
		wrapped, ok := c.tabs[closed]
		delete(c.tabs, closed)
		c.mu.Unlock()
		if ok {
			c.tracker.Remove(wrapped)
			c.log.Debugf("tab closed: %s", closed.URL())
		}
	})
}

// onTabClick is the exposed binding fired by the click listener inside
// every page; the source page becomes the active tab.
func (c *Connection) onTabClick(source *playwright.BindingSource, _ ...interface{}) interface{} {
	c.mu.Lock()
	tab, ok := c.tabs[source.Page]
	c.mu.Unlock()
	if ok {
		c.tracker.MarkActive(tab)
	}
	return nil
}

// wrap returns the one pwTab wrapper for a page, creating it on first use.
// A single wrapper per page keeps Tab identity stable so Tracker's
// equality-based bookkeeping works.
func (c *Connection) wrap(page playwright.Page) *pwTab {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tab, ok := c.tabs[page]; ok {
		return tab
	}
	tab := &pwTab{page: page}
	c.tabs[page] = tab
	return tab
}

// pwTab adapts a playwright page to the Tab interface.
type pwTab struct {
	page playwright.Page
}

func (t *pwTab) URL() string {
	return t.page.URL()
}

func (t *pwTab) BringToFront() error {
	return t.page.BringToFront()
}

func (t *pwTab) Evaluate(expr string) (any, error) {
	result, err := t.page.Evaluate(expr)
	if err != nil {
		return nil, fmt.Errorf("evaluate failed: %w", err)
	}
	return result, nil
}

func (t *pwTab) Close() error {
	return t.page.Close()
}
