package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// BrowserFetcher drives a headless browser. The bulletin site renders
// its whole body inside an iframe that plain HTTP clients never see, so
// this fetcher navigates, waits for the page to settle, and returns the
// HTML of the first iframe when one is present.
type BrowserFetcher struct {
	browser *rod.Browser
}

// NewBrowserFetcher launches the headless browser. Callers must Close.
func NewBrowserFetcher() (*BrowserFetcher, error) {
	logger.Info("Launching headless browser...")
	l := launcher.New().Headless(true).NoSandbox(true)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return &BrowserFetcher{browser: rod.New().ControlURL(u).MustConnect()}, nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() {
	f.browser.MustClose()
}

// Fetch navigates to the URL and returns the rendered HTML, descending
// into the first iframe if the page carries one.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	page, err := stealth.Page(f.browser)
	if err != nil {
		return "", err
	}

	// Rod's Must* API panics on failure; the recover turns that into an
	// error, and the page is closed on every exit path.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Panic in browser fetch: %v", r)
			err = fmt.Errorf("%w: browser fetch of %s failed: %v", ErrNetwork, url, r)
		}
	}()
	defer func() { page.MustClose() }()

	page = page.Context(ctx).Timeout(90 * time.Second)

	logger.Infof("Navigating to %s", url)
	page.MustNavigate(url)
	page.MustWaitStable()

	target := page
	tryErr := rod.Try(func() {
		frameEl := page.Timeout(10 * time.Second).MustElement("iframe")
		target = frameEl.MustFrame()
		target.MustWaitStable()
	})
	if tryErr != nil {
		logger.Infof("No iframe found, using top-level document: %v", tryErr)
		target = page
	}

	html, err = target.HTML()
	if err != nil {
		return "", fmt.Errorf("%w: failed to read rendered HTML: %v", ErrNetwork, err)
	}
	return html, nil
}
