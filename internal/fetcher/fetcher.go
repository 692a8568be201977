// Package fetcher retrieves raw bulletin HTML, either over plain HTTP
// or through a headless browser for sites that only render inside an
// iframe.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNetwork marks unreachable hosts and non-2xx responses. There is no
// retry: a failed date is reported and the run moves on.
var ErrNetwork = errors.New("network failure")

var logger = logrus.WithField("component", "fetcher")

// The site rejects default Go user agents, so we present a browser one.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher retrieves the HTML document behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher is the default Fetcher: a single GET per page.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch issues one GET and returns the response body as a string.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	logger.Infof("Fetching %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := f.client.Do(req)
	if err != nil {
		logger.WithError(err).Errorf("Error fetching %s", url)
		return "", fmt.Errorf("%w: failed to fetch %s: %v", ErrNetwork, url, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		logger.Errorf("Unexpected status for %s: %s", url, res.Status)
		return "", fmt.Errorf("%w: unexpected status code: %d %s", ErrNetwork, res.StatusCode, res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read body of %s: %v", ErrNetwork, url, err)
	}

	logger.Infof("Fetched %d bytes from %s", len(body), url)
	return string(body), nil
}

// PageURL substitutes the {date} placeholder in the configured target
// URL. URLs without a placeholder are returned unchanged, which covers
// sites that always show the current day.
func PageURL(target string, day time.Time, layout string) string {
	return strings.ReplaceAll(target, "{date}", day.Format(layout))
}

// Resolve turns a relative commodity link into an absolute URL against
// the bulletin page it was found on.
func Resolve(pageURL, href string) string {
	if href == "" {
		return href
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
