package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	html, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "ok")
	assert.Contains(t, gotUA, "Chrome")
}

func TestHTTPFetcherBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestHTTPFetcherUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Shut down before fetching

	_, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestPageURL(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t,
		"https://market.example/daily?d=2024-05-01",
		PageURL("https://market.example/daily?d={date}", day, "2006-01-02"))

	// No placeholder: URL passes through unchanged.
	assert.Equal(t,
		"https://market.example/daily",
		PageURL("https://market.example/daily", day, "2006-01-02"))
}

func TestResolve(t *testing.T) {
	page := "https://market.example/daily/index.php"

	assert.Equal(t, "https://market.example/item/tomato", Resolve(page, "/item/tomato"))
	assert.Equal(t, "https://market.example/daily/tomato.php", Resolve(page, "tomato.php"))
	assert.Equal(t, "https://other.example/x", Resolve(page, "https://other.example/x"))
	assert.Equal(t, "https://cdn.example/x", Resolve(page, "//cdn.example/x"))
	assert.Equal(t, "", Resolve(page, ""))

	// A query string on the bulletin URL must not leak into the link.
	assert.Equal(t, "https://market.example/detail.php",
		Resolve("https://market.example/daily.php?d=2024-05-01", "detail.php"))
}
