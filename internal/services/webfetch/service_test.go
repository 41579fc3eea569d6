package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/common"
)

func newTestService(t *testing.T, config *common.FetchConfig, handler http.HandlerFunc) (*Service, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if config.RequestTimeout == 0 {
		config.RequestTimeout = 5 * time.Second
	}
	return NewService(config, arbor.NewLogger()), server
}

const listingPage = `<!DOCTYPE html>
<html lang="en">
<head><title>45 Oak Ave - Sold</title><style>body { color: red }</style></head>
<body>
<nav><a href="/buy">Buy</a> <a href="/sell">Sell</a></nav>
<header>Site header chrome</header>
<main>
<h1>45 Oak Ave, Newark, NJ 07102</h1>
<p>Sold for <strong>$410,000</strong> on June 3, 2026.</p>
<p>3 bds 2 ba 1,540 sqft. See the <a href="/history">price history</a>.</p>
</main>
<footer>Copyright boilerplate</footer>
<script>window.tracker = true;</script>
</body>
</html>`

func TestFetchText_MainContent(t *testing.T) {
	svc, server := newTestService(t, &common.FetchConfig{OnlyMainContent: true}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(listingPage))
	})

	text, err := svc.FetchText(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Contains(t, text, "45 Oak Ave, Newark, NJ 07102")
	assert.Contains(t, text, "$410,000")
	assert.NotContains(t, text, "Site header chrome")
	assert.NotContains(t, text, "Copyright boilerplate")
	assert.NotContains(t, text, "window.tracker")
}

func TestFetchText_KeepsLinks(t *testing.T) {
	svc, server := newTestService(t, &common.FetchConfig{OnlyMainContent: true}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(listingPage))
	})

	text, err := svc.FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "price history")
	assert.Contains(t, text, "/history")
}

func TestFetchText_NoMainElement(t *testing.T) {
	page := `<html><body>
<nav>Navigation links</nav>
<div><p>Tax assessment for parcel 012-0345 is $198,400.</p></div>
<footer>Footer text</footer>
</body></html>`

	svc, server := newTestService(t, &common.FetchConfig{OnlyMainContent: true}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	})

	text, err := svc.FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "Tax assessment for parcel 012-0345")
	assert.NotContains(t, text, "Navigation links")
	assert.NotContains(t, text, "Footer text")
}

func TestFetchText_FullPageWhenMainContentDisabled(t *testing.T) {
	svc, server := newTestService(t, &common.FetchConfig{}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(listingPage))
	})

	text, err := svc.FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "Site header chrome")
	assert.Contains(t, text, "$410,000")
	assert.NotContains(t, text, "window.tracker")
}

func TestFetchText_MaxBodySize(t *testing.T) {
	head := "<html><body><p>County record for 45 Oak Ave.</p>"
	tail := "<p>TRAILING MARKER</p></body></html>"
	filler := strings.Repeat("<p>padding row</p>", 200)

	svc, server := newTestService(t, &common.FetchConfig{MaxBodySize: len(head) + 64}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(head + filler + tail))
	})

	text, err := svc.FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "County record for 45 Oak Ave.")
	assert.NotContains(t, text, "TRAILING MARKER")
}

func TestFetchText_PlainText(t *testing.T) {
	svc, server := newTestService(t, &common.FetchConfig{}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("Plain deed record text."))
	})

	text, err := svc.FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "Plain deed record text.")
}

func TestFetchText_UnsupportedContentType(t *testing.T) {
	svc, server := newTestService(t, &common.FetchConfig{}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	})

	_, err := svc.FetchText(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestFetchText_HTTPError(t *testing.T) {
	svc, server := newTestService(t, &common.FetchConfig{}, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	_, err := svc.FetchText(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetchText_SendsUserAgent(t *testing.T) {
	var gotAgent string
	svc, server := newTestService(t, &common.FetchConfig{UserAgent: "custom-agent/2.0"}, func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>ok</p></body></html>"))
	})

	_, err := svc.FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "custom-agent/2.0", gotAgent)
}

func TestIsScriptHeavyHost(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.zillow.com/homedetails/45-oak-ave", true},
		{"https://zillow.com/b/listing", true},
		{"https://www.redfin.com/NJ/Newark/45-Oak-Ave", true},
		{"https://notzillow.com/page", false},
		{"https://essexcountynj.gov/records", false},
		{"://bad-url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, isScriptHeavyHost(tt.url))
		})
	}
}

func TestShouldRender(t *testing.T) {
	longText := strings.Repeat("listing detail ", 40)

	static := &Service{config: &common.FetchConfig{}}
	assert.False(t, static.shouldRender("https://www.zillow.com/homedetails/x", ""))

	js := &Service{config: &common.FetchConfig{EnableJavaScript: true}}
	assert.True(t, js.shouldRender("https://www.zillow.com/homedetails/x", longText))
	assert.True(t, js.shouldRender("https://essexcountynj.gov/records", "thin"))
	assert.False(t, js.shouldRender("https://essexcountynj.gov/records", longText))
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "Sold for $410,000", stripTags("<p>Sold for <b>$410,000</b></p>"))
}
