// -----------------------------------------------------------------------
// Web Fetch - Page text retrieval with render fallback for listing sites
// -----------------------------------------------------------------------

package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/praedium/internal/common"
)

const (
	defaultUserAgent   = "praedium-research/1.0"
	defaultTimeout     = 30 * time.Second
	defaultMaxBodySize = 5 * 1024 * 1024

	// Below this many extracted characters a page is treated as an
	// unrendered shell and retried through the browser.
	thinContentThreshold = 200
)

// scriptHeavyHosts render listing data client-side; a static fetch of
// these returns an empty shell.
var scriptHeavyHosts = []string{
	"zillow.com",
	"redfin.com",
	"realtor.com",
	"trulia.com",
	"apartments.com",
	"homes.com",
}

// Service retrieves page text for evidence capture. Static HTTP is
// tried first; script-heavy listing hosts fall back to a headless
// browser render when JavaScript rendering is enabled.
type Service struct {
	config     *common.FetchConfig
	logger     arbor.ILogger
	httpClient *http.Client
	renderer   *renderer
}

// NewService creates a page fetcher from the fetch configuration.
func NewService(config *common.FetchConfig, logger arbor.ILogger) *Service {
	if config == nil {
		config = &common.FetchConfig{}
	}

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Service{
		config:     config,
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		renderer:   newRenderer(userAgent, config.JavaScriptWaitTime, logger),
	}
}

// FetchText retrieves a page and returns its readable text as markdown.
func (s *Service) FetchText(ctx context.Context, pageURL string) (string, error) {
	html, err := s.fetchStatic(ctx, pageURL)

	text := ""
	if err == nil {
		text = s.extractText(html, pageURL)
	}

	if s.shouldRender(pageURL, text) {
		rendered, renderErr := s.renderer.render(ctx, pageURL)
		if renderErr != nil {
			s.logger.Warn().Err(renderErr).Str("url", pageURL).Msg("Render fallback failed")
		} else if renderedText := s.extractText(rendered, pageURL); len(renderedText) > len(text) {
			s.logger.Debug().
				Str("url", pageURL).
				Int("static_chars", len(text)).
				Int("rendered_chars", len(renderedText)).
				Msg("Render fallback produced richer content")
			return renderedText, nil
		}
	}

	if err != nil {
		return "", err
	}
	return text, nil
}

// Close releases the render browser if one was started.
func (s *Service) Close() {
	s.renderer.close()
}

// fetchStatic performs a plain HTTP GET with size and timeout limits.
func (s *Service) fetchStatic(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid fetch URL %q: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", s.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed for %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch returned status %d for %s", resp.StatusCode, pageURL)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(strings.ToLower(contentType), "text/") {
		return "", fmt.Errorf("unsupported content type %q for %s", contentType, pageURL)
	}

	maxBody := s.config.MaxBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBody)))
	if err != nil {
		return "", fmt.Errorf("reading body of %s: %w", pageURL, err)
	}

	return string(body), nil
}

// extractText strips boilerplate and converts the remaining HTML to
// markdown, falling back to plain text when conversion fails.
func (s *Service) extractText(html, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pageURL).Msg("Failed to parse page HTML")
		return stripTags(html)
	}

	doc.Find("script, style, noscript").Remove()

	content := doc.Find("body").First()
	if content.Length() == 0 {
		content = doc.Selection
	}

	if s.config.OnlyMainContent {
		if main := doc.Find("main, article, [role=main]").First(); main.Length() > 0 {
			content = main
		} else {
			content.Find("nav, header, footer, aside").Remove()
			content.Find("[class*=ad], [id*=ad], [class*=promo], [class*=sidebar]").Remove()
		}
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pageURL).Msg("Failed to serialize page content")
		return cleanWhitespace(content.Text())
	}

	if markdown := s.toMarkdown(fragment, pageURL); markdown != "" {
		return markdown
	}
	return cleanWhitespace(content.Text())
}

// toMarkdown converts an HTML fragment to markdown. The base URL
// resolves relative links so citations stay usable.
func (s *Service) toMarkdown(html, baseURL string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	converter := md.NewConverter(baseURL, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		s.logger.Warn().Err(err).Msg("HTML to markdown conversion failed")
		return ""
	}
	return strings.TrimSpace(markdown)
}

// shouldRender decides whether the browser fallback applies.
func (s *Service) shouldRender(pageURL, text string) bool {
	if !s.config.EnableJavaScript {
		return false
	}
	if isScriptHeavyHost(pageURL) {
		return true
	}
	return len(text) < thinContentThreshold
}

func (s *Service) userAgent() string {
	if s.config.UserAgent != "" {
		return s.config.UserAgent
	}
	return defaultUserAgent
}

// isScriptHeavyHost matches the host or any subdomain of a known
// client-rendered listing site.
func isScriptHeavyHost(pageURL string) bool {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, candidate := range scriptHeavyHosts {
		if host == candidate || strings.HasSuffix(host, "."+candidate) {
			return true
		}
	}
	return false
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	spacePattern      = regexp.MustCompile(`[ \t]+`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// stripTags removes markup when the document cannot be parsed.
func stripTags(html string) string {
	stripped := tagPattern.ReplaceAllString(html, " ")
	return cleanWhitespace(stripped)
}

func cleanWhitespace(text string) string {
	text = spacePattern.ReplaceAllString(text, " ")
	text = blankLinesPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
