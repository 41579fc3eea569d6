// -----------------------------------------------------------------------
// Renderer - Headless browser rendering for client-side listing pages
// -----------------------------------------------------------------------

package webfetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

const (
	defaultJavaScriptWait = 3 * time.Second
	browserStartupTimeout = 30 * time.Second
)

// renderer owns a single headless browser, started on first use so
// research runs that never hit a script-heavy host pay no startup cost.
type renderer struct {
	logger    arbor.ILogger
	userAgent string
	waitTime  time.Duration

	mu              sync.Mutex
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
	started         bool
	startErr        error
}

func newRenderer(userAgent string, waitTime time.Duration, logger arbor.ILogger) *renderer {
	if waitTime <= 0 {
		waitTime = defaultJavaScriptWait
	}
	return &renderer{
		logger:    logger,
		userAgent: userAgent,
		waitTime:  waitTime,
	}
}

// start launches the browser and verifies it responds. Must be called
// with the mutex held. A failed start is remembered so a missing Chrome
// binary is reported once instead of retried per page.
func (r *renderer) start() error {
	if r.started {
		return r.startErr
	}
	r.started = true

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(r.userAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Debug().Msgf("chromedp: "+format, args...)
		}),
	)

	testCtx, testCancel := context.WithTimeout(browserCtx, browserStartupTimeout)
	defer testCancel()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		r.startErr = fmt.Errorf("render browser failed startup test: %w", err)
		return r.startErr
	}

	r.browserCtx = browserCtx
	r.browserCancel = browserCancel
	r.allocatorCancel = allocatorCancel

	r.logger.Info().Str("user_agent", r.userAgent).Msg("Render browser started")
	return nil
}

// render navigates to a page, waits for scripts to settle, and returns
// the rendered document HTML.
func (r *renderer) render(ctx context.Context, pageURL string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.start(); err != nil {
		return "", err
	}

	// The page context descends from the browser, not the caller, so
	// caller cancellation is forwarded explicitly.
	pageCtx, cancel := context.WithTimeout(r.browserCtx, r.pageTimeout(ctx))
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	r.logger.Debug().Str("url", pageURL).Msg("Rendering page")

	var html string
	err := chromedp.Run(pageCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(r.waitTime),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("render failed for %s: %w", pageURL, err)
	}

	return html, nil
}

func (r *renderer) pageTimeout(ctx context.Context) time.Duration {
	timeout := r.waitTime + browserStartupTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

// close shuts the browser down. Safe to call when it never started.
func (r *renderer) close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCancel != nil {
		r.browserCancel()
		r.browserCancel = nil
	}
	if r.allocatorCancel != nil {
		r.allocatorCancel()
		r.allocatorCancel = nil
	}
	r.browserCtx = nil
	r.started = false
	r.startErr = nil
}
