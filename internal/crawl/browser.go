package crawl

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// browserRenderer drives the headless tier. One allocator lives for the
// process; each crawl gets its own tab context, released on every exit
// path.
type browserRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
}

func newBrowserRenderer(timeout time.Duration, userAgent string) *browserRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &browserRenderer{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     timeout,
	}
}

// render navigates to the URL, waits for the DOM to settle, and returns the
// rendered HTML.
func (b *browserRenderer) render(ctx context.Context, url string) (string, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.allocCtx)
	defer tabCancel()

	runCtx, runCancel := context.WithTimeout(tabCtx, b.timeout)
	defer runCancel()

	// Stop rendering if the caller's context dies first.
	go func() {
		select {
		case <-ctx.Done():
			runCancel()
		case <-runCtx.Done():
		}
	}()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

// close shuts the shared browser process down.
func (b *browserRenderer) close() {
	b.allocCancel()
}
