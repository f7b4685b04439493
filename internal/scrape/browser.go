package scrape

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// Browser is one isolated portal session. Every invocation of the scraper
// owns exactly one Browser; sessions are never reused across requests.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	SendKeys(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	PageHTML(ctx context.Context) (string, error)
	Close() error
}

// BrowserFactory acquires a fresh session. Factories are injected so tests
// can substitute a fake session and so the launcher's lifecycle stays
// controllable.
type BrowserFactory func(ctx context.Context) (Browser, error)

// chromeSession drives a headless Chrome tab through chromedp.
type chromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewChromeFactory returns a factory that launches one headless Chrome
// instance per session.
func NewChromeFactory(headless bool) BrowserFactory {
	return func(ctx context.Context) (Browser, error) {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.NoSandbox,
		)

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
		tabCtx, cancelTab := chromedp.NewContext(allocCtx)

		// Force the browser process to actually start; a missing Chrome
		// binary should fail Launch, not the first navigation.
		if err := chromedp.Run(tabCtx); err != nil {
			cancelTab()
			cancelAlloc()
			return nil, err
		}

		return &chromeSession{
			ctx:         tabCtx,
			cancelTab:   cancelTab,
			cancelAlloc: cancelAlloc,
		}, nil
	}
}

func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := mergeDeadline(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) WaitVisible(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *chromeSession) SendKeys(ctx context.Context, selector, value string) error {
	return s.run(ctx, chromedp.SendKeys(selector, value, chromedp.ByQuery))
}

func (s *chromeSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (s *chromeSession) PageHTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *chromeSession) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}

// mergeDeadline applies the caller context's deadline and cancellation to
// the chromedp tab context.
func mergeDeadline(tabCtx, callerCtx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := callerCtx.Deadline(); ok {
		return context.WithDeadline(tabCtx, deadline)
	}
	return context.WithCancel(tabCtx)
}

// withTimeout bounds one scraper step.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}
