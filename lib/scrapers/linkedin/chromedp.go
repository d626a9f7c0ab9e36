package linkedin

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const cookieDomain = ".linkedin.com"

type ChromeOptions struct {
	Headless bool `json:"headless"`
	// path to the chrome binary, empty for auto-detection
	ExecPath  string `json:"exec_path"`
	UserAgent string `json:"user_agent"`
}

// ChromeSession drives a real chrome instance through the devtools
// protocol. it owns the allocator and browser contexts and tears both
// down in Close.
type ChromeSession struct {
	ctx     context.Context
	cancels []context.CancelFunc
}

var _ Session = (*ChromeSession)(nil)

func NewChromeSession(ctx context.Context, opts ChromeOptions) (*ChromeSession, error) {
	ua := opts.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(ua),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &ChromeSession{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{browserCancel, allocCancel},
	}
	// force the browser process to start now so failures surface here
	// instead of on the first navigation
	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return s, nil
}

// chromedp actions must run on the session's own context chain, so the
// caller's deadline and cancellation are grafted onto it per call.
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		var dcancel context.CancelFunc
		runCtx, dcancel = context.WithDeadline(runCtx, deadline)
		defer dcancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *ChromeSession) Location(ctx context.Context) (string, error) {
	var url string
	err := s.run(ctx, chromedp.Location(&url))
	return url, err
}

func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *ChromeSession) ScrollTo(ctx context.Context, y int) error {
	return s.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollTo(0, %d)", y), nil))
}

func (s *ChromeSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (s *ChromeSession) Fill(ctx context.Context, selector, value string) error {
	return s.run(ctx, chromedp.SetValue(selector, value, chromedp.ByQuery))
}

func (s *ChromeSession) Visible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return el !== null && el.offsetParent !== null; })()`,
		selector,
	), &visible))
	return visible, err
}

func (s *ChromeSession) SetCookies(ctx context.Context, cookies map[string]string) error {
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for name, value := range cookies {
			err := network.SetCookie(name, value).
				WithDomain(cookieDomain).
				WithPath("/").
				WithSecure(true).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("set cookie %s: %w", name, err)
			}
		}
		return nil
	}))
}

func (s *ChromeSession) Close(ctx context.Context) error {
	for _, cancel := range s.cancels {
		cancel()
	}
	return nil
}
