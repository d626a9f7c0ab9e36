package linkedin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/codeGROOVE-dev/retry"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/linkedin")

type State int32

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateReady
	StateNavigating
	StateExtracting
	StateAdvancing
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateNavigating:
		return "navigating"
	case StateExtracting:
		return "extracting"
	case StateAdvancing:
		return "advancing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

var (
	// the session reached the verification checkpoint and nobody
	// resolved it within the login window. the scan is over but
	// anything already reconciled stays put.
	ErrChallengeUnresolved = errors.New("linkedin verification challenge was not resolved in time")
	ErrLoginTimeout        = errors.New("login did not complete in time")
	ErrNotReady            = errors.New("navigator is not authenticated")

	errChallengePending = errors.New("verification challenge pending")
	errNotLoggedIn      = errors.New("not logged in yet")
	errResultsStale     = errors.New("results did not change after advancing")
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type NavigatorOptions struct {
	Credentials Credentials
	// when true, try to reuse a session from the local browser's
	// cookie store before falling back to password login
	UseBrowserCookies bool
	// institution whose education entries count, also used for the
	// default card degree line
	Institution string
	// upper bound on pages (search mode) or profiles (enrich mode)
	MaxUnits int
	// pause between units, plus up to UnitDelayJitter of random extra
	UnitDelay       time.Duration
	UnitDelayJitter time.Duration
	// staged scroll before each card extraction, to trigger lazy
	// loading. a speed/completeness trade-off, tune per network.
	ScrollSteps  int
	ScrollStride int
	ScrollPause  time.Duration
	// how long and how often to poll for new results after clicking
	// the next-page control
	AdvanceAttempts int
	AdvanceInterval time.Duration
	// per-page load budget. generous on purpose, profile pages on a
	// slow connection take far longer than an interactive page should.
	NavigateTimeout time.Duration
	// login may require a human to resolve a verification challenge,
	// so this is minutes, not seconds
	LoginTimeout    time.Duration
	DefaultGradYear int
	// called once if login lands on a verification challenge
	OnChallenge func(url string)
	// called after every completed unit
	OnProgress func(completed, estimatedTotal int)
}

func (o *NavigatorOptions) applyDefaults() {
	if o.MaxUnits <= 0 {
		o.MaxUnits = 10
	}
	if o.UnitDelay <= 0 {
		o.UnitDelay = 2 * time.Second
	}
	if o.UnitDelayJitter <= 0 {
		o.UnitDelayJitter = time.Second
	}
	if o.ScrollSteps <= 0 {
		o.ScrollSteps = 3
	}
	if o.ScrollStride <= 0 {
		o.ScrollStride = 1200
	}
	if o.ScrollPause <= 0 {
		o.ScrollPause = time.Second
	}
	if o.AdvanceAttempts <= 0 {
		o.AdvanceAttempts = 15
	}
	if o.AdvanceInterval <= 0 {
		o.AdvanceInterval = time.Second
	}
	if o.NavigateTimeout <= 0 {
		o.NavigateTimeout = 60 * time.Second
	}
	if o.LoginTimeout <= 0 {
		o.LoginTimeout = 5 * time.Minute
	}
}

// what a finished (or interrupted) scan managed to do. always
// populated, even when the scan aborts partway: completed work is
// never silently dropped.
type Summary struct {
	UnitsCompleted int
	ProfilesFound  int
	Stored         int
	Failed         int
}

// Navigator drives one browser session through a scan as a single
// sequential control flow. it is not reusable across scans, build a
// new one per run.
type Navigator struct {
	session Session
	sink    Sink
	opts    NavigatorOptions
	state   atomic.Int32
}

func NewNavigator(session Session, sink Sink, opts NavigatorOptions) *Navigator {
	opts.applyDefaults()
	return &Navigator{
		session: session,
		sink:    sink,
		opts:    opts,
	}
}

func (n *Navigator) State() State {
	return State(n.state.Load())
}

func (n *Navigator) setState(s State) {
	n.state.Store(int32(s))
}

func isChallengeURL(url string) bool {
	for _, p := range challengePathPatterns {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}

func isAuthenticatedURL(url string) bool {
	return strings.Contains(url, "linkedin.com/feed")
}

// Login authenticates the session, preferring an existing browser
// session over password submission. a verification challenge keeps the
// login window open and surfaces an operator notification instead of
// failing, since only a human can resolve it.
func (n *Navigator) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	n.setState(StateAuthenticating)

	if n.opts.UseBrowserCookies {
		if cookies := BrowserCookies(ctx); cookies != nil {
			if err := n.tryCookieLogin(ctx, cookies); err == nil {
				span.AddEvent("reused browser session")
				n.setState(StateReady)
				return nil
			}
			slog.InfoContext(ctx, "browser session unusable, falling back to password login")
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, n.opts.NavigateTimeout)
	err := n.session.Navigate(navCtx, urlLogin)
	cancel()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load login page")
		n.setState(StateAborted)
		return err
	}
	if err := n.session.Fill(ctx, selectorLoginUser, n.opts.Credentials.Email); err != nil {
		n.setState(StateAborted)
		return err
	}
	if err := n.session.Fill(ctx, selectorLoginPass, n.opts.Credentials.Password); err != nil {
		n.setState(StateAborted)
		return err
	}
	if err := n.session.Click(ctx, selectorLoginSubmit); err != nil {
		n.setState(StateAborted)
		return err
	}

	const pollInterval = 2 * time.Second
	attempts := uint(n.opts.LoginTimeout / pollInterval)
	if attempts == 0 {
		attempts = 1
	}
	challengeSeen := false

	err = retry.Do(
		func() error {
			loc, err := n.session.Location(ctx)
			if err != nil {
				return err
			}
			if isChallengeURL(loc) {
				if !challengeSeen {
					challengeSeen = true
					slog.WarnContext(ctx, "verification challenge, waiting for manual resolution", "url", loc)
					span.AddEvent("verification challenge")
					span.SetAttributes(attribute.String("challenge.url", loc))
					if n.opts.OnChallenge != nil {
						n.opts.OnChallenge(loc)
					}
				}
				return errChallengePending
			}
			if isAuthenticatedURL(loc) {
				return nil
			}
			if visible, err := n.session.Visible(ctx, selectorSearchInput); err == nil && visible {
				return nil
			}
			return errNotLoggedIn
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if errors.Is(err, errChallengePending) {
		n.setState(StateAborted)
		return ErrChallengeUnresolved
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		n.setState(StateAborted)
		return fmt.Errorf("%w: %v", ErrLoginTimeout, err)
	}

	n.setState(StateReady)
	return nil
}

func (n *Navigator) tryCookieLogin(ctx context.Context, cookies map[string]string) error {
	if err := n.session.SetCookies(ctx, cookies); err != nil {
		return err
	}
	navCtx, cancel := context.WithTimeout(ctx, n.opts.NavigateTimeout)
	defer cancel()
	if err := n.session.Navigate(navCtx, urlFeed); err != nil {
		return err
	}
	visible, err := n.session.Visible(ctx, selectorSearchInput)
	if err != nil {
		return err
	}
	if !visible {
		return errNotLoggedIn
	}
	return nil
}

// ScanSearch walks a paginated people-results listing, reconciling
// every page's cards as one batch. the loop ends at MaxUnits, when the
// next-page control disappears, or when clicking it stops producing
// new results.
func (n *Navigator) ScanSearch(ctx context.Context, searchURL string) (Summary, error) {
	ctx, span := tracer.Start(ctx, "ScanSearch")
	defer span.End()

	var summary Summary
	if n.State() != StateReady {
		return summary, ErrNotReady
	}

	n.setState(StateNavigating)
	navCtx, cancel := context.WithTimeout(ctx, n.opts.NavigateTimeout)
	err := n.session.Navigate(navCtx, searchURL)
	cancel()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load search results")
		n.setState(StateAborted)
		return summary, err
	}

	cardOpts := CardOptions{
		DefaultDegree:   "Alumni " + n.opts.Institution,
		DefaultGradYear: n.opts.DefaultGradYear,
	}

	totalPages := n.opts.MaxUnits
	lastFirstURL := ""

	for page := 1; ; page++ {
		// cancellation is honored between units, never mid-unit
		if ctx.Err() != nil {
			n.setState(StateDone)
			return summary, ctx.Err()
		}

		n.setState(StateExtracting)
		n.stagedScroll(ctx)

		doc, err := snapshot(ctx, n.session)
		if err != nil {
			// losing the DOM snapshot means the page crashed, there is
			// no unit to skip to. report what was completed.
			span.RecordError(err)
			span.SetStatus(codes.Error, "lost page state")
			n.setState(StateAborted)
			return summary, err
		}

		if page == 1 {
			totalPages = EstimateTotalPages(doc, n.opts.MaxUnits)
			n.progress(0, totalPages)
		}

		// the raw first anchor identifies the page for both the
		// duplicate-page guard and the advance poll, qualifying-card
		// filtering must not affect either
		firstURL := firstProfileURL(doc)
		var profiles []Profile
		if firstURL != "" && firstURL != lastFirstURL {
			lastFirstURL = firstURL
			profiles = ExtractCards(doc, cardOpts)
			if len(profiles) > 0 {
				n.reconcile(ctx, profiles, &summary)
			}
		}

		summary.UnitsCompleted = page
		n.progress(page, totalPages)
		slog.InfoContext(ctx, "scanned results page",
			"page", page, "of", totalPages, "profiles", len(profiles))

		if page >= n.opts.MaxUnits {
			break
		}
		n.setState(StateAdvancing)
		if !n.advance(ctx, doc, lastFirstURL) {
			break
		}
		n.unitPause(ctx)
	}

	n.setState(StateDone)
	span.SetAttributes(
		attribute.Int("pages", summary.UnitsCompleted),
		attribute.Int("profiles", summary.ProfilesFound),
	)
	return summary, nil
}

// EnrichProfiles visits each profile page and reconciles whatever it
// exposes. one unresponsive profile is logged and skipped, it must not
// end the run.
func (n *Navigator) EnrichProfiles(ctx context.Context, urls []string) (Summary, error) {
	ctx, span := tracer.Start(ctx, "EnrichProfiles")
	defer span.End()

	var summary Summary
	if n.State() != StateReady {
		return summary, ErrNotReady
	}

	if n.opts.MaxUnits < len(urls) {
		urls = urls[:n.opts.MaxUnits]
	}
	detailOpts := DetailOptions{Institution: n.opts.Institution}
	n.progress(0, len(urls))

	for i, url := range urls {
		if ctx.Err() != nil {
			n.setState(StateDone)
			return summary, ctx.Err()
		}

		n.setState(StateNavigating)
		navCtx, cancel := context.WithTimeout(ctx, n.opts.NavigateTimeout)
		err := n.session.Navigate(navCtx, url)
		cancel()
		if err != nil {
			slog.WarnContext(ctx, "profile did not load, skipping", "url", url, "err", err)
			summary.UnitsCompleted = i + 1
			n.progress(i+1, len(urls))
			continue
		}

		n.setState(StateExtracting)
		// scroll far down then back up so the experience and education
		// sections render
		n.scrollAndPause(ctx, 2000)
		n.scrollAndPause(ctx, 500)

		doc, err := snapshot(ctx, n.session)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "lost page state")
			n.setState(StateAborted)
			return summary, err
		}

		detail := ExtractDetail(doc, detailOpts)
		profile := Profile{
			ProfileURL:      NormalizeProfileURL(url),
			AvatarURL:       detail.AvatarURL,
			CurrentJobTitle: detail.CurrentJobTitle,
			CurrentCompany:  detail.CurrentCompany,
			CompanyLogoURL:  detail.CompanyLogoURL,
			DegreeText:      DedupeDegrees(detail.Degrees),
			EntryYear:       detail.EntryYear,
			GradYear:        detail.GradYear,
		}
		n.reconcile(ctx, []Profile{profile}, &summary)

		summary.UnitsCompleted = i + 1
		n.progress(i+1, len(urls))
		slog.InfoContext(ctx, "enriched profile",
			"url", profile.ProfileURL,
			"job", profile.CurrentJobTitle,
			"company", profile.CurrentCompany)

		n.unitPause(ctx)
	}

	n.setState(StateDone)
	return summary, nil
}

func (n *Navigator) reconcile(ctx context.Context, profiles []Profile, summary *Summary) {
	summary.ProfilesFound += len(profiles)
	res, err := n.sink.Reconcile(ctx, profiles)
	if err != nil {
		// the whole batch was lost, count it and move on: a sink
		// outage must not end the scan
		slog.ErrorContext(ctx, "sink rejected batch", "records", len(profiles), "err", err)
		summary.Failed += len(profiles)
		return
	}
	summary.Stored += res.Succeeded
	summary.Failed += res.Failed
}

// click next, then poll until the first result's identity differs from
// the previous page. a client-rendered listing lags the click by an
// unpredictable interval, so the click alone proves nothing, and
// extracting too early would re-read the stale page.
func (n *Navigator) advance(ctx context.Context, doc *goquery.Document, prevFirst string) bool {
	selector := nextControl(doc)
	if selector == "" {
		return false
	}
	if err := n.session.Click(ctx, selector); err != nil {
		slog.WarnContext(ctx, "failed to click next page", "err", err)
		return false
	}

	err := retry.Do(
		func() error {
			doc, err := snapshot(ctx, n.session)
			if err != nil {
				return err
			}
			first := firstProfileURL(doc)
			if first != "" && first != prevFirst {
				return nil
			}
			return errResultsStale
		},
		retry.Context(ctx),
		retry.Attempts(uint(n.opts.AdvanceAttempts)),
		retry.Delay(n.opts.AdvanceInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		slog.InfoContext(ctx, "results stopped changing, ending scan", "err", err)
		return false
	}
	return true
}

func nextControl(doc *goquery.Document) string {
	for _, sel := range []string{selectorNextVisible, selectorNextAria} {
		button := doc.Find(sel).First()
		if button.Length() == 0 {
			continue
		}
		if _, disabled := button.Attr("disabled"); disabled {
			return ""
		}
		return sel
	}
	return ""
}

func firstProfileURL(doc *goquery.Document) string {
	first := ""
	doc.Find(selectorProfileAnchor).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		url := NormalizeProfileURL(link.AttrOr("href", ""))
		if isNonProfilePath(url) {
			return true
		}
		first = url
		return false
	})
	return first
}

func (n *Navigator) stagedScroll(ctx context.Context) {
	for i := 1; i <= n.opts.ScrollSteps; i++ {
		n.scrollAndPause(ctx, i*n.opts.ScrollStride)
	}
}

func (n *Navigator) scrollAndPause(ctx context.Context, y int) {
	if err := n.session.ScrollTo(ctx, y); err != nil {
		slog.DebugContext(ctx, "scroll failed", "y", y, "err", err)
		return
	}
	sleep(ctx, n.opts.ScrollPause)
}

func (n *Navigator) unitPause(ctx context.Context) {
	delay := n.opts.UnitDelay
	jitterMs := int(n.opts.UnitDelayJitter / time.Millisecond)
	if jitterMs > 0 {
		if extra, err := random.IntRange(0, jitterMs); err == nil {
			delay += time.Duration(extra) * time.Millisecond
		}
	}
	sleep(ctx, delay)
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (n *Navigator) progress(completed, total int) {
	if n.opts.OnProgress != nil {
		n.opts.OnProgress(completed, total)
	}
}
