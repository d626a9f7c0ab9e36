package linkedin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	// url -> rendered markup
	html    map[string]string
	current string
	// selector -> url the page transitions to when clicked
	clickTo map[string]string
	visible map[string]bool
	navErr  map[string]error
	fills   map[string]string
	cookies map[string]string
	closed  bool
	// HTML fails with htmlErr once htmlOKReads successful reads are spent
	htmlErr     error
	htmlOKReads int
	htmlReads   int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		html:    map[string]string{},
		clickTo: map[string]string{},
		visible: map[string]bool{},
		navErr:  map[string]error{},
		fills:   map[string]string{},
	}
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	if err := s.navErr[url]; err != nil {
		return err
	}
	s.current = url
	return nil
}

func (s *fakeSession) Location(ctx context.Context) (string, error) {
	return s.current, nil
}

func (s *fakeSession) HTML(ctx context.Context) (string, error) {
	s.htmlReads++
	if s.htmlErr != nil && s.htmlReads > s.htmlOKReads {
		return "", s.htmlErr
	}
	return s.html[s.current], nil
}

func (s *fakeSession) ScrollTo(ctx context.Context, y int) error {
	return nil
}

func (s *fakeSession) Click(ctx context.Context, selector string) error {
	if to, ok := s.clickTo[selector]; ok {
		s.current = to
	}
	return nil
}

func (s *fakeSession) Fill(ctx context.Context, selector, value string) error {
	s.fills[selector] = value
	return nil
}

func (s *fakeSession) Visible(ctx context.Context, selector string) (bool, error) {
	return s.visible[selector], nil
}

func (s *fakeSession) SetCookies(ctx context.Context, cookies map[string]string) error {
	s.cookies = cookies
	return nil
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

type fakeSink struct {
	batches [][]Profile
	err     error
}

func (s *fakeSink) Reconcile(ctx context.Context, records []Profile) (SinkResult, error) {
	if s.err != nil {
		return SinkResult{}, s.err
	}
	s.batches = append(s.batches, records)
	return SinkResult{Succeeded: len(records)}, nil
}

func resultsPage(name, slug string, withNext bool) string {
	next := ""
	if withNext {
		next = `<button data-testid="pagination-controls-next-button-visible" type="button">Suivant</button>`
	}
	return fmt.Sprintf(`<html><body>
		<div class="search-results-container"><h2>Environ 14 résultats</h2>
		<ul><li class="reusable-search__result-container">
			<img src="https://media.licdn.com/%s.jpg">
			<a href="https://www.linkedin.com/in/%s"><span aria-hidden="true">%s</span></a>
			<div>Développeur chez Acme SAS</div>
		</li></ul></div>
		%s
	</body></html>`, slug, slug, name, next)
}

func fastOptions() NavigatorOptions {
	return NavigatorOptions{
		Credentials:     Credentials{Email: "scan@example.org", Password: "secret"},
		Institution:     "ESGI",
		MaxUnits:        5,
		UnitDelay:       time.Millisecond,
		UnitDelayJitter: time.Millisecond,
		ScrollPause:     time.Millisecond,
		AdvanceAttempts: 2,
		AdvanceInterval: time.Millisecond,
		NavigateTimeout: time.Second,
		LoginTimeout:    4 * time.Second,
	}
}

func loginSession() *fakeSession {
	sess := newFakeSession()
	sess.html[urlLogin] = "<html><body><form></form></body></html>"
	sess.html[urlFeed] = "<html><body></body></html>"
	sess.clickTo[selectorLoginSubmit] = urlFeed
	return sess
}

func TestLoginWithPassword(t *testing.T) {
	sess := loginSession()
	nav := NewNavigator(sess, &fakeSink{}, fastOptions())

	err := nav.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateReady, nav.State())
	require.Equal(t, "scan@example.org", sess.fills[selectorLoginUser])
	require.Equal(t, "secret", sess.fills[selectorLoginPass])
}

func TestLoginChallengeUnresolved(t *testing.T) {
	sess := loginSession()
	sess.clickTo[selectorLoginSubmit] = "https://www.linkedin.com/checkpoint/challenge/abc"

	opts := fastOptions()
	opts.LoginTimeout = time.Millisecond
	var challengeURL string
	opts.OnChallenge = func(url string) { challengeURL = url }

	nav := NewNavigator(sess, &fakeSink{}, opts)
	err := nav.Login(context.Background())
	require.ErrorIs(t, err, ErrChallengeUnresolved)
	require.Contains(t, challengeURL, "/checkpoint/")
	require.Equal(t, StateAborted, nav.State())
}

func TestScanSearchPaginates(t *testing.T) {
	const searchURL = "https://www.linkedin.com/search/results/people/?keywords=ESGI"
	const page2URL = searchURL + "&page=2"

	sess := loginSession()
	sess.html[searchURL] = resultsPage("Jean Dupont", "jean-dupont", true)
	sess.html[page2URL] = resultsPage("Léa Martin", "lea-martin", false)
	sess.clickTo[selectorNextVisible] = page2URL

	sink := &fakeSink{}
	nav := NewNavigator(sess, sink, fastOptions())
	require.NoError(t, nav.Login(context.Background()))

	summary, err := nav.ScanSearch(context.Background(), searchURL)
	require.NoError(t, err)
	require.Equal(t, StateDone, nav.State())
	require.Equal(t, 2, summary.UnitsCompleted)
	require.Equal(t, 2, summary.ProfilesFound)
	require.Equal(t, 2, summary.Stored)
	require.Equal(t, 0, summary.Failed)

	require.Len(t, sink.batches, 2)
	require.Equal(t, "Jean Dupont", sink.batches[0][0].FullName)
	require.Equal(t, "Léa Martin", sink.batches[1][0].FullName)
}

func TestScanSearchStalledAdvanceStops(t *testing.T) {
	const searchURL = "https://www.linkedin.com/search/results/people/?keywords=ESGI"

	sess := loginSession()
	// the next button exists but clicking it never changes the results
	sess.html[searchURL] = resultsPage("Jean Dupont", "jean-dupont", true)

	sink := &fakeSink{}
	nav := NewNavigator(sess, sink, fastOptions())
	require.NoError(t, nav.Login(context.Background()))

	summary, err := nav.ScanSearch(context.Background(), searchURL)
	require.NoError(t, err)
	require.Equal(t, StateDone, nav.State())
	require.Equal(t, 1, summary.UnitsCompleted)
	require.Len(t, sink.batches, 1)
}

func TestScanSearchLostPageAborts(t *testing.T) {
	const searchURL = "https://www.linkedin.com/search/results/people/?keywords=ESGI"
	const page2URL = searchURL + "&page=2"

	sess := loginSession()
	sess.html[searchURL] = resultsPage("Jean Dupont", "jean-dupont", true)
	sess.html[page2URL] = resultsPage("Léa Martin", "lea-martin", false)
	sess.clickTo[selectorNextVisible] = page2URL
	// page 1 and the advance poll read fine, then the tab crashes
	sess.htmlErr = errors.New("target closed")
	sess.htmlOKReads = 2

	sink := &fakeSink{}
	nav := NewNavigator(sess, sink, fastOptions())
	require.NoError(t, nav.Login(context.Background()))

	summary, err := nav.ScanSearch(context.Background(), searchURL)
	require.ErrorContains(t, err, "target closed")
	require.Equal(t, StateAborted, nav.State())

	// the completed unit is still reported, its batch already flushed
	require.Equal(t, 1, summary.UnitsCompleted)
	require.Equal(t, 1, summary.ProfilesFound)
	require.Equal(t, 1, summary.Stored)
	require.Len(t, sink.batches, 1)
	require.Equal(t, "Jean Dupont", sink.batches[0][0].FullName)
}

func TestScanSearchSinkOutage(t *testing.T) {
	const searchURL = "https://www.linkedin.com/search/results/people/?keywords=ESGI"

	sess := loginSession()
	sess.html[searchURL] = resultsPage("Jean Dupont", "jean-dupont", false)

	sink := &fakeSink{err: errors.New("import endpoint unreachable")}
	nav := NewNavigator(sess, sink, fastOptions())
	require.NoError(t, nav.Login(context.Background()))

	// a sink outage loses the batch but must not end the scan
	summary, err := nav.ScanSearch(context.Background(), searchURL)
	require.NoError(t, err)
	require.Equal(t, 1, summary.ProfilesFound)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 0, summary.Stored)
}

func TestScanSearchCancelled(t *testing.T) {
	const searchURL = "https://www.linkedin.com/search/results/people/?keywords=ESGI"

	sess := loginSession()
	sess.html[searchURL] = resultsPage("Jean Dupont", "jean-dupont", true)

	sink := &fakeSink{}
	nav := NewNavigator(sess, sink, fastOptions())
	require.NoError(t, nav.Login(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := nav.ScanSearch(ctx, searchURL)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, summary.UnitsCompleted)
	require.Empty(t, sink.batches)
}

func TestEnrichProfiles(t *testing.T) {
	const goodURL = "https://www.linkedin.com/in/jean-dupont/"
	const brokenURL = "https://www.linkedin.com/in/lea-martin/"

	sess := loginSession()
	sess.html[goodURL] = `<html><body>
		<div class="text-body-medium break-words">Consultant indépendant</div>
	</body></html>`
	sess.navErr[brokenURL] = errors.New("net::ERR_TIMED_OUT")

	sink := &fakeSink{}
	nav := NewNavigator(sess, sink, fastOptions())
	require.NoError(t, nav.Login(context.Background()))

	summary, err := nav.EnrichProfiles(context.Background(), []string{goodURL, brokenURL})
	require.NoError(t, err)
	require.Equal(t, StateDone, nav.State())
	require.Equal(t, 2, summary.UnitsCompleted)
	require.Equal(t, 1, summary.ProfilesFound)
	require.Equal(t, 1, summary.Stored)

	require.Len(t, sink.batches, 1)
	got := sink.batches[0][0]
	require.Equal(t, goodURL, got.ProfileURL)
	require.Equal(t, "Consultant indépendant", got.CurrentJobTitle)
	// visited but no qualifying program on the page
	require.Equal(t, DegreeNotFound, got.DegreeText)
}

func TestScanSearchRequiresLogin(t *testing.T) {
	nav := NewNavigator(newFakeSession(), &fakeSink{}, fastOptions())
	_, err := nav.ScanSearch(context.Background(), "https://www.linkedin.com/search/")
	require.ErrorIs(t, err, ErrNotReady)
}
