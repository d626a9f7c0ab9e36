package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"alumnisync-backend/lib/notify"
	"alumnisync-backend/lib/scrapers/linkedin"
	"alumnisync-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type stubSession struct {
	html    map[string]string
	current string
	clickTo map[string]string
	// urls whose Navigate blocks until the context is cancelled
	blocked map[string]bool
	navErr  map[string]error
	closed  bool
}

func (s *stubSession) Navigate(ctx context.Context, url string) error {
	if s.blocked[url] {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := s.navErr[url]; err != nil {
		return err
	}
	s.current = url
	return nil
}

func (s *stubSession) Location(ctx context.Context) (string, error) { return s.current, nil }
func (s *stubSession) HTML(ctx context.Context) (string, error)     { return s.html[s.current], nil }
func (s *stubSession) ScrollTo(ctx context.Context, y int) error    { return nil }

func (s *stubSession) Click(ctx context.Context, selector string) error {
	if to, ok := s.clickTo[selector]; ok {
		s.current = to
	}
	return nil
}

func (s *stubSession) Fill(ctx context.Context, selector, value string) error { return nil }
func (s *stubSession) Visible(ctx context.Context, selector string) (bool, error) {
	return false, nil
}
func (s *stubSession) SetCookies(ctx context.Context, cookies map[string]string) error { return nil }

func (s *stubSession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

type stubSink struct {
	records []linkedin.Profile
}

func (s *stubSink) Reconcile(ctx context.Context, records []linkedin.Profile) (linkedin.SinkResult, error) {
	s.records = append(s.records, records...)
	return linkedin.SinkResult{Succeeded: len(records)}, nil
}

const loginURL = "https://www.linkedin.com/login"
const feedURL = "https://www.linkedin.com/feed/"
const searchURL = "https://www.linkedin.com/search/results/people/?keywords=ESGI"

func newStubSession() *stubSession {
	return &stubSession{
		html: map[string]string{
			loginURL: "<html><body><form></form></body></html>",
			feedURL:  "<html><body></body></html>",
			searchURL: `<html><body>
				<div class="search-results-container"><h2>1 résultat</h2>
				<ul><li class="reusable-search__result-container">
					<img src="https://media.licdn.com/jean.jpg">
					<a href="https://www.linkedin.com/in/jean-dupont"><span aria-hidden="true">Jean Dupont</span></a>
					<div>Développeur chez Acme SAS</div>
				</li></ul></div>
			</body></html>`,
		},
		clickTo: map[string]string{`button[type="submit"]`: feedURL},
		blocked: map[string]bool{},
		navErr:  map[string]error{},
	}
}

func newTestService(session linkedin.Session) (*Service, *stubSink) {
	sink := &stubSink{}
	service := NewService(
		func(ctx context.Context) (linkedin.Session, error) { return session, nil },
		sink,
		notify.Notifier{},
		Config{
			Credentials: linkedin.Credentials{Email: "scan@example.org", Password: "secret"},
			Institution: "ESGI",
			MaxUnits:    1,
		},
	)
	return service, sink
}

func TestStartSearchJob(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "scan")
	defer cleanup()

	service, sink := newTestService(newStubSession())

	status, err := service.Start(context.Background(), StartRequest{
		Mode:      ModeSearch,
		SearchURL: searchURL,
	})
	require.NoError(t, err)
	require.True(t, status.Active)
	require.NotEmpty(t, status.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	final, err := service.Wait(ctx)
	require.NoError(t, err)

	require.False(t, final.Active)
	require.Empty(t, final.Error)
	require.Equal(t, "done", final.State)
	require.NotNil(t, final.Summary)
	require.Equal(t, 1, final.Summary.UnitsCompleted)
	require.Equal(t, 1, final.Summary.Stored)
	require.Len(t, sink.records, 1)
	require.Equal(t, "Jean Dupont", sink.records[0].FullName)
}

func TestFailedJobClosesSession(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "scan")
	defer cleanup()

	session := newStubSession()
	session.navErr[loginURL] = errors.New("net::ERR_CONNECTION_REFUSED")
	service, sink := newTestService(session)

	_, err := service.Start(context.Background(), StartRequest{
		Mode:      ModeSearch,
		SearchURL: searchURL,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	final, err := service.Wait(ctx)
	require.NoError(t, err)

	require.False(t, final.Active)
	require.Contains(t, final.Error, "ERR_CONNECTION_REFUSED")
	require.True(t, session.closed)
	require.Empty(t, sink.records)

	// the failed job releases the single scan slot
	session.navErr = map[string]error{}
	_, err = service.Start(context.Background(), StartRequest{
		Mode:      ModeSearch,
		SearchURL: searchURL,
	})
	require.NoError(t, err)
	_, err = service.Wait(ctx)
	require.NoError(t, err)
}

func TestStartRejectsConcurrentScan(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "scan")
	defer cleanup()

	session := newStubSession()
	// the job parks on the search page until stopped
	session.blocked[searchURL] = true
	service, _ := newTestService(session)

	_, err := service.Start(context.Background(), StartRequest{
		Mode:      ModeSearch,
		SearchURL: searchURL,
	})
	require.NoError(t, err)

	_, err = service.Start(context.Background(), StartRequest{
		Mode:      ModeSearch,
		SearchURL: searchURL,
	})
	require.ErrorIs(t, err, ErrScanActive)

	require.True(t, service.Stop())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err = service.Wait(ctx)
	require.NoError(t, err)

	// a finished job no longer blocks a new one
	session.blocked[searchURL] = false
	_, err = service.Start(context.Background(), StartRequest{
		Mode:      ModeSearch,
		SearchURL: searchURL,
	})
	require.NoError(t, err)
	_, err = service.Wait(ctx)
	require.NoError(t, err)
}

func TestStartValidatesRequest(t *testing.T) {
	service, _ := newTestService(newStubSession())

	_, err := service.Start(context.Background(), StartRequest{Mode: ModeSearch})
	require.Error(t, err)
	_, err = service.Start(context.Background(), StartRequest{Mode: ModeEnrich})
	require.Error(t, err)
	_, err = service.Start(context.Background(), StartRequest{Mode: "turbo"})
	require.Error(t, err)
}

func TestStopWithoutJob(t *testing.T) {
	service, _ := newTestService(newStubSession())
	require.False(t, service.Stop())
	require.Equal(t, JobStatus{}, service.Status())
}
