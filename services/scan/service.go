package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"alumnisync-backend/lib/notify"
	"alumnisync-backend/lib/scrapers/linkedin"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/scan")

type Mode string

const (
	// walk a paginated people-results listing
	ModeSearch Mode = "search"
	// visit stored profiles one by one for missing detail
	ModeEnrich Mode = "enrich"
)

// SessionFactory opens a fresh browser session for one job. injected
// so tests can run jobs against an in-memory session.
type SessionFactory func(ctx context.Context) (linkedin.Session, error)

func ChromeFactory(opts linkedin.ChromeOptions) SessionFactory {
	return func(ctx context.Context) (linkedin.Session, error) {
		return linkedin.NewChromeSession(ctx, opts)
	}
}

type Config struct {
	Credentials       linkedin.Credentials
	UseBrowserCookies bool
	Institution       string
	MaxUnits          int
	PerUnitDelay      time.Duration
	SecondsPerUnit    int
	DefaultGradYear   int
}

// Service owns at most one scan job at a time. one browser account
// driving two sessions at once looks exactly like abuse, so a second
// start is refused rather than queued.
type Service struct {
	factory  SessionFactory
	sink     linkedin.Sink
	notifier notify.Notifier
	config   Config

	mu  sync.Mutex
	job *job
}

func NewService(factory SessionFactory, sink linkedin.Sink, notifier notify.Notifier, config Config) *Service {
	return &Service{
		factory:  factory,
		sink:     sink,
		notifier: notifier,
		config:   config,
	}
}

type job struct {
	id     uuid.UUID
	mode   Mode
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	nav      *linkedin.Navigator
	progress Progress
	summary  *linkedin.Summary
	err      error
}

func (j *job) finished() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

func (j *job) setProgress(p Progress) {
	j.mu.Lock()
	j.progress = p
	j.mu.Unlock()
}

type StartRequest struct {
	Mode Mode `json:"mode"`
	// search mode: the results page to start from
	SearchURL string `json:"searchUrl,omitempty"`
	// enrich mode: the profiles to visit
	ProfileURLs []string `json:"profileUrls,omitempty"`
	// overrides the configured default when > 0
	MaxUnits int `json:"maxUnits,omitempty"`
}

type JobStatus struct {
	Active   bool              `json:"active"`
	ID       string            `json:"id,omitempty"`
	Mode     Mode              `json:"mode,omitempty"`
	State    string            `json:"state,omitempty"`
	Progress Progress          `json:"progress"`
	Summary  *linkedin.Summary `json:"summary,omitempty"`
	Error    string            `json:"error,omitempty"`
}

var ErrScanActive = errors.New("a scan is already running")

func (s *Service) Start(ctx context.Context, req StartRequest) (JobStatus, error) {
	switch req.Mode {
	case ModeSearch:
		if req.SearchURL == "" {
			return JobStatus{}, errors.New("search mode needs a search url")
		}
	case ModeEnrich:
		if len(req.ProfileURLs) == 0 {
			return JobStatus{}, errors.New("enrich mode needs profile urls")
		}
	default:
		return JobStatus{}, fmt.Errorf("unknown scan mode %q", req.Mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job != nil && !s.job.finished() {
		return JobStatus{}, ErrScanActive
	}

	// the job outlives the start request
	jobCtx, cancel := context.WithCancel(context.Background())
	j := &job{
		id:     uuid.New(),
		mode:   req.Mode,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.job = j
	go s.run(jobCtx, j, req)

	return s.statusOf(j), nil
}

func (s *Service) run(ctx context.Context, j *job, req StartRequest) {
	ctx, span := tracer.Start(ctx, "run")
	defer span.End()
	defer close(j.done)

	span.SetAttributes(
		attribute.String("job.id", j.id.String()),
		attribute.String("job.mode", string(j.mode)),
	)

	session, err := s.factory(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open browser session")
		s.fail(ctx, j, fmt.Errorf("open browser session: %w", err))
		return
	}
	defer session.Close(context.Background())

	maxUnits := s.config.MaxUnits
	if req.MaxUnits > 0 {
		maxUnits = req.MaxUnits
	}
	tracker := Tracker{SecondsPerUnit: s.config.SecondsPerUnit}

	nav := linkedin.NewNavigator(session, s.sink, linkedin.NavigatorOptions{
		Credentials:       s.config.Credentials,
		UseBrowserCookies: s.config.UseBrowserCookies,
		Institution:       s.config.Institution,
		MaxUnits:          maxUnits,
		UnitDelay:         s.config.PerUnitDelay,
		DefaultGradYear:   s.config.DefaultGradYear,
		OnProgress: func(completed, total int) {
			j.setProgress(tracker.Update(completed, total))
		},
		OnChallenge: func(url string) {
			s.notify(ctx, "Vérification LinkedIn requise",
				fmt.Sprintf("Le scan %s attend une vérification manuelle : %s", j.id, url))
		},
	})
	j.mu.Lock()
	j.nav = nav
	j.mu.Unlock()

	if err := nav.Login(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		s.fail(ctx, j, err)
		return
	}

	var summary linkedin.Summary
	switch j.mode {
	case ModeSearch:
		summary, err = nav.ScanSearch(ctx, req.SearchURL)
	case ModeEnrich:
		summary, err = nav.EnrichProfiles(ctx, req.ProfileURLs)
	}

	j.mu.Lock()
	j.summary = &summary
	if err != nil && !errors.Is(err, context.Canceled) {
		j.err = err
	}
	j.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "scan ended with error", "job", j.id, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
	} else {
		slog.InfoContext(ctx, "scan finished",
			"job", j.id,
			"units", summary.UnitsCompleted,
			"profiles", summary.ProfilesFound,
			"stored", summary.Stored,
			"failed", summary.Failed)
	}

	s.notify(ctx, fmt.Sprintf("Scan %s terminé", j.mode),
		fmt.Sprintf("Unités : %d\nProfils trouvés : %d\nEnregistrés : %d\nEn échec : %d",
			summary.UnitsCompleted, summary.ProfilesFound, summary.Stored, summary.Failed))
}

func (s *Service) fail(ctx context.Context, j *job, err error) {
	j.mu.Lock()
	j.err = err
	j.mu.Unlock()
	slog.ErrorContext(ctx, "scan failed to start", "job", j.id, "err", err)
}

func (s *Service) notify(ctx context.Context, subject, body string) {
	if !s.notifier.Enabled() {
		return
	}
	if err := s.notifier.Send(ctx, subject, body); err != nil {
		slog.WarnContext(ctx, "failed to send notification", "subject", subject, "err", err)
	}
}

// Stop requests cancellation of the running job, if any. the job winds
// down between units, Status reports when it actually finished.
func (s *Service) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil || s.job.finished() {
		return false
	}
	s.job.cancel()
	return true
}

func (s *Service) Status() JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return JobStatus{}
	}
	return s.statusOf(s.job)
}

func (s *Service) statusOf(j *job) JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := JobStatus{
		Active:   !j.finished(),
		ID:       j.id.String(),
		Mode:     j.mode,
		Progress: j.progress,
		Summary:  j.summary,
	}
	if j.nav != nil {
		out.State = j.nav.State().String()
	}
	if j.err != nil {
		out.Error = j.err.Error()
	}
	return out
}

// Wait blocks until the current job finishes. used by the CLI, the
// daemon never calls it.
func (s *Service) Wait(ctx context.Context) (JobStatus, error) {
	s.mu.Lock()
	j := s.job
	s.mu.Unlock()
	if j == nil {
		return JobStatus{}, errors.New("no scan has been started")
	}
	select {
	case <-j.done:
		return s.statusOf(j), nil
	case <-ctx.Done():
		return s.statusOf(j), ctx.Err()
	}
}
