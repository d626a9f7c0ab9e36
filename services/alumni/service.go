package alumni

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"alumnisync-backend/lib/scrapers/linkedin"
	"alumnisync-backend/services/alumni/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("services/alumni")

type Service struct {
	db  *sql.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		db:  database,
		qry: db.New(database),
	}
}

type ReconcileResult struct {
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Logs         []string `json:"logs,omitempty"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullYear(year int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(year), Valid: year > 0}
}

// Reconcile folds a batch of observations into the directory. each
// record stands alone: one bad record is reported in the result and
// the rest of the batch still lands. identical batches are idempotent,
// the upsert writes the same state twice.
func (s Service) Reconcile(ctx context.Context, records []linkedin.Profile) (ReconcileResult, error) {
	ctx, span := tracer.Start(ctx, "Reconcile")
	defer span.End()

	var result ReconcileResult
	now := time.Now().Unix()

	for _, record := range records {
		url := linkedin.NormalizeProfileURL(record.ProfileURL)
		err := s.qry.UpsertAlumni(ctx, db.UpsertAlumniParams{
			FirstName:       firstOf(record.FullName),
			LastName:        lastOf(record.FullName),
			LinkedinUrl:     url,
			AvatarUrl:       nullString(record.AvatarURL),
			Degree:          nullString(record.DegreeText),
			EntryYear:       nullYear(record.EntryYear),
			GradYear:        nullYear(record.GradYear),
			CurrentCompany:  nullString(record.CurrentCompany),
			CurrentJobTitle: nullString(record.CurrentJobTitle),
			CompanyLogoUrl:  nullString(record.CompanyLogoURL),
			Email:           nullString(record.Email),
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to reconcile record",
				"url", url, "name", record.FullName, "err", err)
			result.ErrorCount++
			result.Logs = append(result.Logs,
				fmt.Sprintf("%s: %v", record.FullName, err))
			continue
		}
		result.SuccessCount++
	}

	span.SetAttributes(
		attribute.Int("records", len(records)),
		attribute.Int("errors", result.ErrorCount),
	)
	return result, nil
}

func firstOf(full string) string {
	first, _ := SplitName(full)
	return first
}

func lastOf(full string) string {
	_, last := SplitName(full)
	return last
}

// Sink adapts the service to the scanner's sink contract, for running
// the scanner in the same process as the store.
func (s Service) Sink() linkedin.Sink {
	return localSink{service: s}
}

type localSink struct {
	service Service
}

func (l localSink) Reconcile(ctx context.Context, records []linkedin.Profile) (linkedin.SinkResult, error) {
	result, err := l.service.Reconcile(ctx, records)
	if err != nil {
		return linkedin.SinkResult{}, err
	}
	return linkedin.SinkResult{
		Succeeded: result.SuccessCount,
		Failed:    result.ErrorCount,
	}, nil
}

type Progress struct {
	Total      int64   `json:"total"`
	Processed  int64   `json:"processed"`
	Percentage float64 `json:"percentage"`
}

// Progress is computed from the data itself rather than from any
// in-flight scan, so it survives restarts and counts work done by
// previous runs.
func (s Service) Progress(ctx context.Context) (Progress, error) {
	ctx, span := tracer.Start(ctx, "Progress")
	defer span.End()

	total, err := s.qry.CountAlumni(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count alumni")
		return Progress{}, err
	}
	processed, err := s.qry.CountProcessed(ctx, PendingMarkers())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count processed alumni")
		return Progress{}, err
	}

	out := Progress{Total: total, Processed: processed}
	if total > 0 {
		out.Percentage = float64(processed) / float64(total) * 100
	}
	return out, nil
}

// profile urls of stored people an enrichment pass should visit,
// oldest data first
func (s Service) NeedingEnrichment(ctx context.Context, limit int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "NeedingEnrichment")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.qry.ListNeedingEnrichment(ctx, int64(limit))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list alumni needing enrichment")
		return nil, err
	}
	urls := make([]string, 0, len(rows))
	for _, row := range rows {
		urls = append(urls, row.LinkedinUrl)
	}
	return urls, nil
}

func (s Service) List(ctx context.Context) ([]db.Alumni, error) {
	return s.qry.ListAlumni(ctx)
}

func (s Service) Get(ctx context.Context, profileURL string) (db.Alumni, error) {
	return s.qry.GetAlumniByUrl(ctx, linkedin.NormalizeProfileURL(profileURL))
}
