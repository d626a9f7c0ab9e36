package db

import (
	"context"
	"database/sql"
	"strings"
)

// an absent (invalid) column never overwrites a present one: a later
// extraction pass may know less about a person than an earlier one did.
// empty names are treated the same way since the name columns are NOT
// NULL.
const upsertAlumni = `
INSERT INTO alumni (
    first_name, last_name, linkedin_url, avatar_url, degree,
    entry_year, grad_year, current_company, current_job_title,
    company_logo_url, email, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (linkedin_url) DO UPDATE SET
    first_name = CASE WHEN excluded.first_name <> '' THEN excluded.first_name ELSE alumni.first_name END,
    last_name = CASE WHEN excluded.last_name <> '' THEN excluded.last_name ELSE alumni.last_name END,
    avatar_url = COALESCE(excluded.avatar_url, alumni.avatar_url),
    degree = COALESCE(excluded.degree, alumni.degree),
    entry_year = COALESCE(excluded.entry_year, alumni.entry_year),
    grad_year = COALESCE(excluded.grad_year, alumni.grad_year),
    current_company = COALESCE(excluded.current_company, alumni.current_company),
    current_job_title = COALESCE(excluded.current_job_title, alumni.current_job_title),
    company_logo_url = COALESCE(excluded.company_logo_url, alumni.company_logo_url),
    email = COALESCE(excluded.email, alumni.email),
    updated_at = excluded.updated_at
`

type UpsertAlumniParams struct {
	FirstName       string
	LastName        string
	LinkedinUrl     string
	AvatarUrl       sql.NullString
	Degree          sql.NullString
	EntryYear       sql.NullInt64
	GradYear        sql.NullInt64
	CurrentCompany  sql.NullString
	CurrentJobTitle sql.NullString
	CompanyLogoUrl  sql.NullString
	Email           sql.NullString
	CreatedAt       int64
	UpdatedAt       int64
}

func (q *Queries) UpsertAlumni(ctx context.Context, arg UpsertAlumniParams) error {
	_, err := q.db.ExecContext(ctx, upsertAlumni,
		arg.FirstName,
		arg.LastName,
		arg.LinkedinUrl,
		arg.AvatarUrl,
		arg.Degree,
		arg.EntryYear,
		arg.GradYear,
		arg.CurrentCompany,
		arg.CurrentJobTitle,
		arg.CompanyLogoUrl,
		arg.Email,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getAlumniByUrl = `
SELECT id, first_name, last_name, linkedin_url, avatar_url, degree,
    entry_year, grad_year, current_company, current_job_title,
    company_logo_url, email, created_at, updated_at
FROM alumni WHERE linkedin_url = ?
`

func (q *Queries) GetAlumniByUrl(ctx context.Context, linkedinUrl string) (Alumni, error) {
	row := q.db.QueryRowContext(ctx, getAlumniByUrl, linkedinUrl)
	var a Alumni
	err := row.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.LinkedinUrl, &a.AvatarUrl,
		&a.Degree, &a.EntryYear, &a.GradYear, &a.CurrentCompany,
		&a.CurrentJobTitle, &a.CompanyLogoUrl, &a.Email,
		&a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

const countAlumni = `SELECT COUNT(*) FROM alumni`

func (q *Queries) CountAlumni(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAlumni)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// a record counts as processed once its degree column says something an
// extraction pass produced, markers written by the import path don't
// count
func (q *Queries) CountProcessed(ctx context.Context, pendingMarkers []string) (int64, error) {
	query := `SELECT COUNT(*) FROM alumni WHERE degree IS NOT NULL`
	var args []interface{}
	if len(pendingMarkers) > 0 {
		query += ` AND degree NOT IN (?` + strings.Repeat(`,?`, len(pendingMarkers)-1) + `)`
		for _, m := range pendingMarkers {
			args = append(args, m)
		}
	}
	row := q.db.QueryRowContext(ctx, query, args...)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listNeedingEnrichment = `
SELECT id, first_name, last_name, linkedin_url, avatar_url, degree,
    entry_year, grad_year, current_company, current_job_title,
    company_logo_url, email, created_at, updated_at
FROM alumni
WHERE current_company IS NULL OR current_job_title IS NULL
ORDER BY updated_at ASC
LIMIT ?
`

func (q *Queries) ListNeedingEnrichment(ctx context.Context, limit int64) ([]Alumni, error) {
	rows, err := q.db.QueryContext(ctx, listNeedingEnrichment, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Alumni
	for rows.Next() {
		var a Alumni
		err := rows.Scan(
			&a.ID, &a.FirstName, &a.LastName, &a.LinkedinUrl, &a.AvatarUrl,
			&a.Degree, &a.EntryYear, &a.GradYear, &a.CurrentCompany,
			&a.CurrentJobTitle, &a.CompanyLogoUrl, &a.Email,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const listAlumni = `
SELECT id, first_name, last_name, linkedin_url, avatar_url, degree,
    entry_year, grad_year, current_company, current_job_title,
    company_logo_url, email, created_at, updated_at
FROM alumni
ORDER BY last_name ASC, first_name ASC
`

func (q *Queries) ListAlumni(ctx context.Context) ([]Alumni, error) {
	rows, err := q.db.QueryContext(ctx, listAlumni)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Alumni
	for rows.Next() {
		var a Alumni
		err := rows.Scan(
			&a.ID, &a.FirstName, &a.LastName, &a.LinkedinUrl, &a.AvatarUrl,
			&a.Degree, &a.EntryYear, &a.GradYear, &a.CurrentCompany,
			&a.CurrentJobTitle, &a.CompanyLogoUrl, &a.Email,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
