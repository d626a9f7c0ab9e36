package db

import (
	"context"
	"database/sql"

	_ "embed"
)

//go:embed schema.sql
var Schema string

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type Alumni struct {
	ID              int64
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
