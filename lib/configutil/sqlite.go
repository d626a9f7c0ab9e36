package configutil

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Database struct {
	// path to the sqlite file, or ":memory:"
	File string `json:"file"`
	// optional libsql:// url, takes precedence over File
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// opens the configured database and applies the given schema. schemas
// are expected to be idempotent (CREATE TABLE IF NOT EXISTS ...).
func (config Database) OpenDB(schema string) (*sql.DB, error) {
	if config.Url != "" {
		url := config.Url
		if config.AuthToken != "" {
			url = fmt.Sprintf("%s?authToken=%s", url, config.AuthToken)
		}
		db, err := sql.Open("libsql", url)
		if err != nil {
			return nil, err
		}
		_, err = db.Exec(schema)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	if config.File == "" {
		return nil, fmt.Errorf("a database path was not specified")
	}
	if config.File != ":memory:" {
		_, err := os.Stat(config.File)
		if os.IsNotExist(err) {
			f, err := os.Create(config.File)
			if err != nil {
				return nil, err
			}
			f.Close()
		}
	}

	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// see https://stackoverflow.com/questions/35804884 for why sqlite
	// writes are limited to a single connection
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}
