// Package sqlstore implements store.Store on database/sql, supporting both
// SQLite and Postgres the way the rest of the queries are written: SQLite
// placeholder syntax rebound to $n for Postgres.
package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/mliu/whisper/internal/apperrors"
)

type SQLStore struct {
	db         *sql.DB
	driverName string
}

func New(driverName, dataSourceName string) (*SQLStore, error) {
	if driverName == "sqlite3" {
		dataSourceName = sqliteDSN(dataSourceName)
	}

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	if driverName == "sqlite3" && strings.Contains(dataSourceName, ":memory:") {
		// Every new pool connection to :memory: is a distinct empty
		// database; keep the pool at one connection.
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLStore{db: db, driverName: driverName}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// sqliteDSN appends _foreign_keys=on to the data source name. PRAGMA
// foreign_keys is per-connection, so enabling it once on startup would
// leave every other pooled connection without enforcement; a DSN option
// applies to each connection the pool opens.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

func (s *SQLStore) createTables() error {
	// user_messages deliberately has no id and no timestamp column; direct
	// message ordering is retrieval order only.
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_messages (
		senderid INTEGER NOT NULL,
		receiverid INTEGER NOT NULL,
		content TEXT NOT NULL,
		iv TEXT NOT NULL,
		tag TEXT NOT NULL,
		FOREIGN KEY (senderid) REFERENCES users(id),
		FOREIGN KEY (receiverid) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS chat_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		groupname TEXT NOT NULL,
		created_by INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (created_by) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS group_members (
		groupid INTEGER,
		userid INTEGER,
		PRIMARY KEY (groupid, userid),
		FOREIGN KEY (groupid) REFERENCES chat_groups(id),
		FOREIGN KEY (userid) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS group_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		senderid INTEGER NOT NULL,
		groupid INTEGER NOT NULL,
		content TEXT NOT NULL,
		iv TEXT NOT NULL,
		tag TEXT NOT NULL,
		sent_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (senderid) REFERENCES users(id),
		FOREIGN KEY (groupid) REFERENCES chat_groups(id)
	);
	`

	if s.driverName == "postgres" {
		query = strings.ReplaceAll(query, "INTEGER PRIMARY KEY AUTOINCREMENT", "SERIAL PRIMARY KEY")
		query = strings.ReplaceAll(query, "DATETIME", "TIMESTAMP")
	}

	_, err := s.db.Exec(query)
	return err
}

// rebind converts ? placeholders to $1, $2, ... for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driverName == "postgres" {
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

// mapErr classifies driver errors into the boundary taxonomy. This is the
// only place raw driver errors are inspected; everything above sees codes.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound("record not found")
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return apperrors.NotFound("referenced record does not exist")
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return apperrors.AlreadyExists("record already exists")
		}
		return apperrors.StorageUnavailable(err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503": // foreign_key_violation
			return apperrors.NotFound("referenced record does not exist")
		case "23505": // unique_violation
			return apperrors.AlreadyExists("record already exists")
		}
		return apperrors.StorageUnavailable(err)
	}

	return apperrors.StorageUnavailable(err)
}
