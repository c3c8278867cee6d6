// Package sqlite provides the SQLite implementation of the storage
// interfaces. It is the default backend for single-node deployments.
package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dpxrk/pactwise-memory/pkg/types"
)

// DB wraps a SQLite connection shared by both tier stores.
type DB struct {
	db *sql.DB
}

// Open opens a SQLite database, configures WAL mode, and creates the schema.
// The dsn is a file path or ":memory:".
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load;
	// WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Wait instead of failing immediately when the connection is held by
	// another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{db: db}, nil
}

// ShortTerm returns the short-term tier store over this connection.
func (d *DB) ShortTerm() *ShortTermStore {
	return &ShortTermStore{db: d.db}
}

// LongTerm returns the long-term tier store over this connection.
func (d *DB) LongTerm() *LongTermStore {
	return &LongTermStore{db: d.db}
}

// Associations returns the association edge store over this connection.
func (d *DB) Associations() *AssociationStore {
	return &AssociationStore{db: d.db}
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// contentHash returns the hex SHA-256 of content, used by the dedup index so
// arbitrarily long content never lands in a unique index directly.
func contentHash(content string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(content)))
}

// nullableTime converts a time pointer to sql.NullTime.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullableString converts a string to sql.NullString. Empty is NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// marshalJSON marshals v to a nullable JSON column value. Nil maps and empty
// slices are stored as NULL.
func marshalJSON(v interface{}) (sql.NullString, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case []string:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case []float32:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case []types.MemorySource:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case nil:
		return sql.NullString{}, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// unmarshalJSON decodes a nullable JSON column into out. A NULL column leaves
// out untouched.
func unmarshalJSON(col sql.NullString, out interface{}) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), out)
}
