package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/himokagi/himokagi/internal/concurrency"
)

// flushInterval bounds how long a logged analysis can sit unflushed
// when request volume hasn't filled a batch.
const flushInterval = 2 * time.Second

// batchSize is deliberately small: analysis-log rows are cheap and
// infrequent compared to a bulk word-ingestion workload.
const batchSize = 20

const analysesSchema = `
CREATE TABLE IF NOT EXISTS analyses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_url TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	published_at DATETIME,
	token_count INTEGER NOT NULL,
	analyzed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store persists a rolling log of analyzed documents to SQLite, using
// a migration-on-open pattern (initDB/ensureColumnExists) with a single
// analyses table.
type Store struct {
	conn   *sql.DB
	writer *concurrency.BatchWriter
}

// OpenStore opens (creating if necessary) the SQLite database at path
// and runs its migration.
func OpenStore(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("server: open log db: %w", err)
	}
	if err := initDB(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("server: init log db: %w", err)
	}
	writer := concurrency.NewBatchWriter(conn, batchSize, flushInterval)
	return &Store{conn: conn, writer: writer}, nil
}

func initDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	if _, err := db.Exec(analysesSchema); err != nil {
		return err
	}
	return ensureColumnExists(db, "analyses", "published_at", "DATETIME")
}

// ensureColumnExists performs an additive migration, adding column to
// table if it does not already exist (teacher's pkg/db pattern).
func ensureColumnExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("check table info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltVal interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltVal, &pk); err != nil {
			return fmt.Errorf("scan table info: %w", err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", table, column, definition)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("add column %s: %w", column, err)
	}
	return nil
}

// LogAnalysis enqueues one analyzed document to be flushed by the
// batch writer, either once batchSize rows have accumulated or after
// flushInterval, whichever comes first.
func (s *Store) LogAnalysis(sourceURL, title string, publishedAt sql.NullTime, tokenCount int) error {
	return s.writer.Submit(func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO analyses (source_url, title, published_at, token_count) VALUES (?, ?, ?, ?)`,
			sourceURL, title, publishedAt, tokenCount,
		)
		return err
	})
}

// Close flushes any pending writes and closes the underlying database
// connection.
func (s *Store) Close() error {
	writerErr := s.writer.Close()
	if err := s.conn.Close(); err != nil {
		return err
	}
	return writerErr
}
