package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteCache is the optional persistent cache tier.
// It survives process restarts, so a repeated scan of the same target can
// reuse responses fetched by a previous run within their TTL.
//
// Design decision: We use a single database file per cache directory
// rather than one per target because the fingerprint already partitions
// entries, and one file simplifies size management and cleanup.
type SQLiteCache struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// OpenSQLite opens or creates the persistent tier in the given directory.
// The directory is created if it does not exist.
func OpenSQLite(dir string) (*SQLiteCache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, "webscan-cache.db")

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite supports only one writer; multiple idle connections buy
	// nothing for this workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sc := &SQLiteCache{db: db, dbPath: dbPath}

	// WAL keeps readers from blocking the single writer.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := sc.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return sc, nil
}

// Close closes the database connection.
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

// createTables creates the cache schema if it doesn't exist.
func (s *SQLiteCache) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		fingerprint TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		content_type TEXT,
		headers TEXT,
		body BLOB,
		size INTEGER,
		fetched_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cache_url ON cache_entries(url);
	CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Get returns the payload for the fingerprint, or false on miss.
// Expired rows are deleted on access.
func (s *SQLiteCache) Get(ctx context.Context, fp Fingerprint) (Payload, bool, error) {
	query := `
	SELECT url, status_code, content_type, headers, body, size, fetched_at, expires_at
	FROM cache_entries
	WHERE fingerprint = ?
	`

	var (
		p           Payload
		headersJSON string
		fetchedAt   string
		expiresAt   string
	)

	err := s.db.QueryRowContext(ctx, query, string(fp)).Scan(
		&p.URL, &p.StatusCode, &p.ContentType, &headersJSON, &p.Body, &p.Size,
		&fetchedAt, &expiresAt,
	)
	if err == sql.ErrNoRows {
		return Payload{}, false, nil
	}
	if err != nil {
		return Payload{}, false, fmt.Errorf("failed to query cache entry: %w", err)
	}

	expiry, err := parseSQLiteTime(expiresAt)
	if err != nil {
		return Payload{}, false, fmt.Errorf("failed to parse expiry: %w", err)
	}
	if time.Now().After(expiry) {
		_, _ = s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE fingerprint = ?", string(fp))
		return Payload{}, false, nil
	}

	if t, err := parseSQLiteTime(fetchedAt); err == nil {
		p.FetchedAt = t
	}

	p.Headers = make(http.Header)
	if headersJSON != "" {
		if err := json.Unmarshal([]byte(headersJSON), &p.Headers); err != nil {
			return Payload{}, false, fmt.Errorf("failed to decode cached headers: %w", err)
		}
	}

	return p, true, nil
}

// Set stores the payload with the given TTL, replacing an existing entry
// for the same fingerprint.
func (s *SQLiteCache) Set(ctx context.Context, fp Fingerprint, payload Payload, ttl time.Duration) error {
	headersJSON, err := json.Marshal(payload.Headers)
	if err != nil {
		return fmt.Errorf("failed to encode headers: %w", err)
	}

	now := time.Now().UTC()

	query := `
	INSERT INTO cache_entries (fingerprint, url, status_code, content_type, headers, body, size, fetched_at, expires_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(fingerprint) DO UPDATE SET
		url = excluded.url,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		headers = excluded.headers,
		body = excluded.body,
		size = excluded.size,
		fetched_at = excluded.fetched_at,
		expires_at = excluded.expires_at
	`

	_, err = s.db.ExecContext(ctx, query,
		string(fp),
		payload.URL,
		payload.StatusCode,
		payload.ContentType,
		string(headersJSON),
		payload.Body,
		payload.Size,
		now.Format(time.RFC3339Nano),
		now.Add(ttl).Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Clear removes entries whose URL contains the pattern.
// An empty pattern clears the whole tier.
func (s *SQLiteCache) Clear(ctx context.Context, pattern string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if pattern == "" {
		res, err = s.db.ExecContext(ctx, "DELETE FROM cache_entries")
	} else {
		res, err = s.db.ExecContext(ctx,
			"DELETE FROM cache_entries WHERE url LIKE ?", "%"+pattern+"%")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache entries: %w", err)
	}
	return res.RowsAffected()
}

// parseSQLiteTime parses the timestamp formats this package writes.
func parseSQLiteTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
}
