// Package ledger records the comments the bot has posted so that a rerun
// after a partial failure does not post the same finding twice.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/colonyops/crucibot/internal/crucible"
)

//go:embed schema/schema.sql
var schemaSQL string

const (
	maxRetries  = 5
	initialWait = 100 * time.Millisecond
	busyTimeout = 5000 // milliseconds
)

// Ledger is a sqlite backed set of posted comment keys.
type Ledger struct {
	conn *sql.DB
	now  func() time.Time
}

// Key returns the content-addressed identity of a comment: the same finding
// on the same revision line always yields the same key.
func Key(c crucible.Comment) string {
	h := sha256.New()
	for _, part := range []string{c.ReviewID, c.ItemID, c.Revision, strconv.Itoa(c.Line), c.Message} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Open opens (creating if needed) the ledger database at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", path, busyTimeout)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	conn.SetMaxOpenConns(1)

	l := &Ledger{conn: conn, now: time.Now}

	if err := l.pingWithRetry(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to ledger: %w", err)
	}

	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.conn.Close()
}

// Seen reports whether key has been recorded.
func (l *Ledger) Seen(ctx context.Context, key string) (bool, error) {
	var one int
	err := l.conn.QueryRowContext(ctx, "SELECT 1 FROM posted_comments WHERE key = ?", key).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query ledger: %w", err)
	default:
		return true, nil
	}
}

// Record stores key for comment. Recording the same key twice is a no-op.
func (l *Ledger) Record(ctx context.Context, key string, c crucible.Comment) error {
	_, err := l.conn.ExecContext(ctx,
		`INSERT INTO posted_comments (key, review_id, item_id, revision, line, message, posted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO NOTHING`,
		key, c.ReviewID, c.ItemID, c.Revision, c.Line, c.Message, l.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record comment: %w", err)
	}
	return nil
}

// Count returns the number of recorded comments, optionally limited to one review.
func (l *Ledger) Count(ctx context.Context, reviewID string) (int, error) {
	query := "SELECT COUNT(*) FROM posted_comments"
	var args []any
	if reviewID != "" {
		query += " WHERE review_id = ?"
		args = append(args, reviewID)
	}

	var n int
	if err := l.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger: %w", err)
	}
	return n, nil
}

// pingWithRetry attempts to ping the database with exponential backoff.
func (l *Ledger) pingWithRetry(ctx context.Context) error {
	wait := initialWait
	for i := 0; i < maxRetries; i++ {
		if err := l.conn.PingContext(ctx); err == nil {
			return nil
		}

		if i < maxRetries-1 {
			time.Sleep(wait)
			wait *= 2
		}
	}

	return fmt.Errorf("failed to ping ledger after %d retries", maxRetries)
}
