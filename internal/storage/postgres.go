package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/deusflow/newsletter/internal/logger"
)

// PostgresHistory keeps delivered articles in PostgreSQL.
type PostgresHistory struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewPostgresHistory(connectionString string, ttlHours int) (*PostgresHistory, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	h := newPostgresHistory(db, ttlHours)
	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("PostgreSQL history connected")
	return h, nil
}

func newPostgresHistory(db *sql.DB, ttlHours int) *PostgresHistory {
	return &PostgresHistory{db: db, ttl: time.Duration(ttlHours) * time.Hour, now: time.Now}
}

func (ph *PostgresHistory) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sent_news (
		id SERIAL PRIMARY KEY,
		hash VARCHAR(64) UNIQUE NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		topic VARCHAR(200),
		source VARCHAR(200),
		sent_at TIMESTAMP NOT NULL DEFAULT NOW(),
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_sent_news_sent_at ON sent_news(sent_at);
	CREATE INDEX IF NOT EXISTS idx_sent_news_link ON sent_news(link);
	`
	if _, err := ph.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (ph *PostgresHistory) IsAlreadySent(hash string) bool {
	return ph.exists(`SELECT COUNT(*) FROM sent_news WHERE hash = $1 AND sent_at > $2`, hash)
}

func (ph *PostgresHistory) IsLinkAlreadySent(link string) bool {
	if link == "" {
		return false
	}
	return ph.exists(`SELECT COUNT(*) FROM sent_news WHERE link = $1 AND sent_at > $2`, link)
}

func (ph *PostgresHistory) exists(query, arg string) bool {
	var count int
	if err := ph.db.QueryRow(query, arg, cutoff(ph.now(), ph.ttl)).Scan(&count); err != nil {
		logger.Warn("history lookup failed", "error", err)
		return false
	}
	return count > 0
}

// MarkAsSent upserts, so concurrent runs do not fail on the unique hash.
func (ph *PostgresHistory) MarkAsSent(item SentNewsItem) error {
	query := `
		INSERT INTO sent_news (hash, title, link, topic, source, sent_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (hash) DO UPDATE SET sent_at = NOW()
	`
	if _, err := ph.db.Exec(query, item.Hash, item.Title, item.Link, item.Topic, item.Source); err != nil {
		return fmt.Errorf("failed to mark as sent: %w", err)
	}
	return nil
}

// Cleanup removes expired rows.
func (ph *PostgresHistory) Cleanup() error {
	result, err := ph.db.Exec(`DELETE FROM sent_news WHERE sent_at < $1`, cutoff(ph.now(), ph.ttl))
	if err != nil {
		return fmt.Errorf("failed to cleanup: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		logger.Info("cleaned up old history rows", "rows", rows)
	}
	return nil
}

func (ph *PostgresHistory) Close() error {
	if ph.db != nil {
		return ph.db.Close()
	}
	return nil
}

var _ History = (*PostgresHistory)(nil)
