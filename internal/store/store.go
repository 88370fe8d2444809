package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"contentpilot/internal/config"
)

// Store persists subscribers, published articles, the social queue and the
// newsletter send log. It speaks Postgres in production and SQLite for
// tests and small single-host deployments.
type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
	// serial is the dialect's auto-increment primary key column type.
	serial string
}

// Open connects per config and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	var dsn string
	switch cfg.Driver {
	case "sqlite3":
		dsn = cfg.Path
	case "postgres":
		dsn = fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.Name, cfg.User, cfg.Password, cfg.SSLMode)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(db, cfg.Driver), nil
}

// New wraps an existing connection. driver selects placeholder style and
// schema dialect.
func New(db *sql.DB, driver string) *Store {
	s := &Store{db: db}
	if driver == "postgres" {
		s.sb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(db)
		s.serial = "BIGSERIAL PRIMARY KEY"
	} else {
		s.sb = sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(db)
		s.serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return s
}

// Ping checks database liveness.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema creates the tables if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS subscribers (
		id {{serial}},
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		subscribed_at TIMESTAMP NOT NULL,
		confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		confirmation_token TEXT NOT NULL,
		unsubscribe_token TEXT NOT NULL UNIQUE
	);
	CREATE INDEX IF NOT EXISTS idx_subscribers_active ON subscribers(active);

	CREATE TABLE IF NOT EXISTS published_articles (
		id {{serial}},
		title TEXT NOT NULL,
		excerpt TEXT,
		source_url TEXT NOT NULL UNIQUE,
		source_name TEXT,
		post_id BIGINT,
		post_url TEXT,
		tags TEXT,
		published_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_published_at ON published_articles(published_at);

	CREATE TABLE IF NOT EXISTS social_queue (
		id {{serial}},
		article_id BIGINT REFERENCES published_articles(id) ON DELETE SET NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		posted BOOLEAN NOT NULL DEFAULT FALSE,
		posted_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_social_posted ON social_queue(posted);

	CREATE TABLE IF NOT EXISTS newsletter_sends (
		id {{serial}},
		sent_at TIMESTAMP NOT NULL,
		subject TEXT NOT NULL,
		article_ids TEXT,
		recipient_count INTEGER NOT NULL
	);
	`
	schema = strings.ReplaceAll(schema, "{{serial}}", s.serial)
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
