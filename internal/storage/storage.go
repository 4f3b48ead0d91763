// Package storage persists moderation events to SQLite. The schema is
// managed through embedded migration files applied in lexical order at
// startup.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type Store struct {
	db *sql.DB
}

// Event is a single moderation action as recorded in the database.
type Event struct {
	ID        int64
	GuildID   string
	ActorID   string
	Action    string
	Target    string
	Reason    string
	CreatedAt time.Time
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			if isIgnorableMigrationError(err) {
				continue
			}
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func isIgnorableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column")
}

func (s *Store) AddEvent(ctx context.Context, e Event) error {
	at := e.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO moderation_events (guild_id, actor_id, action, target, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.GuildID, e.ActorID, e.Action, e.Target, e.Reason, at)
	if err != nil {
		return fmt.Errorf("insert moderation event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, guildID string, since time.Time) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guild_id, actor_id, action, target, reason, created_at
		 FROM moderation_events
		 WHERE guild_id = ? AND created_at >= ?
		 ORDER BY created_at ASC`,
		guildID, since)
	if err != nil {
		return nil, fmt.Errorf("query moderation events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.GuildID, &e.ActorID, &e.Action, &e.Target, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan moderation event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CleanupEvents deletes events older than the retention window and returns
// the number of rows removed.
func (s *Store) CleanupEvents(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM moderation_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup moderation events: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
