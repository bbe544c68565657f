// ABOUTME: SQLite backend for the store engine using modernc.org/sqlite
// ABOUTME: Durable backend with schema auto-creation and native predicate delete

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend is the durable Backend implementation. Timestamps are
// stored as fixed-width RFC3339 TEXT, booleans as 0/1 integers.
type SQLiteBackend struct {
	mu     sync.RWMutex // guards db, which Reset swaps out
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteBackend opens (or creates) the database at path. Parent
// directories are created if needed and the schema is applied.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}

	b := &SQLiteBackend{db: db, path: path, logger: logger}
	logger.Info("sqlite store opened", "path", path)
	return b, nil
}

func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for concurrent readers alongside the single writer
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS identities (
			id                 TEXT PRIMARY KEY,
			name               TEXT NOT NULL,
			bio                TEXT,
			email              TEXT,
			avatar_filename    TEXT,
			created_at         TEXT NOT NULL,
			updated_at         TEXT NOT NULL,
			is_premium         INTEGER NOT NULL DEFAULT 0,
			premium_expires_at TEXT,
			total_posts        INTEGER NOT NULL DEFAULT 0,
			current_streak     INTEGER NOT NULL DEFAULT 0,
			longest_streak     INTEGER NOT NULL DEFAULT 0,
			preferences        BLOB,

			CHECK (total_posts >= 0),
			CHECK (current_streak >= 0),
			CHECK (longest_streak >= 0)
		);

		CREATE INDEX IF NOT EXISTS idx_identities_created ON identities(created_at);

		CREATE TABLE IF NOT EXISTS personas (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			color       TEXT NOT NULL,
			icon        TEXT NOT NULL,
			description TEXT,
			created_at  TEXT NOT NULL,
			is_default  INTEGER NOT NULL DEFAULT 0,
			identity_id TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_personas_identity ON personas(identity_id);

		CREATE TABLE IF NOT EXISTS posts (
			id                TEXT PRIMARY KEY,
			caption           TEXT NOT NULL,
			mood              INTEGER NOT NULL,
			experience_rating INTEGER NOT NULL DEFAULT 0,
			created_at        TEXT NOT NULL,
			location          TEXT,
			persona_id        TEXT NOT NULL,
			activity_tags     TEXT NOT NULL DEFAULT '[]',
			people_tags       TEXT NOT NULL DEFAULT '[]',
			is_gratitude      INTEGER NOT NULL DEFAULT 0,
			is_rant           INTEGER NOT NULL DEFAULT 0,
			is_dream          INTEGER NOT NULL DEFAULT 0,
			is_future_you     INTEGER NOT NULL DEFAULT 0,

			CHECK (mood BETWEEN 1 AND 10)
		);

		CREATE INDEX IF NOT EXISTS idx_posts_persona ON posts(persona_id);
		CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at);

		CREATE TABLE IF NOT EXISTS media (
			id                 TEXT PRIMARY KEY,
			media_type         TEXT NOT NULL,
			filename           TEXT NOT NULL,
			thumbnail_filename TEXT,
			created_at         TEXT NOT NULL,
			file_size          INTEGER NOT NULL DEFAULT 0,
			post_id            TEXT NOT NULL,
			width              INTEGER NOT NULL DEFAULT 0,
			height             INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_media_post ON media(post_id);
	`

	_, err := db.Exec(schema)
	return err
}

func tableFor(t RecordType) (string, error) {
	switch t {
	case TypeIdentity:
		return "identities", nil
	case TypePersona:
		return "personas", nil
	case TypePost:
		return "posts", nil
	case TypeMedia:
		return "media", nil
	}
	return "", fmt.Errorf("unknown record type %q", t)
}

func columnsFor(t RecordType) string {
	switch t {
	case TypeIdentity:
		return "id, name, bio, email, avatar_filename, created_at, updated_at, is_premium, premium_expires_at, total_posts, current_streak, longest_streak, preferences"
	case TypePersona:
		return "id, name, color, icon, description, created_at, is_default, identity_id"
	case TypePost:
		return "id, caption, mood, experience_rating, created_at, location, persona_id, activity_tags, people_tags, is_gratitude, is_rant, is_dream, is_future_you"
	case TypeMedia:
		return "id, media_type, filename, thumbnail_filename, created_at, file_size, post_id, width, height"
	}
	return ""
}

// Fetch returns records matching the query in its sort order.
func (b *SQLiteBackend) Fetch(ctx context.Context, q Query) ([]Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	table, err := tableFor(q.Type)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", columnsFor(q.Type), table)
	where, args, err := whereClause(q.Filters)
	if err != nil {
		return nil, err
	}
	if where != "" {
		query += " WHERE " + where
	}
	query += orderClause(q.Sorts)
	if q.Limit > 0 || q.Offset > 0 {
		limit := q.Limit
		if limit <= 0 {
			limit = -1 // SQLite needs a LIMIT before OFFSET
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, q.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(q.Type, rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", table, err)
	}
	return recs, nil
}

// Count returns the number of records matching the query's filters.
func (b *SQLiteBackend) Count(ctx context.Context, q Query) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	table, err := tableFor(q.Type)
	if err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) FROM " + table
	where, args, err := whereClause(q.Filters)
	if err != nil {
		return 0, err
	}
	if where != "" {
		query += " WHERE " + where
	}

	var n int
	if err := b.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

// Apply commits a batch of mutations in a single transaction. An update
// against a missing row fails with ErrNotFound and rolls back the batch;
// deletes of missing rows are skipped silently.
func (b *SQLiteBackend) Apply(ctx context.Context, muts []Mutation) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range muts {
		switch m.kind {
		case mutInsert:
			if err := insertRecord(ctx, tx, m.Record); err != nil {
				return err
			}
		case mutUpdate:
			if err := updateRecord(ctx, tx, m.Record); err != nil {
				return err
			}
		case mutDelete:
			table, err := tableFor(m.Record.Type())
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM "+table+" WHERE id = ?", m.Record.PrimaryKey()); err != nil {
				return fmt.Errorf("deleting from %s: %w", table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteWhere is the native predicate-delete path.
func (b *SQLiteBackend) DeleteWhere(ctx context.Context, t RecordType, filters []Filter) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	table, err := tableFor(t)
	if err != nil {
		return 0, err
	}

	query := "DELETE FROM " + table
	where, args, err := whereClause(filters)
	if err != nil {
		return 0, err
	}
	if where != "" {
		query += " WHERE " + where
	}

	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("batch deleting from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return int(n), nil
}

// Reset closes the database, removes its files and recreates an empty
// schema at the same path. The write lock keeps in-flight queries off
// the connection while it is swapped.
func (b *SQLiteBackend) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.path == "" {
		return ErrStoreNotFound
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(b.path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing database file: %w", err)
		}
	}
	db, err := openDatabase(b.path)
	if err != nil {
		return err
	}
	b.db = db
	return nil
}

// Location returns the database file path.
func (b *SQLiteBackend) Location() string { return b.path }

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logger.Info("closing sqlite store")
	return b.db.Close()
}

func insertRecord(ctx context.Context, tx *sql.Tx, rec Record) error {
	switch r := rec.(type) {
	case *IdentityRecord:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO identities (id, name, bio, email, avatar_filename, created_at, updated_at,
				is_premium, premium_expires_at, total_posts, current_streak, longest_streak, preferences)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Bio, r.Email, r.AvatarFilename,
			formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
			boolInt(r.IsPremium), formatTimePtr(r.PremiumExpiresAt),
			r.TotalPosts, r.CurrentStreak, r.LongestStreak, r.Preferences,
		)
		if err != nil {
			return fmt.Errorf("inserting identity: %w", err)
		}
	case *PersonaRecord:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO personas (id, name, color, icon, description, created_at, is_default, identity_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Color, r.Icon, r.Description,
			formatTime(r.CreatedAt), boolInt(r.IsDefault), r.IdentityID,
		)
		if err != nil {
			return fmt.Errorf("inserting persona: %w", err)
		}
	case *PostRecord:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO posts (id, caption, mood, experience_rating, created_at, location, persona_id,
				activity_tags, people_tags, is_gratitude, is_rant, is_dream, is_future_you)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Caption, r.Mood, r.ExperienceRating, formatTime(r.CreatedAt),
			r.Location, r.PersonaID, r.ActivityTags, r.PeopleTags,
			boolInt(r.IsGratitude), boolInt(r.IsRant), boolInt(r.IsDream), boolInt(r.IsFutureYou),
		)
		if err != nil {
			return fmt.Errorf("inserting post: %w", err)
		}
	case *MediaRecord:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO media (id, media_type, filename, thumbnail_filename, created_at, file_size, post_id, width, height)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.MediaType, r.Filename, r.ThumbnailFilename,
			formatTime(r.CreatedAt), r.FileSize, r.PostID, r.Width, r.Height,
		)
		if err != nil {
			return fmt.Errorf("inserting media: %w", err)
		}
	default:
		return fmt.Errorf("unknown record type %T", rec)
	}
	return nil
}

func updateRecord(ctx context.Context, tx *sql.Tx, rec Record) error {
	var res sql.Result
	var err error
	switch r := rec.(type) {
	case *IdentityRecord:
		res, err = tx.ExecContext(ctx, `
			UPDATE identities
			SET name = ?, bio = ?, email = ?, avatar_filename = ?, created_at = ?, updated_at = ?,
				is_premium = ?, premium_expires_at = ?, total_posts = ?, current_streak = ?,
				longest_streak = ?, preferences = ?
			WHERE id = ?`,
			r.Name, r.Bio, r.Email, r.AvatarFilename,
			formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
			boolInt(r.IsPremium), formatTimePtr(r.PremiumExpiresAt),
			r.TotalPosts, r.CurrentStreak, r.LongestStreak, r.Preferences, r.ID,
		)
	case *PersonaRecord:
		res, err = tx.ExecContext(ctx, `
			UPDATE personas
			SET name = ?, color = ?, icon = ?, description = ?, created_at = ?, is_default = ?, identity_id = ?
			WHERE id = ?`,
			r.Name, r.Color, r.Icon, r.Description,
			formatTime(r.CreatedAt), boolInt(r.IsDefault), r.IdentityID, r.ID,
		)
	case *PostRecord:
		res, err = tx.ExecContext(ctx, `
			UPDATE posts
			SET caption = ?, mood = ?, experience_rating = ?, created_at = ?, location = ?, persona_id = ?,
				activity_tags = ?, people_tags = ?, is_gratitude = ?, is_rant = ?, is_dream = ?, is_future_you = ?
			WHERE id = ?`,
			r.Caption, r.Mood, r.ExperienceRating, formatTime(r.CreatedAt),
			r.Location, r.PersonaID, r.ActivityTags, r.PeopleTags,
			boolInt(r.IsGratitude), boolInt(r.IsRant), boolInt(r.IsDream), boolInt(r.IsFutureYou), r.ID,
		)
	case *MediaRecord:
		res, err = tx.ExecContext(ctx, `
			UPDATE media
			SET media_type = ?, filename = ?, thumbnail_filename = ?, created_at = ?, file_size = ?,
				post_id = ?, width = ?, height = ?
			WHERE id = ?`,
			r.MediaType, r.Filename, r.ThumbnailFilename, formatTime(r.CreatedAt),
			r.FileSize, r.PostID, r.Width, r.Height, r.ID,
		)
	default:
		return fmt.Errorf("unknown record type %T", rec)
	}
	if err != nil {
		return fmt.Errorf("updating %s: %w", rec.Type(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(t RecordType, row rowScanner) (Record, error) {
	switch t {
	case TypeIdentity:
		var r IdentityRecord
		var createdAt, updatedAt string
		var expiresAt sql.NullString
		var isPremium int
		if err := row.Scan(&r.ID, &r.Name, &r.Bio, &r.Email, &r.AvatarFilename,
			&createdAt, &updatedAt, &isPremium, &expiresAt,
			&r.TotalPosts, &r.CurrentStreak, &r.LongestStreak, &r.Preferences); err != nil {
			return nil, err
		}
		var err error
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		if r.PremiumExpiresAt, err = parseTimePtr(expiresAt); err != nil {
			return nil, err
		}
		r.IsPremium = isPremium != 0
		return &r, nil
	case TypePersona:
		var r PersonaRecord
		var createdAt string
		var isDefault int
		if err := row.Scan(&r.ID, &r.Name, &r.Color, &r.Icon, &r.Description,
			&createdAt, &isDefault, &r.IdentityID); err != nil {
			return nil, err
		}
		var err error
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		r.IsDefault = isDefault != 0
		return &r, nil
	case TypePost:
		var r PostRecord
		var createdAt string
		var gratitude, rant, dream, futureYou int
		if err := row.Scan(&r.ID, &r.Caption, &r.Mood, &r.ExperienceRating, &createdAt,
			&r.Location, &r.PersonaID, &r.ActivityTags, &r.PeopleTags,
			&gratitude, &rant, &dream, &futureYou); err != nil {
			return nil, err
		}
		var err error
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		r.IsGratitude = gratitude != 0
		r.IsRant = rant != 0
		r.IsDream = dream != 0
		r.IsFutureYou = futureYou != 0
		return &r, nil
	case TypeMedia:
		var r MediaRecord
		var createdAt string
		if err := row.Scan(&r.ID, &r.MediaType, &r.Filename, &r.ThumbnailFilename,
			&createdAt, &r.FileSize, &r.PostID, &r.Width, &r.Height); err != nil {
			return nil, err
		}
		var err error
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		return &r, nil
	}
	return nil, fmt.Errorf("unknown record type %q", t)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
