package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nezuko-cli/nezuko/source"
	"github.com/samber/mo"
	_ "modernc.org/sqlite"
)

// Store is the sqlite backed history.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path is the database file.
func (s *Store) Path() string {
	return s.path
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// SavePosition records p, replacing the previous position of the episode.
func (s *Store) SavePosition(ctx context.Context, p Position) error {
	if p.MediaID <= 0 || p.Episode <= 0 {
		return fmt.Errorf("invalid position for media %d episode %d", p.MediaID, p.Episode)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO positions (media_id, episode, seconds, duration, title, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (media_id, episode) DO UPDATE SET
             seconds = excluded.seconds,
             duration = CASE WHEN excluded.duration > 0 THEN excluded.duration ELSE positions.duration END,
             title = COALESCE(excluded.title, positions.title),
             updated_at = excluded.updated_at`,
		p.MediaID, p.Episode, p.Seconds, p.Duration, nullableString(p.Title), timestamp(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

const positionColumns = `media_id, episode, seconds, duration, title, updated_at`

func scanPosition(row scanner) (Position, error) {
	var (
		p       Position
		title   sql.NullString
		updated string
	)
	if err := row.Scan(&p.MediaID, &p.Episode, &p.Seconds, &p.Duration, &title, &updated); err != nil {
		return Position{}, err
	}
	p.Title = title.String
	t, err := time.Parse(timeLayout, updated)
	if err != nil {
		return Position{}, fmt.Errorf("parse updated_at %q: %w", updated, err)
	}
	p.UpdatedAt = t
	return p, nil
}

// Position returns the saved position of one episode.
func (s *Store) Position(ctx context.Context, mediaID, episode int) (mo.Option[Position], error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+positionColumns+` FROM positions WHERE media_id = ? AND episode = ?`,
		mediaID, episode,
	)
	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return mo.None[Position](), nil
	}
	if err != nil {
		return mo.None[Position](), fmt.Errorf("get position: %w", err)
	}
	return mo.Some(p), nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Position, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Positions lists every saved episode of a title by episode number.
func (s *Store) Positions(ctx context.Context, mediaID int) ([]Position, error) {
	positions, err := s.query(ctx,
		`SELECT `+positionColumns+` FROM positions WHERE media_id = ? ORDER BY episode`,
		mediaID,
	)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

// Recent returns the latest position of each title, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Position, error) {
	positions, err := s.query(ctx,
		`SELECT `+positionColumns+` FROM positions p
         WHERE updated_at = (SELECT MAX(updated_at) FROM positions WHERE media_id = p.media_id)
         ORDER BY updated_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent positions: %w", err)
	}
	return positions, nil
}

// Remove deletes every position of a title.
func (s *Store) Remove(ctx context.Context, mediaID int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE media_id = ?`, mediaID); err != nil {
		return fmt.Errorf("remove positions: %w", err)
	}
	return nil
}

// SavePreference records the audio mode and variant chosen for a title.
func (s *Store) SavePreference(ctx context.Context, p Preference) error {
	if _, err := source.ParseMode(string(p.Mode)); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (media_id, audio_mode, variant, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT (media_id) DO UPDATE SET
             audio_mode = excluded.audio_mode,
             variant = excluded.variant,
             updated_at = excluded.updated_at`,
		p.MediaID, string(p.Mode), nullableString(p.Variant), timestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	return nil
}

// Preference returns the stored preference of a title.
func (s *Store) Preference(ctx context.Context, mediaID int) (mo.Option[Preference], error) {
	var (
		p       = Preference{MediaID: mediaID}
		mode    string
		variant sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT audio_mode, variant FROM preferences WHERE media_id = ?`, mediaID,
	).Scan(&mode, &variant)
	if errors.Is(err, sql.ErrNoRows) {
		return mo.None[Preference](), nil
	}
	if err != nil {
		return mo.None[Preference](), fmt.Errorf("get preference: %w", err)
	}

	p.Mode = source.Audio(mode)
	p.Variant = variant.String
	return mo.Some(p), nil
}

// Clear deletes all history.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"positions", "preferences"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
