package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"ogg2mp3/internal/services"
)

// State tracks where an episode is in the download lifecycle.
type State string

const (
	StateNew        State = "new"
	StateDownloaded State = "downloaded"
)

// Episode is a library record. It satisfies converter.Episode.
type Episode struct {
	ID        int64
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time

	title    string
	mimeType string
	filename string
	store    *Store
}

// AddParams describes a new library episode.
type AddParams struct {
	Title      string
	MimeType   string
	Filename   string
	Downloaded bool
}

func (e *Episode) MimeType() string { return e.mimeType }

// EpisodeID returns the library identifier.
func (e *Episode) EpisodeID() int64 { return e.ID }

func (e *Episode) Title() string { return e.title }

// Filename returns the stored path, which may be empty.
func (e *Episode) Filename() string { return e.filename }

// LocalFilename returns the episode's path on disk. With create set, the
// parent directory is created so a download can be written there.
func (e *Episode) LocalFilename(create bool) (string, error) {
	if strings.TrimSpace(e.filename) == "" {
		return "", fmt.Errorf("%w: episode %d", ErrFileMissing, e.ID)
	}
	if create {
		if err := os.MkdirAll(filepath.Dir(e.filename), 0o755); err != nil {
			return "", fmt.Errorf("create episode directory: %w", err)
		}
	}
	return e.filename, nil
}

// WasDownloaded reports whether the download finished; with andExists the
// file must also still be on disk.
func (e *Episode) WasDownloaded(andExists bool) bool {
	if e.State != StateDownloaded {
		return false
	}
	if !andExists {
		return true
	}
	if strings.TrimSpace(e.filename) == "" {
		return false
	}
	info, err := os.Stat(e.filename)
	return err == nil && info.Mode().IsRegular()
}

// RenameFile re-points the episode at newPath. The record is only changed
// in memory after the database commit succeeds.
func (e *Episode) RenameFile(ctx context.Context, newPath string) error {
	if e.store == nil {
		return errors.New("rename episode file: episode is detached from a library")
	}
	newPath = strings.TrimSpace(newPath)
	if newPath == "" {
		return services.Wrap(services.ErrValidation, "library", "rename", "empty path", nil)
	}
	updated, err := e.store.updateFilename(ctx, e.ID, newPath)
	if err != nil {
		return err
	}
	e.filename = newPath
	e.UpdatedAt = updated
	return nil
}

// Add inserts an episode. A blank title defaults to the file's base name.
// Titles are stored in Unicode NFC.
func (s *Store) Add(ctx context.Context, params AddParams) (*Episode, error) {
	mime := strings.TrimSpace(params.MimeType)
	if mime == "" {
		return nil, services.Wrap(services.ErrValidation, "library", "add", "mime type is required", nil)
	}
	filename := strings.TrimSpace(params.Filename)
	if filename != "" {
		abs, err := filepath.Abs(filename)
		if err != nil {
			return nil, fmt.Errorf("resolve episode path: %w", err)
		}
		filename = abs
	}
	title := strings.TrimSpace(params.Title)
	if title == "" && filename != "" {
		base := filepath.Base(filename)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	title = norm.NFC.String(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "library", "add", "title or filename is required", nil)
	}
	state := StateNew
	if params.Downloaded {
		state = StateDownloaded
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`INSERT INTO episodes (title, mime_type, filename, state, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		title, mime, nullableString(filename), string(state), timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(ctx, id)
}

const episodeColumns = "id, title, mime_type, filename, state, created_at, updated_at"

// Get loads one episode by ID.
func (s *Store) Get(ctx context.Context, id int64) (*Episode, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+episodeColumns+" FROM episodes WHERE id = ?", id)
	episode, err := s.scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load episode %d: %w", id, err)
	}
	return episode, nil
}

// GetMany loads episodes in the order requested. Any unknown ID fails the
// whole call.
func (s *Store) GetMany(ctx context.Context, ids []int64) ([]*Episode, error) {
	episodes := make([]*Episode, 0, len(ids))
	for _, id := range ids {
		episode, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, episode)
	}
	return episodes, nil
}

// List returns every episode ordered by ID.
func (s *Store) List(ctx context.Context) ([]*Episode, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+episodeColumns+" FROM episodes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		episode, err := s.scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, episode)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return episodes, nil
}

// MarkDownloaded flags an episode as fully downloaded.
func (s *Store) MarkDownloaded(ctx context.Context, id int64) (*Episode, error) {
	res, err := s.execWithRetry(ctx,
		"UPDATE episodes SET state = ?, updated_at = ? WHERE id = ?",
		string(StateDownloaded), time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark episode downloaded: %w", err)
	}
	if err := requireOneRow(res, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Remove deletes the episode record. The file on disk is left alone.
func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM episodes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("remove episode: %w", err)
	}
	return requireOneRow(res, id)
}

func (s *Store) updateFilename(ctx context.Context, id int64, filename string) (time.Time, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx,
			"UPDATE episodes SET filename = ?, updated_at = ? WHERE id = ?",
			filename, now.Format(time.RFC3339Nano), id,
		)
		if err != nil {
			return err
		}
		if err := requireOneRow(res, id); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("rename episode file: %w", err)
	}
	return now, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanEpisode(row rowScanner) (*Episode, error) {
	var (
		episode   Episode
		filename  sql.NullString
		state     string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&episode.ID, &episode.title, &episode.mimeType, &filename, &state, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	episode.filename = filename.String
	episode.State = State(state)
	episode.CreatedAt = parseTimestamp(createdAt)
	episode.UpdatedAt = parseTimestamp(updatedAt)
	episode.store = s
	return &episode, nil
}

func requireOneRow(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
