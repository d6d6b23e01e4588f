package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite driver registration
	"go.uber.org/zap"

	"gaanatag/internal/gaana"
)

const librarySchema = `
CREATE TABLE IF NOT EXISTS playlist_songs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	seokey      TEXT NOT NULL,
	title       TEXT NOT NULL,
	artist      TEXT NOT NULL,
	album       TEXT NOT NULL,
	playlist    TEXT NOT NULL,
	imported_at TIMESTAMP NOT NULL,
	UNIQUE(seokey, playlist)
);`

// Library persists imported playlist songs to a sqlite database so a
// later tagging run can pick them up.
type Library struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenLibrary opens (creating if necessary) the sqlite library at path.
func OpenLibrary(path string, logger *zap.Logger) (*Library, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open library database: %w", err)
	}

	if _, err := db.Exec(librarySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize library schema: %w", err)
	}

	return &Library{db: db, logger: logger}, nil
}

// SaveSongs stores songs under the given playlist seokey, ignoring
// songs already present for that playlist. Returns the number of new
// rows inserted.
func (l *Library) SaveSongs(ctx context.Context, playlist string, songs []gaana.PlaylistSong) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO playlist_songs (seokey, title, artist, album, playlist, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	now := time.Now().UTC()
	inserted := 0
	for _, song := range songs {
		res, err := stmt.ExecContext(ctx, song.Seokey, song.Title, song.Artist, song.Album, playlist, now)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert song %q: %w", song.Seokey, err)
		}
		n, err := res.RowsAffected()
		if err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("failed to commit: %w", err)
	}

	l.logger.Info("saved playlist songs",
		zap.String("playlist", playlist),
		zap.Int("songs", len(songs)),
		zap.Int("inserted", inserted))
	return inserted, nil
}

// Songs returns the stored songs for a playlist in insertion order.
func (l *Library) Songs(ctx context.Context, playlist string) ([]gaana.PlaylistSong, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seokey, title, artist, album FROM playlist_songs
		WHERE playlist = ? ORDER BY id`, playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var songs []gaana.PlaylistSong
	for rows.Next() {
		var song gaana.PlaylistSong
		if err := rows.Scan(&song.Seokey, &song.Title, &song.Artist, &song.Album); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// Count returns the total number of stored songs.
func (l *Library) Count(ctx context.Context) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM playlist_songs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (l *Library) Close() error {
	return l.db.Close()
}
