package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rekorded/rekorded/src/music"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverCgo    = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

// timeLayout keeps stored timestamps fixed-width so they sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SqliteStore is a SQLite implementation of music.LibraryStore.
type SqliteStore struct {
	db     *sql.DB
	driver string
	path   string
}

var _ music.LibraryStore = (*SqliteStore)(nil)

// NewSqliteStore opens the database with the given driver and applies pending migrations.
func NewSqliteStore(ctx context.Context, driver, path string) (*SqliteStore, error) {
	dsn, err := dataSourceName(driver, path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	applied, err := applyMigrations(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Debug("Database ready", "driver", driver, "path", path, "applied_migrations", len(applied))

	return &SqliteStore{db: db, driver: driver, path: path}, nil
}

// dataSourceName enables foreign keys and a busy timeout on every pooled
// connection using each driver's own DSN syntax.
func dataSourceName(driver, path string) (string, error) {
	switch driver {
	case DriverCgo:
		return path + "?_foreign_keys=on&_busy_timeout=5000", nil
	case DriverPureGo:
		return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Close closes the underlying database connection.
func (d *SqliteStore) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// SchemaVersions returns the applied migration versions in order.
func (d *SqliteStore) SchemaVersions(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// UpsertUser creates the user or refreshes its email. An empty email never
// overwrites a stored one.
func (d *SqliteStore) UpsertUser(ctx context.Context, user *music.User) error {
	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (id, email, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = CASE WHEN excluded.email != '' THEN excluded.email ELSE users.email END
	`, user.ID, user.Email, user.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		slog.Error("UpsertUser: failed", "error", err, "userID", user.ID)
		return err
	}
	return nil
}

// GetUser returns the user with the given id, or nil when it does not exist.
func (d *SqliteStore) GetUser(ctx context.Context, id string) (*music.User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT id, email, created_at FROM users WHERE id = ?`, id)

	user := &music.User{}
	var createdAt string
	if err := row.Scan(&user.ID, &user.Email, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	user.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return user, nil
}

// AddLibrary stores the library row with its raw export and one row per track in a single transaction.
func (d *SqliteStore) AddLibrary(ctx context.Context, library *music.Library, tracks []music.Track) error {
	if library.UploadDate.IsZero() {
		library.UploadDate = time.Now().UTC()
	}
	if err := library.Validate(); err != nil {
		slog.Error("AddLibrary: validation failed", "error", err, "libraryID", library.ID)
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO libraries (id, user_id, upload_date, total_tracks, filename, xml_content)
		VALUES (?, ?, ?, ?, ?, ?)
	`, library.ID, library.UserID, library.UploadDate.UTC().Format(timeLayout), library.TotalTracks,
		library.Filename, library.Content)
	if err != nil {
		return fmt.Errorf("insert library: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (library_id, rekordbox_id, name, artist, album, genre, bpm, bitrate, year, has_cues, issues)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range tracks {
		t := &tracks[i]
		issues, err := json.Marshal(t.Issues)
		if err != nil {
			return fmt.Errorf("encode issues for track %s: %w", t.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, library.ID, t.ID, t.Name, t.Artist, t.Album, t.Genre,
			t.BPM, t.Bitrate, t.Year, t.HasCues, string(issues)); err != nil {
			return fmt.Errorf("insert track %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// GetLibrary returns a library including its raw export, or nil when it does not exist.
func (d *SqliteStore) GetLibrary(ctx context.Context, id string) (*music.Library, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, user_id, upload_date, total_tracks, filename, xml_content
		FROM libraries
		WHERE id = ?
	`, id)

	library := &music.Library{}
	var uploadDate string
	if err := row.Scan(&library.ID, &library.UserID, &uploadDate, &library.TotalTracks,
		&library.Filename, &library.Content); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	library.UploadDate, _ = time.Parse(timeLayout, uploadDate)
	return library, nil
}

// GetLibraries returns the user's libraries, newest first, without their raw exports.
func (d *SqliteStore) GetLibraries(ctx context.Context, userID string) ([]*music.Library, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, upload_date, total_tracks, filename
		FROM libraries
		WHERE user_id = ?
		ORDER BY upload_date DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	libraries := []*music.Library{}
	for rows.Next() {
		library := &music.Library{}
		var uploadDate string
		if err := rows.Scan(&library.ID, &library.UserID, &uploadDate, &library.TotalTracks, &library.Filename); err != nil {
			return nil, err
		}
		library.UploadDate, _ = time.Parse(timeLayout, uploadDate)
		libraries = append(libraries, library)
	}
	return libraries, rows.Err()
}

// DeleteLibrary removes a library and its track rows. Deleting a missing library is not an error.
func (d *SqliteStore) DeleteLibrary(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE library_id = ?`, id); err != nil {
		return fmt.Errorf("delete tracks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM libraries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete library: %w", err)
	}
	return tx.Commit()
}

// SearchTracks finds stored tracks of the user's libraries whose name or
// artist contains query, case-insensitively.
func (d *SqliteStore) SearchTracks(ctx context.Context, userID, query string, limit int) ([]music.StoredTrack, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	rows, err := d.db.QueryContext(ctx, `
		SELECT t.library_id, t.rekordbox_id, t.name, t.artist, t.album, t.genre, t.bpm, t.bitrate, t.year, t.has_cues, t.issues
		FROM tracks t
		JOIN libraries l ON l.id = t.library_id
		WHERE l.user_id = ?
		  AND (LOWER(t.name) LIKE ? ESCAPE '\' OR LOWER(t.artist) LIKE ? ESCAPE '\')
		ORDER BY t.artist, t.name, t.id
		LIMIT ?
	`, userID, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []music.StoredTrack{}
	for rows.Next() {
		var t music.StoredTrack
		var trackID, name, artist, album, genre, year, issues sql.NullString
		var bpm sql.NullFloat64
		var bitrate sql.NullInt64
		var hasCues sql.NullBool
		if err := rows.Scan(&t.LibraryID, &trackID, &name, &artist, &album, &genre, &bpm, &bitrate, &year, &hasCues, &issues); err != nil {
			return nil, err
		}
		t.TrackID = trackID.String
		t.Name = name.String
		t.Artist = artist.String
		t.Album = album.String
		t.Genre = genre.String
		t.Year = year.String
		t.BPM = bpm.Float64
		t.Bitrate = int(bitrate.Int64)
		t.HasCues = hasCues.Bool
		t.Issues = []music.Issue{}
		if issues.Valid && issues.String != "" {
			if err := json.Unmarshal([]byte(issues.String), &t.Issues); err != nil {
				slog.Warn("SearchTracks: unreadable issues column", "error", err, "libraryID", t.LibraryID, "trackID", t.TrackID)
				t.Issues = []music.Issue{}
			}
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
