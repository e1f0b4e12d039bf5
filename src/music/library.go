package music

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account owning uploaded libraries. ID is the identity provider subject.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Library is one stored upload of a library export.
type Library struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Filename    string    `json:"filename"`
	UploadDate  time.Time `json:"upload_date"`
	TotalTracks int       `json:"total_tracks"`
	Content     []byte    `json:"-"`
}

// Validate validates the library fields.
func (l *Library) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("library id cannot be empty")
	}
	if strings.TrimSpace(l.UserID) == "" {
		return fmt.Errorf("library owner cannot be empty")
	}
	if strings.TrimSpace(l.Filename) == "" {
		return fmt.Errorf("library filename cannot be empty")
	}
	if len(l.Filename) > 255 {
		return fmt.Errorf("filename cannot exceed 255 characters, got %d: filename -> %s", len(l.Filename), l.Filename)
	}
	if len(l.Content) == 0 {
		return fmt.Errorf("library content cannot be empty")
	}
	if l.TotalTracks < 0 {
		return fmt.Errorf("total tracks cannot be negative, got %d", l.TotalTracks)
	}
	return nil
}

// StoredTrack is a persisted track row used for cross-library search.
type StoredTrack struct {
	LibraryID string  `json:"library_id"`
	TrackID   string  `json:"track_id"`
	Name      string  `json:"name"`
	Artist    string  `json:"artist"`
	Album     string  `json:"album"`
	Genre     string  `json:"genre"`
	BPM       float64 `json:"bpm"`
	Bitrate   int     `json:"bitrate"`
	Year      string  `json:"year"`
	HasCues   bool    `json:"has_cues"`
	Issues    []Issue `json:"issues"`
}

// LibraryStore is the repository for users, uploaded libraries and their track rows.
type LibraryStore interface {
	// User methods
	UpsertUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)

	// Library methods
	AddLibrary(ctx context.Context, library *Library, tracks []Track) error
	GetLibrary(ctx context.Context, id string) (*Library, error)
	GetLibraries(ctx context.Context, userID string) ([]*Library, error)
	DeleteLibrary(ctx context.Context, id string) error

	// Track search
	SearchTracks(ctx context.Context, userID, query string, limit int) ([]StoredTrack, error)
}

// GenerateLibraryID creates a new random library identifier.
func GenerateLibraryID() string {
	return uuid.New().String()
}
