package libraries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rekorded/rekorded/src/features/analysis"
	"github.com/rekorded/rekorded/src/features/config"
	"github.com/rekorded/rekorded/src/features/metrics"
	"github.com/rekorded/rekorded/src/music"
)

// Service is the domain service for uploaded library exports.
type Service struct {
	store         music.LibraryStore
	configManager *config.Manager
	recorder      *metrics.Recorder
}

// NewService creates a new libraries service. The store may be nil when only guest analysis is needed.
func NewService(store music.LibraryStore, cfgManager *config.Manager, recorder *metrics.Recorder) *Service {
	return &Service{
		store:         store,
		configManager: cfgManager,
		recorder:      recorder,
	}
}

// Report is a stored library together with its freshly computed analysis.
type Report struct {
	Library *music.Library
	Result  *music.AnalysisResult
}

// Analyze checks and analyzes an export without storing it.
func (s *Service) Analyze(filename string, content []byte) (*music.AnalysisResult, error) {
	return s.analyze(metrics.SourceGuest, filename, content)
}

// AnalyzeFile analyzes an export read from disk without storing it.
func (s *Service) AnalyzeFile(path string) (*music.AnalysisResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.analyze(metrics.SourceCLI, filepath.Base(path), content)
}

func (s *Service) analyze(source, filename string, content []byte) (*music.AnalysisResult, error) {
	if err := s.checkUpload(filename, len(content)); err != nil {
		s.recorder.ObserveFailure(source, metrics.OutcomeRejected)
		return nil, err
	}
	return s.run(source, content)
}

// run executes the analysis pipeline and records its outcome.
func (s *Service) run(source string, content []byte) (*music.AnalysisResult, error) {
	start := time.Now()
	result, err := analysis.Analyze(content)
	if err != nil {
		outcome := metrics.OutcomeRejected
		if errors.Is(err, analysis.ErrMalformedDocument) {
			outcome = metrics.OutcomeMalformed
		}
		s.recorder.ObserveFailure(source, outcome)
		return nil, err
	}
	elapsed := time.Since(start)
	s.recorder.ObserveAnalysis(source, elapsed, result)
	slog.Debug("Library analyzed", "source", source, "tracks", result.Stats.TotalTracks,
		"flagged", len(result.FlaggedTracks), "duration", elapsed.String())
	return result, nil
}

func (s *Service) checkUpload(filename string, size int) error {
	if !strings.HasSuffix(strings.ToLower(filename), ".xml") {
		return fmt.Errorf("%w: %q is not an .xml export", ErrInvalidFile, filename)
	}
	if size == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}
	if limit := s.maxUploadBytes(); size > limit {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrDocumentTooLarge, size, limit)
	}
	return nil
}

func (s *Service) maxUploadBytes() int {
	if s.configManager == nil {
		return 50 * 1024 * 1024
	}
	return s.configManager.Get().Server.MaxUploadBytes()
}

// Upload analyzes an export and stores it for the user.
func (s *Service) Upload(ctx context.Context, user music.User, filename string, content []byte) (*music.Library, *music.AnalysisResult, error) {
	return s.upload(ctx, metrics.SourceUpload, user, filename, content)
}

func (s *Service) upload(ctx context.Context, source string, user music.User, filename string, content []byte) (*music.Library, *music.AnalysisResult, error) {
	result, err := s.analyze(source, filename, content)
	if err != nil {
		return nil, nil, err
	}
	if s.store == nil {
		return nil, nil, fmt.Errorf("library storage is not configured")
	}

	if err := s.store.UpsertUser(ctx, &user); err != nil {
		return nil, nil, fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}

	library := &music.Library{
		ID:          music.GenerateLibraryID(),
		UserID:      user.ID,
		Filename:    filepath.Base(filename),
		UploadDate:  time.Now().UTC(),
		TotalTracks: result.Stats.TotalTracks,
		Content:     content,
	}
	if err := s.store.AddLibrary(ctx, library, result.Tracks); err != nil {
		slog.Error("Failed to store library", "error", err, "user", user.ID)
		return nil, nil, fmt.Errorf("failed to store library: %w", err)
	}

	slog.Info("Library stored", "id", library.ID, "user", user.ID, "filename", library.Filename,
		"tracks", library.TotalTracks)
	return library, result, nil
}

// owned loads a library and hides libraries of other users as not found.
func (s *Service) owned(ctx context.Context, userID, id string) (*music.Library, error) {
	if s.store == nil {
		return nil, ErrNotFound
	}
	library, err := s.store.GetLibrary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load library %s: %w", id, err)
	}
	if library == nil || library.UserID != userID {
		return nil, ErrNotFound
	}
	return library, nil
}

// GetReport re-runs the analysis over a stored export.
func (s *Service) GetReport(ctx context.Context, userID, id string) (*Report, error) {
	library, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if len(library.Content) == 0 {
		return nil, fmt.Errorf("%w: library %s has no stored export", ErrNotFound, id)
	}
	result, err := s.run(metrics.SourceReport, library.Content)
	if err != nil {
		return nil, err
	}
	return &Report{Library: library, Result: result}, nil
}

// ListLibraries returns the user's libraries, newest first.
func (s *Service) ListLibraries(ctx context.Context, userID string) ([]*music.Library, error) {
	if s.store == nil {
		return []*music.Library{}, nil
	}
	libraries, err := s.store.GetLibraries(ctx, userID)
	if err != nil {
		slog.Error("ListLibraries failed", "error", err, "user", userID)
		return nil, err
	}
	return libraries, nil
}

// DeleteLibrary removes one of the user's libraries.
func (s *Service) DeleteLibrary(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteLibrary(ctx, id); err != nil {
		return fmt.Errorf("failed to delete library %s: %w", id, err)
	}
	slog.Info("Library deleted", "id", id, "user", userID)
	return nil
}

// SearchTracks searches the stored tracks of all the user's libraries.
func (s *Service) SearchTracks(ctx context.Context, userID, query string, limit int) ([]music.StoredTrack, error) {
	if s.store == nil {
		return []music.StoredTrack{}, nil
	}
	return s.store.SearchTracks(ctx, userID, query, limit)
}

// Download returns the stored export and a filename safe for a Content-Disposition header.
func (s *Service) Download(ctx context.Context, userID, id string) (string, []byte, error) {
	library, err := s.owned(ctx, userID, id)
	if err != nil {
		return "", nil, err
	}
	return DownloadName(library.Filename), library.Content, nil
}

// ImportFile stores an export found on disk on behalf of the configured watch owner.
func (s *Service) ImportFile(ctx context.Context, path string) (*music.Library, error) {
	watch := s.configManager.Get().Watch
	if watch.OwnerID == "" {
		return nil, fmt.Errorf("watch owner is not configured")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidFile, path)
	}
	if info.Size() > int64(s.maxUploadBytes()) {
		s.recorder.ObserveFailure(metrics.SourceWatch, metrics.OutcomeRejected)
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrDocumentTooLarge, path, info.Size())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	user := music.User{ID: watch.OwnerID, Email: watch.OwnerEmail}
	library, _, err := s.upload(ctx, metrics.SourceWatch, user, filepath.Base(path), content)
	if err != nil {
		return nil, err
	}
	return library, nil
}
