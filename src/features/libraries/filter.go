package libraries

import (
	"strconv"
	"strings"

	"github.com/rekorded/rekorded/src/music"
)

// TrackFilter narrows the track lists of a report. The zero value keeps everything.
type TrackFilter struct {
	Issue       music.IssueType
	Query       string
	FlaggedOnly bool
}

// ParseTrackFilter builds a filter from raw query parameters.
func ParseTrackFilter(issue, query, flagged string) (TrackFilter, error) {
	var f TrackFilter
	if strings.TrimSpace(issue) != "" {
		it, err := music.ParseIssueType(issue)
		if err != nil {
			return f, err
		}
		f.Issue = it
	}
	if flagged != "" {
		b, err := strconv.ParseBool(flagged)
		if err != nil {
			return f, err
		}
		f.FlaggedOnly = b
	}
	f.Query = strings.ToLower(strings.TrimSpace(query))
	return f, nil
}

// IsZero reports whether the filter keeps every track.
func (f TrackFilter) IsZero() bool {
	return f.Issue == "" && f.Query == "" && !f.FlaggedOnly
}

// Match reports whether a track passes the filter.
func (f TrackFilter) Match(t *music.Track) bool {
	if f.FlaggedOnly && !t.Flagged() {
		return false
	}
	if f.Issue != "" && !t.HasIssue(f.Issue) {
		return false
	}
	if f.Query != "" {
		haystack := strings.ToLower(t.Name + "\x00" + t.Artist + "\x00" + t.Album)
		if !strings.Contains(haystack, f.Query) {
			return false
		}
	}
	return true
}

// Apply returns a copy of result whose track lists only hold matching tracks.
// Stats always describe the whole library.
func (f TrackFilter) Apply(result *music.AnalysisResult) *music.AnalysisResult {
	if f.IsZero() {
		return result
	}
	tracks := make([]music.Track, 0, len(result.Tracks))
	for i := range result.Tracks {
		if f.Match(&result.Tracks[i]) {
			tracks = append(tracks, result.Tracks[i])
		}
	}
	return music.NewAnalysisResult(result.Stats, tracks)
}
