package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rekorded/rekorded/src/music"
)

// Attribute defaults applied when an entry omits the attribute entirely.
const (
	DefaultArtist   = "Unknown"
	DefaultAlbum    = "-"
	DefaultGenre    = "Unknown"
	DefaultKind     = "Unknown File"
	DefaultTonality = "-"
)

// MaxTempoMarkers is the number of tempo markers above which a track is flagged as dynamic.
const MaxTempoMarkers = 10

// streamingMarkers identify entries that point at a streaming service rather than a file.
var streamingMarkers = []string{"soundcloud", "spotify", "tidal", "beatport"}

// IssueTally counts fired defect rules across one analysis run.
type IssueTally map[music.IssueType]int

// NewIssueTally returns a tally with every issue type present at zero.
func NewIssueTally() IssueTally {
	tally := make(IssueTally, len(music.IssueTypes))
	for _, it := range music.IssueTypes {
		tally[it] = 0
	}
	return tally
}

// Classify turns one collection entry into a track. It returns false when the
// entry is skipped (blank name or streamed location). Every issue it attaches
// is also counted in tally.
func Classify(e *Entry, index PlaylistIndex, tally IssueTally) (music.Track, bool) {
	name := strings.TrimSpace(e.Name.Value)
	if name == "" {
		return music.Track{}, false
	}
	location := e.Location.Value
	if isStreamed(location) {
		return music.Track{}, false
	}

	id := e.TrackID.Value
	track := music.Track{
		ID:         id,
		Name:       name,
		Artist:     e.Artist.Or(DefaultArtist),
		Album:      e.Album.Or(DefaultAlbum),
		Genre:      e.Genre.Or(DefaultGenre),
		Kind:       e.Kind.Or(DefaultKind),
		Bitrate:    parseCount(e.BitRate.Value),
		SampleRate: parseCount(e.SampleRate.Value),
		BPM:        parseTempo(e.AverageBpm.Value),
		Tonality:   e.Tonality.Or(DefaultTonality),
		PlayCount:  parseCount(e.PlayCount.Value),
		Year:       e.Year.Value,
		Location:   location,
		HasCues:    len(e.Cues) > 0,
		Issues:     []music.Issue{},
		Playlists:  index.Paths(id),
	}

	flag := func(it music.IssueType, sev music.Severity, desc string) {
		track.Issues = append(track.Issues, music.Issue{Type: it, Description: desc, Severity: sev})
		tally[it]++
	}

	if track.Compressed() && track.Bitrate > 0 && track.Bitrate < music.MinGigBitrate {
		flag(music.IssueLowBitrate, music.SeverityWarning, fmt.Sprintf("Bitrate is %dkbps", track.Bitrate))
	}
	if !track.HasCues {
		flag(music.IssueMissingCues, music.SeverityWarning, "No Hot Cues or Memory Cues found")
	}
	if location == "" {
		flag(music.IssueBrokenLink, music.SeverityError, "No file location specified")
	}
	if n := len(e.Tempos); n > MaxTempoMarkers {
		flag(music.IssueDynamicTempo, music.SeverityWarning, fmt.Sprintf("Track has %d tempo changes.", n))
	}

	return track, true
}

func isStreamed(location string) bool {
	lower := strings.ToLower(location)
	for _, marker := range streamingMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// parseCount accepts only plain decimal digits; anything else is 0.
func parseCount(s string) int {
	if s == "" {
		return 0
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// parseTempo accepts digits with at most one decimal point; anything else is 0.
func parseTempo(s string) float64 {
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			digits++
		case s[i] == '.':
			dots++
		default:
			return 0
		}
	}
	if digits == 0 || dots > 1 {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0
	}
	return f
}
