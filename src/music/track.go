package music

import (
	"fmt"
	"strings"
)

// Severity tells how urgently an issue should be fixed before a gig.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IssueType names one of the fixed defect categories.
type IssueType string

const (
	IssueLowBitrate   IssueType = "Low Bitrate"
	IssueMissingCues  IssueType = "Missing Cues"
	IssueBrokenLink   IssueType = "Broken Link"
	IssueDuplicate    IssueType = "Duplicate"
	IssueDynamicTempo IssueType = "Dynamic Tempo"
)

// IssueTypes lists every defect category in report order.
var IssueTypes = []IssueType{
	IssueLowBitrate,
	IssueMissingCues,
	IssueBrokenLink,
	IssueDuplicate,
	IssueDynamicTempo,
}

// ParseIssueType resolves a case-insensitive issue type name.
func ParseIssueType(s string) (IssueType, error) {
	for _, it := range IssueTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(it)) {
			return it, nil
		}
	}
	return "", fmt.Errorf("unknown issue type %q", s)
}

// Issue is a single defect annotation attached to a track.
type Issue struct {
	Type        IssueType `json:"issue_type"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
}

// Track represents one collection entry of a library export after classification.
type Track struct {
	ID         string   `json:"track_id"`
	Name       string   `json:"name"`
	Artist     string   `json:"artist"`
	Album      string   `json:"album"`
	Genre      string   `json:"genre"`
	Kind       string   `json:"kind"`
	Bitrate    int      `json:"bitrate"`
	SampleRate int      `json:"sample_rate"`
	BPM        float64  `json:"bpm"`
	Tonality   string   `json:"tonality"`
	PlayCount  int      `json:"play_count"`
	Year       string   `json:"year"`
	Location   string   `json:"location"`
	Issues     []Issue  `json:"issues"`
	Playlists  []string `json:"playlists"`
	HasCues    bool     `json:"has_cues"`
}

// HasIssue reports whether the track carries an issue of the given type.
func (t *Track) HasIssue(it IssueType) bool {
	for _, issue := range t.Issues {
		if issue.Type == it {
			return true
		}
	}
	return false
}

// Flagged reports whether the track has at least one issue.
func (t *Track) Flagged() bool {
	return len(t.Issues) > 0
}

// Format returns the leading token of the kind label, e.g. "MP3" for "MP3 File".
func (t *Track) Format() string {
	fields := strings.Fields(t.Kind)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Compressed reports whether the file kind is a lossy compressed format.
func (t *Track) Compressed() bool {
	kind := strings.ToUpper(t.Kind)
	return strings.Contains(kind, "MP3") || strings.Contains(kind, "AAC")
}

// GigReady reports whether the track has cues and, when compressed, meets the bitrate floor.
func (t *Track) GigReady() bool {
	return t.HasCues && (!t.Compressed() || t.Bitrate >= MinGigBitrate)
}

// MinGigBitrate is the lowest acceptable bitrate (kbps) for compressed files.
const MinGigBitrate = 256
