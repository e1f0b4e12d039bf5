package analysis

import (
	"testing"

	"github.com/rekorded/rekorded/src/music"
)

func TestParseCount(t *testing.T) {
	cases := map[string]int{
		"":                        0,
		"320":                     320,
		"0":                       0,
		" 320":                    0,
		"-5":                      0,
		"12.5":                    0,
		"abc":                     0,
		"99999999999999999999999": 0,
	}
	for in, want := range cases {
		if got := parseCount(in); got != want {
			t.Errorf("parseCount(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseTempo(t *testing.T) {
	cases := map[string]float64{
		"":       0,
		"128.00": 128,
		"174":    174,
		".5":     0.5,
		"1.2.3":  0,
		"-120":   0,
		"1e3":    0,
		".":      0,
		"NaN":    0,
	}
	for in, want := range cases {
		if got := parseTempo(in); got != want {
			t.Errorf("parseTempo(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestClassifyDefaults(t *testing.T) {
	tally := NewIssueTally()
	track, ok := Classify(&Entry{Name: named("  Bare  ")}, PlaylistIndex{}, tally)
	if !ok {
		t.Fatal("expected entry to be kept")
	}

	if track.Name != "Bare" {
		t.Errorf("expected trimmed name, got %q", track.Name)
	}
	if track.Artist != DefaultArtist || track.Album != DefaultAlbum || track.Genre != DefaultGenre {
		t.Errorf("unexpected descriptive defaults: %+v", track)
	}
	if track.Kind != DefaultKind || track.Tonality != DefaultTonality {
		t.Errorf("unexpected kind/tonality defaults: %q %q", track.Kind, track.Tonality)
	}
	if track.ID != "" || track.Year != "" || track.Location != "" {
		t.Errorf("expected empty id, year, location: %+v", track)
	}
	if track.Playlists == nil || track.Issues == nil {
		t.Error("playlists and issues must be non-nil")
	}
	if tally[music.IssueBrokenLink] != 1 || tally[music.IssueMissingCues] != 1 {
		t.Errorf("unexpected tally %v", tally)
	}
}

func TestClassifyPresentButEmptyAttributesStayEmpty(t *testing.T) {
	entry := &Entry{Name: named("X"), Artist: named(""), Genre: named(""), Kind: named("")}
	track, ok := Classify(entry, PlaylistIndex{}, NewIssueTally())
	if !ok {
		t.Fatal("expected entry to be kept")
	}
	if track.Artist != "" || track.Genre != "" || track.Kind != "" {
		t.Errorf("present attributes must not be defaulted: %+v", track)
	}
	if track.Format() != "" {
		t.Errorf("expected empty format, got %q", track.Format())
	}
}

func TestClassifyRules(t *testing.T) {
	withCues := []marker{{}}
	cases := []struct {
		name  string
		entry Entry
		want  []music.IssueType
		ready bool
	}{
		{
			name:  "aac below floor",
			entry: Entry{Name: named("a"), Kind: named("M4A (AAC) File"), BitRate: named("255"), Location: named("f"), Cues: withCues},
			want:  []music.IssueType{music.IssueLowBitrate},
		},
		{
			name:  "mp3 at floor",
			entry: Entry{Name: named("a"), Kind: named("mp3 file"), BitRate: named("256"), Location: named("f"), Cues: withCues},
			ready: true,
		},
		{
			name:  "unknown bitrate is not low",
			entry: Entry{Name: named("a"), Kind: named("MP3 File"), BitRate: named("0"), Location: named("f"), Cues: withCues},
		},
		{
			name:  "lossless low bitrate ignored",
			entry: Entry{Name: named("a"), Kind: named("WAV File"), BitRate: named("128"), Location: named("f"), Cues: withCues},
			ready: true,
		},
		{
			name:  "ten tempo markers is fine",
			entry: Entry{Name: named("a"), Kind: named("WAV File"), Location: named("f"), Cues: withCues, Tempos: make([]marker, 10)},
			ready: true,
		},
		{
			name:  "eleven tempo markers",
			entry: Entry{Name: named("a"), Kind: named("WAV File"), Location: named("f"), Cues: withCues, Tempos: make([]marker, 11)},
			want:  []music.IssueType{music.IssueDynamicTempo},
			ready: true,
		},
		{
			name:  "everything wrong",
			entry: Entry{Name: named("a"), Kind: named("MP3 File"), BitRate: named("96"), Tempos: make([]marker, 12)},
			want:  []music.IssueType{music.IssueLowBitrate, music.IssueMissingCues, music.IssueBrokenLink, music.IssueDynamicTempo},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tally := NewIssueTally()
			track, ok := Classify(&tc.entry, PlaylistIndex{}, tally)
			if !ok {
				t.Fatal("expected entry to be kept")
			}
			got := issueTypes(track)
			if len(got) != len(tc.want) {
				t.Fatalf("want issues %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("want issues %v, got %v", tc.want, got)
				}
				if tally[got[i]] != 1 {
					t.Errorf("tally for %s = %d, want 1", got[i], tally[got[i]])
				}
			}
			if track.GigReady() != tc.ready {
				t.Errorf("gig ready = %v, want %v", track.GigReady(), tc.ready)
			}
		})
	}
}

func TestClassifyBrokenLinkIsError(t *testing.T) {
	track, _ := Classify(&Entry{Name: named("a"), Cues: []marker{{}}}, PlaylistIndex{}, NewIssueTally())
	if len(track.Issues) != 1 || track.Issues[0].Severity != music.SeverityError {
		t.Fatalf("expected a single error-severity issue, got %+v", track.Issues)
	}
}

func TestTempoBucket(t *testing.T) {
	cases := []struct {
		bpm  float64
		want string
		ok   bool
	}{
		{128.4, "120s", true},
		{120, "120s", true},
		{9.9, "0s", true},
		{1e20, "100000000000000000000s", true},
		{0, "", false},
		{-3, "", false},
	}
	for _, tc := range cases {
		got, ok := TempoBucket(tc.bpm)
		if got != tc.want || ok != tc.ok {
			t.Errorf("TempoBucket(%v) = %q,%v want %q,%v", tc.bpm, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDetectDuplicatesWithEmptyIDs(t *testing.T) {
	tracks := []music.Track{
		{Name: "Loop", Artist: "A", Issues: []music.Issue{}},
		{Name: "loop", Artist: "a", Issues: []music.Issue{}},
		{Name: "LOOP ", Artist: " A", Issues: []music.Issue{}},
	}
	tally := NewIssueTally()

	if n := DetectDuplicates(tracks, tally); n != 3 {
		t.Fatalf("expected 3 duplicates, got %d", n)
	}
	for i, track := range tracks {
		if len(track.Issues) != 1 || track.Issues[0].Description != "Duplicate track found (3 copies)" {
			t.Errorf("track %d: unexpected issues %+v", i, track.Issues)
		}
	}
	if tally[music.IssueDuplicate] != 3 {
		t.Errorf("tally = %d, want 3", tally[music.IssueDuplicate])
	}
}

func TestAnalyzeHugeTempoKeepsItsBucket(t *testing.T) {
	raw := []byte(`<DJ_PLAYLISTS><COLLECTION>` +
		`<TRACK TrackID="1" Name="Fast" AverageBpm="100000000000000000000"/>` +
		`<TRACK TrackID="2" Name="Slow" AverageBpm="95.5"/>` +
		`</COLLECTION></DJ_PLAYLISTS>`)

	result, err := Analyze(raw)
	if err != nil {
		t.Fatal(err)
	}
	got := result.Stats.BPMDistribution
	if len(got) != 2 || got["100000000000000000000s"] != 1 || got["90s"] != 1 {
		t.Errorf("unexpected bpm distribution %v", got)
	}
}
