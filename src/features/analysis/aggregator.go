package analysis

import (
	"math"
	"strconv"

	"github.com/rekorded/rekorded/src/music"
)

// TempoBucket returns the decade label for a tempo, e.g. "120s" for 128.4.
// The second value is false for tempos that do not belong to any bucket.
func TempoBucket(bpm float64) (string, bool) {
	if bpm <= 0 {
		return "", false
	}
	return strconv.FormatFloat(math.Floor(bpm/10)*10, 'f', 0, 64) + "s", true
}

// Aggregate folds the final track list and the issue tally into library stats.
func Aggregate(tracks []music.Track, tally IssueTally) music.LibraryStats {
	stats := music.NewLibraryStats()
	stats.TotalTracks = len(tracks)

	for it, n := range tally {
		stats.IssueDistribution[string(it)] = n
	}

	for i := range tracks {
		t := &tracks[i]
		if t.GigReady() {
			stats.TotalGigReady++
		}
		stats.FormatDistribution[t.Format()]++
		stats.GenreDistribution[t.Genre]++
		stats.KeyDistribution[t.Tonality]++
		if bucket, ok := TempoBucket(t.BPM); ok {
			stats.BPMDistribution[bucket]++
		}
	}
	return stats
}
