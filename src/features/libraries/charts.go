package libraries

import (
	"context"
	"sort"

	"github.com/rekorded/rekorded/src/features/metrics"
	"github.com/rekorded/rekorded/src/music"
)

// DefaultTopPlayed is the number of tracks returned by TopPlayed when no limit is given.
const DefaultTopPlayed = 5

// Chart builds one named chart for a stored library.
func (s *Service) Chart(ctx context.Context, userID, id, name string) (*metrics.ChartData, error) {
	report, err := s.GetReport(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return metrics.ChartFor(report.Result.Stats, name)
}

// TopPlayed returns up to n tracks by descending play count, in library order on ties.
func TopPlayed(tracks []music.Track, n int) []music.Track {
	if n <= 0 {
		n = DefaultTopPlayed
	}
	sorted := make([]music.Track, len(tracks))
	copy(sorted, tracks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PlayCount > sorted[j].PlayCount
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
