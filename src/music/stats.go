package music

// LibraryStats is the aggregate snapshot of one analyzed library.
type LibraryStats struct {
	TotalTracks        int            `json:"total_tracks"`
	TotalGigReady      int            `json:"total_gig_ready"`
	FormatDistribution map[string]int `json:"format_distribution"`
	IssueDistribution  map[string]int `json:"issue_distribution"`
	BPMDistribution    map[string]int `json:"bpm_distribution"`
	KeyDistribution    map[string]int `json:"key_distribution"`
	GenreDistribution  map[string]int `json:"genre_distribution"`
}

// NewLibraryStats returns stats with every distribution initialized and empty.
func NewLibraryStats() LibraryStats {
	return LibraryStats{
		FormatDistribution: map[string]int{},
		IssueDistribution:  map[string]int{},
		BPMDistribution:    map[string]int{},
		KeyDistribution:    map[string]int{},
		GenreDistribution:  map[string]int{},
	}
}

// TotalIssues sums the issue distribution.
func (s LibraryStats) TotalIssues() int {
	total := 0
	for _, n := range s.IssueDistribution {
		total += n
	}
	return total
}

// GigReadyPercent returns the rounded share of gig-ready tracks.
func (s LibraryStats) GigReadyPercent() int {
	if s.TotalTracks == 0 {
		return 0
	}
	return (s.TotalGigReady*100 + s.TotalTracks/2) / s.TotalTracks
}

// AnalysisResult is the finished quality report for one library export.
type AnalysisResult struct {
	Stats         LibraryStats `json:"stats"`
	Tracks        []Track      `json:"tracks"`
	FlaggedTracks []Track      `json:"flagged_tracks"`
}

// NewAnalysisResult builds a report and derives the flagged subset from tracks.
func NewAnalysisResult(stats LibraryStats, tracks []Track) *AnalysisResult {
	if tracks == nil {
		tracks = []Track{}
	}
	flagged := make([]Track, 0, len(tracks))
	for i := range tracks {
		if tracks[i].Flagged() {
			flagged = append(flagged, tracks[i])
		}
	}
	return &AnalysisResult{
		Stats:         stats,
		Tracks:        tracks,
		FlaggedTracks: flagged,
	}
}
