package analysis

import (
	"github.com/rekorded/rekorded/src/music"
)

// Analyze runs the full pipeline over one buffered library export: index the
// playlists, classify every entry, mark duplicates, then aggregate. It either
// returns a complete report or an error wrapping ErrMalformedDocument.
func Analyze(raw []byte) (*music.AnalysisResult, error) {
	doc, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return AnalyzeDocument(doc), nil
}

// AnalyzeDocument runs the pipeline over an already decoded document.
func AnalyzeDocument(doc *Document) *music.AnalysisResult {
	if doc.Collection == nil {
		return music.NewAnalysisResult(music.NewLibraryStats(), nil)
	}

	index := IndexPlaylists(doc.Playlists.Root())
	tally := NewIssueTally()

	tracks := make([]music.Track, 0, len(doc.Collection.Entries))
	for i := range doc.Collection.Entries {
		if track, ok := Classify(&doc.Collection.Entries[i], index, tally); ok {
			tracks = append(tracks, track)
		}
	}

	DetectDuplicates(tracks, tally)
	return music.NewAnalysisResult(Aggregate(tracks, tally), tracks)
}
