package analysis

import (
	"fmt"
	"strings"

	"github.com/rekorded/rekorded/src/music"
)

type duplicateKey struct {
	artist string
	name   string
}

func keyOf(t *music.Track) duplicateKey {
	return duplicateKey{
		artist: strings.ToLower(strings.TrimSpace(t.Artist)),
		name:   strings.ToLower(strings.TrimSpace(t.Name)),
	}
}

// DetectDuplicates groups tracks by normalized artist and title and annotates
// every member of a group larger than one, originals included. It records the
// number of annotated tracks in the tally and returns it.
func DetectDuplicates(tracks []music.Track, tally IssueTally) int {
	groups := make(map[duplicateKey][]int)
	for i := range tracks {
		k := keyOf(&tracks[i])
		groups[k] = append(groups[k], i)
	}

	found := 0
	for i := range tracks {
		members := groups[keyOf(&tracks[i])]
		if len(members) < 2 {
			continue
		}
		found++
		tracks[i].Issues = append(tracks[i].Issues, music.Issue{
			Type:        music.IssueDuplicate,
			Description: fmt.Sprintf("Duplicate track found (%d copies)", len(members)),
			Severity:    music.SeverityWarning,
		})
	}
	tally[music.IssueDuplicate] = found
	return found
}
