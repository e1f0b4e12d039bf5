package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rekorded/rekorded/src/music"
)

// Chart names accepted by ChartFor.
const (
	ChartBPM     = "bpm"
	ChartKeys    = "keys"
	ChartGenres  = "genres"
	ChartFormats = "formats"
	ChartIssues  = "issues"
)

// ErrUnknownChart is returned by ChartFor for names outside ChartNames.
var ErrUnknownChart = errors.New("unknown chart")

// ChartNames lists every chart in display order.
var ChartNames = []string{ChartBPM, ChartKeys, ChartGenres, ChartFormats, ChartIssues}

const (
	topKeys   = 10
	topGenres = 6
)

// ChartData represents data for Chart.js charts.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset represents a Chart.js dataset.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
	BorderColor     []string  `json:"borderColor,omitempty"`
}

var palette = []string{"#3b82f6", "#8b5cf6", "#10b981", "#f59e0b", "#ef4444", "#06b6d4"}

type bucket struct {
	label string
	count int
}

// ChartFor builds the named chart from library stats.
func ChartFor(stats music.LibraryStats, name string) (*ChartData, error) {
	switch strings.ToLower(name) {
	case ChartBPM:
		return BPMChartData(stats), nil
	case ChartKeys:
		return KeyChartData(stats), nil
	case ChartGenres:
		return GenreChartData(stats), nil
	case ChartFormats:
		return FormatChartData(stats), nil
	case ChartIssues:
		return IssueChartData(stats), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownChart, name)
	}
}

// BPMChartData orders tempo buckets numerically, so "90s" comes before "120s".
func BPMChartData(stats music.LibraryStats) *ChartData {
	buckets := toBuckets(stats.BPMDistribution, nil)
	sort.SliceStable(buckets, func(i, j int) bool {
		return bucketTempo(buckets[i].label) < bucketTempo(buckets[j].label)
	})
	return build("Tracks by BPM", buckets, []string{palette[0]})
}

// KeyChartData returns the ten most common keys, ignoring unknown keys.
func KeyChartData(stats music.LibraryStats) *ChartData {
	buckets := byCount(toBuckets(stats.KeyDistribution, func(k string) bool { return k != "-" }))
	return build("Top Keys", head(buckets, topKeys), []string{palette[1]})
}

// GenreChartData returns the six most common genres, ignoring placeholders.
func GenreChartData(stats music.LibraryStats) *ChartData {
	buckets := byCount(toBuckets(stats.GenreDistribution, func(g string) bool {
		return g != "" && g != "Unknown" && g != "-"
	}))
	buckets = head(buckets, topGenres)
	return build("Tracks by Genre", buckets, colors(len(buckets)))
}

// FormatChartData returns every format, most common first.
func FormatChartData(stats music.LibraryStats) *ChartData {
	buckets := byCount(toBuckets(stats.FormatDistribution, nil))
	return build("Tracks by Format", buckets, colors(len(buckets)))
}

// IssueChartData returns every issue type in report order, zero counts included.
func IssueChartData(stats music.LibraryStats) *ChartData {
	buckets := make([]bucket, 0, len(music.IssueTypes))
	for _, it := range music.IssueTypes {
		buckets = append(buckets, bucket{label: string(it), count: stats.IssueDistribution[string(it)]})
	}
	return build("Issues", buckets, colors(len(buckets)))
}

func toBuckets(dist map[string]int, keep func(string) bool) []bucket {
	buckets := make([]bucket, 0, len(dist))
	for label, count := range dist {
		if keep != nil && !keep(label) {
			continue
		}
		buckets = append(buckets, bucket{label: label, count: count})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].label < buckets[j].label })
	return buckets
}

// byCount sorts by descending count; ties keep label order.
func byCount(buckets []bucket) []bucket {
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].count > buckets[j].count })
	return buckets
}

func head(buckets []bucket, n int) []bucket {
	if len(buckets) > n {
		return buckets[:n]
	}
	return buckets
}

func bucketTempo(label string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSuffix(label, "s"), 64)
	if err != nil {
		return 0
	}
	return n
}

func colors(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = palette[i%len(palette)]
	}
	return out
}

func build(label string, buckets []bucket, background []string) *ChartData {
	labels := make([]string, len(buckets))
	data := make([]float64, len(buckets))
	for i, b := range buckets {
		labels[i] = b.label
		data[i] = float64(b.count)
	}
	return &ChartData{
		Labels: labels,
		Datasets: []Dataset{{
			Label:           label,
			Data:            data,
			BackgroundColor: background,
		}},
	}
}
