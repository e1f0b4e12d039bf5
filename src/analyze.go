package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rekorded/rekorded/src/features/libraries"
	"github.com/rekorded/rekorded/src/features/metrics"
	"github.com/rekorded/rekorded/src/music"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type analyzeOptions struct {
	json    bool
	flagged bool
}

func newAnalyzeCommand() *cobra.Command {
	opts := analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a library export and print its report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := libraries.NewService(nil, nil, nil)
			result, err := service.AnalyzeFile(args[0])
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), result, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the full report as JSON")
	cmd.Flags().BoolVar(&opts.flagged, "flagged", false, "List every flagged track")
	return cmd
}

func writeReport(w io.Writer, result *music.AnalysisResult, opts analyzeOptions) error {
	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fancy := isTerminal(w)
	p := message.NewPrinter(language.English)
	stats := result.Stats

	summary := [][]string{
		{"Tracks", p.Sprintf("%d", stats.TotalTracks)},
		{"Gig ready", p.Sprintf("%d (%d%%)", stats.TotalGigReady, stats.GigReadyPercent())},
		{"Flagged", p.Sprintf("%d", len(result.FlaggedTracks))},
		{"Issues", p.Sprintf("%d", stats.TotalIssues())},
	}
	fmt.Fprintln(w, renderTable("Summary", []string{"Metric", "Value"}, summary, []columnAlignment{alignLeft, alignRight}, fancy))

	for _, name := range metrics.ChartNames {
		chart, err := metrics.ChartFor(stats, name)
		if err != nil {
			return err
		}
		if len(chart.Labels) == 0 {
			continue
		}
		rows := make([][]string, 0, len(chart.Labels))
		for i, label := range chart.Labels {
			rows = append(rows, []string{label, p.Sprintf("%d", int(chart.Datasets[0].Data[i]))})
		}
		fmt.Fprintln(w, renderTable(chart.Datasets[0].Label, []string{strings.ToUpper(name[:1]) + name[1:], "Tracks"}, rows, []columnAlignment{alignLeft, alignRight}, fancy))
	}

	if top := libraries.TopPlayed(result.Tracks, 0); len(top) > 0 {
		rows := make([][]string, 0, len(top))
		for _, t := range top {
			rows = append(rows, []string{t.Name, t.Artist, p.Sprintf("%d", t.PlayCount)})
		}
		fmt.Fprintln(w, renderTable("Most played", []string{"Name", "Artist", "Plays"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}, fancy))
	}

	if opts.flagged && len(result.FlaggedTracks) > 0 {
		rows := make([][]string, 0, len(result.FlaggedTracks))
		for _, t := range result.FlaggedTracks {
			rows = append(rows, []string{t.ID, t.Name, t.Artist, issueSummary(t.Issues)})
		}
		fmt.Fprintln(w, renderTable("Flagged tracks", []string{"ID", "Name", "Artist", "Issues"}, rows, nil, fancy))
	}
	return nil
}

func issueSummary(issues []music.Issue) string {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		part := string(issue.Type)
		if issue.Severity == music.SeverityError {
			part += " [" + string(issue.Severity) + "]"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}
