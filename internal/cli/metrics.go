package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/JMTC-dev/CodeSurf/internal/core"
	"github.com/JMTC-dev/CodeSurf/internal/observability"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display detection and playback metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include trigger counts by signal and mode, playback transitions,
closed sessions with their total time and generated lines, and error counts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := observability.ParseWindow(metricsSince, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-24s %d\n", "Triggers:", metrics.Triggers)
		fmt.Printf("  %-24s %d\n", "Late clipboard echoes:", metrics.LateClipboard)
		fmt.Printf("  %-24s %d\n", "Diagnostics bursts:", metrics.DiagnosticsBursts)
		fmt.Printf("  %-24s %d started, %d resumed, %d paused, %d hidden, %d toggled\n", "Playback:",
			metrics.Starts, metrics.Resumes, metrics.Pauses, metrics.Hides, metrics.Toggles)
		fmt.Printf("  %-24s %d\n", "Sessions closed:", metrics.SessionsClosed)
		fmt.Printf("  %-24s %s\n", "Session time:", core.FormatDuration(metrics.SessionTimeMS))
		fmt.Printf("  %-24s %d\n", "Lines generated:", metrics.LinesGenerated)
		fmt.Printf("  %-24s %d\n", "Errors:", metrics.Errors)

		printCounts("Triggers by signal:", metrics.TriggersBySignal)
		printCounts("Triggers by mode:", metrics.TriggersByMode)

		if metrics.OldestEvent != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// printCounts prints a titled breakdown sorted by key.
func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("\n  %s\n", title)
	for _, k := range keys {
		fmt.Printf("    %-20s %d\n", k+":", counts[k])
	}
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "look-back window, e.g. 7d, 24h or 90m")
	rootCmd.AddCommand(metricsCmd)
}
