package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/JMTC-dev/CodeSurf/internal/observability"
	"github.com/spf13/cobra"
)

var (
	eventsLimit int
	eventsType  string
	eventsLevel string
	eventsSince string
	eventsJSON  bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the most recent detection and playback events",
	Long: `Print the tail of the workspace event log, oldest first.

Filter by --type (e.g. detect.triggered, surface.error), --level (INFO, WARN,
ERROR) or --since (e.g. 24h, 7d). With --json each event is printed as one
JSON line.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized (observability may be disabled)")
		}
		if eventsLimit <= 0 {
			return fmt.Errorf("--limit must be positive")
		}

		filter := observability.EventFilter{
			Type:  strings.TrimSpace(eventsType),
			Level: strings.ToUpper(strings.TrimSpace(eventsLevel)),
			Limit: eventsLimit,
		}
		if eventsSince != "" {
			since, err := observability.ParseWindow(eventsSince, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = &since
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}

		if eventsJSON {
			for _, ev := range events {
				line, err := json.Marshal(ev)
				if err != nil {
					return fmt.Errorf("encoding event: %w", err)
				}
				fmt.Println(string(line))
			}
			return nil
		}

		if len(events) == 0 {
			fmt.Println("No events recorded.")
			return nil
		}
		for _, ev := range events {
			fmt.Printf("%s  %-5s  %-22s %s\n", ev.Time.Local().Format("Jan 02 15:04:05"), ev.Level, ev.Type, eventDetail(ev.Data))
		}
		return nil
	},
}

// eventDetail renders event data as sorted key=value pairs.
func eventDetail(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 20, "number of events to show")
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "only show events of this type")
	eventsCmd.Flags().StringVar(&eventsLevel, "level", "", "only show events at this level")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "look-back window, e.g. 24h or 7d")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "print events as JSON lines")
	rootCmd.AddCommand(eventsCmd)
}
