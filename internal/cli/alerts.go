package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/JMTC-dev/CodeSurf/internal/observability"
	"github.com/spf13/cobra"
)

var alertsJSON bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show health alerts derived from the event log",
	Long: `Check the recent event log for trouble: a playback surface that keeps
rejecting commands, statistics that could not be saved, a configuration file
that could not be read, or playback left running for hours.

Alerts are listed most severe first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized (observability may be disabled)")
		}

		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			return fmt.Errorf("evaluating alerts: %w", err)
		}
		sortAlerts(alerts)

		if alertsJSON {
			if alerts == nil {
				alerts = []observability.Alert{}
			}
			data, err := json.MarshalIndent(alerts, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding alerts: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(alerts) == 0 {
			fmt.Println("No active alerts.")
			return nil
		}

		fmt.Printf("%d active alert(s):\n\n", len(alerts))
		for _, a := range alerts {
			fmt.Printf("  %-8s %s\n", "["+strings.ToUpper(string(a.Severity))+"]", a.Message)
			fmt.Printf("           %s, since %s\n", a.Condition, a.TriggeredAt.Local().Format("Jan 2 15:04"))
		}
		return nil
	},
}

// sortAlerts orders alerts high severity first, keeping evaluation order
// within a severity.
func sortAlerts(alerts []observability.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
	})
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "print alerts as JSON")
	rootCmd.AddCommand(alertsCmd)
}
