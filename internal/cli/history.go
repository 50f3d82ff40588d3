package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JMTC-dev/CodeSurf/internal/core"
	"github.com/JMTC-dev/CodeSurf/internal/storage"
	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent playback sessions",
	Long: `List the most recently closed playback sessions, newest first, with their
duration and the lines generated while the video played.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if History == nil {
			return fmt.Errorf("session history not available (%s could not be opened)", storage.HistoryPath(BasePath))
		}
		if historyLimit <= 0 {
			return fmt.Errorf("--limit must be positive")
		}

		sessions, err := History.Recent(context.Background(), historyLimit)
		if err != nil {
			return err
		}

		if historyJSON {
			if sessions == nil {
				sessions = []models.SessionSummary{}
			}
			data, err := json.MarshalIndent(sessions, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting history as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions recorded yet.")
			return nil
		}

		fmt.Printf("%-17s %-10s %-7s %s\n", "ENDED", "DURATION", "LINES", "VIDEO")
		for _, s := range sessions {
			fmt.Printf("%-17s %-10s %-7d %s\n",
				s.EndedAt.Local().Format("2006-01-02 15:04"),
				core.FormatDuration(s.Duration.Milliseconds()),
				s.LinesGenerated,
				core.VideoLabel(s.Video),
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of sessions to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output sessions as JSON")
	rootCmd.AddCommand(historyCmd)
}
