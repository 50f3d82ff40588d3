package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JMTC-dev/CodeSurf/internal/core"
)

var (
	statsJSON         bool
	resetStatsYes     bool
	resetStatsHistory bool
)

// newTracker loads the stats from the store for one command.
func newTracker() (core.StatsTracker, error) {
	if StatsStore == nil {
		return nil, fmt.Errorf("stats store not initialized")
	}
	return core.NewStatsTracker(StatsStore, sessionHistory(), EventLogger), nil
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cumulative usage statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := newTracker()
		if err != nil {
			return err
		}

		if statsJSON {
			data, err := json.MarshalIndent(tracker.Stats(), "", "  ")
			if err != nil {
				return fmt.Errorf("formatting stats as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Print(tracker.Format())
		return nil
	},
}

var resetStatsCmd = &cobra.Command{
	Use:   "reset-stats",
	Short: "Reset cumulative usage statistics",
	Long: `Reset every cumulative statistic to zero. Asks for confirmation unless --yes
is given. With --history the recorded session history is cleared as well.

A running "codesurf watch" reloads the statistics before it records its next
session change, so the reset is kept; a session open during the reset is
counted from zero.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := newTracker()
		if err != nil {
			return err
		}

		if !resetStatsYes && !confirm(cmd, "Reset all CodeSurf statistics?") {
			fmt.Println("Aborted.")
			return nil
		}

		if err := tracker.Reset(); err != nil {
			return fmt.Errorf("resetting stats: %w", err)
		}
		if resetStatsHistory && History != nil {
			if err := History.Clear(context.Background()); err != nil {
				return err
			}
		}
		fmt.Println("Statistics reset.")
		return nil
	},
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

var setVideoCmd = &cobra.Command{
	Use:   "set-video <url>",
	Short: "Set the video played during generation",
	Long: `Set the video played while code is being generated. YouTube watch and
youtu.be links are converted to embed URLs. A running "codesurf watch" picks
the new video up on its next session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConfigMgr == nil {
			return fmt.Errorf("configuration not initialized")
		}
		url := strings.TrimSpace(args[0])
		if url == "" {
			return fmt.Errorf("video URL is empty")
		}
		url = core.NormalizeVideoURL(url)
		if err := ConfigMgr.SetVideoURL(url); err != nil {
			return err
		}
		fmt.Printf("Video set to %s\n", url)
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output stats as JSON")
	resetStatsCmd.Flags().BoolVarP(&resetStatsYes, "yes", "y", false, "Skip the confirmation prompt")
	resetStatsCmd.Flags().BoolVar(&resetStatsHistory, "history", false, "Also clear the session history")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetStatsCmd)
	rootCmd.AddCommand(setVideoCmd)
}
