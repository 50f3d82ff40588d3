package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// completeVideos lists the videos already watched, most watched first, for
// the set-video argument.
func completeVideos(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || StatsStore == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	stats, err := StatsStore.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	// Stable so equal counts keep first-watched order.
	videos := stats.Clone().VideosWatched
	sort.SliceStable(videos, func(i, j int) bool { return videos[i].Count > videos[j].Count })

	var out []string
	for _, v := range videos {
		if toComplete == "" || strings.HasPrefix(v.Video, toComplete) {
			out = append(out, v.Video)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	setVideoCmd.ValidArgsFunction = completeVideos
}
