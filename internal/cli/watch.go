package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/JMTC-dev/CodeSurf/internal/integration"
)

var (
	watchDir  string
	watchFeed string
	watchTUI  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Detect generated code and drive playback",
	Long: `Watch a workspace for edits and play the configured video while code is
being generated.

Edits come from the file system under --dir (default: the workspace root) or
from an editor feed of JSON lines given with --feed (a path, or - for stdin).
When only --feed is given the file system is not watched. Playback commands
are appended to .codesurf/surface/outbox/commands.jsonl for the renderer.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchTUI && watchFeed == "-" {
			return fmt.Errorf("--tui cannot read the feed from stdin; pass a feed file instead")
		}

		sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stopSignals()
		ctx, cancel := context.WithCancel(sigCtx)
		defer cancel()

		host, err := startEngine(ctx)
		if err != nil {
			return err
		}
		defer func() {
			cancel()
			<-host.engine.Done()
		}()

		warn := warnFunc(watchTUI)
		useWatcher := watchFeed == "" || cmd.Flags().Changed("dir")

		dir := watchDir
		if dir == "" {
			dir = BasePath
		}
		if useWatcher {
			if err := integration.ValidateWatchRoot(dir); err != nil {
				return err
			}
			ww, err := integration.NewWorkspaceWatcher(dir)
			if err != nil {
				return fmt.Errorf("watching %s: %w", dir, err)
			}
			defer ww.Close()
			go func() { _ = ww.Run(ctx, host.engine.SubmitEdit, warn) }()
		}

		if watchFeed != "" {
			r, closeFeed, err := openFeed(watchFeed)
			if err != nil {
				return err
			}
			defer closeFeed()
			go func() {
				if err := integration.ReadFeed(ctx, r, engineFeed{engine: host.engine}, warn); err != nil {
					warn(err)
				}
				// A finished feed with nothing else to watch ends the session
				// once its events have been handled.
				if !useWatcher {
					_ = host.engine.Sync()
					cancel()
				}
			}()
		}

		if watchTUI {
			p := tea.NewProgram(newDashboardModel(host.engine, MetricsCalc, AlertEngine), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil && ctx.Err() == nil {
				return fmt.Errorf("running dashboard: %w", err)
			}
			return nil
		}

		if useWatcher {
			fmt.Printf("Watching %s\n", dir)
		}
		fmt.Printf("Playback commands: %s\n", host.outboxPath)
		fmt.Println("Press Ctrl+C to stop.")
		<-ctx.Done()
		return nil
	},
}

// openFeed returns stdin for "-" and the named file otherwise.
func openFeed(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening feed: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "Directory to watch (default: workspace root)")
	watchCmd.Flags().StringVar(&watchFeed, "feed", "", "Editor event feed: a JSONL file, or - for stdin")
	watchCmd.Flags().BoolVar(&watchTUI, "tui", false, "Show the live dashboard (t: toggle, q: quit)")
	rootCmd.AddCommand(watchCmd)
}
