package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JMTC-dev/CodeSurf/internal/integration"
	csmcp "github.com/JMTC-dev/CodeSurf/internal/mcp"
)

var mcpDir string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the CodeSurf MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the CodeSurf MCP server on stdio",
	Long: `Start the CodeSurf MCP server on stdio transport.

The server runs a detection engine that watches --dir (default: the workspace
root) and exposes its commands as MCP tools: toggle_playback, set_video,
get_stats, reset_stats, get_status, get_metrics and get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		dir := mcpDir
		if dir == "" {
			dir = BasePath
		}
		if err := integration.ValidateWatchRoot(dir); err != nil {
			return err
		}
		ww, err := integration.NewWorkspaceWatcher(dir)
		if err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		defer ww.Close()
		// Stdout carries the protocol, so warnings only go to the event log.
		go func() { _ = ww.Run(ctx, host.engine.SubmitEdit, warnFunc(true)) }()

		srv := csmcp.NewServer(host.engine, MetricsCalc, AlertEngine, appVersion)
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpDir, "dir", "", "Directory to watch (default: workspace root)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
