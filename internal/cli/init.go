package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/JMTC-dev/CodeSurf/internal/core"
	"github.com/JMTC-dev/CodeSurf/internal/storage"
	"github.com/JMTC-dev/CodeSurf/pkg/models"
	"github.com/spf13/cobra"
)

var (
	initMode  string
	initVideo string
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Mark a directory as a CodeSurf workspace",
	Long: `Write a .codesurf.yaml holding the default settings, create the .codesurf
state directory and add it to .gitignore. Existing files are left untouched.

Commands run anywhere below the directory will use it as their workspace root.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}
		abs, err := filepath.Abs(target)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", abs, err)
		}

		result, err := core.NewWorkspaceInitializer().Init(core.InitConfig{
			BasePath: abs,
			StateDir: storage.StateDir,
			Mode:     models.DetectionMode(initMode),
			VideoURL: initVideo,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Initialized CodeSurf workspace in %s\n", abs)
		for _, p := range result.Created {
			fmt.Printf("  created  %s\n", relTo(abs, p))
		}
		for _, p := range result.Skipped {
			fmt.Printf("  exists   %s\n", relTo(abs, p))
		}
		return nil
	},
}

func relTo(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}

func init() {
	initCmd.Flags().StringVar(&initMode, "mode", "", "detection mode: manual, smart or aggressive")
	initCmd.Flags().StringVar(&initVideo, "video", "", "video URL to play")
	rootCmd.AddCommand(initCmd)
}
