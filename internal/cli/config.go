package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

var configValidate bool

// configView mirrors the sections of .codesurf.yaml.
type configView struct {
	Detection struct {
		Mode                    models.DetectionMode `yaml:"mode"`
		MinLines                int                  `yaml:"min_lines"`
		MinCharacters           int                  `yaml:"min_characters"`
		RequireMultiplePatterns bool                 `yaml:"require_multiple_patterns"`
		SensitivityMS           int                  `yaml:"sensitivity_ms"`
		StrictClipboard         bool                 `yaml:"strict_clipboard"`
	} `yaml:"detection"`
	Playback struct {
		HideDelayMS    int    `yaml:"hide_delay_ms"`
		AutoHide       bool   `yaml:"auto_hide"`
		NeverAutoPause bool   `yaml:"never_auto_pause"`
		AutoPlay       bool   `yaml:"auto_play"`
		PauseOnFocus   bool   `yaml:"pause_on_focus"`
		VideoURL       string `yaml:"video_url"`
		PanelColumn    string `yaml:"panel_column"`
	} `yaml:"playback"`
}

func newConfigView(cfg *models.DetectionConfig) configView {
	var v configView
	v.Detection.Mode = cfg.Mode
	v.Detection.MinLines = cfg.MinLines
	v.Detection.MinCharacters = cfg.MinCharacters
	v.Detection.RequireMultiplePatterns = cfg.RequireMultiplePatterns
	v.Detection.SensitivityMS = cfg.SensitivityMS
	v.Detection.StrictClipboard = cfg.StrictClipboard
	v.Playback.HideDelayMS = cfg.HideDelayMS
	v.Playback.AutoHide = cfg.AutoHide
	v.Playback.NeverAutoPause = cfg.NeverAutoPause
	v.Playback.AutoPlay = cfg.AutoPlay
	v.Playback.PauseOnFocus = cfg.PauseOnFocus
	v.Playback.VideoURL = cfg.VideoURL
	v.Playback.PanelColumn = cfg.PanelColumn
	return v
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective detection configuration",
	Long: `Print the configuration the engine uses, read from .codesurf.yaml with
defaults filled in and invalid values replaced. With --validate, report every
invalid value in the file instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConfigMgr == nil {
			return fmt.Errorf("configuration not initialized")
		}

		if configValidate {
			if err := ConfigMgr.Validate(); err != nil {
				return err
			}
			fmt.Printf("%s is valid.\n", ConfigMgr.Path())
			return nil
		}

		cfg, err := ConfigMgr.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (showing defaults)\n", err)
		}

		data, err := yaml.Marshal(newConfigView(cfg))
		if err != nil {
			return fmt.Errorf("formatting config: %w", err)
		}
		fmt.Printf("# %s\n%s", ConfigMgr.Path(), data)
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&configValidate, "validate", false, "Report invalid values in the config file")
	rootCmd.AddCommand(configCmd)
}
