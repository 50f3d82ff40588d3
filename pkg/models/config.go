package models

// DetectionMode selects how many concurring signals are needed to trigger.
type DetectionMode string

const (
	// ModeManual disables all automatic detection.
	ModeManual DetectionMode = "manual"
	// ModeSmart requires at least two concurring signals.
	ModeSmart DetectionMode = "smart"
	// ModeAggressive triggers on any single signal.
	ModeAggressive DetectionMode = "aggressive"
)

// DefaultVideoURL is played when no video has been configured.
const DefaultVideoURL = "https://www.youtube.com/embed/jfKfPfyJRdk"

// DetectionConfig is the configuration snapshot consulted at every decision
// point. It is read from .codesurf.yaml via Viper and never cached.
type DetectionConfig struct {
	Mode                    DetectionMode `yaml:"mode" mapstructure:"mode"`
	MinLines                int           `yaml:"min_lines" mapstructure:"min_lines"`
	MinCharacters           int           `yaml:"min_characters" mapstructure:"min_characters"`
	RequireMultiplePatterns bool          `yaml:"require_multiple_patterns" mapstructure:"require_multiple_patterns"`
	SensitivityMS           int           `yaml:"sensitivity_ms" mapstructure:"sensitivity_ms"`
	StrictClipboard         bool          `yaml:"strict_clipboard" mapstructure:"strict_clipboard"`

	HideDelayMS    int    `yaml:"hide_delay_ms" mapstructure:"hide_delay_ms"`
	AutoHide       bool   `yaml:"auto_hide" mapstructure:"auto_hide"`
	NeverAutoPause bool   `yaml:"never_auto_pause" mapstructure:"never_auto_pause"`
	AutoPlay       bool   `yaml:"auto_play" mapstructure:"auto_play"`
	PauseOnFocus   bool   `yaml:"pause_on_focus" mapstructure:"pause_on_focus"`
	VideoURL       string `yaml:"video_url" mapstructure:"video_url"`
	PanelColumn    string `yaml:"panel_column" mapstructure:"panel_column"`
}

// DefaultDetectionConfig returns the documented defaults for every option.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		Mode:                    ModeSmart,
		MinLines:                5,
		MinCharacters:           200,
		RequireMultiplePatterns: true,
		SensitivityMS:           100,
		StrictClipboard:         true,
		HideDelayMS:             10000,
		AutoHide:                false,
		NeverAutoPause:          false,
		AutoPlay:                true,
		PauseOnFocus:            false,
		VideoURL:                DefaultVideoURL,
		PanelColumn:             "beside",
	}
}

// ValidPanelColumns lists the placements a playback surface understands.
var ValidPanelColumns = []string{
	"active", "beside", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
}
