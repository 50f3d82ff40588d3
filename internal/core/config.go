// Package core contains the generation-detection engine for CodeSurf:
// configuration, signal evaluators, the decision policy, the hysteresis
// controller that drives the playback surface, and the session statistics
// aggregator.
package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JMTC-dev/CodeSurf/pkg/models"
	"github.com/spf13/viper"
)

// ConfigFileName is the workspace configuration file read on every decision.
const ConfigFileName = ".codesurf.yaml"

// ConfigurationManager defines the interface for reading the detection
// configuration from .codesurf.yaml and writing user-changed values back.
type ConfigurationManager interface {
	// Load returns a sanitized configuration. On a read or parse failure the
	// defaults are returned together with the error.
	Load() (*models.DetectionConfig, error)
	// Validate reports every invalid value present in the file.
	Validate() error
	// SetVideoURL persists playback.video_url.
	SetVideoURL(url string) error
	// Path returns the configuration file location.
	Path() string
}

// viperConfigManager implements ConfigurationManager using a fresh Viper
// instance per call, so edits to the file are observed at the next decision.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .codesurf.yaml from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

func (cm *viperConfigManager) Path() string {
	return filepath.Join(cm.basePath, ConfigFileName)
}

func (cm *viperConfigManager) newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(ConfigFileName, ".yaml"))
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	return v
}

// read returns the raw values from disk layered over the defaults, without
// any sanitizing.
func (cm *viperConfigManager) read() (*models.DetectionConfig, error) {
	def := models.DefaultDetectionConfig()

	v := cm.newViper()
	v.SetDefault("detection.mode", string(def.Mode))
	v.SetDefault("detection.min_lines", def.MinLines)
	v.SetDefault("detection.min_characters", def.MinCharacters)
	v.SetDefault("detection.require_multiple_patterns", def.RequireMultiplePatterns)
	v.SetDefault("detection.sensitivity_ms", def.SensitivityMS)
	v.SetDefault("detection.strict_clipboard", def.StrictClipboard)
	v.SetDefault("playback.hide_delay_ms", def.HideDelayMS)
	v.SetDefault("playback.auto_hide", def.AutoHide)
	v.SetDefault("playback.never_auto_pause", def.NeverAutoPause)
	v.SetDefault("playback.auto_play", def.AutoPlay)
	v.SetDefault("playback.pause_on_focus", def.PauseOnFocus)
	v.SetDefault("playback.video_url", def.VideoURL)
	v.SetDefault("playback.panel_column", def.PanelColumn)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file found, defaults apply.
			return &def, nil
		}
		return &def, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	return &models.DetectionConfig{
		Mode:                    models.DetectionMode(strings.ToLower(strings.TrimSpace(v.GetString("detection.mode")))),
		MinLines:                v.GetInt("detection.min_lines"),
		MinCharacters:           v.GetInt("detection.min_characters"),
		RequireMultiplePatterns: v.GetBool("detection.require_multiple_patterns"),
		SensitivityMS:           v.GetInt("detection.sensitivity_ms"),
		StrictClipboard:         v.GetBool("detection.strict_clipboard"),
		HideDelayMS:             v.GetInt("playback.hide_delay_ms"),
		AutoHide:                v.GetBool("playback.auto_hide"),
		NeverAutoPause:          v.GetBool("playback.never_auto_pause"),
		AutoPlay:                v.GetBool("playback.auto_play"),
		PauseOnFocus:            v.GetBool("playback.pause_on_focus"),
		VideoURL:                strings.TrimSpace(v.GetString("playback.video_url")),
		PanelColumn:             strings.ToLower(strings.TrimSpace(v.GetString("playback.panel_column"))),
	}, nil
}

// Load reads the configuration and replaces invalid values with defaults.
func (cm *viperConfigManager) Load() (*models.DetectionConfig, error) {
	cfg, err := cm.read()
	sanitizeConfig(cfg)
	return cfg, err
}

// Validate reads the file and reports every invalid value.
func (cm *viperConfigManager) Validate() error {
	cfg, err := cm.read()
	if err != nil {
		return err
	}
	return ValidateConfig(cfg)
}

// SetVideoURL writes playback.video_url to the config file, creating it if
// needed. Other keys already in the file are preserved.
func (cm *viperConfigManager) SetVideoURL(url string) error {
	url = NormalizeVideoURL(url)
	if url == "" {
		return fmt.Errorf("setting video url: url is empty")
	}

	v := cm.newViper()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("setting video url: reading %s: %w", ConfigFileName, err)
		}
	}
	v.Set("playback.video_url", url)

	if err := v.WriteConfigAs(cm.Path()); err != nil {
		return fmt.Errorf("setting video url: writing %s: %w", ConfigFileName, err)
	}
	return nil
}

var validModes = map[models.DetectionMode]bool{
	models.ModeManual:     true,
	models.ModeSmart:      true,
	models.ModeAggressive: true,
}

func validPanelColumn(col string) bool {
	for _, c := range models.ValidPanelColumns {
		if c == col {
			return true
		}
	}
	return false
}

// sanitizeConfig recovers every invalid field to its documented default.
func sanitizeConfig(cfg *models.DetectionConfig) {
	def := models.DefaultDetectionConfig()
	if !validModes[cfg.Mode] {
		cfg.Mode = def.Mode
	}
	if cfg.MinLines <= 0 {
		cfg.MinLines = def.MinLines
	}
	if cfg.MinCharacters <= 0 {
		cfg.MinCharacters = def.MinCharacters
	}
	if cfg.SensitivityMS < 0 {
		cfg.SensitivityMS = def.SensitivityMS
	}
	if cfg.HideDelayMS < 0 {
		cfg.HideDelayMS = def.HideDelayMS
	}
	if cfg.VideoURL == "" {
		cfg.VideoURL = def.VideoURL
	}
	if !validPanelColumn(cfg.PanelColumn) {
		cfg.PanelColumn = def.PanelColumn
	}
}

// ValidateConfig checks the provided configuration for invalid values and
// returns a clear error message identifying each problem.
func ValidateConfig(cfg *models.DetectionConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !validModes[cfg.Mode] {
		errs = append(errs, fmt.Sprintf(
			"detection.mode %q is invalid, must be one of: manual, smart, aggressive", cfg.Mode,
		))
	}
	if cfg.MinLines <= 0 {
		errs = append(errs, fmt.Sprintf("detection.min_lines must be positive, got %d", cfg.MinLines))
	}
	if cfg.MinCharacters <= 0 {
		errs = append(errs, fmt.Sprintf("detection.min_characters must be positive, got %d", cfg.MinCharacters))
	}
	if cfg.SensitivityMS < 0 {
		errs = append(errs, fmt.Sprintf("detection.sensitivity_ms must be non-negative, got %d", cfg.SensitivityMS))
	}
	if cfg.HideDelayMS < 0 {
		errs = append(errs, fmt.Sprintf("playback.hide_delay_ms must be non-negative, got %d", cfg.HideDelayMS))
	}
	if cfg.PanelColumn != "" && !validPanelColumn(cfg.PanelColumn) {
		errs = append(errs, fmt.Sprintf(
			"playback.panel_column %q is invalid, must be one of: %s",
			cfg.PanelColumn, strings.Join(models.ValidPanelColumns, ", "),
		))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// NormalizeVideoURL converts watch and short links into the embeddable form
// the playback surface expects. Other URLs are returned trimmed.
func NormalizeVideoURL(raw string) string {
	url := strings.TrimSpace(raw)
	switch {
	case strings.Contains(url, "youtube.com/watch"):
		_, after, ok := strings.Cut(url, "v=")
		if !ok {
			return url
		}
		id, _, _ := strings.Cut(after, "&")
		if id == "" {
			return url
		}
		return "https://www.youtube.com/embed/" + id
	case strings.Contains(url, "youtu.be/"):
		_, after, _ := strings.Cut(url, "youtu.be/")
		id, _, _ := strings.Cut(after, "?")
		if id == "" {
			return url
		}
		return "https://www.youtube.com/embed/" + id
	}
	return url
}

// VideoLabel returns the last path segment of a video URL, used when showing
// a favorite to the user.
func VideoLabel(url string) string {
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}
