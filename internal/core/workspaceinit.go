package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

// InitConfig holds the parameters for initializing a CodeSurf workspace.
type InitConfig struct {
	BasePath string
	// StateDir is created under BasePath and added to .gitignore.
	StateDir string
	Mode     models.DetectionMode
	VideoURL string
}

// InitResult holds a summary of what was created vs. skipped.
type InitResult struct {
	Created []string
	Skipped []string
}

// WorkspaceInitializer writes the files that mark a directory as a CodeSurf
// workspace root.
type WorkspaceInitializer interface {
	Init(config InitConfig) (*InitResult, error)
}

type workspaceInitializer struct {
	tmpl *template.Template
}

// NewWorkspaceInitializer creates a new WorkspaceInitializer.
func NewWorkspaceInitializer() WorkspaceInitializer {
	return &workspaceInitializer{
		tmpl: template.Must(template.New(ConfigFileName).Parse(configTemplate)),
	}
}

// Init creates the state directory and a commented .codesurf.yaml holding
// the defaults. Files that already exist are left untouched, so running it
// twice is safe.
func (wi *workspaceInitializer) Init(config InitConfig) (*InitResult, error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("initializing workspace: base path is empty")
	}
	if config.StateDir == "" {
		return nil, fmt.Errorf("initializing workspace: state directory is empty")
	}

	cfg := models.DefaultDetectionConfig()
	if config.Mode != "" {
		if !validModes[config.Mode] {
			return nil, fmt.Errorf("initializing workspace: mode %q is invalid, must be one of: manual, smart, aggressive", config.Mode)
		}
		cfg.Mode = config.Mode
	}
	if url := NormalizeVideoURL(config.VideoURL); url != "" {
		cfg.VideoURL = url
	}

	result := &InitResult{}

	stateDir := filepath.Join(config.BasePath, config.StateDir)
	created, err := ensureDir(stateDir)
	if err != nil {
		return nil, fmt.Errorf("initializing workspace: creating directory %s: %w", stateDir, err)
	}
	if created {
		result.Created = append(result.Created, stateDir)
	} else {
		result.Skipped = append(result.Skipped, stateDir)
	}

	configPath := filepath.Join(config.BasePath, ConfigFileName)
	if err := writeFileIfNotExists(configPath, func() ([]byte, error) {
		var buf bytes.Buffer
		if err := wi.tmpl.Execute(&buf, cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}, result); err != nil {
		return nil, err
	}

	gitignorePath := filepath.Join(config.BasePath, ".gitignore")
	added, err := ensureIgnored(gitignorePath, config.StateDir+"/")
	if err != nil {
		return nil, fmt.Errorf("initializing workspace: updating .gitignore: %w", err)
	}
	if added {
		result.Created = append(result.Created, gitignorePath)
	} else {
		result.Skipped = append(result.Skipped, gitignorePath)
	}

	return result, nil
}

// ensureDir creates a directory if it does not exist. Returns true if created.
func ensureDir(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return false, err
	}
	return true, nil
}

// writeFileIfNotExists writes content from contentFn if the file does not exist.
// It records created/skipped in the result.
func writeFileIfNotExists(path string, contentFn func() ([]byte, error), result *InitResult) error {
	if _, err := os.Stat(path); err == nil {
		result.Skipped = append(result.Skipped, path)
		return nil
	}
	content, err := contentFn()
	if err != nil {
		return fmt.Errorf("initializing workspace: generating content for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("initializing workspace: writing %s: %w", path, err)
	}
	result.Created = append(result.Created, path)
	return nil
}

// ensureIgnored appends entry to the ignore file unless a line already
// matches it. Returns true if the file was changed.
func ensureIgnored(path, entry string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	bare := strings.TrimSuffix(entry, "/")
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == entry || line == bare || line == "/"+entry || line == "/"+bare {
			return false, nil
		}
	}

	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString(entry + "\n")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

const configTemplate = `# CodeSurf workspace configuration.
# Changes are picked up at the next detection decision.

detection:
  # manual, smart (two concurring signals) or aggressive (any signal)
  mode: {{.Mode}}
  min_lines: {{.MinLines}}
  min_characters: {{.MinCharacters}}
  require_multiple_patterns: {{.RequireMultiplePatterns}}
  sensitivity_ms: {{.SensitivityMS}}
  strict_clipboard: {{.StrictClipboard}}

playback:
  hide_delay_ms: {{.HideDelayMS}}
  auto_hide: {{.AutoHide}}
  never_auto_pause: {{.NeverAutoPause}}
  auto_play: {{.AutoPlay}}
  pause_on_focus: {{.PauseOnFocus}}
  video_url: {{printf "%q" .VideoURL}}
  panel_column: {{.PanelColumn}}
`
