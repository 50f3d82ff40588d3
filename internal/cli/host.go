package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JMTC-dev/CodeSurf/internal/core"
	"github.com/JMTC-dev/CodeSurf/internal/integration"
	"github.com/JMTC-dev/CodeSurf/internal/storage"
	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

// engineHost is a running Engine together with the surface it drives.
type engineHost struct {
	engine     *core.Engine
	outboxPath string
}

// startEngine runs an Engine until ctx is cancelled. Wait on engine.Done()
// before exiting so the open session is closed and persisted.
func startEngine(ctx context.Context) (*engineHost, error) {
	if ConfigMgr == nil || StatsStore == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}

	surfaceDir := filepath.Join(BasePath, storage.StateDir, "surface")
	factory, err := integration.NewFileSurfaceFactory(integration.FileSurfaceConfig{BaseDir: surfaceDir})
	if err != nil {
		return nil, fmt.Errorf("starting engine: %w", err)
	}

	var clip core.ClipboardReader
	if c := integration.NewSystemClipboard(); c.Supported() {
		clip = c
	}

	tracker := core.NewStatsTracker(StatsStore, sessionHistory(), EventLogger)
	engine := core.NewEngine(ConfigMgr, factory, tracker, clip, EventLogger)
	go func() { _ = engine.Run(ctx) }()

	return &engineHost{engine: engine, outboxPath: factory.OutboxPath()}, nil
}

// warnFunc records non-fatal watcher and feed errors in the event log and,
// unless quiet, on stderr.
func warnFunc(quiet bool) func(error) {
	return func(err error) {
		if EventLogger != nil {
			_ = EventLogger.LogEvent("watch.error", map[string]any{"error": err.Error()})
		}
		if !quiet {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
}

// engineFeed routes editor feed messages into the engine.
type engineFeed struct {
	engine *core.Engine
}

func (f engineFeed) Edit(ev models.EditEvent)               { f.engine.SubmitEdit(ev) }
func (f engineFeed) Diagnostics(ev models.DiagnosticsEvent) { f.engine.SubmitDiagnostics(ev) }
func (f engineFeed) Focus(ev models.FocusEvent)             { f.engine.SubmitFocus(ev) }
func (f engineFeed) Position(seconds float64)               { f.engine.ReportPosition(seconds) }

func (f engineFeed) Command(name, url string) error {
	switch name {
	case "toggle":
		_, err := f.engine.Toggle()
		return err
	case "set_video":
		_, err := f.engine.SetVideo(url)
		return err
	case "reset_stats":
		return f.engine.ResetStats()
	}
	return fmt.Errorf("unknown command %q", name)
}
