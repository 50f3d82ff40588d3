// Package internal provides the App struct that wires the CodeSurf
// components together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JMTC-dev/CodeSurf/internal/cli"
	"github.com/JMTC-dev/CodeSurf/internal/core"
	"github.com/JMTC-dev/CodeSurf/internal/observability"
	"github.com/JMTC-dev/CodeSurf/internal/storage"
)

// EventLogFileName is the event log inside the workspace state directory.
const EventLogFileName = "events.jsonl"

// App holds all service dependencies for CodeSurf.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	StatsStore storage.StatsStoreManager
	History    storage.SessionHistoryStore

	// Observability
	EventLog    observability.EventLog
	EventLogger core.EventLogger
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires the CodeSurf services for the workspace at
// basePath. Everything below the configuration is optional: a state
// directory that cannot be written disables the event log and history
// rather than failing startup.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)

	// --- Storage layer ---
	app.StatsStore = storage.NewStatsStoreManager(basePath)
	history, err := storage.OpenSessionHistory(storage.HistoryPath(basePath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: session history disabled: %v\n", err)
	} else {
		app.History = history
	}

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, storage.StateDir, EventLogFileName)
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if log can't be created.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.EventLogger = &eventLogAdapter{log: app.EventLog}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, observability.DefaultAlertThresholds())
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.ConfigMgr = app.ConfigMgr
	cli.StatsStore = app.StatsStore
	cli.History = app.History
	cli.EventLogger = app.EventLogger

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// Close releases the history database and the event log file handle. It is
// safe to call on an App whose optional services are nil.
func (a *App) Close() error {
	var firstErr error
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			firstErr = err
		}
	}
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ResolveBasePath determines the workspace CodeSurf works in. It checks the
// CODESURF_HOME env var, then walks up from the current directory looking
// for .codesurf.yaml, and falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("CODESURF_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   observability.LevelFor(eventType),
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
