package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JMTC-dev/CodeSurf/internal/core"
	"github.com/JMTC-dev/CodeSurf/internal/integration"
	"github.com/JMTC-dev/CodeSurf/internal/observability"
	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// newTestApp creates a fully wired App in a temporary directory.
func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(t.TempDir())
	if err != nil {
		t.Fatalf("creating test app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

// runEngine starts an engine over the app's services and a file surface.
// The returned stop function cancels it and waits for shutdown.
func runEngine(t *testing.T, app *App) (*core.Engine, *integration.FileSurfaceFactory, func()) {
	t.Helper()
	factory, err := integration.NewFileSurfaceFactory(integration.FileSurfaceConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	tracker := core.NewStatsTracker(app.StatsStore, app.History, app.EventLogger)
	engine := core.NewEngine(app.ConfigMgr, factory, tracker, nil, app.EventLogger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = engine.Run(ctx) }()

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		select {
		case <-engine.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("engine did not stop")
		}
	}
	t.Cleanup(stop)
	return engine, factory, stop
}

const generatedBlock = `import { useState } from 'react'

/**
 * Counter renders a button.
 */
export default class Counter extends Component {
  render() {
    return null
  }
}
`

func eventTypes(t *testing.T, log observability.EventLog) []string {
	t.Helper()
	events, err := log.Read(observability.EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

// =========================================================================
// End-to-end: edit -> trigger -> playback -> toggle off -> stats, history,
// events, metrics
// =========================================================================

func TestIntegration_GeneratedEditDrivesPlaybackAndStats(t *testing.T) {
	app := newTestApp(t)
	engine, factory, stop := runEngine(t, app)

	engine.SubmitEdit(models.EditEvent{
		Document:  "src/counter.ts",
		Changes:   []models.TextChange{{Text: generatedBlock}},
		LineCount: 11,
	})

	// Requests are served in order, so the edit has been handled.
	st, err := engine.Status()
	if err != nil {
		t.Fatal(err)
	}
	if st.State != core.StatePlaying || !st.SessionOpen {
		t.Fatalf("expected playing with an open session, got %+v", st)
	}
	if st.TrackedDocuments != 1 {
		t.Errorf("tracked documents = %d, want 1", st.TrackedDocuments)
	}

	engine.SubmitEdit(models.EditEvent{
		Document:  "src/counter.ts",
		Changes:   []models.TextChange{{Text: "x"}},
		LineCount: 31,
	})
	toggled, err := engine.Toggle()
	if err != nil {
		t.Fatal(err)
	}
	if toggled.SurfacePresent || toggled.State != core.StateIdle {
		t.Fatalf("toggle should close the surface, got %+v", toggled)
	}
	stop()

	// Surface commands.
	cmds, err := integration.ReadSurfaceCommands(factory.OutboxPath())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range cmds {
		names = append(names, c.Command)
	}
	if got := strings.Join(names, ","); got != "open,play,close" {
		t.Errorf("surface commands = %s", got)
	}
	if cmds[0].URL != models.DefaultVideoURL || cmds[0].Column != "beside" {
		t.Errorf("surface opened with %q in %q", cmds[0].URL, cmds[0].Column)
	}

	// Persisted stats.
	stats, err := app.StatsStore.Load()
	if err != nil {
		t.Fatal(err)
	}
	if stats.SessionsCount != 1 || stats.TotalLinesGenerated != 20 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.WatchCount(models.DefaultVideoURL) != 1 {
		t.Errorf("video not counted: %+v", stats.VideosWatched)
	}

	// Session history.
	sessions, err := app.History.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].LinesGenerated != 20 {
		t.Errorf("unexpected history: %+v", sessions)
	}

	// Events and metrics.
	types := strings.Join(eventTypes(t, app.EventLog), ",")
	for _, want := range []string{"detect.triggered", "playback.started", "session.opened", "session.closed", "playback.toggled"} {
		if !strings.Contains(types, want) {
			t.Errorf("event log missing %s: %s", want, types)
		}
	}

	m, err := app.MetricsCalc.Calculate(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if m.Triggers != 1 || m.Starts != 1 || m.SessionsClosed != 1 || m.LinesGenerated != 20 {
		t.Errorf("unexpected metrics: %+v", m)
	}
	if m.TriggersBySignal["large_block"] != 1 || m.TriggersBySignal["ai_pattern"] != 1 {
		t.Errorf("signals not attributed: %v", m.TriggersBySignal)
	}
	if m.TriggersByMode["smart"] != 1 {
		t.Errorf("mode not attributed: %v", m.TriggersByMode)
	}

	alerts, err := app.AlertEngine.Evaluate()
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 0 {
		t.Errorf("expected no alerts after a clean session, got %+v", alerts)
	}
}

func TestIntegration_ManualModeNeverTriggers(t *testing.T) {
	app := newTestApp(t)
	if err := writeWorkspaceConfig(app.BasePath, "detection:\n  mode: manual\n"); err != nil {
		t.Fatal(err)
	}
	engine, factory, stop := runEngine(t, app)

	engine.SubmitEdit(models.EditEvent{Document: "a.ts", Changes: []models.TextChange{{Text: generatedBlock}}})
	engine.SubmitDiagnostics(models.DiagnosticsEvent{Documents: []string{"a.ts", "b.ts", "c.ts"}})

	st, err := engine.Status()
	if err != nil {
		t.Fatal(err)
	}
	if st.State != core.StateIdle || st.SurfacePresent {
		t.Errorf("manual mode should stay idle, got %+v", st)
	}
	if st.Mode != models.ModeManual {
		t.Errorf("status mode = %q", st.Mode)
	}
	stop()

	cmds, _ := integration.ReadSurfaceCommands(factory.OutboxPath())
	if len(cmds) != 0 {
		t.Errorf("expected no surface commands, got %+v", cmds)
	}
}

func TestIntegration_SetVideoPersistsAndRetargets(t *testing.T) {
	app := newTestApp(t)
	engine, factory, stop := runEngine(t, app)

	if _, err := engine.Toggle(); err != nil {
		t.Fatal(err)
	}
	url, err := engine.SetVideo("https://youtu.be/xyz987?t=4")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://www.youtube.com/embed/xyz987" {
		t.Errorf("normalized url = %q", url)
	}
	stop()

	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VideoURL != url {
		t.Errorf("config video = %q, want %q", cfg.VideoURL, url)
	}

	cmds, _ := integration.ReadSurfaceCommands(factory.OutboxPath())
	found := false
	for _, c := range cmds {
		if c.Command == "updateUrl" && c.URL == url {
			found = true
		}
	}
	if !found {
		t.Errorf("live surface not retargeted: %+v", cmds)
	}
}

func TestIntegration_StoppedEngineRejectsRequests(t *testing.T) {
	app := newTestApp(t)
	engine, _, stop := runEngine(t, app)
	stop()

	if _, err := engine.Toggle(); err != core.ErrEngineStopped {
		t.Errorf("Toggle after stop = %v, want ErrEngineStopped", err)
	}
	if _, err := engine.Status(); err != core.ErrEngineStopped {
		t.Errorf("Status after stop = %v, want ErrEngineStopped", err)
	}
}

func writeWorkspaceConfig(basePath, content string) error {
	return os.WriteFile(filepath.Join(basePath, core.ConfigFileName), []byte(content), 0o644)
}
