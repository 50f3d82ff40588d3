package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JMTC-dev/CodeSurf/internal/core"
	"github.com/JMTC-dev/CodeSurf/internal/observability"
	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

// fakeDashboardSource implements dashboardSource.
type fakeDashboardSource struct {
	status    core.EngineStatus
	stats     models.CumulativeStats
	statusErr error
	toggleErr error
	toggles   int
}

func (f *fakeDashboardSource) Status() (core.EngineStatus, error) { return f.status, f.statusErr }
func (f *fakeDashboardSource) Stats() (models.CumulativeStats, error) {
	return f.stats, nil
}

func (f *fakeDashboardSource) Toggle() (core.Status, error) {
	f.toggles++
	return f.status.Status, f.toggleErr
}

// mockDashboardMetrics implements observability.MetricsCalculator.
type mockDashboardMetrics struct {
	metrics *observability.Metrics
	err     error
	since   time.Time
}

func (m *mockDashboardMetrics) Calculate(since time.Time) (*observability.Metrics, error) {
	m.since = since
	return m.metrics, m.err
}

// mockDashboardAlerts implements observability.AlertEngine.
type mockDashboardAlerts struct {
	alerts []observability.Alert
	err    error
}

func (m *mockDashboardAlerts) Evaluate() ([]observability.Alert, error) {
	return m.alerts, m.err
}

func playingStatus() core.EngineStatus {
	return core.EngineStatus{
		Status: core.Status{
			State:          core.StatePlaying,
			StateName:      "playing",
			Video:          "https://www.youtube.com/embed/jfKfPfyJRdk",
			SurfacePresent: true,
			SessionOpen:    true,
			Position:       12.5,
		},
		Mode:             models.ModeSmart,
		TrackedDocuments: 2,
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestDashboardModel_Init(t *testing.T) {
	m := newDashboardModel(&fakeDashboardSource{}, nil, nil)

	if m.activePanel != panelPlayback {
		t.Errorf("expected activePanel = %d, got %d", panelPlayback, m.activePanel)
	}
	if !m.loading {
		t.Error("expected loading = true on init")
	}
	if m.Init() == nil {
		t.Error("expected Init to return a non-nil command")
	}
}

func TestDashboardModel_KeyQ(t *testing.T) {
	m := newDashboardModel(&fakeDashboardSource{}, nil, nil)
	m.loading = false

	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected tea.Quit command from q key")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestDashboardModel_KeyTabCycles(t *testing.T) {
	m := newDashboardModel(&fakeDashboardSource{}, nil, nil)

	want := []int{panelStats, panelMetrics, panelAlerts, panelPlayback}
	var model tea.Model = m
	for i, w := range want {
		var cmd tea.Cmd
		model, cmd = model.Update(tea.KeyMsg{Type: tea.KeyTab})
		if cmd != nil {
			t.Error("expected no command from tab key")
		}
		if got := model.(dashboardModel).activePanel; got != w {
			t.Errorf("after tab %d: panel = %d, want %d", i+1, got, w)
		}
	}

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := model.(dashboardModel).activePanel; got != panelAlerts {
		t.Errorf("shift+tab from first panel: got %d, want %d", got, panelAlerts)
	}
}

func TestDashboardModel_KeyTTogglesPlayback(t *testing.T) {
	src := &fakeDashboardSource{status: playingStatus()}
	m := newDashboardModel(src, nil, nil)
	m.loading = false

	_, cmd := m.Update(keyRune('t'))
	if cmd == nil {
		t.Fatal("expected a toggle command")
	}
	msg := cmd()
	if _, ok := msg.(toggledMsg); !ok {
		t.Fatalf("expected toggledMsg, got %T", msg)
	}
	if src.toggles != 1 {
		t.Errorf("expected 1 toggle, got %d", src.toggles)
	}

	// A successful toggle triggers a reload.
	_, cmd = m.Update(msg)
	if cmd == nil {
		t.Fatal("expected reload after toggle")
	}
	if _, ok := cmd().(dataLoadedMsg); !ok {
		t.Error("expected reload to produce dataLoadedMsg")
	}
}

func TestDashboardModel_ToggleError(t *testing.T) {
	m := newDashboardModel(&fakeDashboardSource{}, nil, nil)
	m.loading = false

	updated, cmd := m.Update(toggledMsg{err: core.ErrEngineStopped})
	if cmd != nil {
		t.Error("expected no command after a failed toggle")
	}
	if dm := updated.(dashboardModel); !errors.Is(dm.err, core.ErrEngineStopped) {
		t.Errorf("expected ErrEngineStopped, got %v", dm.err)
	}
}

func TestDashboardModel_KeyR(t *testing.T) {
	m := newDashboardModel(&fakeDashboardSource{}, nil, nil)
	m.loading = false

	updated, cmd := m.Update(keyRune('r'))
	if !updated.(dashboardModel).loading {
		t.Error("expected loading = true after pressing r")
	}
	if cmd == nil {
		t.Error("expected a loadData command from r key")
	}
}

func TestDashboardModel_TickReschedules(t *testing.T) {
	m := newDashboardModel(&fakeDashboardSource{}, nil, nil)
	m.loading = false

	updated, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expected refresh and next tick")
	}
	if updated.(dashboardModel).loading {
		t.Error("periodic refresh should not show the loading screen")
	}
}

func TestDashboardModel_DataLoaded(t *testing.T) {
	m := newDashboardModel(&fakeDashboardSource{}, nil, nil)

	updated, cmd := m.Update(dataLoadedMsg{
		status:  playingStatus(),
		stats:   sampleStats(),
		metrics: &metricsSnapshot{triggers: 3, starts: 1},
		alerts:  []alertSnapshot{{severity: "high", message: "surface failing"}},
	})
	if cmd != nil {
		t.Error("expected no command after dataLoadedMsg")
	}

	dm := updated.(dashboardModel)
	if dm.loading || dm.err != nil {
		t.Fatalf("loading = %v, err = %v", dm.loading, dm.err)
	}
	if dm.status.State != core.StatePlaying {
		t.Errorf("state = %v, want playing", dm.status.State)
	}
	if dm.stats.SessionsCount != 2 {
		t.Errorf("sessions = %d, want 2", dm.stats.SessionsCount)
	}
	if dm.metricsData == nil || dm.metricsData.triggers != 3 {
		t.Errorf("unexpected metrics: %+v", dm.metricsData)
	}
	if len(dm.alerts) != 1 {
		t.Errorf("expected 1 alert, got %d", len(dm.alerts))
	}
}

func TestDashboardModel_DataLoadedError(t *testing.T) {
	m := newDashboardModel(&fakeDashboardSource{}, nil, nil)

	updated, _ := m.Update(dataLoadedMsg{err: errors.New("engine stopped")})
	dm := updated.(dashboardModel)
	if dm.loading {
		t.Error("expected loading = false after error")
	}
	if dm.err == nil || dm.err.Error() != "engine stopped" {
		t.Errorf("unexpected err: %v", dm.err)
	}
	dm.width = 100
	if !strings.Contains(dm.View(), "Error: engine stopped") {
		t.Error("expected error in view")
	}
}

func TestDashboardModel_WindowResize(t *testing.T) {
	m := newDashboardModel(&fakeDashboardSource{}, nil, nil)

	updated, cmd := m.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
	if cmd != nil {
		t.Error("expected no command from window resize")
	}
	dm := updated.(dashboardModel)
	if dm.width != 200 || dm.height != 50 {
		t.Errorf("size = %dx%d, want 200x50", dm.width, dm.height)
	}
}

func TestDashboardModel_ViewLoading(t *testing.T) {
	m := newDashboardModel(&fakeDashboardSource{}, nil, nil)
	if m.View() != "Loading..." {
		t.Error("expected placeholder before the first resize")
	}
	m.width = 100
	if !strings.Contains(m.View(), "Loading data") {
		t.Error("expected loading view to contain 'Loading data'")
	}
}

func TestDashboardModel_ViewWithData(t *testing.T) {
	for _, width := range []int{80, 160} {
		m := newDashboardModel(&fakeDashboardSource{}, nil, nil)
		m.width = width
		m.height = 40
		m.loading = false
		m.status = playingStatus()
		m.stats = sampleStats()
		m.metricsData = &metricsSnapshot{triggers: 7, sessionTimeMS: 61_000}
		m.alerts = []alertSnapshot{{severity: "medium", message: "statistics could not be saved"}}

		view := m.View()
		for _, want := range []string{
			"Playback", "Statistics", "Metrics (24h)", "Alerts",
			"playing", "jfKfPfyJRdk", "smart", "12.5s",
			"1m 30s", "1m 1s", "[MEDIUM]", "t: toggle playback",
		} {
			if !strings.Contains(view, want) {
				t.Errorf("width %d: view missing %q", width, want)
			}
		}
	}
}

func TestDashboardModel_ViewHiddenSurface(t *testing.T) {
	m := newDashboardModel(&fakeDashboardSource{}, nil, nil)
	m.width = 100
	m.loading = false
	m.status = core.EngineStatus{Status: core.Status{StateName: "idle"}}

	view := m.View()
	if !strings.Contains(view, "hidden") {
		t.Error("idle without a surface should show as hidden")
	}
	if !strings.Contains(view, "never") {
		t.Error("expected last edit 'never'")
	}
	if !strings.Contains(view, "No metrics available.") || !strings.Contains(view, "No active alerts.") {
		t.Error("expected empty metrics and alerts panels")
	}
}

func TestDashboardLoadData(t *testing.T) {
	src := &fakeDashboardSource{status: playingStatus(), stats: sampleStats()}
	metrics := &mockDashboardMetrics{
		metrics: &observability.Metrics{Triggers: 4, Starts: 2, Pauses: 1, SessionsClosed: 1, SessionTimeMS: 5000, Errors: 1},
	}
	alerts := &mockDashboardAlerts{
		alerts: []observability.Alert{
			{Severity: observability.SeverityLow, Message: "config unreadable"},
			{Severity: observability.SeverityHigh, Message: "surface failing"},
		},
	}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	m := newDashboardModel(src, metrics, alerts)
	m.now = func() time.Time { return now }

	data, ok := m.loadData().(dataLoadedMsg)
	if !ok {
		t.Fatal("expected dataLoadedMsg")
	}
	if data.err != nil {
		t.Fatalf("unexpected error: %v", data.err)
	}
	if data.status.TrackedDocuments != 2 || data.stats.SessionsCount != 2 {
		t.Errorf("unexpected status or stats: %+v %+v", data.status, data.stats)
	}
	if !metrics.since.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("metrics since = %v, want 24h before now", metrics.since)
	}
	if data.metrics == nil || data.metrics.triggers != 4 || data.metrics.errors != 1 {
		t.Errorf("unexpected metrics snapshot: %+v", data.metrics)
	}
	if len(data.alerts) != 2 || data.alerts[0].severity != "high" {
		t.Errorf("alerts should be sorted high first: %+v", data.alerts)
	}
}

func TestDashboardLoadData_StatusError(t *testing.T) {
	src := &fakeDashboardSource{statusErr: core.ErrEngineStopped}
	m := newDashboardModel(src, nil, nil)

	data := m.loadData().(dataLoadedMsg)
	if !errors.Is(data.err, core.ErrEngineStopped) {
		t.Errorf("expected wrapped ErrEngineStopped, got %v", data.err)
	}
}

func TestDocumentsLabel(t *testing.T) {
	tests := []struct {
		docs []string
		n    int
		want string
	}{
		{nil, 0, "0"},
		{nil, 2, "2"},
		{[]string{"/w/src/a.go"}, 1, "1 (a.go)"},
		{[]string{"/w/a.go", "/w/b.go"}, 2, "2 (a.go, b.go)"},
		{[]string{"/w/a.go", "/w/b.go", "/w/c.go"}, 3, "3 (a.go, b.go, ...)"},
	}
	for _, tt := range tests {
		if got := documentsLabel(tt.docs, tt.n); got != tt.want {
			t.Errorf("documentsLabel(%v, %d) = %q, want %q", tt.docs, tt.n, got, tt.want)
		}
	}
}

func TestSinceLabel(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "never"},
		{now.Add(-300 * time.Millisecond), "just now"},
		{now.Add(-90 * time.Second), "1m30s ago"},
	}
	for _, tt := range tests {
		if got := sinceLabel(tt.at, now); got != tt.want {
			t.Errorf("sinceLabel(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}
