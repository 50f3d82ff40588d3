package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JMTC-dev/CodeSurf/internal/core"
	"github.com/JMTC-dev/CodeSurf/internal/observability"
	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

// Dashboard panel indices.
const (
	panelPlayback = iota
	panelStats
	panelMetrics
	panelAlerts
	panelCount
)

// dashboardRefresh is how often the dashboard polls the engine.
const dashboardRefresh = 500 * time.Millisecond

// dashboardSource is the part of the engine the dashboard reads and drives.
type dashboardSource interface {
	Status() (core.EngineStatus, error)
	Stats() (models.CumulativeStats, error)
	Toggle() (core.Status, error)
}

type dashboardModel struct {
	src     dashboardSource
	metrics observability.MetricsCalculator
	alerter observability.AlertEngine
	now     func() time.Time

	activePanel int
	width       int
	height      int

	// Data.
	status      core.EngineStatus
	stats       models.CumulativeStats
	metricsData *metricsSnapshot
	alerts      []alertSnapshot

	// State.
	loading bool
	err     error
}

type metricsSnapshot struct {
	triggers       int
	starts         int
	pauses         int
	sessionsClosed int
	sessionTimeMS  int64
	errors         int
}

type alertSnapshot struct {
	severity string
	message  string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	status  core.EngineStatus
	stats   models.CumulativeStats
	metrics *metricsSnapshot
	alerts  []alertSnapshot
	err     error
}

// tickMsg schedules the next refresh.
type tickMsg time.Time

// toggledMsg reports the result of a toggle request.
type toggledMsg struct {
	err error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	statePlaying = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	statePaused  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	stateIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// newDashboardModel builds the live dashboard over src. metrics and alerter
// may be nil, in which case their panels stay empty.
func newDashboardModel(src dashboardSource, metrics observability.MetricsCalculator, alerter observability.AlertEngine) dashboardModel {
	return dashboardModel{
		src:         src,
		metrics:     metrics,
		alerter:     alerter,
		now:         time.Now,
		activePanel: panelPlayback,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.loadData, tick())
}

func tick() tea.Cmd {
	return tea.Tick(dashboardRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "t", " ":
			return m, m.toggle
		case "r":
			m.loading = true
			return m, m.loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.loadData, tick())

	case toggledMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		return m, m.loadData

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = msg.status
		m.stats = msg.stats
		m.metricsData = msg.metrics
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" CodeSurf ")
	help := helpStyle.Render("t: toggle playback | tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	panels := []string{
		m.renderPlaybackPanel(),
		m.renderStatsPanel(),
		m.renderMetricsPanel(),
		m.renderAlertsPanel(),
	}

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 2
		for i := range panels {
			panels[i] = m.applyPanelStyle(i, panels[i], colWidth-4)
		}
		top := lipgloss.JoinHorizontal(lipgloss.Top, panels[panelPlayback], panels[panelStats])
		bottom := lipgloss.JoinHorizontal(lipgloss.Top, panels[panelMetrics], panels[panelAlerts])
		body = lipgloss.JoinVertical(lipgloss.Left, top, bottom)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		for i := range panels {
			panels[i] = m.applyPanelStyle(i, panels[i], panelWidth)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, panels...)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderPlaybackPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Playback"))
	b.WriteString("\n")

	st := m.status
	state := st.StateName
	if state == "" {
		state = st.State.String()
	}
	if st.State == core.StateIdle && !st.SurfacePresent {
		state = "hidden"
	}
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "State", styleForState(st.State).Render(state)))

	video := "-"
	if st.Video != "" {
		video = core.VideoLabel(st.Video)
	}
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Video", video))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Mode", st.Mode))
	b.WriteString(fmt.Sprintf("  %-12s %.1fs\n", "Position", st.Position))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Documents", documentsLabel(st.Documents, st.TrackedDocuments)))
	b.WriteString(fmt.Sprintf("  %-12s %s", "Last edit", sinceLabel(st.LastEdit, m.now())))
	if !st.HideDeadline.IsZero() {
		b.WriteString(fmt.Sprintf("\n  %-12s %s", "Hiding in", st.HideDeadline.Sub(m.now()).Round(time.Second)))
	}

	return b.String()
}

// documentsLabel shows the count followed by up to two base names.
func documentsLabel(docs []string, n int) string {
	if n == 0 {
		return "0"
	}
	names := make([]string, 0, 2)
	for _, d := range docs {
		if len(names) == 2 {
			break
		}
		names = append(names, filepath.Base(d))
	}
	if len(names) == 0 {
		return fmt.Sprintf("%d", n)
	}
	label := fmt.Sprintf("%d (%s", n, strings.Join(names, ", "))
	if n > len(names) {
		label += ", ..."
	}
	return label + ")"
}

func (m dashboardModel) renderStatsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Statistics"))
	b.WriteString("\n")

	s := m.stats
	fav := "None yet"
	if s.FavoriteVideo != "" {
		fav = core.VideoLabel(s.FavoriteVideo)
	}
	b.WriteString(fmt.Sprintf("  %-14s %s\n", "Generation", core.FormatDuration(s.TotalGenerationTime)))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Sessions", s.SessionsCount))
	b.WriteString(fmt.Sprintf("  %-14s %s\n", "Longest", core.FormatDuration(s.LongestSession)))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Lines", s.TotalLinesGenerated))
	b.WriteString(fmt.Sprintf("  %-14s %s", "Favorite", fav))

	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Metrics (24h)"))
	b.WriteString("\n")

	if m.metricsData == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	md := m.metricsData
	lines := []struct {
		label string
		value string
	}{
		{"Triggers", fmt.Sprint(md.triggers)},
		{"Starts", fmt.Sprint(md.starts)},
		{"Pauses", fmt.Sprint(md.pauses)},
		{"Sessions", fmt.Sprint(md.sessionsClosed)},
		{"Watched", core.FormatDuration(md.sessionTimeMS)},
		{"Errors", fmt.Sprint(md.errors)},
	}

	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %s\n", l.label, l.value))
	}

	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.message))
	}

	return b.String()
}

func styleForState(s core.PlaybackState) lipgloss.Style {
	switch s {
	case core.StatePlaying:
		return statePlaying
	case core.StatePaused:
		return statePaused
	default:
		return stateIdle
	}
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

// sinceLabel describes how long ago t was.
func sinceLabel(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t).Truncate(time.Second)
	if d < time.Second {
		return "just now"
	}
	return d.String() + " ago"
}

func (m dashboardModel) toggle() tea.Msg {
	_, err := m.src.Toggle()
	return toggledMsg{err: err}
}

func (m dashboardModel) loadData() tea.Msg {
	var result dataLoadedMsg

	status, err := m.src.Status()
	if err != nil {
		result.err = fmt.Errorf("loading status: %w", err)
		return result
	}
	result.status = status

	stats, err := m.src.Stats()
	if err != nil {
		result.err = fmt.Errorf("loading stats: %w", err)
		return result
	}
	result.stats = stats

	if m.metrics != nil {
		since := m.now().UTC().Add(-24 * time.Hour)
		metrics, err := m.metrics.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &metricsSnapshot{
			triggers:       metrics.Triggers,
			starts:         metrics.Starts,
			pauses:         metrics.Pauses,
			sessionsClosed: metrics.SessionsClosed,
			sessionTimeMS:  metrics.SessionTimeMS,
			errors:         metrics.Errors,
		}
	}

	if m.alerter != nil {
		alerts, err := m.alerter.Evaluate()
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}

		sortAlerts(alerts)

		result.alerts = make([]alertSnapshot, 0, len(alerts))
		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
			})
		}
	}

	return result
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}
