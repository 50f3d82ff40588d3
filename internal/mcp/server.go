// Package mcp provides an MCP (Model Context Protocol) server that exposes
// CodeSurf playback and statistics commands as tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/JMTC-dev/CodeSurf/internal/core"
	"github.com/JMTC-dev/CodeSurf/internal/observability"
	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

// Commands is the engine's command surface. *core.Engine satisfies it.
type Commands interface {
	Toggle() (core.Status, error)
	SetVideo(url string) (string, error)
	Stats() (models.CumulativeStats, error)
	FormatStats() (string, error)
	ResetStats() error
	Status() (core.EngineStatus, error)
}

// Server wraps a running engine and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	commands    Commands
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server over the given engine. metricsCalc and
// alertEngine may be nil if the event log is unavailable.
func NewServer(commands Commands, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		commands:    commands,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "codesurf", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves over stdio, blocking until the client disconnects or the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type emptyInput struct{}

type statusOutput struct {
	State            string   `json:"state"`
	Video            string   `json:"video,omitempty"`
	SurfacePresent   bool     `json:"surface_present"`
	SessionOpen      bool     `json:"session_open"`
	Position         float64  `json:"position_seconds"`
	Mode             string   `json:"mode,omitempty"`
	TrackedDocuments int      `json:"tracked_documents"`
	Documents        []string `json:"documents,omitempty"`
	HideDeadline     string   `json:"hide_deadline,omitempty"`
	LastEdit         string   `json:"last_edit,omitempty"`
}

type setVideoInput struct {
	URL string `json:"url" jsonschema:"required,the video to play; YouTube watch and youtu.be links are converted to embed URLs"`
}

type setVideoOutput struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

type statsOutput struct {
	Stats   models.CumulativeStats `json:"stats"`
	Summary string                 `json:"summary"`
}

type resetStatsOutput struct {
	Message string `json:"message"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"look-back window for metrics, e.g. 7d, 24h or 90m. Defaults to 7d."`
}

type metricsOutput struct {
	Triggers          int            `json:"triggers"`
	TriggersBySignal  map[string]int `json:"triggers_by_signal"`
	TriggersByMode    map[string]int `json:"triggers_by_mode"`
	LateClipboard     int            `json:"late_clipboard"`
	DiagnosticsBursts int            `json:"diagnostics_bursts"`
	Starts            int            `json:"starts"`
	Resumes           int            `json:"resumes"`
	Pauses            int            `json:"pauses"`
	Hides             int            `json:"hides"`
	SessionsClosed    int            `json:"sessions_closed"`
	SessionTimeMS     int64          `json:"session_time_ms"`
	Errors            int            `json:"errors"`
	EventCount        int            `json:"event_count"`
	OldestEvent       string         `json:"oldest_event,omitempty"`
	NewestEvent       string         `json:"newest_event,omitempty"`
}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "toggle_playback",
		Description: "Open the playback surface if it is closed, or close it if it is open. Returns the resulting status.",
	}, s.handleToggle)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "set_video",
		Description: "Set the video played while code is being generated. A live surface switches to it immediately.",
	}, s.handleSetVideo)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_stats",
		Description: "Get cumulative usage statistics: generation time, sessions, lines generated, and the favorite video.",
	}, s.handleGetStats)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reset_stats",
		Description: "Reset all cumulative usage statistics to zero.",
	}, s.handleResetStats)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_status",
		Description: "Get the current playback state, video, detection mode, and pending auto-hide deadline.",
	}, s.handleGetStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get detection and playback metrics from the event log, including triggers by signal and session totals.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active health alerts (failing surface, unsaved statistics, unreadable config, endless playback).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleToggle(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, statusOutput, error) {
	st, err := s.commands.Toggle()
	if err != nil {
		return errorResult(fmt.Sprintf("toggling playback: %s", err)), statusOutput{}, nil
	}
	return nil, toStatusOutput(core.EngineStatus{Status: st}), nil
}

func (s *Server) handleSetVideo(_ context.Context, _ *gomcp.CallToolRequest, input setVideoInput) (*gomcp.CallToolResult, setVideoOutput, error) {
	if strings.TrimSpace(input.URL) == "" {
		return errorResult("url is required"), setVideoOutput{}, nil
	}

	url, err := s.commands.SetVideo(input.URL)
	if err != nil {
		return errorResult(fmt.Sprintf("setting video: %s", err)), setVideoOutput{}, nil
	}
	return nil, setVideoOutput{URL: url, Message: fmt.Sprintf("video set to %s", url)}, nil
}

func (s *Server) handleGetStats(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, statsOutput, error) {
	stats, err := s.commands.Stats()
	if err != nil {
		return errorResult(fmt.Sprintf("getting stats: %s", err)), statsOutput{}, nil
	}
	summary, err := s.commands.FormatStats()
	if err != nil {
		return errorResult(fmt.Sprintf("formatting stats: %s", err)), statsOutput{}, nil
	}
	return nil, statsOutput{Stats: stats, Summary: summary}, nil
}

func (s *Server) handleResetStats(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, resetStatsOutput, error) {
	if err := s.commands.ResetStats(); err != nil {
		return errorResult(fmt.Sprintf("resetting stats: %s", err)), resetStatsOutput{}, nil
	}
	return nil, resetStatsOutput{Message: "statistics reset"}, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, statusOutput, error) {
	st, err := s.commands.Status()
	if err != nil {
		return errorResult(fmt.Sprintf("getting status: %s", err)), statusOutput{}, nil
	}
	return nil, toStatusOutput(st), nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceTime, err := observability.ParseWindow(input.Since, time.Now().UTC())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		Triggers:          metrics.Triggers,
		TriggersBySignal:  metrics.TriggersBySignal,
		TriggersByMode:    metrics.TriggersByMode,
		LateClipboard:     metrics.LateClipboard,
		DiagnosticsBursts: metrics.DiagnosticsBursts,
		Starts:            metrics.Starts,
		Resumes:           metrics.Resumes,
		Pauses:            metrics.Pauses,
		Hides:             metrics.Hides,
		SessionsClosed:    metrics.SessionsClosed,
		SessionTimeMS:     metrics.SessionTimeMS,
		Errors:            metrics.Errors,
		EventCount:        metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (event log may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func toStatusOutput(st core.EngineStatus) statusOutput {
	out := statusOutput{
		State:            st.StateName,
		Video:            st.Video,
		SurfacePresent:   st.SurfacePresent,
		SessionOpen:      st.SessionOpen,
		Position:         st.Position,
		Mode:             string(st.Mode),
		TrackedDocuments: st.TrackedDocuments,
		Documents:        st.Documents,
	}
	if !st.HideDeadline.IsZero() {
		out.HideDeadline = st.HideDeadline.Format(time.RFC3339Nano)
	}
	if !st.LastEdit.IsZero() {
		out.LastEdit = st.LastEdit.Format(time.RFC3339Nano)
	}
	return out
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		TriggersBySignal: make(map[string]int),
		TriggersByMode:   make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
