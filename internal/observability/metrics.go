package observability

import (
	"fmt"
	"time"
)

// Metrics holds detection and playback counts derived from the event log.
type Metrics struct {
	Triggers          int            `json:"triggers"`
	TriggersBySignal  map[string]int `json:"triggers_by_signal"`
	TriggersByMode    map[string]int `json:"triggers_by_mode"`
	LateClipboard     int            `json:"late_clipboard"`
	DiagnosticsBursts int            `json:"diagnostics_bursts"`
	Starts            int            `json:"starts"`
	Resumes           int            `json:"resumes"`
	Pauses            int            `json:"pauses"`
	Hides             int            `json:"hides"`
	Toggles           int            `json:"toggles"`
	SessionsClosed    int            `json:"sessions_closed"`
	SessionTimeMS     int64          `json:"session_time_ms"`
	LinesGenerated    int            `json:"lines_generated"`
	Errors            int            `json:"errors"`
	EventCount        int            `json:"event_count"`
	OldestEvent       *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent       *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		TriggersBySignal: make(map[string]int),
		TriggersByMode:   make(map[string]int),
	}

	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		if event.Level == "ERROR" {
			m.Errors++
		}

		switch event.Type {
		case "detect.triggered":
			m.Triggers++
			if signals, ok := event.Data["signals"].([]any); ok {
				for _, s := range signals {
					if name, ok := s.(string); ok {
						m.TriggersBySignal[name]++
					}
				}
			}
			if mode, ok := event.Data["mode"].(string); ok {
				m.TriggersByMode[mode]++
			}
		case "detect.late_clipboard":
			m.LateClipboard++
		case "diagnostics.burst":
			m.DiagnosticsBursts++
		case "playback.started":
			m.Starts++
		case "playback.resumed":
			m.Resumes++
		case "playback.paused":
			m.Pauses++
		case "playback.hidden":
			m.Hides++
		case "playback.toggled":
			m.Toggles++
		case "session.closed":
			m.SessionsClosed++
			m.SessionTimeMS += int64(number(event.Data["duration_ms"]))
			m.LinesGenerated += int(number(event.Data["lines"]))
		}
	}

	return m, nil
}

// number reads a JSON-decoded numeric value.
func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
