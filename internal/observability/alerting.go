package observability

import (
	"fmt"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered health condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	WindowHours     int `yaml:"window_hours" json:"window_hours"`
	SurfaceErrors   int `yaml:"surface_errors" json:"surface_errors"`
	MaxPlayingHours int `yaml:"max_playing_hours" json:"max_playing_hours"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		WindowHours:     24,
		SurfaceErrors:   3,
		MaxPlayingHours: 4,
	}
}

// AlertEngine evaluates health conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

// alertEngine implements AlertEngine by reading events and checking thresholds.
type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
}

// NewAlertEngine creates a new AlertEngine with the given EventLog and thresholds.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
	}
}

// Evaluate reads events and checks all alert conditions, returning any triggered alerts.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := time.Now().UTC()
	since := now.Add(-time.Duration(ae.thresholds.WindowHours) * time.Hour)
	var alerts []Alert

	surfaceAlerts, err := ae.checkSurfaceErrors(now, since)
	if err != nil {
		return nil, fmt.Errorf("checking surface errors: %w", err)
	}
	alerts = append(alerts, surfaceAlerts...)

	statsAlerts, err := ae.checkErrorType(now, since, "stats.error", "stats_not_persisted", SeverityMedium,
		"statistics could not be saved %d time(s) in the last %d hours")
	if err != nil {
		return nil, fmt.Errorf("checking stats errors: %w", err)
	}
	alerts = append(alerts, statsAlerts...)

	configAlerts, err := ae.checkErrorType(now, since, "config.error", "config_unreadable", SeverityLow,
		"configuration could not be read %d time(s) in the last %d hours; defaults were used")
	if err != nil {
		return nil, fmt.Errorf("checking config errors: %w", err)
	}
	alerts = append(alerts, configAlerts...)

	playingAlerts, err := ae.checkPlayingTooLong(now)
	if err != nil {
		return nil, fmt.Errorf("checking playback duration: %w", err)
	}
	alerts = append(alerts, playingAlerts...)

	return alerts, nil
}

// checkSurfaceErrors alerts when the playback surface keeps rejecting commands.
func (ae *alertEngine) checkSurfaceErrors(now, since time.Time) ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{Type: "surface.error", Since: &since})
	if err != nil {
		return nil, err
	}

	if len(events) < ae.thresholds.SurfaceErrors {
		return nil, nil
	}
	return []Alert{{
		ID:          "surface-errors",
		Condition:   "surface_failing",
		Severity:    SeverityHigh,
		Message:     fmt.Sprintf("playback surface failed %d commands in the last %d hours", len(events), ae.thresholds.WindowHours),
		TriggeredAt: now,
	}}, nil
}

// checkErrorType alerts once when any event of eventType occurred in the window.
func (ae *alertEngine) checkErrorType(now, since time.Time, eventType, condition string, severity AlertSeverity, format string) ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{Type: eventType, Since: &since})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return []Alert{{
		ID:          condition,
		Condition:   condition,
		Severity:    severity,
		Message:     fmt.Sprintf(format, len(events), ae.thresholds.WindowHours),
		TriggeredAt: now,
	}}, nil
}

// checkPlayingTooLong looks for playback that started and never paused,
// hid or toggled off within the threshold.
func (ae *alertEngine) checkPlayingTooLong(now time.Time) ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{})
	if err != nil {
		return nil, err
	}

	var playingSince time.Time
	playing := false
	for _, event := range events {
		switch event.Type {
		case "playback.started", "playback.resumed":
			if !playing {
				playingSince = event.Time
			}
			playing = true
		case "playback.paused", "playback.hidden":
			playing = false
		case "playback.toggled":
			if state, _ := event.Data["state"].(string); state != "playing" {
				playing = false
			}
		}
	}

	threshold := time.Duration(ae.thresholds.MaxPlayingHours) * time.Hour
	if !playing || now.Sub(playingSince) <= threshold {
		return nil, nil
	}
	return []Alert{{
		ID:          "playing-too-long",
		Condition:   "playing_too_long",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("playback has run for more than %d hours without pausing", ae.thresholds.MaxPlayingHours),
		TriggeredAt: now,
	}}, nil
}
