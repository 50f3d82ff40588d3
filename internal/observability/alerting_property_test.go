package observability

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// genSurfaceErrors produces surface.error events spread over the last two days.
func genSurfaceErrors(t *rapid.T, now time.Time) []Event {
	n := rapid.IntRange(0, 15).Draw(t, "numErrors")
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		minutesAgo := rapid.IntRange(1, 48*60).Draw(t, fmt.Sprintf("minutesAgo_%d", i))
		events = append(events, Event{
			Time:  now.Add(-time.Duration(minutesAgo) * time.Minute),
			Level: "ERROR",
			Type:  "surface.error",
		})
	}
	return events
}

// =============================================================================
// Property 9: Surface Alert Threshold Monotonicity
// =============================================================================

// Feature: codesurf-detection, Property 9: Surface Alert Threshold Monotonicity
// *For any* set of surface.error events, raising the SurfaceErrors threshold
// SHALL never produce a surface_failing alert that the lower threshold did not.
//
// **Validates: Alert threshold consistency**
func TestProperty9_SurfaceAlertThresholdMonotonicity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		el, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
		if err != nil {
			t.Fatalf("creating event log: %v", err)
		}
		defer el.Close()

		for _, e := range genSurfaceErrors(rt, time.Now().UTC()) {
			if err := el.Write(e); err != nil {
				t.Fatalf("writing event: %v", err)
			}
		}

		low := rapid.IntRange(1, 10).Draw(rt, "low")
		high := rapid.IntRange(low+1, 20).Draw(rt, "high")
		window := rapid.IntRange(1, 48).Draw(rt, "window")

		alertsLow, err := NewAlertEngine(el, AlertThresholds{WindowHours: window, SurfaceErrors: low, MaxPlayingHours: 1000}).Evaluate()
		if err != nil {
			t.Fatalf("evaluating low threshold alerts: %v", err)
		}
		alertsHigh, err := NewAlertEngine(el, AlertThresholds{WindowHours: window, SurfaceErrors: high, MaxPlayingHours: 1000}).Evaluate()
		if err != nil {
			t.Fatalf("evaluating high threshold alerts: %v", err)
		}

		if countAlertsByCondition(alertsHigh, "surface_failing") > countAlertsByCondition(alertsLow, "surface_failing") {
			rt.Errorf("threshold %d alerted but threshold %d did not", high, low)
		}
	})
}

// =============================================================================
// Property 10: Event Filter Time Range
// =============================================================================

// Feature: codesurf-detection, Property 10: Event Filter Time Range
// *For any* set of events with random timestamps, applying an EventFilter with
// Since and Until SHALL return exactly the events within [Since, Until].
//
// **Validates: EventFilter correctness**
func TestProperty10_EventFilterTimeRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		el, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
		if err != nil {
			t.Fatalf("creating event log: %v", err)
		}
		defer el.Close()

		baseTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		numEvents := rapid.IntRange(1, 20).Draw(rt, "numEvents")
		var times []time.Time

		for i := 0; i < numEvents; i++ {
			hoursOffset := rapid.IntRange(0, 168).Draw(rt, fmt.Sprintf("hoursOffset_%d", i))
			eventTime := baseTime.Add(time.Duration(hoursOffset) * time.Hour)
			times = append(times, eventTime)
			event := Event{
				Time:    eventTime,
				Level:   "INFO",
				Type:    "detect.triggered",
				Message: fmt.Sprintf("event %d", i),
			}
			if err := el.Write(event); err != nil {
				t.Fatalf("writing event: %v", err)
			}
		}

		sinceOffset := rapid.IntRange(0, 100).Draw(rt, "sinceOffset")
		untilOffset := rapid.IntRange(sinceOffset, 168).Draw(rt, "untilOffset")
		since := baseTime.Add(time.Duration(sinceOffset) * time.Hour)
		until := baseTime.Add(time.Duration(untilOffset) * time.Hour)

		filtered, err := el.Read(EventFilter{Since: &since, Until: &until})
		if err != nil {
			t.Fatalf("reading filtered events: %v", err)
		}

		want := 0
		for _, ts := range times {
			if !ts.Before(since) && !ts.After(until) {
				want++
			}
		}
		if len(filtered) != want {
			rt.Errorf("filtered %d events, want %d", len(filtered), want)
		}
		for _, event := range filtered {
			if event.Time.Before(since) || event.Time.After(until) {
				rt.Errorf("event at %v outside [%v, %v]", event.Time, since, until)
			}
		}
	})
}

// countAlertsByCondition counts alerts matching a specific condition string.
func countAlertsByCondition(alerts []Alert, condition string) int {
	count := 0
	for _, a := range alerts {
		if a.Condition == condition {
			count++
		}
	}
	return count
}
