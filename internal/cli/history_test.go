package cli

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

func setHistoryFlags(t *testing.T, limit int, asJSON bool) {
	t.Helper()
	origLimit, origJSON := historyLimit, historyJSON
	t.Cleanup(func() { historyLimit, historyJSON = origLimit, origJSON })
	historyLimit, historyJSON = limit, asJSON
}

func recordSessions(t *testing.T, n int) time.Time {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		err := History.Record(models.SessionSummary{
			ID:             "session-" + string(rune('a'+i)),
			Video:          "https://www.youtube.com/embed/video" + string(rune('a'+i)),
			StartedAt:      start,
			EndedAt:        start.Add(2 * time.Minute),
			Duration:       90 * time.Second,
			LinesGenerated: 10 * (i + 1),
		})
		if err != nil {
			t.Fatalf("recording session %d: %v", i, err)
		}
	}
	return base
}

func TestHistoryCmd_NilHistory(t *testing.T) {
	withWorkspace(t)
	History = nil

	err := historyCmd.RunE(historyCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "not available") {
		t.Fatalf("expected not available error, got %v", err)
	}
}

func TestHistoryCmd_InvalidLimit(t *testing.T) {
	withWorkspace(t)
	setHistoryFlags(t, 0, false)

	err := historyCmd.RunE(historyCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "--limit") {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func TestHistoryCmd_Empty(t *testing.T) {
	withWorkspace(t)
	setHistoryFlags(t, 10, false)

	out := captureStdout(t, func() {
		if err := historyCmd.RunE(historyCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "No sessions recorded yet.") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestHistoryCmd_TableNewestFirst(t *testing.T) {
	withWorkspace(t)
	setHistoryFlags(t, 2, false)
	recordSessions(t, 3)

	out := captureStdout(t, func() {
		if err := historyCmd.RunE(historyCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "ENDED") {
		t.Errorf("missing header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "videoc") || !strings.Contains(lines[2], "videob") {
		t.Errorf("rows not newest first:\n%s", out)
	}
	if !strings.Contains(lines[1], "1m 30s") || !strings.Contains(lines[1], "30") {
		t.Errorf("row missing duration or lines: %q", lines[1])
	}
}

func TestHistoryCmd_JSON(t *testing.T) {
	withWorkspace(t)
	setHistoryFlags(t, 10, true)
	recordSessions(t, 2)

	out := captureStdout(t, func() {
		if err := historyCmd.RunE(historyCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	var got []models.SessionSummary
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 2 || got[0].ID != "session-b" {
		t.Errorf("unexpected sessions: %+v", got)
	}
}
