package cli

import (
	"io"
	"os"
	"testing"

	"github.com/JMTC-dev/CodeSurf/internal/core"
	"github.com/JMTC-dev/CodeSurf/internal/storage"
)

// captureStdout captures stdout output during fn execution.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = origStdout

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading pipe: %v", err)
	}
	return string(out)
}

// withWorkspace points the service vars at real stores in a temporary
// workspace and restores the previous values when the test ends.
func withWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	origBase, origCfg, origStats, origHistory, origLogger := BasePath, ConfigMgr, StatsStore, History, EventLogger
	t.Cleanup(func() {
		BasePath, ConfigMgr, StatsStore, History, EventLogger = origBase, origCfg, origStats, origHistory, origLogger
	})

	history, err := storage.OpenSessionHistory(storage.HistoryPath(dir))
	if err != nil {
		t.Fatalf("opening history: %v", err)
	}
	t.Cleanup(func() { _ = history.Close() })

	BasePath = dir
	ConfigMgr = core.NewConfigurationManager(dir)
	StatsStore = storage.NewStatsStoreManager(dir)
	History = history
	EventLogger = nil
	return dir
}
