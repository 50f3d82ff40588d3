package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func withInitFlags(t *testing.T, mode, video string) {
	t.Helper()
	origMode, origVideo := initMode, initVideo
	initMode, initVideo = mode, video
	t.Cleanup(func() { initMode, initVideo = origMode, origVideo })
}

func TestInitCmd_CreatesWorkspace(t *testing.T) {
	withInitFlags(t, "aggressive", "https://www.youtube.com/watch?v=xyz")
	dir := filepath.Join(t.TempDir(), "project")

	var runErr error
	out := captureStdout(t, func() {
		runErr = initCmd.RunE(initCmd, []string{dir})
	})
	if runErr != nil {
		t.Fatalf("init: %v", runErr)
	}
	for _, want := range []string{"created  .codesurf.yaml", "created  .codesurf", "created  .gitignore"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, ".codesurf.yaml"))
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	for _, want := range []string{"mode: aggressive", `video_url: "https://www.youtube.com/embed/xyz"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("config missing %q:\n%s", want, data)
		}
	}
}

func TestInitCmd_ReportsExistingFiles(t *testing.T) {
	withInitFlags(t, "", "")
	dir := t.TempDir()
	if err := initCmd.RunE(initCmd, []string{dir}); err != nil {
		t.Fatal(err)
	}

	out := captureStdout(t, func() {
		if err := initCmd.RunE(initCmd, []string{dir}); err != nil {
			t.Errorf("second init: %v", err)
		}
	})
	if strings.Contains(out, "created") {
		t.Errorf("second run should create nothing:\n%s", out)
	}
	if !strings.Contains(out, "exists   .codesurf.yaml") {
		t.Errorf("output missing skipped config:\n%s", out)
	}
}

func TestInitCmd_InvalidMode(t *testing.T) {
	withInitFlags(t, "loud", "")
	err := initCmd.RunE(initCmd, []string{t.TempDir()})
	if err == nil || !strings.Contains(err.Error(), "invalid") {
		t.Fatalf("expected invalid mode error, got %v", err)
	}
}
