package core

import "github.com/JMTC-dev/CodeSurf/pkg/models"

// diagnosticsBurstMin is the number of distinct documents that must be
// exceeded for a diagnostics change to count as a burst.
const diagnosticsBurstMin = 3

// DiagnosticsBurst reports whether a diagnostics change touched more than
// three distinct documents. Manual mode ignores diagnostics entirely.
func DiagnosticsBurst(ev models.DiagnosticsEvent, cfg *models.DetectionConfig) bool {
	if cfg.Mode == models.ModeManual {
		return false
	}
	seen := make(map[string]struct{}, len(ev.Documents))
	for _, doc := range ev.Documents {
		seen[doc] = struct{}{}
	}
	return len(seen) > diagnosticsBurstMin
}
