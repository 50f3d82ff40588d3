package core

import "github.com/JMTC-dev/CodeSurf/pkg/models"

// Verdict is the outcome of one policy decision.
type Verdict struct {
	ShouldTrigger bool
	Count         int
}

// Decide applies the detection mode to a signal vector. Unknown modes are
// treated as smart.
func Decide(sig SignalVector, cfg *models.DetectionConfig) Verdict {
	v := Verdict{Count: sig.Count()}
	switch cfg.Mode {
	case models.ModeManual:
		v.ShouldTrigger = false
	case models.ModeAggressive:
		v.ShouldTrigger = v.Count >= 1
	default:
		v.ShouldTrigger = v.Count >= 2
	}
	return v
}

// DecideDiagnostics is the independent trigger path for diagnostics bursts:
// a burst alone is enough when auto-play is on and the mode is not manual.
func DecideDiagnostics(burst bool, cfg *models.DetectionConfig) bool {
	return burst && cfg.AutoPlay && cfg.Mode != models.ModeManual
}
