package core

import (
	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

// StatsStore persists the cumulative statistics.
// This interface is defined locally in core to avoid importing storage.
type StatsStore interface {
	// Load returns the stored aggregate, or the zero value when none exists.
	Load() (models.CumulativeStats, error)
	Save(stats models.CumulativeStats) error
}

// SessionHistory receives a summary for every closed session.
// This interface is defined locally in core to avoid importing storage.
type SessionHistory interface {
	Record(summary models.SessionSummary) error
}
