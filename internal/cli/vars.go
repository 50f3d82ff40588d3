package cli

import (
	"github.com/JMTC-dev/CodeSurf/internal/core"
	"github.com/JMTC-dev/CodeSurf/internal/observability"
	"github.com/JMTC-dev/CodeSurf/internal/storage"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath    string
	ConfigMgr   core.ConfigurationManager
	StatsStore  storage.StatsStoreManager
	History     storage.SessionHistoryStore
	EventLogger core.EventLogger
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
)

// sessionHistory returns History as the core port, keeping a nil store nil.
func sessionHistory() core.SessionHistory {
	if History == nil {
		return nil
	}
	return History
}
