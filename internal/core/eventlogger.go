package core

// EventLogger receives structured detection and playback events. The
// observability event log satisfies it; core never imports that package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}
