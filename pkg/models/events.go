package models

import "time"

// TextChange is one inserted span inside an edit batch.
type TextChange struct {
	Text        string `json:"text"`
	RangeLength int    `json:"range_length,omitempty"`
}

// EditEvent is one batch of simultaneous text changes to one document.
// LineCount is the document's total line count after the edit.
type EditEvent struct {
	Document  string       `json:"document"`
	Changes   []TextChange `json:"changes"`
	LineCount int          `json:"line_count"`
	At        time.Time    `json:"at"`
}

// DiagnosticsEvent reports the documents whose diagnostics changed together.
type DiagnosticsEvent struct {
	Documents []string  `json:"documents"`
	At        time.Time `json:"at"`
}

// FocusEvent reports a change of the host window's focus.
type FocusEvent struct {
	Focused bool      `json:"focused"`
	At      time.Time `json:"at"`
}
