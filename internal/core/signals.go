package core

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

// SignalVector holds the per-edit heuristic outputs fed to the policy.
type SignalVector struct {
	RapidEdit     bool `json:"rapid_edit"`
	LargeBlock    bool `json:"large_block"`
	AIPattern     bool `json:"ai_pattern"`
	ClipboardEcho bool `json:"clipboard_echo"`
}

// Count returns the number of signals that are set.
func (s SignalVector) Count() int {
	n := 0
	for _, b := range []bool{s.RapidEdit, s.LargeBlock, s.AIPattern, s.ClipboardEcho} {
		if b {
			n++
		}
	}
	return n
}

// Names lists the set signals, in a fixed order.
func (s SignalVector) Names() []string {
	var names []string
	if s.RapidEdit {
		names = append(names, "rapid_edit")
	}
	if s.LargeBlock {
		names = append(names, "large_block")
	}
	if s.AIPattern {
		names = append(names, "ai_pattern")
	}
	if s.ClipboardEcho {
		names = append(names, "clipboard_echo")
	}
	return names
}

// RapidEdit reports whether the gap since the previous edit is positive and
// shorter than sensitivity. A zero last time means there was no previous edit.
func RapidEdit(now, last time.Time, sensitivity time.Duration) bool {
	if last.IsZero() {
		return false
	}
	gap := now.Sub(last)
	return gap > 0 && gap < sensitivity
}

// CountLines returns the number of line separators plus one. The empty
// string counts as one line.
func CountLines(text string) int {
	return strings.Count(text, "\n") + 1
}

// LargeBlock reports whether any single change reaches either size threshold.
func LargeBlock(ev models.EditEvent, cfg *models.DetectionConfig) bool {
	for _, ch := range ev.Changes {
		if CountLines(ch.Text) >= cfg.MinLines || utf8.RuneCountInString(ch.Text) >= cfg.MinCharacters {
			return true
		}
	}
	return false
}

type patternCategory struct {
	name string
	re   *regexp.Regexp
}

// patternCategories is ordered; each category counts at most once.
var patternCategories = []patternCategory{
	{"function_declaration", regexp.MustCompile(`function\s+\w+\s*\([^)]*\)\s*\{`)},
	{"arrow_function", regexp.MustCompile(`const\s+\w+\s*=\s*\([^)]*\)\s*=>`)},
	{"class_declaration", regexp.MustCompile(`class\s+\w+\s*(extends\s+\w+)?\s*\{`)},
	{"doc_comment", regexp.MustCompile(`/\*\*[\s\S]+?\*/`)},
	{"import_statement", regexp.MustCompile(`import\s+.+\s+from\s+['"][^'"]+['"]`)},
	{"export_statement", regexp.MustCompile(`export\s+(default\s+)?`)},
	{"interface_declaration", regexp.MustCompile(`interface\s+\w+\s*\{`)},
	{"type_alias", regexp.MustCompile(`type\s+\w+\s*=`)},
}

// PatternMatches returns the names of the structural categories found in text.
func PatternMatches(text string) []string {
	var matched []string
	for _, pc := range patternCategories {
		if pc.re.MatchString(text) {
			matched = append(matched, pc.name)
		}
	}
	return matched
}

// AIPattern reports whether the first change of the event matches enough
// distinct structural categories. Later changes in the batch are not scanned.
func AIPattern(ev models.EditEvent, cfg *models.DetectionConfig) bool {
	if len(ev.Changes) == 0 {
		return false
	}
	threshold := 2
	if cfg.RequireMultiplePatterns {
		threshold = 3
	}
	return len(PatternMatches(ev.Changes[0].Text)) >= threshold
}

// ClipboardResult is the outcome of one clipboard read: either the text, or
// Unavailable when the capability failed or timed out.
type ClipboardResult struct {
	Text string
	OK   bool
}

// ClipboardText wraps a successful read.
func ClipboardText(text string) ClipboardResult {
	return ClipboardResult{Text: text, OK: true}
}

// ClipboardUnavailable is the degraded result of a failed read.
var ClipboardUnavailable = ClipboardResult{}

// ClipboardThreshold returns the minimum inserted length, exclusive, for a
// change to count as pasted.
func ClipboardThreshold(cfg *models.DetectionConfig) int {
	if cfg.StrictClipboard {
		return 100
	}
	return 50
}

// ClipboardEcho reports whether any change longer than the clipboard
// threshold is contained in the clipboard text.
func ClipboardEcho(ev models.EditEvent, clip ClipboardResult, cfg *models.DetectionConfig) bool {
	if !clip.OK || clip.Text == "" {
		return false
	}
	threshold := ClipboardThreshold(cfg)
	for _, ch := range ev.Changes {
		if utf8.RuneCountInString(ch.Text) > threshold && strings.Contains(clip.Text, ch.Text) {
			return true
		}
	}
	return false
}

// EvaluateSync computes the signals that need no external capability.
func EvaluateSync(ev models.EditEvent, last time.Time, cfg *models.DetectionConfig) SignalVector {
	return SignalVector{
		RapidEdit:  RapidEdit(ev.At, last, time.Duration(cfg.SensitivityMS)*time.Millisecond),
		LargeBlock: LargeBlock(ev, cfg),
		AIPattern:  AIPattern(ev, cfg),
	}
}
