package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

// FeedMessage is one line of the editor event feed.
type FeedMessage struct {
	Type      string              `json:"type"` // edit, diagnostics, focus, time, command
	Document  string              `json:"document,omitempty"`
	Changes   []models.TextChange `json:"changes,omitempty"`
	LineCount int                 `json:"line_count,omitempty"`
	Documents []string            `json:"documents,omitempty"`
	Focused   bool                `json:"focused,omitempty"`
	Seconds   float64             `json:"seconds,omitempty"`
	Name      string              `json:"name,omitempty"`
	URL       string              `json:"url,omitempty"`
}

// FeedHandler receives decoded feed messages.
type FeedHandler interface {
	Edit(ev models.EditEvent)
	Diagnostics(ev models.DiagnosticsEvent)
	Focus(ev models.FocusEvent)
	Position(seconds float64)
	Command(name, url string) error
}

// ParseFeedLine decodes one feed line. Unknown types are an error.
func ParseFeedLine(line []byte) (FeedMessage, error) {
	var msg FeedMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return msg, fmt.Errorf("decoding feed line: %w", err)
	}
	switch msg.Type {
	case "edit":
		if msg.Document == "" {
			return msg, fmt.Errorf("edit without document")
		}
	case "diagnostics", "focus", "time":
	case "command":
		switch msg.Name {
		case "toggle", "set_video", "reset_stats":
		default:
			return msg, fmt.Errorf("unknown command %q", msg.Name)
		}
	default:
		return msg, fmt.Errorf("unknown feed message type %q", msg.Type)
	}
	return msg, nil
}

// ReadFeed dispatches every line of r to h until EOF or ctx is done.
// Malformed lines and failed commands are passed to warn and skipped.
func ReadFeed(ctx context.Context, r io.Reader, h FeedHandler, warn func(error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := ParseFeedLine(line)
		if err != nil {
			if warn != nil {
				warn(err)
			}
			continue
		}
		if err := dispatch(msg, h, time.Now()); err != nil && warn != nil {
			warn(err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading feed: %w", err)
	}
	return nil
}

func dispatch(msg FeedMessage, h FeedHandler, now time.Time) error {
	switch msg.Type {
	case "edit":
		h.Edit(models.EditEvent{
			Document:  msg.Document,
			Changes:   msg.Changes,
			LineCount: msg.LineCount,
			At:        now,
		})
	case "diagnostics":
		h.Diagnostics(models.DiagnosticsEvent{Documents: msg.Documents, At: now})
	case "focus":
		h.Focus(models.FocusEvent{Focused: msg.Focused, At: now})
	case "time":
		h.Position(msg.Seconds)
	case "command":
		if err := h.Command(msg.Name, msg.URL); err != nil {
			return fmt.Errorf("running feed command %s: %w", msg.Name, err)
		}
	}
	return nil
}
