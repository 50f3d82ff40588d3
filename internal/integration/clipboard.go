package integration

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
)

// SystemClipboard reads the OS clipboard.
type SystemClipboard struct {
	read      func() (string, error)
	supported bool
}

// NewSystemClipboard returns a reader backed by the platform clipboard tool.
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{read: clipboard.ReadAll, supported: !clipboard.Unsupported}
}

// Supported reports whether a clipboard tool is available on this machine.
func (c *SystemClipboard) Supported() bool {
	return c.supported
}

// ReadText returns the clipboard text or ctx's error if ctx ends first.
func (c *SystemClipboard) ReadText(ctx context.Context) (string, error) {
	if !c.Supported() {
		return "", fmt.Errorf("reading clipboard: no clipboard utility available")
	}
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := c.read()
		ch <- result{text, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("reading clipboard: %w", r.err)
		}
		return r.text, nil
	}
}
