package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JMTC-dev/CodeSurf/internal/core"
)

// SurfaceCommand is one line of the outbox command stream read by an
// external renderer.
type SurfaceCommand struct {
	Seq     int64     `json:"seq"`
	Surface string    `json:"surface"`
	Command string    `json:"command"` // open, play, pause, updateUrl, seekTo, close
	URL     string    `json:"url,omitempty"`
	Seconds float64   `json:"seconds,omitempty"`
	Column  string    `json:"column,omitempty"`
	Time    time.Time `json:"time"`
}

// FileSurfaceConfig holds the location of the file-based playback surface.
type FileSurfaceConfig struct {
	BaseDir string // outbox/ is created beneath it.
}

// FileSurfaceFactory creates surfaces that append their commands as JSON
// lines to BaseDir/outbox/commands.jsonl.
type FileSurfaceFactory struct {
	outboxPath string

	mu  sync.Mutex
	seq int64
}

// NewFileSurfaceFactory prepares the outbox directory and returns a factory
// writing to it.
func NewFileSurfaceFactory(cfg FileSurfaceConfig) (*FileSurfaceFactory, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("creating file surface: base dir is empty")
	}
	outboxDir := filepath.Join(cfg.BaseDir, "outbox")
	if err := os.MkdirAll(outboxDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating file surface directory %s: %w", outboxDir, err)
	}
	return &FileSurfaceFactory{outboxPath: filepath.Join(outboxDir, "commands.jsonl")}, nil
}

// OutboxPath returns the command stream location.
func (f *FileSurfaceFactory) OutboxPath() string {
	return f.outboxPath
}

// Create opens a new surface placed in column and showing url.
func (f *FileSurfaceFactory) Create(url, column string) (core.Surface, error) {
	s := &fileSurface{factory: f, id: uuid.NewString()}
	if err := f.append(SurfaceCommand{Surface: s.id, Command: "open", URL: url, Column: column}); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *FileSurfaceFactory) append(cmd SurfaceCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	cmd.Seq = f.seq
	cmd.Time = time.Now().UTC()

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshaling surface command: %w", err)
	}
	data = append(data, '\n')

	file, err := os.OpenFile(f.outboxPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening surface outbox: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("writing surface command %s: %w", cmd.Command, err)
	}
	return nil
}

// ReadSurfaceCommands returns every command in the outbox, oldest first.
// Malformed lines are skipped.
func ReadSurfaceCommands(path string) ([]SurfaceCommand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading surface outbox: %w", err)
	}

	var cmds []SurfaceCommand
	for _, line := range splitLines(data) {
		var cmd SurfaceCommand
		if err := json.Unmarshal(line, &cmd); err != nil {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

type fileSurface struct {
	factory *FileSurfaceFactory
	id      string
	closed  bool
}

func (s *fileSurface) send(cmd SurfaceCommand) error {
	if s.closed {
		return fmt.Errorf("surface %s is closed", s.id)
	}
	cmd.Surface = s.id
	return s.factory.append(cmd)
}

func (s *fileSurface) Play() error {
	return s.send(SurfaceCommand{Command: "play"})
}

func (s *fileSurface) Pause() error {
	return s.send(SurfaceCommand{Command: "pause"})
}

func (s *fileSurface) UpdateURL(url string, startSeconds float64) error {
	return s.send(SurfaceCommand{Command: "updateUrl", URL: url, Seconds: startSeconds})
}

func (s *fileSurface) SeekTo(seconds float64) error {
	return s.send(SurfaceCommand{Command: "seekTo", Seconds: seconds})
}

func (s *fileSurface) Close() error {
	err := s.send(SurfaceCommand{Command: "close"})
	s.closed = true
	return err
}
