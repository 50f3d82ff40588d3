package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

// =============================================================================
// Playback surface fakes
// =============================================================================

type fakeSurface struct {
	log      *[]string
	failPlay bool
	closed   bool
}

func (s *fakeSurface) record(cmd string) { *s.log = append(*s.log, cmd) }

func (s *fakeSurface) Play() error {
	s.record("play")
	if s.failPlay {
		return errors.New("renderer not responding")
	}
	return nil
}

func (s *fakeSurface) Pause() error { s.record("pause"); return nil }

func (s *fakeSurface) UpdateURL(url string, start float64) error {
	s.record(fmt.Sprintf("updateUrl %s %.0f", url, start))
	return nil
}

func (s *fakeSurface) SeekTo(seconds float64) error {
	s.record(fmt.Sprintf("seekTo %.0f", seconds))
	return nil
}

func (s *fakeSurface) Close() error {
	s.record("close")
	s.closed = true
	return nil
}

type fakeFactory struct {
	commands []string
	created  int
	columns  []string
	failPlay bool
	err      error
}

func (f *fakeFactory) Create(url, column string) (Surface, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created++
	f.columns = append(f.columns, column)
	f.commands = append(f.commands, "open "+url)
	return &fakeSurface{log: &f.commands, failPlay: f.failPlay}, nil
}

func (f *fakeFactory) last() string {
	if len(f.commands) == 0 {
		return ""
	}
	return f.commands[len(f.commands)-1]
}

func (f *fakeFactory) count(cmd string) int {
	n := 0
	for _, c := range f.commands {
		if c == cmd {
			n++
		}
	}
	return n
}

// =============================================================================
// Stats store fakes
// =============================================================================

type memStatsStore struct {
	stats   models.CumulativeStats
	saves   int
	loadErr error
	saveErr error
}

func (m *memStatsStore) Load() (models.CumulativeStats, error) {
	if m.loadErr != nil {
		return models.CumulativeStats{}, m.loadErr
	}
	return m.stats.Clone(), nil
}

func (m *memStatsStore) Save(s models.CumulativeStats) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.stats = s.Clone()
	return nil
}

type memHistory struct {
	summaries []models.SessionSummary
}

func (h *memHistory) Record(s models.SessionSummary) error {
	h.summaries = append(h.summaries, s)
	return nil
}

// =============================================================================
// Event logger fake (safe for use from the engine goroutine)
// =============================================================================

type fakeEventLogger struct {
	mu     sync.Mutex
	events []string
	data   []map[string]any
}

func (l *fakeEventLogger) LogEvent(eventType string, data map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, eventType)
	l.data = append(l.data, data)
	return nil
}

func (l *fakeEventLogger) has(eventType string) bool {
	return l.count(eventType) > 0
}

func (l *fakeEventLogger) count(eventType string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e == eventType {
			n++
		}
	}
	return n
}

// =============================================================================
// Clipboard fakes
// =============================================================================

type fakeClipboard struct {
	text  string
	delay time.Duration
	err   error
}

func (c *fakeClipboard) ReadText(ctx context.Context) (string, error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if c.err != nil {
		return "", c.err
	}
	return c.text, nil
}

// =============================================================================
// Config fakes
// =============================================================================

// staticConfig serves a fixed configuration.
type staticConfig struct {
	mu    sync.Mutex
	cfg   models.DetectionConfig
	video string
}

func newStaticConfig(mutate func(*models.DetectionConfig)) *staticConfig {
	cfg := models.DefaultDetectionConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return &staticConfig{cfg: cfg}
}

func (s *staticConfig) Load() (*models.DetectionConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.cfg
	return &cp, nil
}

func (s *staticConfig) Validate() error { return nil }

func (s *staticConfig) SetVideoURL(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.VideoURL = url
	s.video = url
	return nil
}

func (s *staticConfig) Path() string { return ConfigFileName }

// =============================================================================
// Helpers
// =============================================================================

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return testEpoch.Add(time.Duration(ms) * time.Millisecond)
}

func testConfig(mutate func(*models.DetectionConfig)) *models.DetectionConfig {
	cfg := models.DefaultDetectionConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return &cfg
}

func edit(doc, text string, atMS, lineCount int) models.EditEvent {
	return models.EditEvent{
		Document:  doc,
		Changes:   []models.TextChange{{Text: text}},
		LineCount: lineCount,
		At:        at(atMS),
	}
}
