package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/JMTC-dev/CodeSurf/pkg/models"
	"github.com/google/uuid"
)

// StatsTracker aggregates playback sessions into cumulative statistics and
// persists them after every mutation.
type StatsTracker interface {
	// Open starts a session record. It is a no-op returning false when one is
	// already open.
	Open(video string, lineCount int, at time.Time) (bool, error)
	// Close ends the open record. It returns nil when nothing was open.
	// The duration runs from the open time, paused stretches included.
	Close(lineCount int, at time.Time) (*models.SessionSummary, error)
	IsOpen() bool
	Stats() models.CumulativeStats
	Format() string
	Reset() error
}

// sessionRecord is the single open session interval. Pausing does not end
// it; only Close does.
type sessionRecord struct {
	id             string
	video          string
	startedAt      time.Time
	startLineCount int
}

func (r *sessionRecord) duration(at time.Time) time.Duration {
	if at.Before(r.startedAt) {
		return 0
	}
	return at.Sub(r.startedAt)
}

type statsTracker struct {
	store   StatsStore
	history SessionHistory
	logger  EventLogger
	stats   models.CumulativeStats
	open    *sessionRecord
	// unsaved is set while stats holds changes the store does not have.
	unsaved bool
}

// NewStatsTracker loads the stored aggregate once. A load failure starts
// from the zero value. history and logger may be nil.
func NewStatsTracker(store StatsStore, history SessionHistory, logger EventLogger) StatsTracker {
	t := &statsTracker{store: store, history: history, logger: logger}
	stats, err := store.Load()
	if err != nil {
		t.logError("load", err)
		stats = models.CumulativeStats{}
	}
	t.stats = stats
	return t
}

func (t *statsTracker) logError(op string, err error) {
	if t.logger == nil {
		return
	}
	_ = t.logger.LogEvent("stats.error", map[string]any{
		"op":    op,
		"error": err.Error(),
	})
}

func (t *statsTracker) persist() error {
	if err := t.store.Save(t.stats.Clone()); err != nil {
		t.unsaved = true
		t.logError("save", err)
		return fmt.Errorf("persisting stats: %w", err)
	}
	t.unsaved = false
	return nil
}

// refresh reloads the stored aggregate before a mutation so that writes
// from another process, such as a reset-stats run during a watch, are kept.
func (t *statsTracker) refresh() {
	if t.unsaved {
		return
	}
	stats, err := t.store.Load()
	if err != nil {
		t.logError("load", err)
		return
	}
	t.stats = stats
}

func (t *statsTracker) Open(video string, lineCount int, at time.Time) (bool, error) {
	if t.open != nil {
		return false, nil
	}
	t.refresh()
	t.open = &sessionRecord{
		id:             uuid.NewString(),
		video:          video,
		startedAt:      at,
		startLineCount: lineCount,
	}

	t.stats.SessionsCount++
	found := false
	for i := range t.stats.VideosWatched {
		if t.stats.VideosWatched[i].Video == video {
			t.stats.VideosWatched[i].Count++
			found = true
			break
		}
	}
	if !found {
		t.stats.VideosWatched = append(t.stats.VideosWatched, models.VideoCount{Video: video, Count: 1})
	}
	t.stats.FavoriteVideo = favorite(t.stats.VideosWatched)

	return true, t.persist()
}

// favorite returns the most-watched video; the earliest entry wins ties.
func favorite(videos []models.VideoCount) string {
	best, top := "", 0
	for _, vc := range videos {
		if vc.Count > top {
			best, top = vc.Video, vc.Count
		}
	}
	return best
}

func (t *statsTracker) Close(lineCount int, at time.Time) (*models.SessionSummary, error) {
	rec := t.open
	if rec == nil {
		return nil, nil
	}
	t.open = nil
	t.refresh()

	dur := rec.duration(at)
	ms := dur.Milliseconds()
	lines := lineCount - rec.startLineCount
	if lines < 0 {
		lines = 0
	}

	t.stats.TotalGenerationTime += ms
	t.stats.TotalVideoTime += ms
	if ms > t.stats.LongestSession {
		t.stats.LongestSession = ms
	}
	t.stats.TotalLinesGenerated += lines

	summary := &models.SessionSummary{
		ID:             rec.id,
		Video:          rec.video,
		StartedAt:      rec.startedAt,
		EndedAt:        at,
		Duration:       dur,
		LinesGenerated: lines,
	}

	err := t.persist()
	if t.history != nil {
		if herr := t.history.Record(*summary); herr != nil {
			t.logError("history", herr)
			if err == nil {
				err = fmt.Errorf("recording session history: %w", herr)
			}
		}
	}
	return summary, err
}

func (t *statsTracker) IsOpen() bool {
	return t.open != nil
}

func (t *statsTracker) Stats() models.CumulativeStats {
	return t.stats.Clone()
}

func (t *statsTracker) Reset() error {
	t.stats = models.CumulativeStats{}
	return t.persist()
}

func (t *statsTracker) Format() string {
	return FormatStats(t.stats)
}

// FormatStats renders the human-readable summary of an aggregate.
func FormatStats(s models.CumulativeStats) string {
	count := s.SessionsCount
	if count < 1 {
		count = 1
	}
	fav := "None yet"
	if s.FavoriteVideo != "" {
		fav = VideoLabel(s.FavoriteVideo)
	}

	var b strings.Builder
	b.WriteString("CodeSurf Statistics\n\n")
	fmt.Fprintf(&b, "Total Generation Time: %s\n", FormatDuration(s.TotalGenerationTime))
	fmt.Fprintf(&b, "Total Sessions: %d\n", s.SessionsCount)
	fmt.Fprintf(&b, "Average Session: %s\n", FormatDuration(s.TotalGenerationTime/int64(count)))
	fmt.Fprintf(&b, "Longest Session: %s\n", FormatDuration(s.LongestSession))
	fmt.Fprintf(&b, "Lines Generated: %d\n", s.TotalLinesGenerated)
	fmt.Fprintf(&b, "Videos Watched: %d\n", len(s.VideosWatched))
	fmt.Fprintf(&b, "Favorite Video: %s\n", fav)
	return b.String()
}

// FormatDuration renders milliseconds as "Xh Ym", "Xm Ys" or "Xs".
func FormatDuration(ms int64) string {
	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
