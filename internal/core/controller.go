package core

import (
	"time"

	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

// HideGrace is the fixed delay between an idle sweep deciding to pause and
// the pause being committed.
const HideGrace = time.Second

// PlaybackState is the state of the playback surface.
type PlaybackState int

const (
	StateIdle PlaybackState = iota
	StatePlaying
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// HideToken identifies one armed pending hide. A token whose Gen no longer
// matches the controller's pending token is stale and is ignored on firing.
type HideToken struct {
	Gen      uint64
	Deadline time.Time
}

// Status is a read-only snapshot of the controller.
type Status struct {
	State          PlaybackState `json:"-"`
	StateName      string        `json:"state"`
	Video          string        `json:"video,omitempty"`
	SurfacePresent bool          `json:"surface_present"`
	SessionOpen    bool          `json:"session_open"`
	HideDeadline   time.Time     `json:"hide_deadline,omitempty"`
	Position       float64       `json:"position_seconds"`
	LastActivity   time.Time     `json:"last_activity,omitempty"`
}

// Controller is the playback state machine. It is not safe for concurrent
// use; the Engine loop owns it. Every method takes the current time and,
// where a decision depends on it, a freshly loaded config.
type Controller struct {
	factory SurfaceFactory
	tracker StatsTracker
	logger  EventLogger

	state    PlaybackState
	surface  Surface
	video    string
	position float64

	pending *HideToken
	gen     uint64
	grace   time.Duration

	lastActivity time.Time
	lineCount    int
}

// NewController creates a controller in the Idle state. logger may be nil.
func NewController(factory SurfaceFactory, tracker StatsTracker, logger EventLogger) *Controller {
	return &Controller{factory: factory, tracker: tracker, logger: logger, grace: HideGrace}
}

// State returns the current playback state.
func (c *Controller) State() PlaybackState {
	return c.state
}

// Pending returns the armed hide token, or nil.
func (c *Controller) Pending() *HideToken {
	if c.pending == nil {
		return nil
	}
	tok := *c.pending
	return &tok
}

func (c *Controller) log(eventType string, data map[string]any) {
	if c.logger == nil {
		return
	}
	_ = c.logger.LogEvent(eventType, data)
}

// send runs one surface command. Commands to an absent surface are dropped
// and failures are logged, never returned.
func (c *Controller) send(command string, fn func(Surface) error) {
	if c.surface == nil {
		return
	}
	if err := fn(c.surface); err != nil {
		c.log("surface.error", map[string]any{"command": command, "error": err.Error()})
	}
}

func (c *Controller) cancelHide() {
	c.pending = nil
}

// ensureSurface creates the surface when absent. A surface recreated for the
// same video already shows it, so it is only seeked back to the last
// reported position.
func (c *Controller) ensureSurface(cfg *models.DetectionConfig) bool {
	if c.surface != nil {
		return true
	}
	s, err := c.factory.Create(cfg.VideoURL, cfg.PanelColumn)
	if err != nil {
		c.log("surface.error", map[string]any{"command": "open", "error": err.Error()})
		return false
	}
	c.surface = s
	if c.video != cfg.VideoURL {
		c.position = 0
	}
	c.video = cfg.VideoURL
	if c.position > 0 {
		pos := c.position
		c.send("seekTo", func(s Surface) error { return s.SeekTo(pos) })
	}
	return true
}

// start moves Idle to Playing and opens a session record.
func (c *Controller) start(now time.Time, cfg *models.DetectionConfig, reason string) {
	if !c.ensureSurface(cfg) {
		return
	}
	c.cancelHide()
	c.send("play", Surface.Play)
	c.state = StatePlaying
	c.lastActivity = now

	// Persistence failures are logged by the tracker.
	opened, _ := c.tracker.Open(c.video, c.lineCount, now)
	c.log("playback.started", map[string]any{"reason": reason, "video": c.video})
	if opened {
		c.log("session.opened", map[string]any{"video": c.video, "line_count": c.lineCount})
	}
}

// resume moves Paused to Playing without opening a new record.
func (c *Controller) resume(now time.Time, cfg *models.DetectionConfig) {
	if !c.ensureSurface(cfg) {
		return
	}
	c.cancelHide()
	c.send("play", Surface.Play)
	c.state = StatePlaying
	c.lastActivity = now
	c.log("playback.resumed", map[string]any{"video": c.video})
}

// pause moves Playing to Paused, keeping the surface and the record.
func (c *Controller) pause(now time.Time, reason string) {
	c.cancelHide()
	c.send("pause", Surface.Pause)
	c.state = StatePaused
	c.log("playback.paused", map[string]any{"reason": reason})
}

// teardown closes the surface and the open record and returns to Idle.
func (c *Controller) teardown(now time.Time) {
	c.cancelHide()
	if c.surface != nil {
		c.send("close", Surface.Close)
		c.surface = nil
	}
	c.state = StateIdle
	summary, _ := c.tracker.Close(c.lineCount, now)
	if summary != nil {
		c.log("session.closed", map[string]any{
			"session_id":  summary.ID,
			"video":       summary.Video,
			"duration_ms": summary.Duration.Milliseconds(),
			"lines":       summary.LinesGenerated,
		})
	}
}

// hide pauses and then tears the surface down.
func (c *Controller) hide(now time.Time, reason string) {
	c.send("pause", Surface.Pause)
	c.teardown(now)
	c.log("playback.hidden", map[string]any{"reason": reason})
}

// Trigger applies a positive detection. Idle and Paused start playing only
// when auto-play is enabled; Playing just cancels any pending hide.
func (c *Controller) Trigger(now time.Time, cfg *models.DetectionConfig) {
	switch c.state {
	case StatePlaying:
		c.cancelHide()
	case StateIdle:
		if cfg.AutoPlay {
			c.start(now, cfg, "auto")
		}
	case StatePaused:
		if cfg.AutoPlay {
			c.resume(now, cfg)
		}
	}
}

// Sweep arms a pending hide when playback has been idle for at least the
// configured delay. It returns the armed token, or nil.
func (c *Controller) Sweep(now time.Time, cfg *models.DetectionConfig) *HideToken {
	if cfg.NeverAutoPause || c.state != StatePlaying || c.pending != nil {
		return nil
	}
	if now.Sub(c.lastActivity) < time.Duration(cfg.HideDelayMS)*time.Millisecond {
		return nil
	}
	c.gen++
	c.pending = &HideToken{Gen: c.gen, Deadline: now.Add(c.grace)}
	return c.Pending()
}

// FireHide commits a pending hide. Stale or cancelled tokens are ignored.
// It reports whether the token was honored.
func (c *Controller) FireHide(tok HideToken, now time.Time, cfg *models.DetectionConfig) bool {
	if c.pending == nil || c.pending.Gen != tok.Gen || c.state != StatePlaying {
		return false
	}
	if cfg.AutoHide {
		c.hide(now, "idle")
	} else {
		c.pause(now, "idle")
	}
	return true
}

// Toggle closes a present surface, or creates one and starts playing. It
// does not consult auto-play.
func (c *Controller) Toggle(now time.Time, cfg *models.DetectionConfig) {
	if c.surface != nil {
		c.teardown(now)
		c.log("playback.toggled", map[string]any{"state": c.state.String()})
		return
	}
	c.start(now, cfg, "toggle")
	c.log("playback.toggled", map[string]any{"state": c.state.String()})
}

// FocusGained pauses or hides immediately when pause-on-focus is enabled
// and playback is running.
func (c *Controller) FocusGained(now time.Time, cfg *models.DetectionConfig) {
	if !cfg.PauseOnFocus || c.state != StatePlaying {
		return
	}
	if cfg.AutoHide {
		c.hide(now, "focus")
	} else {
		c.pause(now, "focus")
	}
}

// NoteEdit records editor activity and the document's current line count.
func (c *Controller) NoteEdit(now time.Time, lineCount int) {
	c.lastActivity = now
	c.lineCount = lineCount
}

// Refresh handles late evidence of generation. While Playing it cancels any
// pending hide and restarts the idle clock; it never changes state.
func (c *Controller) Refresh(now time.Time) bool {
	if c.state != StatePlaying {
		return false
	}
	c.cancelHide()
	c.lastActivity = now
	return true
}

// SetVideo points a live surface at a new video from the beginning.
func (c *Controller) SetVideo(url string) {
	if c.surface == nil {
		return
	}
	c.video = url
	c.position = 0
	c.send("updateUrl", func(s Surface) error { return s.UpdateURL(url, 0) })
}

// ReportPosition remembers the surface's playback position in seconds.
func (c *Controller) ReportPosition(seconds float64) {
	if seconds >= 0 {
		c.position = seconds
	}
}

// Shutdown cancels any pending hide, closes the open record and disposes
// of the surface.
func (c *Controller) Shutdown(now time.Time) {
	c.teardown(now)
}

// Snapshot returns the controller's current status.
func (c *Controller) Snapshot() Status {
	st := Status{
		State:          c.state,
		StateName:      c.state.String(),
		SurfacePresent: c.surface != nil,
		SessionOpen:    c.tracker.IsOpen(),
		Position:       c.position,
		LastActivity:   c.lastActivity,
	}
	if c.surface != nil {
		st.Video = c.video
	}
	if c.pending != nil {
		st.HideDeadline = c.pending.Deadline
	}
	return st
}
