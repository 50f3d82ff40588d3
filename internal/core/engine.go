package core

import (
	"context"
	"errors"
	"time"

	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

const (
	// DefaultClipboardWait bounds how long an edit decision waits for the
	// clipboard before proceeding without that signal.
	DefaultClipboardWait = 50 * time.Millisecond
	// SweepInterval is the idle sweep period.
	SweepInterval = time.Second

	clipboardReadTimeout = 2 * time.Second
	queueSize            = 64
)

// ClipboardReader is the clipboard capability. It may be slow or fail.
type ClipboardReader interface {
	ReadText(ctx context.Context) (string, error)
}

// EngineStatus is the controller snapshot plus engine bookkeeping.
type EngineStatus struct {
	Status
	Mode             models.DetectionMode `json:"mode"`
	TrackedDocuments int                  `json:"tracked_documents"`
	Documents        []string             `json:"documents,omitempty"`
	LastEdit         time.Time            `json:"last_edit,omitempty"`
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithClipboardWait overrides DefaultClipboardWait.
func WithClipboardWait(d time.Duration) EngineOption {
	return func(e *Engine) { e.clipWait = d }
}

// WithSweepInterval overrides SweepInterval.
func WithSweepInterval(d time.Duration) EngineOption {
	return func(e *Engine) { e.tick = d }
}

// WithHideGrace overrides HideGrace.
func WithHideGrace(d time.Duration) EngineOption {
	return func(e *Engine) { e.ctrl.grace = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

type lateClipboard struct {
	ev  models.EditEvent
	res ClipboardResult
}

// Engine is the single owner of the detection state. Run executes the event
// loop on one goroutine; every other method hands work to that loop.
type Engine struct {
	cfg     ConfigurationManager
	ctrl    *Controller
	tracker StatsTracker
	ledger  *ActivityLedger
	clip    ClipboardReader
	logger  EventLogger

	now      func() time.Time
	clipWait time.Duration
	tick     time.Duration

	lastEdit   time.Time
	lastCfgErr string

	// inbox carries every submission and request in arrival order.
	inbox chan func(ctx context.Context)
	late  chan lateClipboard
	done  chan struct{}
}

// NewEngine wires an engine. clip and logger may be nil; a nil clipboard
// makes the clipboard signal permanently unavailable.
func NewEngine(cfg ConfigurationManager, factory SurfaceFactory, tracker StatsTracker, clip ClipboardReader, logger EventLogger, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:      cfg,
		ctrl:     NewController(factory, tracker, logger),
		tracker:  tracker,
		ledger:   NewActivityLedger(),
		clip:     clip,
		logger:   logger,
		now:      time.Now,
		clipWait: DefaultClipboardWait,
		tick:     SweepInterval,
		inbox:    make(chan func(ctx context.Context), queueSize),
		late:     make(chan lateClipboard, queueSize),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run processes events until ctx is cancelled, then stops the sweep,
// closes any open session and disposes of the surface.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	var (
		hide  *time.Timer
		hideC <-chan time.Time
		armed HideToken
	)
	defer func() {
		if hide != nil {
			hide.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			e.drain(ctx)
			e.ctrl.Shutdown(e.now())
			close(e.done)
			return nil
		case fn := <-e.inbox:
			fn(ctx)
		case lc := <-e.late:
			e.handleLateClipboard(lc)
		case <-ticker.C:
			e.handleTick()
		case <-hideC:
			hideC = nil
			e.ctrl.FireHide(armed, e.now(), e.loadConfig())
		}

		// Keep the real timer in step with the controller's token.
		tok := e.ctrl.Pending()
		switch {
		case tok == nil:
			if hideC != nil {
				hide.Stop()
				hideC = nil
			}
		case hideC == nil || tok.Gen != armed.Gen:
			armed = *tok
			d := max(tok.Deadline.Sub(e.now()), 0)
			if hide == nil {
				hide = time.NewTimer(d)
			} else {
				hide.Reset(d)
			}
			hideC = hide.C
		}
	}
}

// drain runs everything already queued so that work submitted before
// cancellation is not lost.
func (e *Engine) drain(ctx context.Context) {
	for {
		select {
		case fn := <-e.inbox:
			fn(ctx)
		default:
			return
		}
	}
}

// loadConfig reads the configuration for one decision. Read errors fall
// back to defaults and are logged once per distinct message.
func (e *Engine) loadConfig() *models.DetectionConfig {
	cfg, err := e.cfg.Load()
	if err != nil {
		if msg := err.Error(); msg != e.lastCfgErr {
			e.lastCfgErr = msg
			e.log("config.error", map[string]any{"error": msg})
		}
	} else {
		e.lastCfgErr = ""
	}
	return cfg
}

func (e *Engine) log(eventType string, data map[string]any) {
	if e.logger == nil {
		return
	}
	_ = e.logger.LogEvent(eventType, data)
}

func (e *Engine) handleEdit(ctx context.Context, ev models.EditEvent) {
	cfg := e.loadConfig()
	if cfg.Mode == models.ModeManual {
		return
	}
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	e.ledger.Touch(ev.Document, ev.At)
	if len(ev.Changes) == 0 {
		return
	}

	sig := EvaluateSync(ev, e.lastEdit, cfg)
	if e.mayEcho(ev, cfg) {
		if res, ok := e.readClipboard(ctx, ev); ok {
			sig.ClipboardEcho = ClipboardEcho(ev, res, cfg)
		}
	}
	verdict := Decide(sig, cfg)

	e.ctrl.NoteEdit(ev.At, ev.LineCount)
	if verdict.ShouldTrigger {
		data := map[string]any{
			"document": ev.Document,
			"signals":  sig.Names(),
			"count":    verdict.Count,
			"mode":     string(cfg.Mode),
		}
		if sig.AIPattern {
			data["patterns"] = PatternMatches(ev.Changes[0].Text)
		}
		e.log("detect.triggered", data)
		e.ctrl.Trigger(ev.At, cfg)
	}
	e.lastEdit = ev.At
}

// mayEcho reports whether any change is long enough for the clipboard
// signal to matter, so short keystrokes never touch the clipboard.
func (e *Engine) mayEcho(ev models.EditEvent, cfg *models.DetectionConfig) bool {
	threshold := ClipboardThreshold(cfg)
	for _, ch := range ev.Changes {
		if len(ch.Text) > threshold {
			return true
		}
	}
	return false
}

// readClipboard waits at most clipWait for the clipboard. On timeout it
// returns false and forwards the eventual result to the loop as late
// evidence.
func (e *Engine) readClipboard(ctx context.Context, ev models.EditEvent) (ClipboardResult, bool) {
	if e.clip == nil {
		return ClipboardUnavailable, true
	}

	resCh := make(chan ClipboardResult, 1)
	rctx, cancel := context.WithTimeout(ctx, clipboardReadTimeout)
	go func() {
		defer cancel()
		text, err := e.clip.ReadText(rctx)
		if err != nil {
			resCh <- ClipboardUnavailable
			return
		}
		resCh <- ClipboardText(text)
	}()

	timer := time.NewTimer(e.clipWait)
	defer timer.Stop()

	select {
	case res := <-resCh:
		return res, true
	case <-timer.C:
		go func() {
			res := <-resCh
			if !res.OK {
				return
			}
			select {
			case e.late <- lateClipboard{ev: ev, res: res}:
			case <-e.done:
			}
		}()
		return ClipboardUnavailable, false
	}
}

// handleLateClipboard may only extend an active Playing state.
func (e *Engine) handleLateClipboard(lc lateClipboard) {
	cfg := e.loadConfig()
	if cfg.Mode == models.ModeManual || !ClipboardEcho(lc.ev, lc.res, cfg) {
		return
	}
	if e.ctrl.Refresh(e.now()) {
		e.log("detect.late_clipboard", map[string]any{"document": lc.ev.Document})
	}
}

func (e *Engine) handleDiagnostics(ev models.DiagnosticsEvent) {
	cfg := e.loadConfig()
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	if !DiagnosticsBurst(ev, cfg) {
		return
	}
	e.log("diagnostics.burst", map[string]any{"documents": len(ev.Documents)})
	if DecideDiagnostics(true, cfg) {
		e.ctrl.Trigger(ev.At, cfg)
	}
}

func (e *Engine) handleFocus(ev models.FocusEvent) {
	if !ev.Focused {
		return
	}
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	e.ctrl.FocusGained(ev.At, e.loadConfig())
}

func (e *Engine) handleTick() {
	now := e.now()
	e.ledger.Evict(now)
	e.ctrl.Sweep(now, e.loadConfig())
}

// post queues fn for the loop. It returns false once the engine has stopped.
func (e *Engine) post(fn func(ctx context.Context)) bool {
	select {
	case e.inbox <- fn:
		return true
	case <-e.done:
		return false
	}
}

// SubmitEdit queues an edit event. It returns immediately once the engine
// has stopped.
func (e *Engine) SubmitEdit(ev models.EditEvent) {
	e.post(func(ctx context.Context) { e.handleEdit(ctx, ev) })
}

// SubmitDiagnostics queues a diagnostics-changed event.
func (e *Engine) SubmitDiagnostics(ev models.DiagnosticsEvent) {
	e.post(func(context.Context) { e.handleDiagnostics(ev) })
}

// SubmitFocus queues a window-focus event.
func (e *Engine) SubmitFocus(ev models.FocusEvent) {
	e.post(func(context.Context) { e.handleFocus(ev) })
}

// do runs fn on the loop after everything already queued and waits for it.
// It returns false when the engine has stopped.
func (e *Engine) do(fn func()) bool {
	finished := make(chan struct{})
	if !e.post(func(context.Context) { fn(); close(finished) }) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-e.done:
		return false
	}
}

// Sync waits until every event queued before it has been handled. It
// returns ErrEngineStopped when the engine is no longer running.
func (e *Engine) Sync() error {
	if !e.do(func() {}) {
		return ErrEngineStopped
	}
	return nil
}

// ErrEngineStopped is returned by requests made after Run has returned.
var ErrEngineStopped = errors.New("engine stopped")

// ReportPosition records the surface's current playback time.
func (e *Engine) ReportPosition(seconds float64) {
	e.do(func() { e.ctrl.ReportPosition(seconds) })
}

// Toggle opens or closes the playback surface.
func (e *Engine) Toggle() (Status, error) {
	var st Status
	if !e.do(func() {
		e.ctrl.Toggle(e.now(), e.loadConfig())
		st = e.ctrl.Snapshot()
	}) {
		return st, ErrEngineStopped
	}
	return st, nil
}

// SetVideo persists the target video and points a live surface at it.
func (e *Engine) SetVideo(url string) (string, error) {
	url = NormalizeVideoURL(url)
	if err := e.cfg.SetVideoURL(url); err != nil {
		return "", err
	}
	if !e.do(func() { e.ctrl.SetVideo(url) }) {
		return url, ErrEngineStopped
	}
	return url, nil
}

// Stats returns a copy of the cumulative statistics.
func (e *Engine) Stats() (models.CumulativeStats, error) {
	var s models.CumulativeStats
	if !e.do(func() { s = e.tracker.Stats() }) {
		return s, ErrEngineStopped
	}
	return s, nil
}

// FormatStats returns the human-readable statistics summary.
func (e *Engine) FormatStats() (string, error) {
	var out string
	if !e.do(func() { out = e.tracker.Format() }) {
		return "", ErrEngineStopped
	}
	return out, nil
}

// ResetStats zeroes the statistics and persists them.
func (e *Engine) ResetStats() error {
	var err error
	if !e.do(func() { err = e.tracker.Reset() }) {
		return ErrEngineStopped
	}
	return err
}

// Status returns the current engine status.
func (e *Engine) Status() (EngineStatus, error) {
	var st EngineStatus
	if !e.do(func() {
		st = EngineStatus{
			Status:           e.ctrl.Snapshot(),
			Mode:             e.loadConfig().Mode,
			TrackedDocuments: e.ledger.Len(),
			Documents:        e.ledger.Documents(),
			LastEdit:         e.lastEdit,
		}
	}) {
		return st, ErrEngineStopped
	}
	return st, nil
}
