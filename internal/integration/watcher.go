package integration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"

	"github.com/JMTC-dev/CodeSurf/internal/core"
	"github.com/JMTC-dev/CodeSurf/pkg/models"
)

// DefaultMaxFileSize caps the files whose content is tracked for diffing.
const DefaultMaxFileSize = 1 << 20

// replaceWindow is how long the content of a removed or renamed file is kept
// so an atomic save (write temp, rename over) diffs against the old content.
const replaceWindow = 5 * time.Second

// skippedDirs are never watched.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".codesurf":    true,
}

// skippedFile reports files whose writes come from CodeSurf itself.
func skippedFile(path string) bool {
	return filepath.Base(path) == core.ConfigFileName
}

// WorkspaceWatcher turns file writes under a root directory into EditEvents.
// Each write is diffed against the previous content of the file so only the
// inserted span is reported.
type WorkspaceWatcher struct {
	root        string
	maxFileSize int64
	watcher     *fsnotify.Watcher
	snapshots   map[string]string
	removed     map[string]removedFile
}

type removedFile struct {
	content string
	at      time.Time
}

// NewWorkspaceWatcher watches root recursively and records the current
// content of every tracked file.
func NewWorkspaceWatcher(root string) (*WorkspaceWatcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving watch root: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	ww := &WorkspaceWatcher{
		root:        abs,
		maxFileSize: DefaultMaxFileSize,
		watcher:     w,
		snapshots:   make(map[string]string),
		removed:     make(map[string]removedFile),
	}
	if err := ww.addTree(abs); err != nil {
		_ = w.Close()
		return nil, err
	}
	return ww, nil
}

// Root returns the absolute watched directory.
func (ww *WorkspaceWatcher) Root() string {
	return ww.root
}

// Close stops watching.
func (ww *WorkspaceWatcher) Close() error {
	return ww.watcher.Close()
}

// addTree registers dir and its subdirectories and snapshots their files.
func (ww *WorkspaceWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped rather than aborting the walk.
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && skippedDirs[d.Name()] {
				return fs.SkipDir
			}
			if err := ww.watcher.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			return nil
		}
		if skippedFile(path) {
			return nil
		}
		if content, ok := ww.read(path); ok {
			ww.snapshots[path] = content
		}
		return nil
	})
}

// read returns the file content when it is a regular, valid UTF-8 file within
// the size cap.
func (ww *WorkspaceWatcher) read(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() > ww.maxFileSize {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil || !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

// Run delivers edits to emit until ctx is done or the watcher is closed.
// Watcher errors are passed to warn and do not stop the loop.
func (ww *WorkspaceWatcher) Run(ctx context.Context, emit func(models.EditEvent), warn func(error)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-ww.watcher.Errors:
			if !ok {
				return nil
			}
			if warn != nil {
				warn(err)
			}
		case event, ok := <-ww.watcher.Events:
			if !ok {
				return nil
			}
			if ev, ok := ww.handle(event); ok {
				emit(ev)
			}
		}
	}
}

// handle updates the snapshot for one filesystem event and returns the edit
// it represents, if any.
func (ww *WorkspaceWatcher) handle(event fsnotify.Event) (models.EditEvent, bool) {
	path := event.Name
	if skippedFile(path) {
		return models.EditEvent{}, false
	}
	now := time.Now()
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		ww.forget(path, now)
		return models.EditEvent{}, false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return models.EditEvent{}, false
	}

	info, err := os.Stat(path)
	if err != nil {
		return models.EditEvent{}, false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && !skippedDirs[filepath.Base(path)] {
			_ = ww.addTree(path)
		}
		return models.EditEvent{}, false
	}

	content, ok := ww.read(path)
	if !ok {
		delete(ww.snapshots, path)
		return models.EditEvent{}, false
	}
	previous, ok := ww.snapshots[path]
	if !ok {
		if rf, replaced := ww.removed[path]; replaced && now.Sub(rf.at) <= replaceWindow {
			previous = rf.content
		}
	}
	delete(ww.removed, path)
	ww.snapshots[path] = content

	change := DiffInsert(previous, content)
	if change.Text == "" && change.RangeLength == 0 {
		return models.EditEvent{}, false
	}

	doc, err := filepath.Rel(ww.root, path)
	if err != nil || doc == "" {
		doc = path
	}
	return models.EditEvent{
		Document:  filepath.ToSlash(doc),
		Changes:   []models.TextChange{change},
		LineCount: core.CountLines(content),
		At:        now,
	}, true
}

// forget moves a vanished file's snapshot aside for replaceWindow and drops
// older ones.
func (ww *WorkspaceWatcher) forget(path string, now time.Time) {
	for p, rf := range ww.removed {
		if now.Sub(rf.at) > replaceWindow {
			delete(ww.removed, p)
		}
	}
	if content, ok := ww.snapshots[path]; ok {
		ww.removed[path] = removedFile{content: content, at: now}
		delete(ww.snapshots, path)
	}
}

// DiffInsert reduces a rewrite of old into updated to a single replaced span:
// the common prefix and suffix are trimmed, the remaining middle of updated is
// the inserted text and the middle of old is the replaced range, in runes.
func DiffInsert(old, updated string) models.TextChange {
	a, b := []rune(old), []rune(updated)

	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	return models.TextChange{
		Text:        string(b[prefix : len(b)-suffix]),
		RangeLength: len(a) - prefix - suffix,
	}
}

// ErrNotDirectory is returned by ValidateWatchRoot for file paths.
var ErrNotDirectory = errors.New("not a directory")

// ValidateWatchRoot checks that dir exists and is a directory.
func ValidateWatchRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("checking watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("checking watch root %s: %w", dir, ErrNotDirectory)
	}
	return nil
}
