// Package editor owns a mind map while it is being edited.
//
// A [Session] is the single writer for one map. Every edit goes through
// [Session.Apply] (or one of the typed helpers built on it), which serializes
// mutations with a mutex, marks the layout dirty, and schedules an autosave.
// The layout is recomputed lazily: the first [Session.Layout] call after a
// batch of edits runs [layout.Compute] once and every later call returns the
// same value until the next edit.
//
// # Autosave
//
// When a [Saver] is configured, an edit starts (or restarts) a quiet-period
// timer of the map's AutosaveDelay setting, never shorter than
// [mindmap.MinAutosaveDelay]. When the timer fires the session saves a
// snapshot of the map. Rapid edits therefore cause a single save.
// [Session.Flush] saves immediately and [Session.Close] flushes and stops the
// timer.
//
// # Clipboard
//
// Each session has one clipboard slot filled by [Session.Copy] and consumed
// (without being emptied) by [Session.Paste].
package editor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmap/pkg/layout"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/observability"
)

// Saver persists a map snapshot. [store.Store] implements it.
//
// [store.Store]: github.com/matzehuels/mindmap/pkg/store.Store
type Saver interface {
	Save(ctx context.Context, m *mindmap.Map) error
}

// Options configures a [Session].
type Options struct {
	Logger *log.Logger
	// Saver receives autosaves. Nil disables autosave; [Session.Flush]
	// is then a no-op.
	Saver Saver
	// AutosaveDelay overrides the map's setting when positive.
	AutosaveDelay time.Duration
	// OnSave is called after every save attempt with its result.
	OnSave func(error)
}

// Session is the single owner of a map under edit. It is safe for
// concurrent use.
type Session struct {
	mu      sync.Mutex
	m       *mindmap.Map
	opts    Options
	logger  *log.Logger
	layout  *layout.Layout
	clip    *mindmap.Clip
	gen     uint64 // bumped on every applied edit
	saved   uint64 // generation of the last successful save
	delay   time.Duration
	trigger func(func())
	closed  bool

	saveMu sync.Mutex
}

// New starts a session over m. The session takes ownership of m; callers
// must not modify it directly afterwards.
func New(m *mindmap.Map, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Session{m: m, opts: opts, logger: logger}
	s.resetTimer()
	return s
}

func (s *Session) autosaveDelay() time.Duration {
	if s.opts.AutosaveDelay > 0 {
		return s.opts.AutosaveDelay
	}
	ms := max(s.m.Settings.AutosaveDelay, mindmap.MinAutosaveDelay)
	return time.Duration(ms) * time.Millisecond
}

// resetTimer (re)creates the debouncer when the delay changed.
// Callers hold s.mu or own s exclusively.
func (s *Session) resetTimer() {
	d := s.autosaveDelay()
	if s.trigger != nil && d == s.delay {
		return
	}
	if s.trigger != nil {
		s.trigger(func() {})
	}
	s.delay = d
	s.trigger = debounce.New(d)
}

// Apply runs fn with exclusive access to the map. fn reports whether it
// changed anything; if so the layout is invalidated and an autosave is
// scheduled. Apply returns fn's result.
func (s *Session) Apply(fn func(m *mindmap.Map) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if !fn(s.m) {
		return false
	}
	s.gen++
	s.layout = nil
	s.resetTimer()
	if s.opts.Saver != nil {
		s.trigger(s.autosave)
	}
	return true
}

// View runs fn with read access to the map. fn must not modify it.
func (s *Session) View(fn func(m *mindmap.Map)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.m)
}

// Snapshot returns a deep copy of the current map.
func (s *Session) Snapshot() *mindmap.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Clone()
}

// Layout returns the layout of the current map, computing it if an edit
// happened since the last call. Node colors are updated to the level colors
// the layout resolved. The returned value must be treated as read-only.
func (s *Session) Layout() *layout.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layout == nil {
		start := time.Now()
		s.layout = layout.Compute(s.m, layout.Options{Logger: s.logger})
		for id, g := range s.layout.Nodes {
			s.m.SetColor(id, g.Color)
		}
		elapsed := time.Since(start)
		observability.Editor().OnLayoutComplete(s.m.ID, len(s.layout.Nodes), len(s.layout.Warnings), elapsed)
		s.logger.Debug("Computed layout", "nodes", len(s.layout.Nodes), "duration", elapsed)
	}
	return s.layout
}

// Dirty reports whether the next [Session.Layout] call recomputes.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout == nil
}

// Pending reports whether there are edits that have not been saved.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen != s.saved
}

func (s *Session) autosave() {
	if err := s.Flush(context.Background()); err != nil {
		s.logger.Error("Autosave failed", "err", err)
	}
}

// Flush saves the map now if it has unsaved edits.
func (s *Session) Flush(ctx context.Context) error {
	if s.opts.Saver == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.gen == s.saved {
		s.mu.Unlock()
		return nil
	}
	gen := s.gen
	snap := s.m.Clone()
	s.mu.Unlock()

	start := time.Now()
	err := s.opts.Saver.Save(ctx, snap)
	observability.Editor().OnSaveComplete(ctx, snap.ID, time.Since(start), err)
	if err == nil {
		s.mu.Lock()
		s.saved = max(s.saved, gen)
		s.mu.Unlock()
		s.logger.Debug("Saved map", "id", snap.ID, "updatedAt", snap.UpdatedAt)
	}
	if s.opts.OnSave != nil {
		s.opts.OnSave(err)
	}
	return err
}

// Discard cancels a scheduled autosave and rejects further edits without
// saving. It returns once any save already in progress has finished, so the
// caller may replace or delete the stored map afterwards.
func (s *Session) Discard() {
	s.mu.Lock()
	s.closed = true
	s.trigger(func() {})
	s.mu.Unlock()

	// Lock order is saveMu before mu, as in Flush.
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.Lock()
	s.saved = s.gen
	s.mu.Unlock()
}

// Close cancels a scheduled autosave, flushes pending edits and rejects
// further edits. Like Discard it waits out a save in progress.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.trigger(func() {})
	s.mu.Unlock()
	return s.Flush(ctx)
}
