// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without a browser or any
// other host rendering facility.
package testutil

import (
	"context"
	"sync"

	"github.com/raysh454/textmark/internal/logging"
	"github.com/raysh454/textmark/internal/model"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── HighlightRegistry ─────────────────────────────────────────────────

// Call is one recorded registry invocation.
type Call struct {
	Op   string // "supported", "set" or "clear"
	Name string
	Set  model.HighlightSet
}

// RecordingRegistry implements interfaces.HighlightRegistry and records
// every call. Unsupported makes Supported report false; SetErr and
// ClearErr force the corresponding call to fail.
type RecordingRegistry struct {
	Unsupported bool
	SetErr      error
	ClearErr    error

	mu    sync.Mutex
	Calls []Call
	sets  map[string]model.HighlightSet
}

func (r *RecordingRegistry) record(c Call) {
	r.Calls = append(r.Calls, c)
}

func (r *RecordingRegistry) Supported(context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "supported"})
	return !r.Unsupported
}

func (r *RecordingRegistry) Set(_ context.Context, name string, set model.HighlightSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "set", Name: name, Set: set.Clone()})
	if r.SetErr != nil {
		return r.SetErr
	}
	if r.sets == nil {
		r.sets = make(map[string]model.HighlightSet)
	}
	r.sets[name] = set.Clone()
	return nil
}

func (r *RecordingRegistry) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "clear"})
	if r.ClearErr != nil {
		return r.ClearErr
	}
	r.sets = nil
	return nil
}

// Ops returns the recorded operation names in call order.
func (r *RecordingRegistry) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		out = append(out, c.Op)
	}
	return out
}

// Published returns the set currently held under name.
func (r *RecordingRegistry) Published(name string) (model.HighlightSet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sets[name]
	return set, ok
}

// Len returns how many names are currently held.
func (r *RecordingRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sets)
}
