// Package daemon is the process-wide coordination layer: the active
// session registry, the control-socket server, the fire-and-forget
// FIFO, and the on-disk pre-session submission queue. It routes
// control requests to sessions and bridges portal requests from the
// D-Bus layer into the session engine.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/werdxz/portty/internal/config"
	"github.com/werdxz/portty/internal/ctlproto"
	"github.com/werdxz/portty/internal/events"
	"github.com/werdxz/portty/internal/fsys"
	"github.com/werdxz/portty/internal/linefile"
	"github.com/werdxz/portty/internal/paths"
	"github.com/werdxz/portty/internal/pipeline"
	"github.com/werdxz/portty/internal/sessionengine"
)

// Coordinator owns everything daemon-scoped. One instance per process.
type Coordinator struct {
	layout      paths.Layout
	fs          fsys.FS
	registry    *Registry
	rec         events.Recorder
	stderr      io.Writer
	builtinPath string

	cfgMu sync.RWMutex
	cfg   *config.Root
}

// New builds a coordinator. builtinPath is the executable the default
// workspace shims exec into (normally the running portty binary).
func New(layout paths.Layout, fs fsys.FS, cfg *config.Root, rec events.Recorder, builtinPath string, stderr io.Writer) *Coordinator {
	if rec == nil {
		rec = events.Discard
	}
	return &Coordinator{
		layout:      layout,
		fs:          fs,
		registry:    NewRegistry(),
		rec:         rec,
		stderr:      stderr,
		builtinPath: builtinPath,
		cfg:         cfg,
	}
}

// Registry exposes the active-session registry.
func (c *Coordinator) Registry() *Registry { return c.registry }

// Layout exposes the filesystem layout the coordinator was built over.
func (c *Coordinator) Layout() paths.Layout { return c.layout }

// Config returns the current configuration snapshot.
func (c *Coordinator) Config() *config.Root {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.cfg
}

// SetConfig swaps in a new configuration. Running sessions keep the
// settings they were created with; only new sessions see the change.
func (c *Coordinator) SetConfig(cfg *config.Root) {
	c.cfgMu.Lock()
	c.cfg = cfg
	c.cfgMu.Unlock()
	c.rec.Record(events.Event{Type: events.ConfigReloaded, Actor: "daemon"})
}

// resolveTarget finds the session a control verb applies to: by id
// when given, otherwise the earliest-created active session.
func (c *Coordinator) resolveTarget(id string) (*Record, error) {
	if id != "" {
		rec, ok := c.registry.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown session %s", id)
		}
		return rec, nil
	}
	rec, ok := c.registry.Earliest()
	if !ok {
		return nil, nil
	}
	return rec, nil
}

// Handle executes one control request and produces its response. Used
// by both the control socket (response written back) and the FIFO
// (response discarded).
func (c *Coordinator) Handle(req ctlproto.Request) ctlproto.Response {
	switch req.Verb {
	case ctlproto.List:
		return c.handleList()
	case ctlproto.Submit:
		return c.handleSubmit(req.SessionID)
	case ctlproto.Cancel:
		return c.handleCancel(req.SessionID)
	case ctlproto.Verify:
		return c.handleVerify(req.SessionID)
	case ctlproto.Reset:
		return c.handleReset(req.SessionID)
	default:
		return ctlproto.Error("unknown verb %q", req.Verb)
	}
}

func (c *Coordinator) handleList() ctlproto.Response {
	var resp ctlproto.Response
	for _, rec := range c.registry.List() {
		resp.Sessions = append(resp.Sessions, ctlproto.SessionInfo{
			ID:        rec.ID,
			Portal:    rec.Portal,
			Operation: rec.Operation,
			Created:   rec.Created,
			Dir:       rec.Dir,
			Title:     rec.Title,
		})
	}
	return resp
}

func (c *Coordinator) handleSubmit(id string) ctlproto.Response {
	rec, err := c.resolveTarget(id)
	if err != nil {
		return ctlproto.Error("%s", err)
	}

	if rec == nil {
		// No session: freeze pending into the on-disk queue so the
		// next matching portal request can consume it.
		queued, err := sessionengine.QueueSubmission(c.layout, c.fs, time.Now().UnixMilli(), "")
		if err != nil {
			return ctlproto.Error("%s", err)
		}
		if !queued {
			return ctlproto.Error("No pending entries")
		}
		c.rec.Record(events.Event{Type: events.SubmissionQueued, Actor: "daemon"})
		return ctlproto.OK()
	}

	if n := c.drainPendingTo(rec); n > 0 {
		c.rec.Record(events.Event{
			Type: events.SubmissionDrained, Actor: "daemon", Subject: rec.ID,
			Message: fmt.Sprintf("%d pending entries", n),
		})
	}
	rec.Handle.Send(sessionengine.SigSubmit)
	return ctlproto.OK()
}

func (c *Coordinator) handleCancel(id string) ctlproto.Response {
	rec, err := c.resolveTarget(id)
	if err != nil {
		return ctlproto.Error("%s", err)
	}

	if rec == nil {
		// Daemon-scope cancel clears staged pending entries without
		// draining them anywhere.
		if err := linefile.WriteLines(c.fs, c.layout.PendingSubmission(), nil); err != nil {
			return ctlproto.Error("%s", err)
		}
		return ctlproto.OK()
	}

	rec.Handle.Send(sessionengine.SigCancel)
	return ctlproto.OK()
}

func (c *Coordinator) handleVerify(id string) ctlproto.Response {
	rec, err := c.resolveTarget(id)
	if err != nil {
		return ctlproto.Error("%s", err)
	}
	if rec == nil {
		return ctlproto.Error("No active session to verify")
	}

	entries := linefile.ReadLines(c.fs, filepath.Join(rec.Dir, "submission"))
	optionsJSON, err := c.fs.ReadFile(filepath.Join(rec.Dir, "options.json"))
	if err != nil {
		return ctlproto.Error("reading options: %s", err)
	}
	if _, err := pipeline.Validate(c.fs, rec.Portal, rec.Operation, entries, optionsJSON); err != nil {
		return ctlproto.Error("%s", err)
	}
	return ctlproto.OK()
}

func (c *Coordinator) handleReset(id string) ctlproto.Response {
	rec, err := c.resolveTarget(id)
	if err != nil {
		return ctlproto.Error("%s", err)
	}
	if rec == nil {
		return ctlproto.Error("No active session to reset")
	}

	if err := linefile.WriteLines(c.fs, filepath.Join(rec.Dir, "submission"), rec.Initial); err != nil {
		return ctlproto.Error("%s", err)
	}
	return ctlproto.OK()
}

// drainPendingTo appends pending entries into rec's submission file,
// truncating pending only on success. Returns the drained count.
func (c *Coordinator) drainPendingTo(rec *Record) int {
	pending := linefile.ReadLines(c.fs, c.layout.PendingSubmission())
	if len(pending) == 0 {
		return 0
	}
	if err := linefile.AppendLines(c.fs, filepath.Join(rec.Dir, "submission"), pending); err != nil {
		fmt.Fprintf(c.stderr, "portty: drain pending into %s: %v\n", rec.ID, err)
		return 0
	}
	if err := linefile.WriteLines(c.fs, c.layout.PendingSubmission(), nil); err != nil {
		fmt.Fprintf(c.stderr, "portty: truncate pending: %v\n", err)
	}
	return len(pending)
}

// PortalRequestSpec is what the D-Bus layer hands the coordinator for
// one portal request.
type PortalRequestSpec struct {
	Portal         string
	Operation      string
	Title          string
	Options        any // marshaled verbatim as options.json
	Env            []string
	InitialEntries []string
}

// PortalResult is the typed outcome of a portal request: entries after
// pipeline validation, or cancellation.
type PortalResult struct {
	Cancelled bool
	Entries   []string
}

// PortalRequest services one portal request end to end: queued
// submission short-circuit, session creation and registration, spawn,
// run, teardown, pipeline validation. It blocks until the session
// resolves; cancel ctx to cancel the session from the wire layer.
func (c *Coordinator) PortalRequest(ctx context.Context, spec PortalRequestSpec) (PortalResult, error) {
	optionsJSON, err := json.Marshal(spec.Options)
	if err != nil {
		return PortalResult{}, fmt.Errorf("daemon: marshal options: %w", err)
	}

	// A frozen submission queued before any session existed wins over
	// opening a dialog at all.
	qs, err := sessionengine.PopQueuedSubmission(c.layout, c.fs, spec.Portal)
	if err != nil {
		return PortalResult{}, err
	}
	if qs != nil {
		if len(qs.Entries) == 0 {
			return PortalResult{Cancelled: true}, nil
		}
		entries, err := pipeline.Validate(c.fs, spec.Portal, spec.Operation, qs.Entries, optionsJSON)
		if err != nil {
			return PortalResult{}, fmt.Errorf("queued submission invalid: %w", err)
		}
		return PortalResult{Entries: entries}, nil
	}

	resolved := config.Resolve(c.Config(), spec.Portal, spec.Operation)
	builtin := c.builtinPath
	if cfg := c.Config(); cfg != nil && cfg.BuiltinPath != "" {
		builtin = cfg.BuiltinPath
	}

	s, drained, err := c.registry.CreateSession(c.layout, c.fs, sessionengine.CreateRequest{
		Portal:         spec.Portal,
		Operation:      spec.Operation,
		Title:          spec.Title,
		Options:        spec.Options,
		InitialEntries: spec.InitialEntries,
		BuiltinPath:    builtin,
		Shims:          resolved.Bin,
		BinDir:         resolved.BinDir,
		Env:            spec.Env,
	})
	if err != nil {
		return PortalResult{}, fmt.Errorf("daemon: create session: %w", err)
	}
	c.rec.Record(events.Event{Type: events.SessionCreated, Actor: "daemon", Subject: s.ID(),
		Message: spec.Portal + "/" + spec.Operation})
	if drained > 0 {
		c.rec.Record(events.Event{
			Type: events.SubmissionDrained, Actor: "daemon", Subject: s.ID(),
			Message: fmt.Sprintf("%d pending entries", drained),
		})
	}

	// Unregister before Close so no control verb can resolve a session
	// whose workspace is being torn down.
	defer func() {
		c.registry.Unregister(s.ID())
		s.Close()
	}()

	if resolved.Exec != "" {
		if err := s.Spawn(resolved.Exec); err != nil {
			c.rec.Record(events.Event{Type: events.SessionFailed, Actor: "daemon", Subject: s.ID(),
				Message: err.Error()})
			return PortalResult{}, err
		}
		c.rec.Record(events.Event{Type: events.SessionSpawned, Actor: "daemon", Subject: s.ID(),
			Message: resolved.Exec})
	}

	// Bridge wire-layer cancellation into the session's channel: a
	// Close on the request object cancels ctx, which lands here as a
	// Cancel signal. First-wins semantics make the race with a real
	// submit harmless.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			s.Handle().Send(sessionengine.SigCancel)
		case <-watchDone:
		}
	}()

	result := s.Run()

	if result.Cancelled {
		c.rec.Record(events.Event{Type: events.SessionCancelled, Actor: "daemon", Subject: s.ID()})
		return PortalResult{Cancelled: true}, nil
	}

	entries, err := pipeline.Validate(c.fs, spec.Portal, spec.Operation, result.Entries, optionsJSON)
	if err != nil {
		c.rec.Record(events.Event{Type: events.SessionFailed, Actor: "daemon", Subject: s.ID(),
			Message: err.Error()})
		return PortalResult{}, err
	}
	c.rec.Record(events.Event{Type: events.SessionSubmitted, Actor: "daemon", Subject: s.ID(),
		Message: fmt.Sprintf("%d entries", len(entries))})
	return PortalResult{Entries: entries}, nil
}
