// Package sessionengine creates, spawns, supervises, signals, and
// destroys one portal session: the hard core of the system.
//
// A child, if any, is attached to a process descriptor
// (internal/procwait); exactly one monitor goroutine converts its exit
// into a channel send; Run blocks on a single receive over {Submit,
// Cancel, ChildExited}. One blocking point, no polling.
package sessionengine

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/werdxz/portty/internal/fsys"
	"github.com/werdxz/portty/internal/linefile"
	"github.com/werdxz/portty/internal/overlay"
	"github.com/werdxz/portty/internal/paths"
	"github.com/werdxz/portty/internal/procwait"
)

// Signal is one of the three events a session's Run loop waits for.
type Signal int

const (
	SigSubmit Signal = iota
	SigCancel
	SigChildExited
)

// DefaultShims names the shim executables every session workspace gets
// unless a config-provided custom shim overrides the name.
var DefaultShims = []string{"sel", "desel", "reset", "submit", "cancel", "info"}

var idSeq atomic.Uint64

// NewID returns a session identifier unique for the daemon's lifetime:
// a high-resolution monotonic component (nanoseconds since epoch) and a
// strictly increasing counter, so identifiers are unique even within
// the same clock tick.
func NewID() string {
	n := idSeq.Add(1)
	return fmt.Sprintf("%x-%x", time.Now().UnixNano(), n)
}

// CreateRequest holds everything needed to materialize a new session
// workspace.
type CreateRequest struct {
	Portal    string
	Operation string
	Title     string

	// Options is marshaled verbatim as options.json.
	Options any

	// InitialEntries seeds the submission file; also retained for reset.
	InitialEntries []string

	// BuiltinPath is the executable every default/custom shim execs into
	// (normally the portty binary's own path via os.Executable()).
	BuiltinPath string

	// Shims maps shim name to a custom one-line script body. Entries here
	// override the corresponding default shim; others are written in
	// addition to the defaults.
	Shims map[string]string

	// BinDir names a directory whose contents are copied into the
	// workspace bin/ after the shims are written. Empty means none.
	BinDir string

	// Env is the portal-specific environment overlay added to any
	// spawned terminal, on top of the PORTTY_* session variables.
	Env []string
}

// Session is one running (or headless) portal session: the workspace on
// disk plus the control channel used to signal it.
type Session struct {
	id        string
	portal    string
	operation string
	title     string
	created   int64
	dir       string
	initial   []string

	fs  fsys.FS
	env []string

	ch   chan Signal
	mu   *sync.Mutex
	sent *bool

	watcher *procwait.Watcher
}

// Handle is the clonable sender side of a session's control channel,
// handed out via the registry's control handle. Multiple Handles may be
// held concurrently (D-Bus Close handler, control socket, FIFO); only
// the first Send of any of them is delivered — the channel receive is
// the total order and first-wins.
type Handle struct {
	ch   chan Signal
	mu   *sync.Mutex
	sent *bool
}

// Send delivers sig unless a signal has already been sent on this
// session (first-wins). The channel is buffered by one, so Send never
// blocks.
func (h Handle) Send(sig Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if *h.sent {
		return
	}
	*h.sent = true
	h.ch <- sig
}

// Handle returns a new sender handle for this session's control channel.
func (s *Session) Handle() Handle {
	return Handle{ch: s.ch, mu: s.mu, sent: s.sent}
}

// ID, Portal, Operation, Title, Created, Dir, and InitialEntries expose
// the session record fields the registry keeps.
func (s *Session) ID() string              { return s.id }
func (s *Session) Portal() string          { return s.portal }
func (s *Session) Operation() string       { return s.operation }
func (s *Session) Title() string           { return s.title }
func (s *Session) Created() int64          { return s.created }
func (s *Session) Dir() string             { return s.dir }
func (s *Session) InitialEntries() []string { return s.initial }

func (s *Session) portalPath() string     { return filepath.Join(s.dir, "portal") }
func (s *Session) optionsPath() string    { return filepath.Join(s.dir, "options.json") }
func (s *Session) submissionPath() string { return filepath.Join(s.dir, "submission") }
func (s *Session) binDir() string         { return filepath.Join(s.dir, "bin") }

// SubmissionPath exposes the path to the submission line-file so callers
// (the pipeline, the control-socket verify/reset handlers) can read or
// rewrite it directly through the line-file store.
func (s *Session) SubmissionPath() string { return s.submissionPath() }

// Create materializes a new session workspace atomically: the workspace
// is fully written before the caller ever sees a usable *Session, so a
// session is never observable half-built.
func Create(layout paths.Layout, fs fsys.FS, req CreateRequest) (*Session, error) {
	id := NewID()
	dir := layout.SessionDir(id)

	if _, err := fs.Stat(dir); err == nil {
		return nil, fmt.Errorf("sessionengine: workspace %s already exists", dir)
	}
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("sessionengine: create workspace: %w", err)
	}

	s := &Session{
		id:        id,
		portal:    req.Portal,
		operation: req.Operation,
		title:     req.Title,
		created:   time.Now().Unix(),
		dir:       dir,
		initial:   append([]string(nil), req.InitialEntries...),
		fs:        fs,
		env:       append([]string(nil), req.Env...),
		ch:        make(chan Signal, 1),
		mu:        &sync.Mutex{},
		sent:      new(bool),
	}

	if err := fs.WriteFile(s.portalPath(), []byte(req.Portal+"\n"+req.Operation+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("sessionengine: write portal file: %w", err)
	}

	optionsJSON, err := json.MarshalIndent(req.Options, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sessionengine: marshal options: %w", err)
	}
	if err := fs.WriteFile(s.optionsPath(), optionsJSON, 0o644); err != nil {
		return nil, fmt.Errorf("sessionengine: write options.json: %w", err)
	}

	if err := linefile.WriteLines(fs, s.submissionPath(), s.initial); err != nil {
		return nil, fmt.Errorf("sessionengine: write submission: %w", err)
	}

	if err := fs.MkdirAll(s.binDir(), 0o755); err != nil {
		return nil, fmt.Errorf("sessionengine: create bin dir: %w", err)
	}
	if err := writeShims(fs, s, req); err != nil {
		return nil, err
	}
	if req.BinDir != "" {
		if _, err := overlay.InstallBinDir(req.BinDir, s.binDir(), os.Stderr); err != nil {
			return nil, fmt.Errorf("sessionengine: overlay bin dir: %w", err)
		}
	}

	return s, nil
}

func writeShims(fs fsys.FS, s *Session, req CreateRequest) error {
	for _, name := range DefaultShims {
		if _, overridden := req.Shims[name]; overridden {
			continue
		}
		body := fmt.Sprintf("#!/bin/sh\nexec %q %s \"$@\"\n", req.BuiltinPath, name)
		if err := fs.WriteFile(filepath.Join(s.binDir(), name), []byte(body), 0o755); err != nil {
			return fmt.Errorf("sessionengine: write default shim %s: %w", name, err)
		}
	}
	for name, body := range req.Shims {
		if err := fs.WriteFile(filepath.Join(s.binDir(), name), []byte(body), 0o755); err != nil {
			return fmt.Errorf("sessionengine: write custom shim %s: %w", name, err)
		}
	}
	return nil
}

// Spawn parses exec by whitespace split — this system is intentionally
// not a shell, it does not expand globs or quotes — and spawns the
// first token with the remainder as arguments. The environment is
// overlaid with PORTTY_SESSION/PORTTY_DIR/PORTTY_PORTAL/PORTTY_OPERATION
// and PATH is prefixed with the session's bin/ so shim names resolve
// before any system command of the same name.
func (s *Session) Spawn(execStr string) error {
	parts := strings.Fields(execStr)
	if len(parts) == 0 {
		return fmt.Errorf("sessionengine: empty exec command")
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Env = s.buildEnv()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	watcher, err := procwait.Watch(cmd)
	if err != nil {
		return fmt.Errorf("sessionengine: spawn %s: %w", parts[0], err)
	}
	s.watcher = watcher

	// The monitor goroutine: converts process exit into a channel send so
	// Run can block on a single receive rather than polling.
	go func() {
		<-watcher.Done()
		s.Handle().Send(SigChildExited)
	}()

	return nil
}

func (s *Session) buildEnv() []string {
	env := os.Environ()
	env = append(env,
		"PORTTY_SESSION="+s.id,
		"PORTTY_DIR="+s.dir,
		"PORTTY_PORTAL="+s.portal,
		"PORTTY_OPERATION="+s.operation,
	)
	env = append(env, s.env...)

	path := os.Getenv("PATH")
	if path != "" {
		env = append(env, "PATH="+s.binDir()+":"+path)
	} else {
		env = append(env, "PATH="+s.binDir())
	}
	return env
}

// Result is the typed outcome of Run.
type Result struct {
	Cancelled bool
	Entries   []string
}

// Run blocks on exactly one receive from the session's control channel
// and converts it into a typed [Result]. Preconditions: Create has run;
// Spawn has either installed a child or this is a headless session.
func (s *Session) Run() Result {
	sig, ok := <-s.ch
	if !ok {
		// All senders dropped (channel closed without delivering a
		// signal): an orphaned session is treated as cancelled.
		s.killAndReap()
		return Result{Cancelled: true}
	}

	switch sig {
	case SigCancel:
		s.killAndReap()
		return Result{Cancelled: true}
	case SigSubmit, SigChildExited:
		s.killAndReap()
		entries := linefile.ReadLines(s.fs, s.submissionPath())
		if len(entries) == 0 {
			return Result{Cancelled: true}
		}
		return Result{Entries: entries}
	default:
		return Result{Cancelled: true}
	}
}

func (s *Session) killAndReap() {
	if s.watcher == nil {
		return
	}
	select {
	case <-s.watcher.Done():
		// already exited
	default:
		_ = s.watcher.Kill()
		<-s.watcher.Done()
	}
	s.watcher.Close()
}

// Close removes the workspace recursively (best-effort) and makes sure
// any child is reaped even if Run was never called, e.g. because
// registration failed after a successful Spawn. Go has no Drop trait, so
// this is called from the single defer site in the coordinator that also
// unregisters the session.
func (s *Session) Close() {
	s.killAndReap()
	_ = s.fs.RemoveAll(s.dir)
}
