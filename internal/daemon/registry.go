package daemon

import (
	"sort"
	"sync"

	"github.com/werdxz/portty/internal/fsys"
	"github.com/werdxz/portty/internal/paths"
	"github.com/werdxz/portty/internal/sessionengine"
)

// Record is one registered session as seen by the coordinator: enough
// to list it, signal it, and reset its submission, without touching
// the engine's internals.
type Record struct {
	ID        string
	Portal    string
	Operation string
	Title     string
	Created   int64
	Dir       string
	Handle    sessionengine.Handle
	Initial   []string
}

// Registry is the daemon-wide map of active sessions, guarded by a
// readers-writer lock. The write lock is held only to register (and
// drain pending into the new session, see CreateSession) and to
// unregister; control-verb dispatch takes the read lock, resolves its
// target, and releases before any IO.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// Get returns the record for id, if registered.
func (r *Registry) Get(id string) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok
}

// List returns all records ordered by creation time, identifier as
// the deterministic secondary key.
func (r *Registry) List() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created != out[j].Created {
			return out[i].Created < out[j].Created
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Earliest returns the earliest-created record, or false when no
// session is active.
func (r *Registry) Earliest() (*Record, bool) {
	all := r.List()
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// CreateSession materializes a session workspace and registers its
// record in one step under the write lock, then drains any pending
// entries into the fresh submission while still holding it. No session
// is observable from the registry before its workspace is complete,
// and no control verb can land between registration and the drain.
// Returns the session and the number of pending entries drained.
func (r *Registry) CreateSession(layout paths.Layout, fs fsys.FS, req sessionengine.CreateRequest) (*sessionengine.Session, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := sessionengine.Create(layout, fs, req)
	if err != nil {
		return nil, 0, err
	}
	r.records[s.ID()] = &Record{
		ID:        s.ID(),
		Portal:    s.Portal(),
		Operation: s.Operation(),
		Title:     s.Title(),
		Created:   s.Created(),
		Dir:       s.Dir(),
		Handle:    s.Handle(),
		Initial:   s.InitialEntries(),
	}

	drained, err := sessionengine.DrainPendingInto(layout, fs, s)
	if err != nil {
		// The session is live and registered; a failed drain loses
		// nothing (pending is truncated only after a successful
		// append), so report the count and carry on.
		return s, 0, nil
	}
	return s, drained, nil
}

// Unregister drops the record for id. Unknown ids are a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
}
