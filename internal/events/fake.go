package events

import (
	"context"
	"sync"
	"time"
)

// Fake is an in-memory [Provider] for testing. It captures all
// recorded events in the Events slice. Safe for concurrent use.
type Fake struct {
	mu     sync.Mutex
	Events []Event
	seq    uint64
}

// NewFake returns a ready-to-use [Fake] recorder.
func NewFake() *Fake {
	return &Fake{}
}

// Record appends the event to the Events slice, auto-filling Seq/Ts.
func (f *Fake) Record(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	e.Seq = f.seq
	if e.Ts.IsZero() {
		e.Ts = time.Now()
	}
	f.Events = append(f.Events, e)
}

// List returns recorded events matching filter.
func (f *Fake) List(filter Filter) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Event
	for _, e := range f.Events {
		if filter.AfterSeq > 0 && e.Seq <= filter.AfterSeq {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.Actor != "" && e.Actor != filter.Actor {
			continue
		}
		if !filter.Since.IsZero() && e.Ts.Before(filter.Since) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// LatestSeq returns the highest recorded sequence number.
func (f *Fake) LatestSeq() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq, nil
}

// Watch polls the in-memory slice.
func (f *Fake) Watch(ctx context.Context, afterSeq uint64) (Watcher, error) {
	return &fakeWatcher{fake: f, afterSeq: afterSeq, ctx: ctx}, nil
}

type fakeWatcher struct {
	fake     *Fake
	afterSeq uint64
	ctx      context.Context
}

func (w *fakeWatcher) Next() (Event, error) {
	for {
		evts, _ := w.fake.List(Filter{AfterSeq: w.afterSeq})
		if len(evts) > 0 {
			w.afterSeq = evts[0].Seq
			return evts[0], nil
		}
		select {
		case <-w.ctx.Done():
			return Event{}, w.ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (w *fakeWatcher) Close() error { return nil }
