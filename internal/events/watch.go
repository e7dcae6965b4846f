package events

import (
	"context"
	"time"
)

// watchPoll is how often a follower re-reads the log for new lines.
// The log is a plain file appended by another process, so polling is
// the whole mechanism; there is no notification channel to wait on.
const watchPoll = 250 * time.Millisecond

// Watch returns a [Watcher] that follows the log, yielding events
// with Seq > afterSeq as the daemon appends them.
func (r *FileRecorder) Watch(ctx context.Context, afterSeq uint64) (Watcher, error) {
	return &fileWatcher{path: r.path, afterSeq: afterSeq, ctx: ctx}, nil
}

// fileWatcher tails the JSONL log by byte offset: each poll reads
// only the lines appended since the previous one.
type fileWatcher struct {
	path     string
	afterSeq uint64
	ctx      context.Context
	offset   int64
	pending  []Event
}

// Next blocks until the next event is available or the context ends.
func (w *fileWatcher) Next() (Event, error) {
	for {
		if len(w.pending) > 0 {
			e := w.pending[0]
			w.pending = w.pending[1:]
			return e, nil
		}

		evts, offset, err := ReadFrom(w.path, w.offset)
		if err != nil {
			return Event{}, err
		}
		w.offset = offset
		for _, e := range evts {
			if e.Seq > w.afterSeq {
				w.afterSeq = e.Seq
				w.pending = append(w.pending, e)
			}
		}
		if len(w.pending) > 0 {
			continue
		}

		select {
		case <-w.ctx.Done():
			return Event{}, w.ctx.Err()
		case <-time.After(watchPoll):
		}
	}
}

// Close is a no-op; cancel the context passed to Watch to stop Next.
func (w *fileWatcher) Close() error { return nil }
