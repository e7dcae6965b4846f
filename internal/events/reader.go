package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// The daemon is the only writer of events.jsonl, and it only ever
// appends. Readers therefore just scan lines; a malformed line is a
// write still in flight (or a truncated crash remnant) and is skipped
// rather than treated as corruption.

// Filter selects events for the read functions. Zero values match
// everything.
type Filter struct {
	Type     string    // match events with this Type
	Actor    string    // match events with this Actor
	Since    time.Time // match events at or after this time
	AfterSeq uint64    // match events with Seq > AfterSeq (0 = no filter)
}

func (f Filter) match(e Event) bool {
	if f.AfterSeq > 0 && e.Seq <= f.AfterSeq {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if !f.Since.IsZero() && e.Ts.Before(f.Since) {
		return false
	}
	return true
}

// scanEvents reads the log from offset, calling visit for each
// decodable event. It returns the byte offset after the last complete
// line, so watchers can resume where they left off. A missing file is
// an empty log, not an error.
func scanEvents(path string, offset int64, visit func(Event)) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return offset, nil
		}
		return offset, fmt.Errorf("reading events: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return offset, fmt.Errorf("seeking events: %w", err)
		}
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		offset += int64(len(line)) + 1 // +1 for the newline
		var e Event
		if json.Unmarshal(line, &e) != nil {
			continue
		}
		visit(e)
	}
	if err := scanner.Err(); err != nil {
		return offset, fmt.Errorf("scanning events: %w", err)
	}
	return offset, nil
}

// ReadAll returns every event in the log at path. Returns (nil, nil)
// for a missing or empty log.
func ReadAll(path string) ([]Event, error) {
	return ReadFiltered(path, Filter{})
}

// ReadFiltered returns the events at path matching filter.
func ReadFiltered(path string, filter Filter) ([]Event, error) {
	var out []Event
	_, err := scanEvents(path, 0, func(e Event) {
		if filter.match(e) {
			out = append(out, e)
		}
	})
	return out, err
}

// ReadLatestSeq returns the highest Seq in the log, or 0 if the log
// is missing or empty. A restarting daemon uses this to keep sequence
// numbers monotonic across its whole history.
func ReadLatestSeq(path string) (uint64, error) {
	var max uint64
	_, err := scanEvents(path, 0, func(e Event) {
		if e.Seq > max {
			max = e.Seq
		}
	})
	return max, err
}

// ReadFrom reads events starting at the given byte offset and returns
// them with the offset after the last complete line, for poll-based
// followers.
func ReadFrom(path string, offset int64) ([]Event, int64, error) {
	var out []Event
	end, err := scanEvents(path, offset, func(e Event) {
		out = append(out, e)
	})
	return out, end, err
}
