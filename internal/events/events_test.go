package events

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"
)

// Compile-time interface checks.
var (
	_ Provider = (*FileRecorder)(nil)
	_ Provider = (*Fake)(nil)
)

func newTestRecorder(t *testing.T) (*FileRecorder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	var stderr bytes.Buffer
	rec, err := NewFileRecorder(path, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		rec.Close() //nolint:errcheck // test cleanup
		if stderr.Len() > 0 {
			t.Errorf("unexpected stderr: %q", stderr.String())
		}
	})
	return rec, path
}

func TestFileRecorderWritesAndReadsBack(t *testing.T) {
	rec, path := newTestRecorder(t)

	rec.Record(Event{Type: SessionCreated, Actor: "daemon", Subject: "abc-1", Message: "file-chooser/open-file"})
	rec.Record(Event{Type: SessionSubmitted, Actor: "daemon", Subject: "abc-1"})

	got, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadAll = %d events, want 2", len(got))
	}
	if got[0].Type != SessionCreated || got[0].Subject != "abc-1" {
		t.Errorf("first event = %+v", got[0])
	}
	if got[0].Seq != 1 || got[1].Seq != 2 {
		t.Errorf("seqs = %d, %d, want 1, 2", got[0].Seq, got[1].Seq)
	}
	if got[0].Ts.IsZero() {
		t.Error("timestamp not auto-filled")
	}
}

func TestFileRecorderContinuesSeqAcrossReopen(t *testing.T) {
	rec, path := newTestRecorder(t)
	rec.Record(Event{Type: ControllerStarted, Actor: "daemon"})
	rec.Close() //nolint:errcheck // reopened below

	var stderr bytes.Buffer
	rec2, err := NewFileRecorder(path, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	defer rec2.Close() //nolint:errcheck // test cleanup
	rec2.Record(Event{Type: ControllerStopped, Actor: "daemon"})

	latest, err := ReadLatestSeq(path)
	if err != nil {
		t.Fatal(err)
	}
	if latest != 2 {
		t.Errorf("latest seq = %d, want 2 (monotonic across reopen)", latest)
	}
}

func TestReadFilteredByType(t *testing.T) {
	rec, path := newTestRecorder(t)
	rec.Record(Event{Type: SessionCreated, Actor: "daemon", Subject: "a"})
	rec.Record(Event{Type: SessionCancelled, Actor: "daemon", Subject: "a"})
	rec.Record(Event{Type: SessionCreated, Actor: "daemon", Subject: "b"})

	got, err := ReadFiltered(path, Filter{Type: SessionCreated})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("filtered = %d events, want 2", len(got))
	}
	for _, e := range got {
		if e.Type != SessionCreated {
			t.Errorf("event type = %s", e.Type)
		}
	}
}

func TestReadAllMissingFileIsEmpty(t *testing.T) {
	got, err := ReadAll(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("ReadAll = %v, want nil", got)
	}
}

func TestWatchSeesNewEvents(t *testing.T) {
	rec, _ := newTestRecorder(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := rec.Watch(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close() //nolint:errcheck // test cleanup

	rec.Record(Event{Type: SubmissionQueued, Actor: "daemon"})

	e, err := w.Next()
	if err != nil {
		t.Fatal(err)
	}
	if e.Type != SubmissionQueued {
		t.Errorf("watched event = %+v", e)
	}
}

func TestFakeRecorderCaptures(t *testing.T) {
	f := NewFake()
	f.Record(Event{Type: SessionCreated, Actor: "daemon"})
	if len(f.Events) != 1 || f.Events[0].Seq != 1 {
		t.Errorf("fake events = %+v", f.Events)
	}
}
