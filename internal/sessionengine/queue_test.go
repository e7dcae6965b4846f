package sessionengine

import (
	"testing"

	"github.com/werdxz/portty/internal/fsys"
	"github.com/werdxz/portty/internal/linefile"
)

func TestDrainPendingIntoAppendsThenTruncates(t *testing.T) {
	fake := fsys.NewFake()
	layout := testLayout()

	if err := linefile.WriteLines(fake, layout.PendingSubmission(), []string{"p1", "p2"}); err != nil {
		t.Fatal(err)
	}

	s, err := Create(layout, fake, CreateRequest{
		Portal: "file-chooser", Operation: "open-file", BuiltinPath: "/usr/bin/portty",
		InitialEntries: []string{"initial"},
	})
	if err != nil {
		t.Fatal(err)
	}

	n, err := DrainPendingInto(layout, fake, s)
	if err != nil {
		t.Fatalf("DrainPendingInto: %v", err)
	}
	if n != 2 {
		t.Errorf("drained %d entries, want 2", n)
	}

	got := linefile.ReadLines(fake, s.SubmissionPath())
	want := []string{"initial", "p1", "p2"}
	if len(got) != len(want) {
		t.Fatalf("submission = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("submission[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if pending := linefile.ReadLines(fake, layout.PendingSubmission()); len(pending) != 0 {
		t.Errorf("pending not cleared after drain: %v", pending)
	}
}

func TestDrainPendingIntoNoopWhenPendingEmpty(t *testing.T) {
	fake := fsys.NewFake()
	layout := testLayout()

	s, err := Create(layout, fake, CreateRequest{Portal: "file-chooser", Operation: "open-file", BuiltinPath: "/usr/bin/portty"})
	if err != nil {
		t.Fatal(err)
	}

	n, err := DrainPendingInto(layout, fake, s)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("drained %d entries from empty pending, want 0", n)
	}
}

func TestQueueSubmissionIsNoopWhenPendingEmpty(t *testing.T) {
	fake := fsys.NewFake()
	layout := testLayout()

	queued, err := QueueSubmission(layout, fake, 1000, "file-chooser")
	if err != nil {
		t.Fatal(err)
	}
	if queued {
		t.Error("QueueSubmission reported queued with empty pending")
	}
}

func TestQueueSubmissionFreezesAndClearsPending(t *testing.T) {
	fake := fsys.NewFake()
	layout := testLayout()

	if err := linefile.WriteLines(fake, layout.PendingSubmission(), []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}

	queued, err := QueueSubmission(layout, fake, 1000, "file-chooser")
	if err != nil {
		t.Fatal(err)
	}
	if !queued {
		t.Fatal("QueueSubmission reported not queued with non-empty pending")
	}

	if pending := linefile.ReadLines(fake, layout.PendingSubmission()); len(pending) != 0 {
		t.Errorf("pending not cleared after queue: %v", pending)
	}
}

// A wildcard submission queued first must be handed out before a
// later, more specific one, even though the caller asks for the
// specific portal both times.
func TestPopQueuedSubmissionFIFORegardlessOfSpecificity(t *testing.T) {
	fake := fsys.NewFake()
	layout := testLayout()

	if err := linefile.WriteLines(fake, layout.PendingSubmission(), []string{"wild"}); err != nil {
		t.Fatal(err)
	}
	if _, err := QueueSubmission(layout, fake, 1000, ""); err != nil {
		t.Fatal(err)
	}

	if err := linefile.WriteLines(fake, layout.PendingSubmission(), []string{"specific"}); err != nil {
		t.Fatal(err)
	}
	if _, err := QueueSubmission(layout, fake, 2000, "file-chooser"); err != nil {
		t.Fatal(err)
	}

	qs, err := PopQueuedSubmission(layout, fake, "file-chooser")
	if err != nil {
		t.Fatal(err)
	}
	if qs == nil {
		t.Fatal("PopQueuedSubmission returned nothing, want the wildcard entry")
	}
	if len(qs.Entries) != 1 || qs.Entries[0] != "wild" {
		t.Errorf("first pop = %v, want the wildcard-queued entry", qs.Entries)
	}

	qs2, err := PopQueuedSubmission(layout, fake, "file-chooser")
	if err != nil {
		t.Fatal(err)
	}
	if qs2 == nil {
		t.Fatal("second PopQueuedSubmission returned nothing, want the specific entry")
	}
	if len(qs2.Entries) != 1 || qs2.Entries[0] != "specific" {
		t.Errorf("second pop = %v, want the specific-queued entry", qs2.Entries)
	}
}

func TestPopQueuedSubmissionSkipsNonMatchingPortal(t *testing.T) {
	fake := fsys.NewFake()
	layout := testLayout()

	if err := linefile.WriteLines(fake, layout.PendingSubmission(), []string{"screenshot-only"}); err != nil {
		t.Fatal(err)
	}
	if _, err := QueueSubmission(layout, fake, 1000, "screenshot"); err != nil {
		t.Fatal(err)
	}

	qs, err := PopQueuedSubmission(layout, fake, "file-chooser")
	if err != nil {
		t.Fatal(err)
	}
	if qs != nil {
		t.Errorf("PopQueuedSubmission matched a submission for a different portal: %v", qs)
	}
}

func TestPopQueuedSubmissionEmptyQueueReturnsNil(t *testing.T) {
	fake := fsys.NewFake()
	layout := testLayout()

	qs, err := PopQueuedSubmission(layout, fake, "file-chooser")
	if err != nil {
		t.Fatal(err)
	}
	if qs != nil {
		t.Errorf("PopQueuedSubmission on empty queue = %v, want nil", qs)
	}
}
