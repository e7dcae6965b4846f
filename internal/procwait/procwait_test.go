package procwait

import (
	"os/exec"
	"testing"
	"time"
)

func TestWatchObservesExit(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 0")
	w, err := Watch(cmd)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done() did not fire")
	}

	if w.Err() != nil {
		t.Errorf("Err() = %v, want nil", w.Err())
	}
}

func TestWatchKillStopsRunningChild(t *testing.T) {
	cmd := exec.Command("sh", "-c", "sleep 30")
	w, err := Watch(cmd)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := w.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("killed child never reported Done()")
	}
}

func TestWatchNonZeroExitIsErr(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 7")
	w, err := Watch(cmd)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	<-w.Done()
	if w.Err() == nil {
		t.Error("Err() = nil, want non-nil for exit code 7")
	}
}
