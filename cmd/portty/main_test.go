package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"github.com/werdxz/portty/internal/pipeline"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"portty": func() { os.Exit(run(os.Args[1:], os.Stdout, os.Stderr)) },
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
	})
}

// --- portty version ---

func TestVersion(t *testing.T) {
	var stdout bytes.Buffer
	code := run([]string{"version"}, &stdout, &bytes.Buffer{})
	if code != 0 {
		t.Errorf("run([version]) = %d, want 0", code)
	}
	out := stdout.String()
	if !strings.Contains(out, "portty dev") {
		t.Errorf("stdout missing 'portty dev': %q", out)
	}
	if !strings.Contains(out, "commit:") {
		t.Errorf("stdout missing 'commit:': %q", out)
	}
}

func TestUnknownCommandFails(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"frobnicate"}, &bytes.Buffer{}, &stderr)
	if code != 1 {
		t.Errorf("run([frobnicate]) = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "unknown command") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestNilArgsShowsHelp(t *testing.T) {
	var stdout bytes.Buffer
	code := run(nil, &stdout, &bytes.Buffer{})
	if code != 0 {
		t.Errorf("run(nil) = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "portty") {
		t.Errorf("help output = %q", stdout.String())
	}
}

// --- edit in a session workspace ---

// fakeSession lays out a workspace directory and points the session
// environment variables at it.
func fakeSession(t *testing.T, opts pipeline.FileChooserOptions) string {
	t.Helper()
	dir := t.TempDir()
	optionsJSON, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "portal"), []byte("file-chooser\nopen-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "options.json"), optionsJSON, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "submission"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORTTY_SESSION", "test-session")
	t.Setenv("PORTTY_DIR", dir)
	t.Setenv("PORTTY_PORTAL", "file-chooser")
	t.Setenv("PORTTY_OPERATION", "open-file")
	return dir
}

func readSubmission(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "submission"))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestEditMultiPickAppends(t *testing.T) {
	dir := fakeSession(t, pipeline.FileChooserOptions{Multiple: true})

	if code := run([]string{"edit", "a.txt"}, &bytes.Buffer{}, os.Stderr); code != 0 {
		t.Fatalf("edit a.txt = %d", code)
	}
	if code := run([]string{"edit", "b.txt"}, &bytes.Buffer{}, os.Stderr); code != 0 {
		t.Fatalf("edit b.txt = %d", code)
	}

	if got := readSubmission(t, dir); got != "a.txt\nb.txt\n" {
		t.Errorf("submission = %q, want a.txt\\nb.txt\\n", got)
	}
}

func TestEditSinglePickReplaces(t *testing.T) {
	dir := fakeSession(t, pipeline.FileChooserOptions{Multiple: false})

	if code := run([]string{"edit", "a.txt"}, &bytes.Buffer{}, os.Stderr); code != 0 {
		t.Fatal("edit a.txt failed")
	}
	if code := run([]string{"edit", "b.txt"}, &bytes.Buffer{}, os.Stderr); code != 0 {
		t.Fatal("edit b.txt failed")
	}

	if got := readSubmission(t, dir); got != "b.txt\n" {
		t.Errorf("submission = %q, want b.txt\\n", got)
	}
}

func TestEditRemoveIsIdentityInverse(t *testing.T) {
	dir := fakeSession(t, pipeline.FileChooserOptions{Multiple: true})

	for _, f := range []string{"a", "b", "c"} {
		if code := run([]string{"edit", f}, &bytes.Buffer{}, os.Stderr); code != 0 {
			t.Fatalf("edit %s failed", f)
		}
	}
	if code := run([]string{"edit", "--remove", "b"}, &bytes.Buffer{}, os.Stderr); code != 0 {
		t.Fatal("edit --remove failed")
	}

	// Order of the remaining entries is preserved.
	if got := readSubmission(t, dir); got != "a\nc\n" {
		t.Errorf("submission = %q, want a\\nc\\n", got)
	}
}

func TestEditClearTruncates(t *testing.T) {
	dir := fakeSession(t, pipeline.FileChooserOptions{Multiple: true})

	if code := run([]string{"edit", "a"}, &bytes.Buffer{}, os.Stderr); code != 0 {
		t.Fatal("edit failed")
	}
	if code := run([]string{"edit", "--clear"}, &bytes.Buffer{}, os.Stderr); code != 0 {
		t.Fatal("edit --clear failed")
	}

	if got := readSubmission(t, dir); got != "" {
		t.Errorf("submission = %q, want empty", got)
	}
}

func TestEditNoArgsPrintsEntries(t *testing.T) {
	fakeSession(t, pipeline.FileChooserOptions{Multiple: true})

	if code := run([]string{"edit", "x", "y"}, &bytes.Buffer{}, os.Stderr); code != 0 {
		t.Fatal("edit failed")
	}
	var stdout bytes.Buffer
	if code := run([]string{"edit"}, &stdout, os.Stderr); code != 0 {
		t.Fatal("edit (show) failed")
	}
	if stdout.String() != "x\ny\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestSelDeselShims(t *testing.T) {
	dir := fakeSession(t, pipeline.FileChooserOptions{Multiple: true})

	if code := run([]string{"sel", "a", "b"}, &bytes.Buffer{}, os.Stderr); code != 0 {
		t.Fatal("sel failed")
	}
	if code := run([]string{"desel", "a"}, &bytes.Buffer{}, os.Stderr); code != 0 {
		t.Fatal("desel failed")
	}
	if got := readSubmission(t, dir); got != "b\n" {
		t.Errorf("submission = %q, want b\\n", got)
	}
}
