package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/werdxz/portty/internal/paths"
)

func TestBaseDirCheckMissingDirWarns(t *testing.T) {
	layout := paths.ForBase(filepath.Join(t.TempDir(), "portty-base"))
	c := &baseDirCheck{}
	r := c.Run(&CheckContext{Layout: layout})
	if r.Status != StatusWarning {
		t.Errorf("status = %v, want warning for missing base", r.Status)
	}
}

func TestBaseDirCheckFixCreatesDir(t *testing.T) {
	layout := paths.ForBase(filepath.Join(t.TempDir(), "portty-base"))
	ctx := &CheckContext{Layout: layout}
	c := &baseDirCheck{}

	if err := c.Fix(ctx); err != nil {
		t.Fatalf("Fix: %v", err)
	}
	r := c.Run(ctx)
	if r.Status != StatusOK {
		t.Errorf("status after fix = %v (%s), want ok", r.Status, r.Message)
	}
}

func TestBaseDirCheckWrongModeWarns(t *testing.T) {
	base := filepath.Join(t.TempDir(), "portty-base")
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatal(err)
	}
	c := &baseDirCheck{}
	r := c.Run(&CheckContext{Layout: paths.ForBase(base)})
	if r.Status != StatusWarning {
		t.Errorf("status = %v, want warning for mode 755", r.Status)
	}
}

func TestConfigCheckMissingFileIsOK(t *testing.T) {
	c := &configCheck{}
	r := c.Run(&CheckContext{ConfigPath: filepath.Join(t.TempDir(), "config.toml")})
	if r.Status != StatusOK {
		t.Errorf("status = %v, want ok for missing config", r.Status)
	}
}

func TestConfigCheckBadTOMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("exec = [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := &configCheck{}
	r := c.Run(&CheckContext{ConfigPath: path})
	if r.Status != StatusError {
		t.Errorf("status = %v, want error for bad TOML", r.Status)
	}
}

func TestDaemonSocketCheckNotRunningWarns(t *testing.T) {
	layout := paths.ForBase(t.TempDir())
	c := &daemonSocketCheck{}
	r := c.Run(&CheckContext{Layout: layout})
	if r.Status != StatusWarning {
		t.Errorf("status = %v, want warning when daemon absent", r.Status)
	}
}

func TestFifoCheckRegularFileErrors(t *testing.T) {
	layout := paths.ForBase(t.TempDir())
	if err := os.WriteFile(layout.DaemonCtlPath(), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	c := &fifoCheck{}
	r := c.Run(&CheckContext{Layout: layout})
	if r.Status != StatusError {
		t.Errorf("status = %v, want error for non-FIFO node", r.Status)
	}
}
