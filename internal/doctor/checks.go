package doctor

import (
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/werdxz/portty/internal/config"
	"github.com/werdxz/portty/internal/fsys"
)

// DefaultChecks returns the standard check set in execution order.
func DefaultChecks() []Check {
	return []Check{
		&baseDirCheck{},
		&configCheck{},
		&daemonSocketCheck{},
		&fifoCheck{},
		&sessionBusCheck{},
	}
}

// baseDirCheck verifies the per-user base directory exists with the
// right owner and mode. Fixable: creating it (and correcting mode) is
// exactly what EnsureBaseDir does.
type baseDirCheck struct{}

func (c *baseDirCheck) Name() string { return "base-dir" }
func (c *baseDirCheck) CanFix() bool { return true }

func (c *baseDirCheck) Run(ctx *CheckContext) *CheckResult {
	base := ctx.Layout.BaseDir()
	info, err := os.Stat(base)
	if err != nil {
		return &CheckResult{
			Name: c.Name(), Status: StatusWarning,
			Message: fmt.Sprintf("%s does not exist (created on first use)", base),
			FixHint: "run with --fix, or start the daemon",
		}
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if ok && int(stat.Uid) != os.Getuid() {
		return &CheckResult{
			Name: c.Name(), Status: StatusError,
			Message: fmt.Sprintf("%s is owned by uid %d, not %d", base, stat.Uid, os.Getuid()),
			FixHint: "remove the directory or fix its ownership",
		}
	}
	if info.Mode().Perm() != 0o700 {
		return &CheckResult{
			Name: c.Name(), Status: StatusWarning,
			Message: fmt.Sprintf("%s has mode %o, want 700", base, info.Mode().Perm()),
			FixHint: "run with --fix",
		}
	}
	return &CheckResult{Name: c.Name(), Status: StatusOK, Message: base}
}

func (c *baseDirCheck) Fix(ctx *CheckContext) error {
	return ctx.Layout.EnsureBaseDir()
}

// configCheck verifies the configuration file parses. A missing file
// is fine — it means every operation runs headless.
type configCheck struct{}

func (c *configCheck) Name() string { return "config" }
func (c *configCheck) CanFix() bool { return false }
func (c *configCheck) Fix(*CheckContext) error { return nil }

func (c *configCheck) Run(ctx *CheckContext) *CheckResult {
	if _, err := os.Stat(ctx.ConfigPath); err != nil {
		return &CheckResult{
			Name: c.Name(), Status: StatusOK,
			Message: fmt.Sprintf("%s missing (headless defaults)", ctx.ConfigPath),
		}
	}
	cfg, err := config.Load(fsys.OSFS{}, ctx.ConfigPath)
	if err != nil {
		return &CheckResult{
			Name: c.Name(), Status: StatusError,
			Message: err.Error(),
			FixHint: "fix the TOML syntax",
		}
	}
	resolved := config.Resolve(cfg, "file-chooser", "open-file")
	detail := "file-chooser/open-file: headless"
	if resolved.Exec != "" {
		detail = "file-chooser/open-file: " + resolved.Exec
	}
	return &CheckResult{
		Name: c.Name(), Status: StatusOK,
		Message: ctx.ConfigPath,
		Details: []string{detail},
	}
}

// daemonSocketCheck probes the control socket with a list request.
type daemonSocketCheck struct{}

func (c *daemonSocketCheck) Name() string { return "daemon" }
func (c *daemonSocketCheck) CanFix() bool { return false }
func (c *daemonSocketCheck) Fix(*CheckContext) error { return nil }

func (c *daemonSocketCheck) Run(ctx *CheckContext) *CheckResult {
	conn, err := net.DialTimeout("unix", ctx.Layout.DaemonSocketPath(), 2*time.Second)
	if err != nil {
		return &CheckResult{
			Name: c.Name(), Status: StatusWarning,
			Message: "not running",
			FixHint: "start it with `portty daemon`",
		}
	}
	conn.Close()
	return &CheckResult{Name: c.Name(), Status: StatusOK, Message: "control socket reachable"}
}

// fifoCheck verifies the fire-and-forget pipe exists and is a FIFO.
type fifoCheck struct{}

func (c *fifoCheck) Name() string { return "fifo" }
func (c *fifoCheck) CanFix() bool { return false }
func (c *fifoCheck) Fix(*CheckContext) error { return nil }

func (c *fifoCheck) Run(ctx *CheckContext) *CheckResult {
	info, err := os.Stat(ctx.Layout.DaemonCtlPath())
	if err != nil {
		return &CheckResult{
			Name: c.Name(), Status: StatusWarning,
			Message: "missing (created at daemon startup)",
		}
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		return &CheckResult{
			Name: c.Name(), Status: StatusError,
			Message: fmt.Sprintf("%s exists but is not a named pipe", ctx.Layout.DaemonCtlPath()),
			FixHint: "remove it and restart the daemon",
		}
	}
	return &CheckResult{Name: c.Name(), Status: StatusOK, Message: "named pipe present"}
}

// sessionBusCheck verifies a session bus address is available; without
// one the portal interfaces cannot be exported.
type sessionBusCheck struct{}

func (c *sessionBusCheck) Name() string { return "session-bus" }
func (c *sessionBusCheck) CanFix() bool { return false }
func (c *sessionBusCheck) Fix(*CheckContext) error { return nil }

func (c *sessionBusCheck) Run(ctx *CheckContext) *CheckResult {
	addr := os.Getenv("DBUS_SESSION_BUS_ADDRESS")
	if addr == "" {
		return &CheckResult{
			Name: c.Name(), Status: StatusWarning,
			Message: "DBUS_SESSION_BUS_ADDRESS not set",
			FixHint: "run inside a desktop session, or export the bus address",
		}
	}
	return &CheckResult{Name: c.Name(), Status: StatusOK, Message: addr}
}
