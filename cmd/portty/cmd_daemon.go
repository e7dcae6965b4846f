package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/werdxz/portty/internal/config"
	"github.com/werdxz/portty/internal/daemon"
	"github.com/werdxz/portty/internal/events"
	"github.com/werdxz/portty/internal/fsys"
	"github.com/werdxz/portty/internal/paths"
	"github.com/werdxz/portty/internal/portal"
)

func newDaemonCmd(stdout, stderr io.Writer) *cobra.Command {
	var configPath string
	var noDBus bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the portal backend daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if cmdDaemon(configPath, noDBus, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "",
		"config file (default: ~/.config/portty/config.toml)")
	cmd.Flags().BoolVar(&noDBus, "no-dbus", false,
		"serve only the control socket and FIFO (no portal export)")
	return cmd
}

func cmdDaemon(configPath string, noDBus bool, stdout, stderr io.Writer) int {
	layout := paths.Default()
	if err := layout.EnsureBaseDir(); err != nil {
		fmt.Fprintf(stderr, "portty daemon: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	// Single instance per user: the lock outlives everything below and
	// is released implicitly at process exit.
	lock := flock.New(layout.DaemonLockPath())
	locked, err := lock.TryLock()
	if err != nil {
		fmt.Fprintf(stderr, "portty daemon: lock: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if !locked {
		fmt.Fprintf(stderr, "portty daemon: already running\n") //nolint:errcheck // best-effort stderr
		return 1
	}
	defer lock.Unlock() //nolint:errcheck // process exit releases anyway

	if err := os.WriteFile(layout.DaemonPIDPath(), []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600); err != nil {
		fmt.Fprintf(stderr, "portty daemon: pid file: %v\n", err) //nolint:errcheck // best-effort stderr
	}
	defer os.Remove(layout.DaemonPIDPath()) //nolint:errcheck // best-effort cleanup

	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.LoadOrDefault(fsys.OSFS{}, configPath)
	if err != nil {
		fmt.Fprintf(stderr, "portty daemon: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	rec, err := events.NewFileRecorder(layout.EventsLogPath(), stderr)
	if err != nil {
		fmt.Fprintf(stderr, "portty daemon: event log: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	builtin, err := os.Executable()
	if err != nil {
		builtin = "portty"
	}

	coord := daemon.New(layout, fsys.OSFS{}, cfg, rec, builtin, stderr)

	lis, err := coord.ListenControl()
	if err != nil {
		fmt.Fprintf(stderr, "portty daemon: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer lis.Close()
	defer os.Remove(layout.DaemonSocketPath()) //nolint:errcheck // best-effort cleanup
	go coord.ServeControl(lis)

	if err := coord.EnsureFIFO(); err != nil {
		fmt.Fprintf(stderr, "portty daemon: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	fifo, err := coord.OpenFIFO()
	if err != nil {
		fmt.Fprintf(stderr, "portty daemon: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer fifo.Close()
	defer os.Remove(layout.DaemonCtlPath()) //nolint:errcheck // best-effort cleanup
	go coord.ServeFIFO(fifo)

	stopWatch := watchConfig(configPath, coord, stderr)
	defer stopWatch()

	if !noDBus {
		exporter := portal.NewExporter(coord, stderr)
		if err := exporter.Start(); err != nil {
			fmt.Fprintf(stderr, "portty daemon: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		defer exporter.Close()
		fmt.Fprintf(stdout, "portty daemon: serving %s\n", portal.ServiceName) //nolint:errcheck // best-effort stdout
	} else {
		fmt.Fprintf(stdout, "portty daemon: serving control socket only\n") //nolint:errcheck // best-effort stdout
	}

	rec.Record(events.Event{Type: events.ControllerStarted, Actor: "daemon",
		Message: fmt.Sprintf("pid %d", os.Getpid())})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig

	rec.Record(events.Event{Type: events.ControllerStopped, Actor: "daemon",
		Message: s.String()})
	fmt.Fprintf(stdout, "portty daemon: %s, shutting down\n", s) //nolint:errcheck // best-effort stdout
	return 0
}

// debounceDelay is the coalesce window for config file events.
// Multiple events within this window (editor atomic saves) produce a
// single reload.
var debounceDelay = 200 * time.Millisecond

// watchConfig starts an fsnotify watcher on the config file's
// directory and reloads the coordinator's config after a debounce
// window. Watching the directory instead of the file handles
// vim/emacs rename-swap atomic saves. Returns a cleanup function; if
// the watcher cannot be created, config changes need a restart.
func watchConfig(configPath string, coord *daemon.Coordinator, stderr io.Writer) func() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(stderr, "portty daemon: config watcher: %v (reload disabled)\n", err) //nolint:errcheck // best-effort stderr
		return func() {}
	}
	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		fmt.Fprintf(stderr, "portty daemon: config watcher: cannot watch %s: %v\n", dir, err) //nolint:errcheck // best-effort stderr
	}

	var closed atomic.Bool
	go func() {
		var debounce *time.Timer
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, func() {
					if closed.Load() {
						return
					}
					cfg, err := config.LoadOrDefault(fsys.OSFS{}, configPath)
					if err != nil {
						// Keep the old config on a parse error.
						fmt.Fprintf(stderr, "portty daemon: config reload: %v\n", err) //nolint:errcheck // best-effort stderr
						return
					}
					coord.SetConfig(cfg)
				})
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return func() {
		closed.Store(true)
		watcher.Close() //nolint:errcheck // best-effort cleanup
	}
}
