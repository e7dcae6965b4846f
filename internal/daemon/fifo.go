package daemon

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/werdxz/portty/internal/ctlproto"
)

// EnsureFIFO creates the control FIFO at mode 0600, removing any stale
// node from a previous run first.
func (c *Coordinator) EnsureFIFO() error {
	path := c.layout.DaemonCtlPath()
	_ = os.Remove(path)
	if err := unix.Mkfifo(path, 0o600); err != nil {
		return fmt.Errorf("daemon: create control fifo: %w", err)
	}
	return nil
}

// OpenFIFO opens the control FIFO read+write. Holding the write side
// ourselves means the reader never observes EOF when the last external
// writer closes, so one open serves the daemon's whole lifetime.
func (c *Coordinator) OpenFIFO() (*os.File, error) {
	f, err := os.OpenFile(c.layout.DaemonCtlPath(), os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("daemon: open control fifo: %w", err)
	}
	return f, nil
}

// ServeFIFO reads whitespace-trimmed lines from the FIFO, decodes each
// non-empty one as a control request, and executes it, discarding the
// response. Fire-and-forget: shell users echo a verb into the pipe
// without the round trip of a socket connection. Returns when the
// FIFO is closed.
func (c *Coordinator) ServeFIFO(f *os.File) {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		req, err := ctlproto.ParseRequest(line)
		if err != nil {
			fmt.Fprintf(c.stderr, "portty: fifo: %v\n", err)
			continue
		}
		c.Handle(req)
	}
}
