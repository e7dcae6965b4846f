package daemon

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/werdxz/portty/internal/ctlproto"
)

// ListenControl binds the daemon control socket, removing any stale
// socket file from a previous crash first.
func (c *Coordinator) ListenControl() (net.Listener, error) {
	path := c.layout.DaemonSocketPath()
	_ = os.Remove(path)
	lis, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("daemon: bind control socket: %w", err)
	}
	return lis, nil
}

// ServeControl accepts control connections until the listener closes.
// Each connection carries one request and one response and is handled
// on its own goroutine so a blocked reader cannot stall others. Accept
// errors are logged and the loop continues.
func (c *Coordinator) ServeControl(lis net.Listener) {
	for {
		conn, err := lis.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			fmt.Fprintf(c.stderr, "portty: control accept: %v\n", err)
			continue
		}
		go c.handleConn(conn)
	}
}

func (c *Coordinator) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return
	}

	var resp ctlproto.Response
	req, err := ctlproto.ParseRequest(scanner.Text())
	if err != nil {
		resp = ctlproto.Error("%s", err)
	} else {
		resp = c.Handle(req)
	}

	if err := ctlproto.WriteResponse(conn, resp); err != nil {
		fmt.Fprintf(c.stderr, "portty: control write: %v\n", err)
	}
}
