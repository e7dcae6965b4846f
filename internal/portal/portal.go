// Package portal exports the org.freedesktop.impl.portal backend
// interfaces (FileChooser, Screenshot) on the session bus and bridges
// each incoming request into the daemon coordinator. It owns the
// D-Bus-shaped types only; everything portal-semantic lives in
// internal/pipeline and internal/daemon.
package portal

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/werdxz/portty/internal/daemon"
)

// ServiceName is the well-known bus name xdg-desktop-portal looks up
// for the terminal backend.
const ServiceName = "org.freedesktop.impl.portal.desktop.tty"

// ObjectPath is where every backend interface is exported.
const ObjectPath = "/org/freedesktop/portal/desktop"

// Portal response codes, per the portal request protocol.
const (
	responseSuccess   uint32 = 0
	responseCancelled uint32 = 1
	responseOther     uint32 = 2
)

// Exporter owns the bus connection and the exported handlers.
type Exporter struct {
	coord  *daemon.Coordinator
	conn   *dbus.Conn
	stderr io.Writer

	mu       sync.Mutex
	requests map[dbus.ObjectPath]context.CancelFunc
}

// NewExporter wraps coord for export on a session bus connection.
func NewExporter(coord *daemon.Coordinator, stderr io.Writer) *Exporter {
	return &Exporter{
		coord:    coord,
		stderr:   stderr,
		requests: make(map[dbus.ObjectPath]context.CancelFunc),
	}
}

// Start connects to the session bus, claims the backend name, and
// exports the FileChooser and Screenshot interfaces. The returned
// connection stays open until Close.
func (e *Exporter) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("portal: connect session bus: %w", err)
	}
	e.conn = conn

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("portal: request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("portal: name %s already taken", ServiceName)
	}

	fc := &fileChooser{e}
	sc := &screenshot{e}
	for iface, v := range map[string]any{
		"org.freedesktop.impl.portal.FileChooser": fc,
		"org.freedesktop.impl.portal.Screenshot":  sc,
	} {
		if err := conn.Export(v, ObjectPath, iface); err != nil {
			conn.Close()
			return fmt.Errorf("portal: export %s: %w", iface, err)
		}
	}
	if err := conn.Export(introspect.Introspectable(backendIntrospectXML), ObjectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return fmt.Errorf("portal: export introspection: %w", err)
	}
	if err := conn.Export(propsHandler{}, ObjectPath, "org.freedesktop.DBus.Properties"); err != nil {
		conn.Close()
		return fmt.Errorf("portal: export properties: %w", err)
	}

	return nil
}

// Close releases the bus name and connection.
func (e *Exporter) Close() {
	if e.conn != nil {
		_, _ = e.conn.ReleaseName(ServiceName)
		_ = e.conn.Close()
	}
}

// beginRequest exports a Request object at handle whose Close cancels
// the returned context, bridging caller-side cancellation into the
// coordinator. endRequest must be called when the request resolves.
func (e *Exporter) beginRequest(handle dbus.ObjectPath) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	e.requests[handle] = cancel
	e.mu.Unlock()

	req := &request{exporter: e, handle: handle}
	if err := e.conn.Export(req, handle, "org.freedesktop.impl.portal.Request"); err != nil {
		fmt.Fprintf(e.stderr, "portty: export request %s: %v\n", handle, err)
	}

	end := func() {
		e.mu.Lock()
		delete(e.requests, handle)
		e.mu.Unlock()
		_ = e.conn.Export(nil, handle, "org.freedesktop.impl.portal.Request")
		cancel()
	}
	return ctx, end
}

// request implements org.freedesktop.impl.portal.Request for one
// in-flight portal request.
type request struct {
	exporter *Exporter
	handle   dbus.ObjectPath
}

// Close aborts the in-flight request; the coordinator sees it as a
// session cancel.
func (r *request) Close() *dbus.Error {
	r.exporter.mu.Lock()
	cancel, ok := r.exporter.requests[r.handle]
	r.exporter.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

// run services one portal request through the coordinator and shapes
// the outcome into a portal response code.
func (e *Exporter) run(ctx context.Context, spec daemon.PortalRequestSpec) (uint32, daemon.PortalResult) {
	res, err := e.coord.PortalRequest(ctx, spec)
	if err != nil {
		fmt.Fprintf(e.stderr, "portty: %s/%s: %v\n", spec.Portal, spec.Operation, err)
		return responseOther, daemon.PortalResult{}
	}
	if res.Cancelled {
		return responseCancelled, res
	}
	return responseSuccess, res
}
