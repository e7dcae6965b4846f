//go:build linux

package procwait

import "golang.org/x/sys/unix"

// pidfdDescriptor supervises a child via a Linux process descriptor
// (pidfd_open(2)): one kernel handle usable for both exit notification
// and termination, immune to PID reuse.
type pidfdDescriptor struct {
	fd int
}

func openProcessDescriptor(pid int) processDescriptor {
	fd, err := unix.PidfdOpen(pid, 0)
	if err != nil {
		// Kernel too old, or some other reason pidfd is unavailable.
		// Fall back to PID-based kill; the contract only requires a
		// single blocking point, not that it be pidfd-backed.
		return nil
	}
	return &pidfdDescriptor{fd: fd}
}

func (p *pidfdDescriptor) kill() error {
	return unix.PidfdSendSignal(p.fd, unix.SIGKILL, nil, 0)
}

func (p *pidfdDescriptor) close() {
	_ = unix.Close(p.fd)
}
