package client

import (
	"io"
	"net"

	"github.com/peterje/mirrorctl/internal/adb"
)

// Transport is the debug-bridge capability the session consumes: named
// channels into the device, file push, and remote process execution.
// adb.Device is the real implementation; tests substitute in-memory ones.
type Transport interface {
	// Connect opens a byte stream to the named abstract socket on the device.
	Connect(name string) (net.Conn, error)
	// Push copies a local file onto the device.
	Push(local, remote string) error
	// Shell starts a remote process and returns its output stream. Closing
	// the stream tears the process down.
	Shell(args ...string) (io.ReadCloser, error)
}

var _ Transport = (*adb.Device)(nil)
