package adb

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strings"
)

// Shell runs a command on the device and returns its stdout as a stream.
// Closing the stream kills the remote process.
func (d *Device) Shell(args ...string) (io.ReadCloser, error) {
	cmd := d.command(append([]string{"shell"}, args...)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("shell stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("adb shell %s: %w", strings.Join(args, " "), err)
	}
	return &shellStream{ReadCloser: stdout, cmd: cmd}, nil
}

type shellStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (s *shellStream) Close() error {
	err := s.ReadCloser.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	// Reap the adb process so it doesn't linger as a zombie.
	_ = s.cmd.Wait()
	return err
}

// Connect opens a TCP connection to the named abstract socket on the device.
// Each call sets up its own adb forward; the forward is removed when the
// connection closes.
func (d *Device) Connect(name string) (net.Conn, error) {
	port, err := d.forward(name)
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		d.removeForward(port)
		return nil, fmt.Errorf("dial forwarded port %d: %w", port, err)
	}
	return &forwardedConn{Conn: conn, dev: d, port: port}, nil
}

type forwardedConn struct {
	net.Conn
	dev  *Device
	port int
}

func (c *forwardedConn) Close() error {
	err := c.Conn.Close()
	c.dev.removeForward(c.port)
	return err
}
