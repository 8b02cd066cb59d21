package client

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/peterje/mirrorctl/internal/protocol"
)

// The server listens on this abstract socket name once started.
const socketName = "scrcpy"

const remoteJarPath = "/data/local/tmp/scrcpy-server.jar"

// dialPolicy bounds the video channel dial loop. The remote process starts
// asynchronously after the shell command is issued; the retries absorb that.
type dialPolicy struct {
	attempts int
	interval time.Duration
}

var defaultDialPolicy = dialPolicy{attempts: 30, interval: 100 * time.Millisecond}

// DeviceInfo is the session descriptor produced by the handshake.
type DeviceInfo struct {
	Name   string
	Width  uint16
	Height uint16
}

// established carries the live resources of a successful handshake.
type established struct {
	info    DeviceInfo
	video   net.Conn
	control net.Conn
	shell   io.ReadCloser
}

func (e *established) closeAll() {
	if e.shell != nil {
		e.shell.Close()
	}
	if e.control != nil {
		e.control.Close()
	}
	if e.video != nil {
		e.video.Close()
	}
}

// serverArgs is the fixed positional argument list scrcpy-server 1.20
// expects. Order matters; the server parses by position.
func serverArgs(o *Options) []string {
	boolArg := func(b bool) string {
		if b {
			return "true"
		}
		return "false"
	}
	return []string{
		"CLASSPATH=" + remoteJarPath,
		"app_process",
		"/",
		"com.genymobile.scrcpy.Server",
		protocol.ServerVersion,
		"info", // log level
		strconv.Itoa(o.MaxSize),
		strconv.Itoa(o.BitRate),
		strconv.Itoa(o.MaxFPS),
		strconv.Itoa(o.LockOrientation.wire()),
		"true",               // tunnel forward
		"-",                  // crop
		"false",              // send frame meta
		"true",               // control enabled
		"0",                  // display id
		"false",              // show touches
		boolArg(o.StayAwake), // stay awake
		"-",                  // codec options
		"-",                  // encoder name
		"false",              // power off on close
	}
}

// establish deploys the server and runs the two-socket handshake. Any failure
// closes whatever was opened so far and returns the session to square one;
// there is no partial success.
func establish(t Transport, o *Options, p dialPolicy) (*established, error) {
	shell, err := deploy(t, o)
	if err != nil {
		return nil, err
	}
	e := &established{shell: shell}

	e.video, err = dialVideo(t, p)
	if err != nil {
		e.closeAll()
		return nil, err
	}

	// One synchronization byte confirms the server accepted the video
	// channel. The control channel may only be opened after it: the server
	// accepts connections in that order.
	if err := protocol.ReadDummyByte(e.video); err != nil {
		e.closeAll()
		return nil, fmt.Errorf("%w: no dummy byte (%v)", ErrConnection, err)
	}

	e.control, err = t.Connect(socketName)
	if err != nil {
		e.closeAll()
		return nil, fmt.Errorf("%w: open control channel: %v", ErrConnection, err)
	}

	name, err := protocol.ReadDeviceName(e.video)
	if err != nil {
		e.closeAll()
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if name == "" {
		e.closeAll()
		return nil, fmt.Errorf("%w: empty device name", ErrConnection)
	}

	width, height, err := protocol.ReadResolution(e.video)
	if err != nil {
		e.closeAll()
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	e.info = DeviceInfo{Name: name, Width: width, Height: height}
	return e, nil
}

func deploy(t Transport, o *Options) (io.ReadCloser, error) {
	if err := t.Push(o.ServerJar, remoteJarPath); err != nil {
		return nil, fmt.Errorf("%w: push server: %v", ErrConnection, err)
	}
	shell, err := t.Shell(serverArgs(o)...)
	if err != nil {
		return nil, fmt.Errorf("%w: launch server: %v", ErrConnection, err)
	}
	return shell, nil
}

func dialVideo(t Transport, p dialPolicy) (net.Conn, error) {
	for i := 0; i < p.attempts; i++ {
		conn, err := t.Connect(socketName)
		if err == nil {
			return conn, nil
		}
		if i < p.attempts-1 {
			time.Sleep(p.interval)
		}
	}
	return nil, fmt.Errorf("%w: server not reachable after %d attempts",
		ErrConnection, p.attempts)
}
