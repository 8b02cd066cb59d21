package client

import (
	"fmt"

	"github.com/peterje/mirrorctl/internal/protocol"
)

// Defaults applied by New when the corresponding Options field is zero.
const (
	DefaultBitRate   = 8_000_000
	DefaultServerJar = "scrcpy-server.jar"
)

// Orientation is the screen orientation lock requested from the server. The
// zero value leaves rotation unlocked, which is also the server's default.
type Orientation int

const (
	OrientationUnlocked Orientation = iota
	OrientationInitial
	Orientation0
	Orientation90
	Orientation180
	Orientation270
)

// wire converts to the server's numeric encoding.
func (o Orientation) wire() int {
	switch o {
	case OrientationInitial:
		return protocol.LockOrientationInitial
	case Orientation0:
		return protocol.LockOrientation0
	case Orientation90:
		return protocol.LockOrientation1
	case Orientation180:
		return protocol.LockOrientation2
	case Orientation270:
		return protocol.LockOrientation3
	default:
		return protocol.LockOrientationUnlocked
	}
}

// OrientationFromWire converts a server-encoded orientation lock, as written
// in config files (-1 unlocked, -2 initial, 0..3 fixed).
func OrientationFromWire(v int) (Orientation, error) {
	switch v {
	case protocol.LockOrientationUnlocked:
		return OrientationUnlocked, nil
	case protocol.LockOrientationInitial:
		return OrientationInitial, nil
	case protocol.LockOrientation0:
		return Orientation0, nil
	case protocol.LockOrientation1:
		return Orientation90, nil
	case protocol.LockOrientation2:
		return Orientation180, nil
	case protocol.LockOrientation3:
		return Orientation270, nil
	default:
		return 0, fmt.Errorf("invalid orientation lock %d", v)
	}
}

// Options are the immutable session parameters. Validated once in New and
// never mutated afterwards.
type Options struct {
	// MaxSize limits the longer dimension of broadcast frames, 0 = native.
	MaxSize int
	// BitRate of the encoded video stream in bits per second.
	BitRate int
	// MaxFPS caps the frame rate, 0 = unlimited.
	MaxFPS int
	// BlockFrame selects blocking delivery: frame listeners fire only for
	// real decoded frames. When false the demux loop also emits a nil frame
	// on every idle iteration so callers can drive their own poll cadence.
	BlockFrame bool
	// StayAwake keeps the device awake while connected.
	StayAwake bool
	// LockOrientation locks the screen orientation. The zero value leaves
	// rotation unlocked.
	LockOrientation Orientation
	// ServerJar is the local path of the server artifact pushed to the
	// device. Defaults to DefaultServerJar in the working directory.
	ServerJar string
}

func (o *Options) validate() error {
	if o.MaxSize < 0 {
		return fmt.Errorf("max size must be >= 0, got %d", o.MaxSize)
	}
	if o.BitRate < 0 {
		return fmt.Errorf("bitrate must be >= 0, got %d", o.BitRate)
	}
	if o.MaxFPS < 0 {
		return fmt.Errorf("max fps must be >= 0, got %d", o.MaxFPS)
	}
	if o.LockOrientation < OrientationUnlocked || o.LockOrientation > Orientation270 {
		return fmt.Errorf("invalid orientation lock %d", o.LockOrientation)
	}
	return nil
}

func (o *Options) applyDefaults() {
	if o.BitRate == 0 {
		o.BitRate = DefaultBitRate
	}
	if o.ServerJar == "" {
		o.ServerJar = DefaultServerJar
	}
}
