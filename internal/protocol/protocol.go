// Package protocol implements the wire format spoken by scrcpy-server v1.20:
// the greeting the server sends on the video channel, and the binary control
// records the client writes on the control channel.
//
// All multi-byte integers are big-endian. Strings are UTF-8 with a u32 length
// prefix.
package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// ServerVersion is the scrcpy-server release this client speaks to. The
// control record layouts below are specific to it.
const ServerVersion = "1.20"

// Control message type tags.
const (
	TypeInjectKeycode uint8 = iota
	TypeInjectText
	TypeInjectTouch
	TypeInjectScroll
	TypeBackOrScreenOn
	TypeExpandNotificationPanel
	TypeExpandSettingsPanel
	TypeCollapsePanels
	TypeGetClipboard
	TypeSetClipboard
	TypeSetScreenPowerMode
	TypeRotateDevice
)

// VirtualPointerID is the pointer id the server treats as "virtual finger".
const VirtualPointerID = ^uint64(0)

// PressureMax is full pressure in the touch record's 16-bit fixed-point field.
const PressureMax = uint16(0xffff)

// Command is one typed control message. The set is closed: every variant is
// defined in this package and Marshal switches over the concrete type.
type Command interface {
	commandType() uint8
}

type InjectKeycode struct {
	Action    uint8
	Keycode   uint32
	Repeat    uint32
	MetaState uint32
}

type InjectText struct {
	Text string
}

type InjectTouch struct {
	Action       uint8
	PointerID    uint64
	X, Y         uint32
	ScreenWidth  uint16
	ScreenHeight uint16
	Pressure     uint16 // 0xffff == 1.0
	Buttons      uint32
}

type InjectScroll struct {
	X, Y         uint32
	ScreenWidth  uint16
	ScreenHeight uint16
	HScroll      int32
	VScroll      int32
}

type BackOrScreenOn struct{}

type ExpandNotificationPanel struct{}

type ExpandSettingsPanel struct{}

type CollapsePanels struct{}

type GetClipboard struct{}

type SetClipboard struct {
	Paste bool
	Text  string
}

type SetScreenPowerMode struct {
	Mode uint8
}

type RotateDevice struct{}

func (InjectKeycode) commandType() uint8           { return TypeInjectKeycode }
func (InjectText) commandType() uint8              { return TypeInjectText }
func (InjectTouch) commandType() uint8             { return TypeInjectTouch }
func (InjectScroll) commandType() uint8            { return TypeInjectScroll }
func (BackOrScreenOn) commandType() uint8          { return TypeBackOrScreenOn }
func (ExpandNotificationPanel) commandType() uint8 { return TypeExpandNotificationPanel }
func (ExpandSettingsPanel) commandType() uint8     { return TypeExpandSettingsPanel }
func (CollapsePanels) commandType() uint8          { return TypeCollapsePanels }
func (GetClipboard) commandType() uint8            { return TypeGetClipboard }
func (SetClipboard) commandType() uint8            { return TypeSetClipboard }
func (SetScreenPowerMode) commandType() uint8      { return TypeSetScreenPowerMode }
func (RotateDevice) commandType() uint8            { return TypeRotateDevice }

// Marshal serializes a command to its wire record: one type tag byte followed
// by the type-specific payload. Field values are framed as given; semantic
// range checks (coordinates inside the screen, valid keycodes) are the
// caller's concern.
func Marshal(cmd Command) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(cmd.commandType())

	switch c := cmd.(type) {
	case InjectKeycode:
		binary.Write(buf, binary.BigEndian, c.Action)
		binary.Write(buf, binary.BigEndian, c.Keycode)
		binary.Write(buf, binary.BigEndian, c.Repeat)
		binary.Write(buf, binary.BigEndian, c.MetaState)
	case InjectText:
		writeString(buf, c.Text)
	case InjectTouch:
		binary.Write(buf, binary.BigEndian, c.Action)
		binary.Write(buf, binary.BigEndian, c.PointerID)
		binary.Write(buf, binary.BigEndian, c.X)
		binary.Write(buf, binary.BigEndian, c.Y)
		binary.Write(buf, binary.BigEndian, c.ScreenWidth)
		binary.Write(buf, binary.BigEndian, c.ScreenHeight)
		binary.Write(buf, binary.BigEndian, c.Pressure)
		binary.Write(buf, binary.BigEndian, c.Buttons)
	case InjectScroll:
		binary.Write(buf, binary.BigEndian, c.X)
		binary.Write(buf, binary.BigEndian, c.Y)
		binary.Write(buf, binary.BigEndian, c.ScreenWidth)
		binary.Write(buf, binary.BigEndian, c.ScreenHeight)
		binary.Write(buf, binary.BigEndian, c.HScroll)
		binary.Write(buf, binary.BigEndian, c.VScroll)
	case SetClipboard:
		paste := uint8(0)
		if c.Paste {
			paste = 1
		}
		buf.WriteByte(paste)
		writeString(buf, c.Text)
	case SetScreenPowerMode:
		buf.WriteByte(c.Mode)
	case BackOrScreenOn, ExpandNotificationPanel, ExpandSettingsPanel,
		CollapsePanels, GetClipboard, RotateDevice:
		// Tag only.
	}
	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	b := []byte(s)
	binary.Write(buf, binary.BigEndian, uint32(len(b)))
	buf.Write(b)
}

// ReadClipboardResponse reads the server's reply to a GetClipboard request
// from the control channel: a zero type byte, a u32 length, then the text.
func ReadClipboardResponse(r io.Reader) (string, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return "", fmt.Errorf("read clipboard header: %w", err)
	}
	if hdr[0] != 0 {
		return "", fmt.Errorf("unexpected clipboard response type %d", hdr[0])
	}
	n := binary.BigEndian.Uint32(hdr[1:])
	if n > maxClipboardLen {
		return "", fmt.Errorf("clipboard response too large: %d", n)
	}
	text := make([]byte, n)
	if _, err := io.ReadFull(r, text); err != nil {
		return "", fmt.Errorf("read clipboard text: %w", err)
	}
	return string(text), nil
}

const maxClipboardLen = 1 << 20

// Greeting framing: after accepting the video channel the server sends one
// dummy byte, then a null-padded device name, then the initial resolution.
const DeviceNameLen = 64

// ReadDummyByte consumes the single synchronization byte the server emits
// once it is up.
func ReadDummyByte(r io.Reader) error {
	var b [1]byte
	if n, err := r.Read(b[:]); n == 0 {
		if err == nil {
			err = io.EOF
		}
		return fmt.Errorf("read dummy byte: %w", err)
	}
	return nil
}

// ReadDeviceName reads the 64-byte device name field and strips the trailing
// null padding. A short read is a framing error; the caller decides what an
// empty name means.
func ReadDeviceName(r io.Reader) (string, error) {
	buf := make([]byte, DeviceNameLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read device name: %w", err)
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}

// ReadResolution reads the initial frame size: two big-endian u16 values.
func ReadResolution(r io.Reader) (width, height uint16, err error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, 0, fmt.Errorf("read resolution: %w", err)
	}
	return binary.BigEndian.Uint16(buf[0:2]), binary.BigEndian.Uint16(buf[2:4]), nil
}
