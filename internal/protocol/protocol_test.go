package protocol

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_TableDriven(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		expected []byte
	}{
		{
			name: "inject keycode",
			cmd:  InjectKeycode{Action: ActionDown, Keycode: KeycodeEnter, Repeat: 0, MetaState: 0},
			expected: []byte{
				0x00,                   // tag
				0x00,                   // action down
				0x00, 0x00, 0x00, 0x42, // keycode 66
				0x00, 0x00, 0x00, 0x00, // repeat
				0x00, 0x00, 0x00, 0x00, // metastate
			},
		},
		{
			name: "inject text",
			cmd:  InjectText{Text: "hi"},
			expected: []byte{
				0x01,                   // tag
				0x00, 0x00, 0x00, 0x02, // length
				'h', 'i',
			},
		},
		{
			name: "scroll",
			cmd: InjectScroll{
				X: 10, Y: 20, ScreenWidth: 1080, ScreenHeight: 1920,
				HScroll: -1, VScroll: 1,
			},
			expected: []byte{
				0x03,
				0x00, 0x00, 0x00, 0x0a,
				0x00, 0x00, 0x00, 0x14,
				0x04, 0x38,
				0x07, 0x80,
				0xff, 0xff, 0xff, 0xff,
				0x00, 0x00, 0x00, 0x01,
			},
		},
		{
			name:     "back or screen on is tag only",
			cmd:      BackOrScreenOn{},
			expected: []byte{0x04},
		},
		{
			name:     "expand notification panel",
			cmd:      ExpandNotificationPanel{},
			expected: []byte{0x05},
		},
		{
			name:     "collapse panels",
			cmd:      CollapsePanels{},
			expected: []byte{0x07},
		},
		{
			name:     "get clipboard",
			cmd:      GetClipboard{},
			expected: []byte{0x08},
		},
		{
			name: "set clipboard with paste",
			cmd:  SetClipboard{Paste: true, Text: "ok"},
			expected: []byte{
				0x09,
				0x01,
				0x00, 0x00, 0x00, 0x02,
				'o', 'k',
			},
		},
		{
			name:     "screen power off",
			cmd:      SetScreenPowerMode{Mode: PowerModeOff},
			expected: []byte{0x0a, 0x00},
		},
		{
			name:     "rotate device",
			cmd:      RotateDevice{},
			expected: []byte{0x0b},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Marshal(tt.cmd))
		})
	}
}

// A touch-down record decoded per the documented layout must recover the
// original field values.
func TestMarshalTouchRoundTrip(t *testing.T) {
	cmd := InjectTouch{
		Action:       ActionDown,
		PointerID:    0,
		X:            100,
		Y:            200,
		ScreenWidth:  1080,
		ScreenHeight: 1920,
		Pressure:     PressureMax,
		Buttons:      1,
	}
	rec := Marshal(cmd)
	require.Len(t, rec, 28)

	assert.Equal(t, TypeInjectTouch, rec[0])
	assert.Equal(t, cmd.Action, rec[1])
	assert.Equal(t, cmd.PointerID, binary.BigEndian.Uint64(rec[2:10]))
	assert.Equal(t, cmd.X, binary.BigEndian.Uint32(rec[10:14]))
	assert.Equal(t, cmd.Y, binary.BigEndian.Uint32(rec[14:18]))
	assert.Equal(t, cmd.ScreenWidth, binary.BigEndian.Uint16(rec[18:20]))
	assert.Equal(t, cmd.ScreenHeight, binary.BigEndian.Uint16(rec[20:22]))
	assert.Equal(t, cmd.Pressure, binary.BigEndian.Uint16(rec[22:24]))
	assert.Equal(t, cmd.Buttons, binary.BigEndian.Uint32(rec[24:28]))
}

func TestMarshalVirtualPointer(t *testing.T) {
	rec := Marshal(InjectTouch{PointerID: VirtualPointerID})
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 8), rec[2:10])
}

func TestReadDeviceName(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
		wantErr  bool
	}{
		{
			name:     "null padding stripped",
			input:    append([]byte("Pixel 4"), make([]byte, DeviceNameLen-7)...),
			expected: "Pixel 4",
		},
		{
			name:     "full-width name",
			input:    bytes.Repeat([]byte{'x'}, DeviceNameLen),
			expected: strings.Repeat("x", DeviceNameLen),
		},
		{
			name:     "all nulls trims to empty",
			input:    make([]byte, DeviceNameLen),
			expected: "",
		},
		{
			name:    "short read is an error",
			input:   []byte("Pixel"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadDeviceName(bytes.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReadResolution(t *testing.T) {
	w, h, err := ReadResolution(bytes.NewReader([]byte{0x04, 0x38, 0x07, 0x80}))
	require.NoError(t, err)
	assert.Equal(t, uint16(1080), w)
	assert.Equal(t, uint16(1920), h)

	_, _, err = ReadResolution(bytes.NewReader([]byte{0x04, 0x38}))
	require.Error(t, err)
}

func TestReadDummyByte(t *testing.T) {
	require.NoError(t, ReadDummyByte(bytes.NewReader([]byte{0x00})))
	require.Error(t, ReadDummyByte(bytes.NewReader(nil)))
}

func TestReadClipboardResponse(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0)
	binary.Write(&buf, binary.BigEndian, uint32(5))
	buf.WriteString("hello")

	text, err := ReadClipboardResponse(&buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = ReadClipboardResponse(bytes.NewReader([]byte{7, 0, 0, 0, 0}))
	require.Error(t, err)
}
