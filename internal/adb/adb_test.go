package adb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDevices(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []string
	}{
		{
			name: "single device",
			out:  "List of devices attached\nemulator-5554\tdevice\n\n",
			want: []string{"emulator-5554"},
		},
		{
			name: "multiple devices",
			out:  "List of devices attached\nabc123\tdevice\ndef456\tdevice\n",
			want: []string{"abc123", "def456"},
		},
		{
			name: "offline and unauthorized excluded",
			out:  "List of devices attached\nabc123\toffline\ndef456\tunauthorized\nghi789\tdevice\n",
			want: []string{"ghi789"},
		},
		{
			name: "no devices",
			out:  "List of devices attached\n\n",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDevices(tt.out))
		})
	}
}

func TestDeviceCommandPrependsSerial(t *testing.T) {
	d := &Device{Serial: "abc123"}
	cmd := d.command("shell", "ls")
	assert.Equal(t, []string{"adb", "-s", "abc123", "shell", "ls"}, cmd.Args)

	anon := &Device{}
	cmd = anon.command("devices")
	assert.Equal(t, []string{"adb", "devices"}, cmd.Args)
}
