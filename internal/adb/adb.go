// Package adb drives the adb binary: device discovery, file push, streamed
// shell execution, and TCP access to abstract unix sockets on the device via
// adb forward.
package adb

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Check verifies that the adb binary is on PATH and answers.
func Check(ctx context.Context) error {
	if err := exec.CommandContext(ctx, "adb", "version").Run(); err != nil {
		return errors.New("adb not found (install platform-tools and add it to PATH)")
	}
	return nil
}

// WaitDevice blocks until any device is online or the timeout expires.
func WaitDevice(ctx context.Context, timeout time.Duration) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return exec.CommandContext(tctx, "adb", "wait-for-any-device").Run()
}

// Devices returns the serials of all online devices.
func Devices(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, "adb", "devices").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w", err)
	}
	return parseDevices(string(out)), nil
}

func parseDevices(out string) []string {
	var serials []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasSuffix(line, "\tdevice") {
			serials = append(serials, strings.Split(line, "\t")[0])
		}
	}
	return serials
}

// Device is one attached device addressed by serial.
type Device struct {
	Serial string
}

// FirstDevice returns the first online device, or an error if none are.
func FirstDevice(ctx context.Context) (*Device, error) {
	serials, err := Devices(ctx)
	if err != nil {
		return nil, err
	}
	if len(serials) == 0 {
		return nil, errors.New("no online devices (check adb devices)")
	}
	return &Device{Serial: serials[0]}, nil
}

func (d *Device) command(args ...string) *exec.Cmd {
	full := make([]string, 0, len(args)+2)
	if d.Serial != "" {
		full = append(full, "-s", d.Serial)
	}
	full = append(full, args...)
	return exec.Command("adb", full...)
}

// Push copies a local file to the device.
func (d *Device) Push(local, remote string) error {
	out, err := d.command("push", local, remote).CombinedOutput()
	if err != nil {
		return fmt.Errorf("adb push %s: %v: %s", local, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// forward asks adb to allocate a local TCP port forwarded to the named
// abstract socket on the device. Port 0 makes the adb server pick one; it
// prints the chosen port on stdout.
func (d *Device) forward(name string) (int, error) {
	out, err := d.command("forward", "tcp:0", "localabstract:"+name).Output()
	if err != nil {
		return 0, fmt.Errorf("adb forward localabstract:%s: %w", name, err)
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("adb forward: unexpected output %q", strings.TrimSpace(string(out)))
	}
	return port, nil
}

func (d *Device) removeForward(port int) {
	_ = d.command("forward", "--remove", "tcp:"+strconv.Itoa(port)).Run()
}
