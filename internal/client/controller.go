package client

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/peterje/mirrorctl/internal/protocol"
)

// Controller writes control records to the device. Safe for concurrent use:
// one mutex scopes the full write of a record, so records from different
// callers never interleave on the wire.
type Controller struct {
	sess *Session
	mu   sync.Mutex
	w    io.ReadWriter
}

// Send serializes one command and writes its record atomically.
func (c *Controller) Send(cmd protocol.Command) error {
	return c.sendRaw(protocol.Marshal(cmd))
}

// SendRaw writes an already-encoded control record under the same lock as
// Send. Used by relays forwarding records verbatim.
func (c *Controller) SendRaw(record []byte) error {
	return c.sendRaw(record)
}

func (c *Controller) sendRaw(record []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.Write(record); err != nil {
		return fmt.Errorf("send control record: %w", err)
	}
	return nil
}

// Keycode injects a key event.
func (c *Controller) Keycode(keycode uint32, action uint8, repeat uint32) error {
	return c.Send(protocol.InjectKeycode{
		Action:  action,
		Keycode: keycode,
		Repeat:  repeat,
	})
}

// Text injects a UTF-8 string as if typed.
func (c *Controller) Text(text string) error {
	return c.Send(protocol.InjectText{Text: text})
}

// Touch injects a touch event at device coordinates. The current resolution
// rides along in the record so the server can scale.
func (c *Controller) Touch(x, y int, action uint8) error {
	w, h := c.sess.Resolution()
	return c.Send(protocol.InjectTouch{
		Action:       action,
		PointerID:    protocol.VirtualPointerID,
		X:            uint32(x),
		Y:            uint32(y),
		ScreenWidth:  w,
		ScreenHeight: h,
		Pressure:     protocol.PressureMax,
		Buttons:      1,
	})
}

// Scroll injects a scroll event at device coordinates with the given
// horizontal and vertical distances.
func (c *Controller) Scroll(x, y int, hscroll, vscroll int32) error {
	w, h := c.sess.Resolution()
	return c.Send(protocol.InjectScroll{
		X:            uint32(x),
		Y:            uint32(y),
		ScreenWidth:  w,
		ScreenHeight: h,
		HScroll:      hscroll,
		VScroll:      vscroll,
	})
}

// Swipe presses at (x0,y0), moves toward (x1,y1) in steps of stepLen pixels
// pausing stepDelay between moves, then releases.
func (c *Controller) Swipe(x0, y0, x1, y1, stepLen int, stepDelay time.Duration) error {
	if err := c.Touch(x0, y0, protocol.ActionDown); err != nil {
		return err
	}
	x, y := x0, y0
	for x != x1 || y != y1 {
		x = stepToward(x, x1, stepLen)
		y = stepToward(y, y1, stepLen)
		if err := c.Touch(x, y, protocol.ActionMove); err != nil {
			return err
		}
		time.Sleep(stepDelay)
	}
	return c.Touch(x1, y1, protocol.ActionUp)
}

func stepToward(from, to, step int) int {
	switch {
	case from < to:
		if from+step > to {
			return to
		}
		return from + step
	case from > to:
		if from-step < to {
			return to
		}
		return from - step
	default:
		return from
	}
}

// BackOrScreenOn presses back, or wakes the screen when it is off.
func (c *Controller) BackOrScreenOn() error {
	return c.Send(protocol.BackOrScreenOn{})
}

// ExpandNotificationPanel pulls down the notification shade.
func (c *Controller) ExpandNotificationPanel() error {
	return c.Send(protocol.ExpandNotificationPanel{})
}

// ExpandSettingsPanel pulls down the quick settings panel.
func (c *Controller) ExpandSettingsPanel() error {
	return c.Send(protocol.ExpandSettingsPanel{})
}

// CollapsePanels closes any open panel.
func (c *Controller) CollapsePanels() error {
	return c.Send(protocol.CollapsePanels{})
}

// GetClipboard requests the device clipboard and waits for the reply on the
// control channel. The lock is held across the round trip so a concurrent
// Send cannot slip between request and response.
func (c *Controller) GetClipboard() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.Write(protocol.Marshal(protocol.GetClipboard{})); err != nil {
		return "", fmt.Errorf("request clipboard: %w", err)
	}
	return protocol.ReadClipboardResponse(c.w)
}

// SetClipboard replaces the device clipboard. With paste set the server also
// injects a paste action.
func (c *Controller) SetClipboard(text string, paste bool) error {
	return c.Send(protocol.SetClipboard{Paste: paste, Text: text})
}

// SetScreenPowerMode toggles the display, protocol.PowerModeOff or
// protocol.PowerModeNormal.
func (c *Controller) SetScreenPowerMode(mode uint8) error {
	return c.Send(protocol.SetScreenPowerMode{Mode: mode})
}

// RotateDevice rotates the screen by 90 degrees.
func (c *Controller) RotateDevice() error {
	return c.Send(protocol.RotateDevice{})
}
