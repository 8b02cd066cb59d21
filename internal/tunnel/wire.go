package tunnel

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Stream roles. A remote controller opens a yamux stream and sends one role
// byte; the rest of the stream is role-specific.
const (
	// streamVideo: server -> remote, length-prefixed access units.
	streamVideo byte = 0x01
	// streamControl: remote -> server, length-prefixed control records
	// forwarded verbatim to the device.
	streamControl byte = 0x02
)

const maxChunk = 10 * 1024 * 1024 // sanity limit

// Chunks on a tunnel stream are [4-byte big-endian length][payload].

func writeChunk(w io.Writer, payload []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(payload))); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

func readChunk(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, fmt.Errorf("empty chunk")
	}
	if length > maxChunk {
		return nil, fmt.Errorf("chunk too large: %d", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
