package client

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/peterje/mirrorctl/internal/h264"
)

const readChunk = 64 * 1024

// streamLoop is the demux loop: pull bytes off the video socket, cut access
// units, decode, publish. It runs until the alive flag clears or a hard I/O
// error occurs while still alive.
//
// The socket is effectively non-blocking: each read carries a short deadline
// (idleWait) so the loop wakes at a steady cadence even with no data, without
// busy-spinning. A timed-out read is the would-block case.
func (s *Session) streamLoop() error {
	parser := h264.NewParser()
	buf := make([]byte, readChunk)

	for s.alive.Load() {
		s.video.SetReadDeadline(time.Now().Add(s.idleWait))
		n, err := s.video.Read(buf)

		if n > 0 {
			for _, pkt := range parser.Feed(buf[:n]) {
				s.handlePacket(pkt)
			}
			continue
		}

		if err == nil {
			continue
		}
		if isTimeout(err) {
			// No data yet. In non-blocking delivery mode every frame
			// listener still gets a tick so callers can drive their own
			// render cadence.
			if !s.opts.BlockFrame {
				for _, fn := range s.snapshotFrame() {
					fn(s, nil)
				}
			}
			continue
		}
		if !s.alive.Load() {
			// Stop closed the socket under us; expected.
			return nil
		}
		return fmt.Errorf("video stream: %w", err)
	}
	return nil
}

func (s *Session) handlePacket(pkt h264.Packet) {
	s.publishPacket(pkt)

	frames, err := s.decoder.Decode(pkt)
	if err != nil {
		// An unrecoverable unit is skipped, not fatal; the decoder resyncs
		// on the next keyframe.
		log.Printf("client: decode: %v", err)
		return
	}
	for i := range frames {
		f := &frames[i]
		s.storeFrame(f)
		for _, fn := range s.snapshotFrame() {
			fn(s, f)
		}
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
