// Package broadcast re-broadcasts the device's H.264 elementary stream to
// websocket viewers. Each NAL unit goes out as one binary message; late
// joiners first receive the most recent SPS/PPS/IDR group so their decoder
// can start immediately.
package broadcast

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/peterje/mirrorctl/internal/h264"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Hub struct {
	mu      sync.Mutex
	viewers map[*websocket.Conn]struct{}

	// Last seen parameter sets and the keyframe group built from them.
	sps, pps h264.Packet
	gop      []h264.Packet
}

func NewHub() *Hub {
	return &Hub{viewers: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the request and streams NAL units until the viewer
// disconnects. Inbound messages are read and discarded to keep the
// connection's control frames flowing.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("broadcast: upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	replay := append([]h264.Packet(nil), h.gop...)
	h.mu.Unlock()

	log.Printf("broadcast: viewer connected (%s)", r.RemoteAddr)
	// Replay completes before the viewer joins the fan-out set, so Publish
	// never writes to this connection concurrently with the replay.
	for _, pkt := range replay {
		if err := conn.WriteMessage(websocket.BinaryMessage, pkt); err != nil {
			conn.Close()
			return
		}
	}

	h.mu.Lock()
	h.viewers[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.viewers, conn)
		h.mu.Unlock()
		conn.Close()
		log.Printf("broadcast: viewer disconnected (%s)", r.RemoteAddr)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish fans one access unit out to every viewer and maintains the GOP
// cache. Viewers that fail to accept the write are dropped.
func (h *Hub) Publish(pkt h264.Packet) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch pkt.Type() {
	case h264.NALTypeSPS:
		h.sps = pkt
	case h264.NALTypePPS:
		h.pps = pkt
	case h264.NALTypeIDR:
		// New group: parameter sets first, then the keyframe.
		h.gop = h.gop[:0]
		if len(h.sps) > 0 {
			h.gop = append(h.gop, h.sps)
		}
		if len(h.pps) > 0 {
			h.gop = append(h.gop, h.pps)
		}
		h.gop = append(h.gop, pkt)
	}

	for conn := range h.viewers {
		if err := conn.WriteMessage(websocket.BinaryMessage, pkt); err != nil {
			log.Printf("broadcast: write failed, dropping viewer: %v", err)
			conn.Close()
			delete(h.viewers, conn)
		}
	}
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}
