// Package tunnel exposes a running session to a remote controller over a
// single websocket. yamux multiplexes the socket into independent streams: a
// video stream carrying the elementary stream outward, and control streams
// carrying input records inward.
package tunnel

import (
	"log"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/yamux"

	"github.com/peterje/mirrorctl/internal/client"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server serves one session to any number of remote controllers.
type Server struct {
	sess *client.Session
}

func NewServer(sess *client.Session) *Server {
	return &Server{sess: sess}
}

// ServeHTTP upgrades the request and multiplexes tunnel streams until the
// remote goes away.
func (t *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("tunnel: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// The remote is the yamux client; it opens streams toward us.
	mux, err := yamux.Server(newWSConn(conn), yamux.DefaultConfig())
	if err != nil {
		log.Printf("tunnel: yamux: %v", err)
		return
	}
	defer mux.Close()

	log.Printf("tunnel: remote connected (%s)", r.RemoteAddr)
	for {
		stream, err := mux.Accept()
		if err != nil {
			log.Printf("tunnel: remote gone (%s): %v", r.RemoteAddr, err)
			return
		}
		go t.handleStream(stream)
	}
}

func (t *Server) handleStream(stream net.Conn) {
	defer stream.Close()

	var role [1]byte
	if _, err := stream.Read(role[:]); err != nil {
		log.Printf("tunnel: read role: %v", err)
		return
	}

	switch role[0] {
	case streamVideo:
		t.serveVideo(stream)
	case streamControl:
		t.serveControl(stream)
	default:
		log.Printf("tunnel: unknown stream role 0x%02x", role[0])
	}
}

// serveVideo forwards access units until the subscription or the stream dies.
func (t *Server) serveVideo(stream net.Conn) {
	packets, unsub := t.sess.SubscribePackets()
	defer unsub()

	for pkt := range packets {
		if err := writeChunk(stream, pkt); err != nil {
			return
		}
	}
}

// serveControl forwards control records verbatim into the session's control
// channel. Record atomicity is the controller's problem, not ours.
func (t *Server) serveControl(stream net.Conn) {
	ctrl := t.sess.Controller()
	if ctrl == nil {
		log.Printf("tunnel: control stream before session start")
		return
	}
	for {
		record, err := readChunk(stream)
		if err != nil {
			return
		}
		if err := ctrl.SendRaw(record); err != nil {
			log.Printf("tunnel: forward control record: %v", err)
			return
		}
	}
}
