package tunnel

import (
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/yamux"

	"github.com/peterje/mirrorctl/internal/h264"
	"github.com/peterje/mirrorctl/internal/protocol"
)

// Remote is the controller side of a tunnel: it dials the serving host and
// opens streams on demand.
type Remote struct {
	mux *yamux.Session
}

// Dial connects to a tunnel server at the given websocket URL.
func Dial(url string) (*Remote, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial tunnel: %w", err)
	}
	mux, err := yamux.Client(newWSConn(conn), yamux.DefaultConfig())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("yamux client: %w", err)
	}
	return &Remote{mux: mux}, nil
}

func (r *Remote) Close() error {
	return r.mux.Close()
}

// OpenVideo starts a video stream and returns a channel of access units. The
// channel closes when the stream or the tunnel drops.
func (r *Remote) OpenVideo() (<-chan h264.Packet, error) {
	stream, err := r.mux.Open()
	if err != nil {
		return nil, fmt.Errorf("open video stream: %w", err)
	}
	if _, err := stream.Write([]byte{streamVideo}); err != nil {
		stream.Close()
		return nil, fmt.Errorf("write stream role: %w", err)
	}

	out := make(chan h264.Packet, 256)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			chunk, err := readChunk(stream)
			if err != nil {
				return
			}
			out <- h264.Packet(chunk)
		}
	}()
	return out, nil
}

// OpenControl starts a control stream for injecting input remotely.
func (r *Remote) OpenControl() (*RemoteControl, error) {
	stream, err := r.mux.Open()
	if err != nil {
		return nil, fmt.Errorf("open control stream: %w", err)
	}
	if _, err := stream.Write([]byte{streamControl}); err != nil {
		stream.Close()
		return nil, fmt.Errorf("write stream role: %w", err)
	}
	return &RemoteControl{stream: stream}, nil
}

// RemoteControl sends control commands through the tunnel. Not safe for
// concurrent use; open one stream per sender.
type RemoteControl struct {
	stream net.Conn
}

// Send encodes the command and ships its record through the tunnel.
func (c *RemoteControl) Send(cmd protocol.Command) error {
	return writeChunk(c.stream, protocol.Marshal(cmd))
}

func (c *RemoteControl) Close() error {
	return c.stream.Close()
}
