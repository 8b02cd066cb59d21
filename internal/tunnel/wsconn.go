package tunnel

import (
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

// wsConn adapts a websocket connection to io.ReadWriteCloser so yamux can
// multiplex over it. Each Write ships one binary message; Read drains
// messages sequentially, so a message larger than the caller's slice is
// consumed over several calls.
type wsConn struct {
	conn *websocket.Conn

	wmu sync.Mutex
	// msg is the reader for the message currently being drained, nil between
	// messages.
	msg io.Reader
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (w *wsConn) Read(p []byte) (int, error) {
	for {
		if w.msg == nil {
			_, r, err := w.conn.NextReader()
			if err != nil {
				return 0, err
			}
			w.msg = r
		}
		n, err := w.msg.Read(p)
		if err == io.EOF {
			w.msg = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, err
	}
}

func (w *wsConn) Write(p []byte) (int, error) {
	w.wmu.Lock()
	defer w.wmu.Unlock()
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

var _ io.ReadWriteCloser = (*wsConn)(nil)
