package client

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/peterje/mirrorctl/internal/h264"
)

// fakeTransport scripts the device side of a session. Connect hands back the
// client end of a pipe and delivers the server end on accepted, in accept
// order: first the video channel, then the control channel.
type fakeTransport struct {
	mu        sync.Mutex
	failDials int
	connects  int
	pushes    [][2]string
	shells    [][]string

	accepted chan net.Conn
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{accepted: make(chan net.Conn, 4)}
}

func (f *fakeTransport) Connect(name string) (net.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.failDials > 0 {
		f.failDials--
		return nil, errors.New("connection refused")
	}
	c, s := net.Pipe()
	f.accepted <- s
	return c, nil
}

func (f *fakeTransport) Push(local, remote string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, [2]string{local, remote})
	return nil
}

func (f *fakeTransport) Shell(args ...string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shells = append(f.shells, args)
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (f *fakeTransport) connectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

// greet writes the server greeting on the video channel's device end.
func greet(conn net.Conn, name string, width, height uint16) {
	conn.Write([]byte{0x00})
	padded := make([]byte, 64)
	copy(padded, name)
	conn.Write(padded)
	var res [4]byte
	binary.BigEndian.PutUint16(res[0:2], width)
	binary.BigEndian.PutUint16(res[2:4], height)
	conn.Write(res[:])
}

// serveGreeting runs the device side of a successful handshake in the
// background and returns the video and control device ends.
func serveGreeting(t *fakeTransport, name string, width, height uint16) (video, control chan net.Conn) {
	video = make(chan net.Conn, 1)
	control = make(chan net.Conn, 1)
	go func() {
		v := <-t.accepted
		greet(v, name, width, height)
		video <- v
		control <- <-t.accepted
	}()
	return video, control
}

func newTestSession(t *fakeTransport, dec h264.Decoder, opts Options) *Session {
	s, err := New(t, dec, opts)
	if err != nil {
		panic(err)
	}
	// Tight timings so tests run fast.
	s.dial = dialPolicy{attempts: 3, interval: time.Millisecond}
	s.idleWait = time.Millisecond
	return s
}

// markerDecoder turns each access unit into one 1x1 frame whose pixel is the
// unit's final payload byte, so tests can assert delivery order.
type markerDecoder struct{}

func (markerDecoder) Decode(pkt h264.Packet) ([]h264.Frame, error) {
	return []h264.Frame{{Width: 1, Height: 1, Pix: []byte{pkt[len(pkt)-1]}}}, nil
}

func annexB(payload ...byte) []byte {
	return append([]byte{0, 0, 0, 1}, payload...)
}
