// Package client implements the session layer of the mirroring protocol:
// server deployment and handshake, the video demux loop, and the control
// command channel.
package client

import (
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/peterje/mirrorctl/internal/h264"
)

// State is the session lifecycle position. There is no way back to
// StateCreated; a stopped session cannot be restarted.
type State int

const (
	StateCreated State = iota
	StateStarted
	StateStopped
)

// InitHandler runs once after a successful handshake.
type InitHandler func(*Session)

// FrameHandler runs for every decoded frame. In non-blocking delivery mode it
// also runs with a nil frame on every idle loop iteration.
type FrameHandler func(*Session, *h264.Frame)

// Session drives one connection to the on-device server. Construct with New,
// run with Start, tear down with Stop. A session is single-use.
type Session struct {
	ID uuid.UUID

	opts      Options
	transport Transport
	decoder   h264.Decoder
	dial      dialPolicy
	idleWait  time.Duration

	mu    sync.Mutex
	state State

	// alive is the loop's sole shutdown signal. Single writer: Stop (or the
	// loop itself on a fatal error, via Stop).
	alive atomic.Bool

	video   net.Conn
	control net.Conn
	shell   io.ReadCloser

	controller *Controller

	// Listener lists are append-only and fire in registration order. A
	// handler registered twice fires twice.
	listenerMu    sync.Mutex
	initHandlers  []InitHandler
	frameHandlers []FrameHandler

	// Packet subscribers receive raw access units ahead of decoding, for
	// relays that forward the elementary stream.
	subMu       sync.Mutex
	subscribers map[chan h264.Packet]struct{}

	// Most recent decoded frame and its geometry. Written only by the demux
	// loop; the cell is overwritten, never appended.
	frameMu   sync.Mutex
	lastFrame *h264.Frame
	info      DeviceInfo
}

// New builds a session over the given transport. decoder may be
// h264.NopDecoder for callers that only relay packets.
func New(t Transport, decoder h264.Decoder, opts Options) (*Session, error) {
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Session{
		ID:          uuid.New(),
		opts:        opts,
		transport:   t,
		decoder:     decoder,
		dial:        defaultDialPolicy,
		idleWait:    10 * time.Millisecond,
		subscribers: make(map[chan h264.Packet]struct{}),
	}, nil
}

// Start deploys the server, performs the handshake, fires init listeners and
// runs the demux loop. With threaded=false the caller blocks until the loop
// exits and receives its error; with threaded=true the loop runs on its own
// goroutine and Start returns once the session is live.
//
// On handshake failure the session stays in StateCreated with every
// half-opened resource closed; it still cannot be restarted.
func (s *Session) Start(threaded bool) error {
	s.mu.Lock()
	if s.state != StateCreated {
		s.mu.Unlock()
		return ErrNotCreated
	}
	s.mu.Unlock()

	est, err := establish(s.transport, &s.opts, s.dial)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.video = est.video
	s.control = est.control
	s.shell = est.shell
	s.controller = &Controller{sess: s, w: est.control}
	s.state = StateStarted
	s.mu.Unlock()

	s.frameMu.Lock()
	s.info = est.info
	s.frameMu.Unlock()

	s.alive.Store(true)

	for _, fn := range s.snapshotInit() {
		fn(s)
	}

	if threaded {
		go func() {
			if err := s.run(); err != nil {
				log.Printf("client: session %s: %v", s.ID, err)
			}
		}()
		return nil
	}
	return s.run()
}

func (s *Session) run() error {
	err := s.streamLoop()
	s.Stop()
	s.closeSubscribers()
	return err
}

// Stop clears the alive flag and closes the shell stream, control socket and
// video socket, each independently so one failed close cannot leak the
// others. Safe to call more than once, and before Start.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.state = StateStopped
	shell, control, video := s.shell, s.control, s.video
	s.mu.Unlock()

	s.alive.Store(false)
	if shell != nil {
		shell.Close()
	}
	if control != nil {
		control.Close()
	}
	if video != nil {
		video.Close()
	}
}

// Alive reports whether the session is in StateStarted.
func (s *Session) Alive() bool {
	return s.alive.Load()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Controller returns the control command sender. Nil before a successful
// Start.
func (s *Session) Controller() *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller
}

// OnInit registers a handler fired once after the handshake, in registration
// order. Registration is allowed in any state but does not fire
// retroactively.
func (s *Session) OnInit(fn InitHandler) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.initHandlers = append(s.initHandlers, fn)
}

// OnFrame registers a handler fired for every decoded frame, in registration
// order.
func (s *Session) OnFrame(fn FrameHandler) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.frameHandlers = append(s.frameHandlers, fn)
}

func (s *Session) snapshotInit() []InitHandler {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	return append([]InitHandler(nil), s.initHandlers...)
}

func (s *Session) snapshotFrame() []FrameHandler {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	return append([]FrameHandler(nil), s.frameHandlers...)
}

// SubscribePackets returns a channel of raw access units and an unsubscribe
// function. Slow subscribers drop packets rather than stalling the demux
// loop. The channel closes when the loop exits.
func (s *Session) SubscribePackets() (<-chan h264.Packet, func()) {
	ch := make(chan h264.Packet, 256)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	unsub := func() {
		s.subMu.Lock()
		delete(s.subscribers, ch)
		s.subMu.Unlock()
	}
	return ch, unsub
}

func (s *Session) publishPacket(pkt h264.Packet) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- pkt:
		default:
			// Slow subscriber, drop.
		}
	}
}

func (s *Session) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, ch)
	}
}

// LastFrame returns the most recent decoded frame, or nil before the first
// one. The one guarantee is "most recent value at the time of the read".
func (s *Session) LastFrame() *h264.Frame {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return s.lastFrame
}

// Resolution returns the current frame geometry. Before streaming begins this
// is the handshake value; afterwards it tracks decoded frames.
func (s *Session) Resolution() (width, height uint16) {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return s.info.Width, s.info.Height
}

// DeviceName returns the device name reported in the handshake.
func (s *Session) DeviceName() string {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return s.info.Name
}

func (s *Session) storeFrame(f *h264.Frame) {
	s.frameMu.Lock()
	s.lastFrame = f
	s.info.Width = uint16(f.Width)
	s.info.Height = uint16(f.Height)
	s.frameMu.Unlock()
}
