package h264

// Frame is one decoded picture in packed BGR order, 8 bits per channel,
// len(Pix) == Width*Height*3.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// Decoder turns parsed access units into displayable frames. Implementations
// wrap an actual H.264 decoder (ffmpeg bindings, hardware decode, ...); this
// package deliberately does not link one.
type Decoder interface {
	// Decode consumes one access unit and returns zero or more frames.
	// A decoder may buffer internally and emit frames on a later call.
	Decode(pkt Packet) ([]Frame, error)
}

// NopDecoder discards every access unit. Useful when a caller only relays the
// elementary stream and never needs pixels.
type NopDecoder struct{}

func (NopDecoder) Decode(Packet) ([]Frame, error) { return nil, nil }

var _ Decoder = NopDecoder{}
