package h264

import "bytes"

// NAL unit types we care about for stream handling.
const (
	NALTypeIDR = 5
	NALTypeSPS = 7
	NALTypePPS = 8
)

// Packet is one complete Annex-B NAL unit, start code included.
type Packet []byte

// Type returns the NAL unit type, or 0 if the packet is malformed.
func (p Packet) Type() byte {
	i := startCodeLen(p)
	if i == 0 || len(p) <= i {
		return 0
	}
	return p[i] & 0x1f
}

// IsConfig reports whether the packet carries codec configuration (SPS/PPS).
func (p Packet) IsConfig() bool {
	t := p.Type()
	return t == NALTypeSPS || t == NALTypePPS
}

// IsKeyFrame reports whether the packet is an IDR slice.
func (p Packet) IsKeyFrame() bool {
	return p.Type() == NALTypeIDR
}

func startCodeLen(b []byte) int {
	if len(b) >= 4 && b[0] == 0 && b[1] == 0 && b[2] == 0 && b[3] == 1 {
		return 4
	}
	if len(b) >= 3 && b[0] == 0 && b[1] == 0 && b[2] == 1 {
		return 3
	}
	return 0
}

// Parser splits a raw H.264 elementary byte stream into complete NAL units.
// Feed may be called with arbitrary chunk boundaries; incomplete trailing
// units are buffered until the next start code arrives.
type Parser struct {
	pending []byte
}

func NewParser() *Parser {
	return &Parser{}
}

// Feed appends raw bytes and returns every complete NAL unit cut so far.
func (p *Parser) Feed(data []byte) []Packet {
	p.pending = append(p.pending, data...)

	start := findStartCode(p.pending, 0)
	if start < 0 {
		// No start code yet, keep buffering.
		return nil
	}

	var pkts []Packet
	for {
		sc := 3
		if start+4 <= len(p.pending) && p.pending[start+2] == 0 {
			sc = 4
		}
		next := findStartCode(p.pending, start+sc)
		if next < 0 {
			break
		}
		pkt := make(Packet, next-start)
		copy(pkt, p.pending[start:next])
		pkts = append(pkts, pkt)
		start = next
	}

	// Retain the trailing partial unit for the next Feed.
	p.pending = append(p.pending[:0], p.pending[start:]...)
	return pkts
}

func findStartCode(b []byte, from int) int {
	idx := bytes.Index(b[from:], []byte{0, 0, 1})
	if idx < 0 {
		return -1
	}
	at := from + idx
	// Prefer the 4-byte form when the preceding byte is also zero.
	if at > from && b[at-1] == 0 {
		at--
	}
	return at
}
