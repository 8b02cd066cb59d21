package h264

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nal(nalType byte, payload ...byte) []byte {
	return append([]byte{0, 0, 0, 1, nalType}, payload...)
}

func TestParserCutsCompleteUnits(t *testing.T) {
	p := NewParser()

	stream := append(nal(0x67, 1), nal(0x68, 2)...)
	stream = append(stream, nal(0x65, 3)...)

	pkts := p.Feed(stream)
	// The last unit has no following start code yet, so it stays pending.
	require.Len(t, pkts, 2)
	assert.Equal(t, Packet(nal(0x67, 1)), pkts[0])
	assert.Equal(t, Packet(nal(0x68, 2)), pkts[1])

	// The next start code releases it.
	pkts = p.Feed(nal(0x61, 4))
	require.Len(t, pkts, 1)
	assert.Equal(t, Packet(nal(0x65, 3)), pkts[0])
}

func TestParserHandlesArbitraryChunking(t *testing.T) {
	p := NewParser()
	stream := append(nal(0x67, 1, 2, 3), nal(0x65, 4, 5, 6)...)
	stream = append(stream, nal(0x61)...)

	// Feed one byte at a time; the cut points must not depend on chunking.
	var pkts []Packet
	for _, b := range stream {
		pkts = append(pkts, p.Feed([]byte{b})...)
	}
	require.Len(t, pkts, 2)
	assert.Equal(t, Packet(nal(0x67, 1, 2, 3)), pkts[0])
	assert.Equal(t, Packet(nal(0x65, 4, 5, 6)), pkts[1])
}

func TestParserThreeByteStartCode(t *testing.T) {
	p := NewParser()
	stream := []byte{0, 0, 1, 0x67, 9, 0, 0, 1, 0x68, 8, 0, 0, 0, 1, 0x65}
	pkts := p.Feed(stream)
	require.Len(t, pkts, 2)
	assert.Equal(t, Packet([]byte{0, 0, 1, 0x67, 9}), pkts[0])
	assert.Equal(t, Packet([]byte{0, 0, 1, 0x68, 8}), pkts[1])
}

func TestParserSkipsLeadingGarbage(t *testing.T) {
	p := NewParser()
	stream := append([]byte{0xde, 0xad}, nal(0x67)...)
	stream = append(stream, nal(0x65)...)
	pkts := p.Feed(stream)
	require.Len(t, pkts, 1)
	assert.Equal(t, Packet(nal(0x67)), pkts[0])
}

func TestPacketType(t *testing.T) {
	tests := []struct {
		name       string
		pkt        Packet
		nalType    byte
		isConfig   bool
		isKeyFrame bool
	}{
		{"sps", Packet(nal(0x67)), NALTypeSPS, true, false},
		{"pps", Packet(nal(0x68)), NALTypePPS, true, false},
		{"idr", Packet(nal(0x65)), NALTypeIDR, false, true},
		{"non-idr slice", Packet(nal(0x61)), 1, false, false},
		{"malformed", Packet{0x00}, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.nalType, tt.pkt.Type())
			assert.Equal(t, tt.isConfig, tt.pkt.IsConfig())
			assert.Equal(t, tt.isKeyFrame, tt.pkt.IsKeyFrame())
		})
	}
}
