// Package opus adapts gopkg.in/hraban/opus.v2 to mixer.Decoder.
//
// The wire format here is intentionally simple: a stream of
// length-prefixed Opus packets (a 4-byte little-endian length followed
// by that many bytes of Opus data), at a fixed 48 kHz/stereo
// configuration. This mirrors how client/audio.go in the teacher repo
// consumes Opus — one NewDecoder, repeated Decode calls into a
// fixed-size int16 buffer — adapted from that repo's push model
// (frames arrive off a channel fed by the network) to the mixer's pull
// model (ReadAudio is called by the mixing callback).
package opus

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hearthscript/mixer/mixer"
	hopus "gopkg.in/hraban/opus.v2"
)

const (
	sampleRate  = 48000
	channels    = 2
	frameSize   = 960 // 20ms @ 48kHz stereo, matches the teacher's FrameSize
	lengthBytes = 4
)

// Factory is a mixer.DecoderFactory that opens streams with ext == "opus".
var Factory mixer.DecoderFactoryFunc = open

func open(source io.ReadSeeker, ext string) (mixer.Decoder, error) {
	if ext != "opus" {
		return nil, fmt.Errorf("opus: unsupported extension %q", ext)
	}
	dec, err := hopus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("opus: new decoder: %w", err)
	}
	return &decoder{source: source, dec: dec}, nil
}

type decoder struct {
	source io.ReadSeeker
	dec    *hopus.Decoder

	started bool
	eof     bool

	// pcm/leftover buffer the last partially-consumed decoded frame,
	// since a single Opus packet's 960 samples rarely line up exactly
	// with the caller's requested byte count.
	pcm      []int16
	leftover []int16
}

func (d *decoder) SetWindow(startSeconds, endSeconds float64) {
	// Not supported by the bare length-prefixed format: there is no
	// seek table. Out of scope per spec.md §1 (seeking is a decoder
	// concern); silently ignored like a decoder that doesn't support it.
}

func (d *decoder) WantVideo(mode int) {}

func (d *decoder) Start() {
	d.started = true
}

func (d *decoder) Pause(paused bool) {}

func (d *decoder) Close() {}

func (d *decoder) ReadAudio(out []byte) int {
	if !d.started {
		return 0
	}
	need := len(out) / 4
	written := 0

	for written < need {
		if len(d.leftover) == 0 {
			frame, ok := d.nextFrame()
			if !ok {
				break
			}
			d.leftover = frame
		}

		avail := len(d.leftover) / channels
		take := need - written
		if take > avail {
			take = avail
		}
		for i := 0; i < take; i++ {
			binary.LittleEndian.PutUint16(out[(written+i)*4:], uint16(d.leftover[i*channels]))
			binary.LittleEndian.PutUint16(out[(written+i)*4+2:], uint16(d.leftover[i*channels+1]))
		}
		d.leftover = d.leftover[take*channels:]
		written += take
	}

	return written * 4
}

// nextFrame reads one length-prefixed Opus packet and decodes it.
func (d *decoder) nextFrame() ([]int16, bool) {
	if d.eof {
		return nil, false
	}
	var lenBuf [lengthBytes]byte
	if _, err := io.ReadFull(d.source, lenBuf[:]); err != nil {
		d.eof = true
		return nil, false
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	packet := make([]byte, n)
	if _, err := io.ReadFull(d.source, packet); err != nil {
		d.eof = true
		return nil, false
	}

	if cap(d.pcm) < frameSize*channels {
		d.pcm = make([]int16, frameSize*channels)
	}
	pcm := d.pcm[:frameSize*channels]
	samples, err := d.dec.Decode(packet, pcm)
	if err != nil {
		d.eof = true
		return nil, false
	}
	return pcm[:samples*channels], true
}

func (d *decoder) ReadVideo() mixer.VideoFrame { return nil }
func (d *decoder) VideoReady() bool            { return false }
func (d *decoder) Duration() float64           { return 0 }
func (d *decoder) WaitReady()                  {}
