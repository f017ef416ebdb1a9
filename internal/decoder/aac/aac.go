// Package aac adapts github.com/llehouerou/go-aac's ADTS/AAC decoder to
// mixer.Decoder. Frame boundaries are recovered from each ADTS header's
// embedded frame length field, the same way any ADTS demuxer splits a
// raw .aac stream into decodable units.
package aac

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hearthscript/mixer/mixer"
	goaac "github.com/llehouerou/go-aac"
)

const adtsHeaderLen = 7

// Factory is a mixer.DecoderFactory that opens streams with ext == "aac".
var Factory mixer.DecoderFactoryFunc = open

func open(source io.ReadSeeker, ext string) (mixer.Decoder, error) {
	if ext != "aac" {
		return nil, fmt.Errorf("aac: unsupported extension %q", ext)
	}
	return &decoder{source: source, dec: goaac.NewDecoder()}, nil
}

type decoder struct {
	source io.ReadSeeker
	dec    *goaac.Decoder

	started bool
	eof     bool

	leftover []int16
}

func (d *decoder) SetWindow(startSeconds, endSeconds float64) {}

func (d *decoder) WantVideo(mode int) {}

func (d *decoder) Start() { d.started = true }

func (d *decoder) Pause(paused bool) {}

func (d *decoder) Close() { d.dec.Close() }

func (d *decoder) ReadAudio(out []byte) int {
	if !d.started {
		return 0
	}
	channels := int(d.dec.Channels())
	if channels == 0 {
		channels = 2
	}

	need := len(out) / 4
	written := 0

	for written < need {
		if len(d.leftover) == 0 {
			frame, ok := d.nextFrame(channels)
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
			l, r := stereoFrom(d.leftover, i, channels)
			binary.LittleEndian.PutUint16(out[(written+i)*4:], uint16(l))
			binary.LittleEndian.PutUint16(out[(written+i)*4+2:], uint16(r))
		}
		d.leftover = d.leftover[take*channels:]
		written += take
	}

	return written * 4
}

// stereoFrom reads frame i's samples from a possibly-mono decoded
// buffer, duplicating a mono source to both output channels per
// spec.md §4.1's "mono streams are duplicated to both output channels".
func stereoFrom(pcm []int16, i, channels int) (left, right int16) {
	if channels == 1 {
		v := pcm[i]
		return v, v
	}
	return pcm[i*channels], pcm[i*channels+1]
}

// nextFrame reads one ADTS frame (header + payload), decodes it, and
// returns the interleaved PCM it produced.
func (d *decoder) nextFrame(channels int) ([]int16, bool) {
	if d.eof {
		return nil, false
	}
	var hdr [adtsHeaderLen]byte
	if _, err := io.ReadFull(d.source, hdr[:]); err != nil {
		d.eof = true
		return nil, false
	}
	frameLen := adtsFrameLength(hdr[:])
	if frameLen <= adtsHeaderLen {
		d.eof = true
		return nil, false
	}

	payload := make([]byte, frameLen)
	copy(payload, hdr[:])
	if _, err := io.ReadFull(d.source, payload[adtsHeaderLen:]); err != nil {
		d.eof = true
		return nil, false
	}

	raw, _, err := d.dec.Decode(payload)
	if err != nil {
		d.eof = true
		return nil, false
	}
	samples, ok := raw.([]int16)
	if !ok || len(samples) == 0 {
		// First frame(s) legitimately return zero samples (codec
		// delay); keep pulling frames rather than treating this as EOF.
		return d.nextFrame(channels)
	}
	return samples, true
}

// adtsFrameLength extracts the 13-bit frame length field spanning
// bytes 3-5 of a 7-byte ADTS header (ISO/IEC 13818-7 Annex A).
func adtsFrameLength(hdr []byte) int {
	return int(hdr[3]&0x03)<<11 | int(hdr[4])<<3 | int(hdr[5]>>5)
}

func (d *decoder) ReadVideo() mixer.VideoFrame { return nil }
func (d *decoder) VideoReady() bool            { return false }
func (d *decoder) Duration() float64           { return 0 }
func (d *decoder) WaitReady()                  {}
