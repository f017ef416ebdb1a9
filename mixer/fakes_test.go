package mixer

import (
	"encoding/binary"
	"io"
)

// fakeDecoder produces a fixed number of stereo sample-frames, each
// frame's left/right value equal to a constant so tests can assert on
// mixed output without worrying about real codec math.
type fakeDecoder struct {
	framesLeft int
	value      int16
	closed     bool
	started    bool
	paused     bool
	duration   float64
	video      VideoFrame
	videoReady bool
}

func newFakeDecoder(frames int, value int16) *fakeDecoder {
	return &fakeDecoder{framesLeft: frames, value: value}
}

func (d *fakeDecoder) SetWindow(startSeconds, endSeconds float64) {}
func (d *fakeDecoder) WantVideo(mode int)                         {}
func (d *fakeDecoder) Start()                                     { d.started = true }
func (d *fakeDecoder) Pause(paused bool)                          { d.paused = paused }
func (d *fakeDecoder) Close()                                     { d.closed = true }

func (d *fakeDecoder) ReadAudio(out []byte) int {
	n := len(out) / 4
	if n > d.framesLeft {
		n = d.framesLeft
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(out[i*4:], uint16(d.value))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(d.value))
	}
	d.framesLeft -= n
	return n * 4
}

func (d *fakeDecoder) ReadVideo() VideoFrame { return d.video }
func (d *fakeDecoder) VideoReady() bool      { return d.videoReady }
func (d *fakeDecoder) Duration() float64     { return d.duration }
func (d *fakeDecoder) WaitReady()            {}

// fakeFactory opens a fresh fakeDecoder with its configured frames and
// value on every call, recording each ext it was asked for. It never
// reads the source, so tests can set up play/queue calls with a
// throwaway io.ReadSeeker.
type fakeFactory struct {
	frames int
	value  int16
	opened []string
	fail   bool
}

func (f *fakeFactory) Open(source io.ReadSeeker, ext string) (Decoder, error) {
	if f.fail {
		return nil, newError(CodecError, "forced failure")
	}
	f.opened = append(f.opened, ext)
	return newFakeDecoder(f.frames, f.value), nil
}

// fakeEventSink records posted events for assertions.
type fakeEventSink struct {
	events []postedEvent
}

type postedEvent struct {
	channel int
	event   int
}

func (s *fakeEventSink) PostEvent(channel int, event int) {
	s.events = append(s.events, postedEvent{channel, event})
}

// nopSource is an io.ReadSeeker with no content; fakeFactory never
// reads from it, so a zero-value nopSource is sufficient for every
// Play/Queue call in these tests.
type nopSource struct{}

func (nopSource) Read(p []byte) (int, error)                  { return 0, io.EOF }
func (nopSource) Seek(offset int64, whence int) (int64, error) { return 0, nil }
