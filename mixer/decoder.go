package mixer

import "io"

// VideoFrame is an opaque decoded video frame handed off to the host's
// surface/video object. The mixer core never inspects its contents.
type VideoFrame interface{}

// Decoder is the opaque per-stream media handle described in spec.md
// §6.2. Opening, seeking and producing PCM/video is entirely the
// decoder implementation's concern; the mixer core only ever calls
// these methods. ReadAudio is called only from the mixing callback
// (Context.Mix). SetWindow, WantVideo and Start are called under the
// audio lock by Play/Queue. Pause, ReadVideo, VideoReady and WaitReady
// are called from the application thread, Pause under the audio lock
// only in UnpauseAllAtStart and the other three with no lock held.
//
// Close must never be called from the real-time mixing callback; the
// core routes every retired Decoder through the dying list instead
// (see dyingList / Context.Reap), and Reap calls Close outside both
// locks.
type Decoder interface {
	// SetWindow clamps playback to [startSeconds, endSeconds]. An
	// endSeconds <= 0 means "play to end".
	SetWindow(startSeconds, endSeconds float64)

	// WantVideo enables video decoding. mode 1 means "drop frames if
	// late", mode 2 means "do not drop".
	WantVideo(mode int)

	// Start begins decoding. Called once, after SetWindow/WantVideo.
	Start()

	// Pause pauses or resumes decoding without losing position.
	Pause(paused bool)

	// Close releases all resources held by the decoder. Must only be
	// called from the application thread (via the dying-list reaper),
	// never from the mixing callback.
	Close()

	// ReadAudio produces up to len(out)/4 interleaved signed 16-bit
	// stereo sample-frames into out, returning the number of bytes
	// written. Returns 0 on end-of-stream. Must not block for more
	// than a bounded, short amount of time; the decoder is expected to
	// resample internally to the mixer's output rate.
	ReadAudio(out []byte) int

	// ReadVideo returns the next decoded video frame, or nil if none
	// is ready. May block.
	ReadVideo() VideoFrame

	// VideoReady reports whether a video frame is available without
	// blocking.
	VideoReady() bool

	// Duration returns the stream's total duration in seconds, or 0 if
	// unknown.
	Duration() float64

	// WaitReady blocks until the decoder can deliver its first
	// samples. Callers that hold a host-language global interpreter
	// lock must release it around this call.
	WaitReady()
}

// DecoderFactory opens a Decoder for a seekable source with a codec
// extension hint (e.g. "wav", "opus", "aac"). Concrete implementations
// live outside this package (internal/decoder/...); the mixer core
// never hardcodes a codec.
type DecoderFactory interface {
	Open(source io.ReadSeeker, ext string) (Decoder, error)
}

// DecoderFactoryFunc adapts a function to a DecoderFactory.
type DecoderFactoryFunc func(source io.ReadSeeker, ext string) (Decoder, error)

// Open implements DecoderFactory.
func (f DecoderFactoryFunc) Open(source io.ReadSeeker, ext string) (Decoder, error) {
	return f(source, ext)
}
