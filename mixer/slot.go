package mixer

import "github.com/google/uuid"

// VideoMode selects whether and how a channel decodes video alongside
// audio. See spec.md §3 ("video (tri-state)").
type VideoMode int

const (
	// VideoOff means audio-only.
	VideoOff VideoMode = 0
	// VideoDropLate decodes video, dropping frames that arrive late.
	VideoDropLate VideoMode = 1
	// VideoNoDrop decodes video without ever dropping frames.
	VideoNoDrop VideoMode = 2
)

// streamSlot is a single decoder slot: either the "playing" or the
// "queued" half of a Channel (spec.md §3). A nil Decoder means the slot
// is empty.
type streamSlot struct {
	decoder Decoder
	name    string
	// fadeInMS is the fade-in duration, in milliseconds, to apply if
	// this slot becomes the promoted/playing stream.
	fadeInMS int
	// tight marks this slot as wanting a gapless (envelope-preserving)
	// transition into whatever follows it. A tight playing slot also
	// keeps a bare Dequeue from removing the queued slot; the queued
	// slot's own flag only takes effect once it is promoted.
	tight bool
	// startOffsetMS is the position, in milliseconds, at which this
	// stream was told to start (used to report GetPos relative to the
	// host's timeline rather than the decoder's own clock).
	startOffsetMS int
	// relativeVolume is a per-stream gain authored at play/queue time,
	// distinct from the channel's mixer volume and secondary volume.
	relativeVolume float64
	// traceID correlates log lines for this stream instance across
	// promotion and end-of-stream.
	traceID string
}

func (s *streamSlot) empty() bool {
	return s.decoder == nil
}

func (s *streamSlot) clear() {
	*s = streamSlot{}
}

func newTraceID() string {
	return uuid.NewString()
}
