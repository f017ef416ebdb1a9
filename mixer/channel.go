package mixer

// PlayingState is an observable summary of a channel's playing-slot
// state, useful for tests and diagnostics. It does not exist as a
// field in spec.md's data model — it is derived from playing and
// stopSamples on demand.
type PlayingState int

const (
	// StateEmpty means the playing slot holds no decoder.
	StateEmpty PlayingState = iota
	// StatePlaying means a decoder is active and pos is advancing.
	StatePlaying
	// StateFadingOut means a non-negative stop-sample countdown is
	// running (set by Fadeout).
	StateFadingOut
)

// Channel is the per-channel state machine described in spec.md §3/§4.2:
// a playing slot, a queued slot, pause/fade/stop state, pan and
// secondary-volume ramps, and the sample position of the current
// playing stream.
//
// The slots, interpolators, pos and stopSamples are mutated only while
// the owning Context's audio lock is held (promotion in Mix also holds
// the name lock). paused, mixerVolume, event and video are written by
// Pause, SetVolume, SetEndEvent and SetVideo with no lock held. Channel
// itself holds no lock — Context.audioMu and Context.nameMu serialize
// access to the channel table.
type Channel struct {
	playing streamSlot
	queued  streamSlot

	paused      bool
	mixerVolume float64

	secondaryVolume Interpolator
	pan             Interpolator
	fade            Interpolator

	pos int64

	// stopSamples: -1 = no scheduled stop, 0 = stop now, >0 = decrement
	// per mixed sample-frame, stop when it reaches 0.
	stopSamples int64

	event int
	video VideoMode
}

func newChannel() *Channel {
	c := &Channel{
		paused:      true,
		mixerVolume: 1.0,
		stopSamples: -1,
	}
	c.secondaryVolume.Init(1.0)
	c.pan.Init(0.0)
	c.fade.Init(1.0)
	return c
}

// State reports a coarse summary of the playing slot's state.
func (c *Channel) State() PlayingState {
	if c.playing.empty() {
		return StateEmpty
	}
	if c.stopSamples >= 0 {
		return StateFadingOut
	}
	return StatePlaying
}

// queueDepth returns 0, 1 or 2 per spec.md §4.5 queue_depth.
func (c *Channel) queueDepth() int {
	n := 0
	if !c.playing.empty() {
		n++
	}
	if !c.queued.empty() {
		n++
	}
	return n
}

// resetFadeFor decides spec.md §4.2's reset_fade rule: the fade
// envelope resets (full re-attack) unless the old playing stream was
// tight, and is forced to reset regardless if the newly promoted
// stream specifies its own fade-in.
func resetFadeFor(oldTight bool, newFadeInMS int) bool {
	return !oldTight || newFadeInMS > 0
}

// promote moves the queued slot into the playing slot, per spec.md
// §4.2's promotion semantics. Must be called with the audio lock held
// (the caller is either the mixer callback, which always holds the
// implicit serialization the host guarantees, or a control operation
// holding Context.audioMu).
//
// sampleRate is needed to convert the new stream's fade-in from
// milliseconds to samples.
func (c *Channel) promote(sampleRate int) {
	oldTight := c.playing.tight
	newFadeInMS := c.queued.fadeInMS

	c.playing = c.queued
	c.queued.clear()
	c.pos = 0

	if resetFadeFor(oldTight, newFadeInMS) {
		c.fade.SetRamp(0.0, 1.0, msToSamples(c.playing.fadeInMS, sampleRate))
		c.stopSamples = -1
	}
	// else: fade envelope and stop countdown carry over untouched —
	// the gapless, full-volume (or still-fading) transition.
}

func msToSamples(ms int, sampleRate int) uint64 {
	if ms <= 0 {
		return 0
	}
	return uint64(ms) * uint64(sampleRate) / 1000
}

func samplesToMs(samples int64, sampleRate int) int64 {
	if sampleRate <= 0 {
		return 0
	}
	return samples * 1000 / int64(sampleRate)
}
