package mixer

import (
	"io"
	"log"
)

// retireSlot moves a non-empty slot's decoder onto the dying list and
// clears the slot. Caller must hold ctx.audioMu (the slot belongs to a
// channel whose playing/queued pair is being mutated).
func (ctx *Context) retireSlot(s *streamSlot) {
	if s.empty() {
		return
	}
	ctx.nameMu.Lock()
	ctx.dying.push(s.decoder, s.name)
	ctx.nameMu.Unlock()
	s.clear()
}

// PlayParams bundles a play/queue request's arguments, matching
// spec.md §4.5's play/queue signatures.
type PlayParams struct {
	Source         io.ReadSeeker
	Ext            string
	Name           string
	FadeInMS       int
	Tight          bool
	StartSeconds   float64
	EndSeconds     float64
	RelativeVolume float64
}

func (p PlayParams) slot(dec Decoder) streamSlot {
	rv := p.RelativeVolume
	if rv == 0 {
		rv = 1.0
	}
	return streamSlot{
		decoder:        dec,
		name:           p.Name,
		fadeInMS:       p.FadeInMS,
		tight:          p.Tight,
		startOffsetMS:  int(p.StartSeconds * 1000),
		relativeVolume: rv,
		traceID:        newTraceID(),
	}
}

// Play implements spec.md §4.5 play: both slots of the channel are
// closed and freed, a new decoder is opened and started, and it
// becomes the playing slot with pause state set from paused.
func (ctx *Context) Play(chIdx int, params PlayParams, paused bool) error {
	ctx.audioMu.Lock()
	defer ctx.audioMu.Unlock()

	c, err := ctx.checkChannel(chIdx)
	if err != nil {
		return ctx.setError(GenericError, err)
	}
	return ctx.playLocked(chIdx, c, params, paused)
}

func (ctx *Context) playLocked(chIdx int, c *Channel, params PlayParams, paused bool) error {
	ctx.retireSlot(&c.playing)
	ctx.retireSlot(&c.queued)

	dec, err := ctx.decoders.Open(params.Source, params.Ext)
	if err != nil {
		return ctx.setError(CodecError, err)
	}
	dec.SetWindow(params.StartSeconds, params.EndSeconds)
	dec.WantVideo(int(c.video))
	dec.Start()

	c.playing = params.slot(dec)
	c.paused = paused
	c.fade.SetRamp(0.0, 1.0, msToSamples(params.FadeInMS, ctx.sampleRate))
	c.stopSamples = -1
	c.pos = 0

	log.Printf("[mixer] channel %d play %q trace=%s", chIdx, params.Name, c.playing.traceID)
	return ctx.setError(Success, nil)
}

// Queue implements spec.md §4.5 queue: if the playing slot is empty,
// this delegates to Play with paused=false. Otherwise it replaces the
// queued slot only, never touching the playing slot or its position.
func (ctx *Context) Queue(chIdx int, params PlayParams) error {
	ctx.audioMu.Lock()
	defer ctx.audioMu.Unlock()

	c, err := ctx.checkChannel(chIdx)
	if err != nil {
		return ctx.setError(GenericError, err)
	}

	if c.playing.empty() {
		return ctx.playLocked(chIdx, c, params, false)
	}

	ctx.retireSlot(&c.queued)

	dec, err := ctx.decoders.Open(params.Source, params.Ext)
	if err != nil {
		return ctx.setError(CodecError, err)
	}
	dec.SetWindow(params.StartSeconds, params.EndSeconds)
	dec.WantVideo(int(c.video))
	dec.Start()

	c.queued = params.slot(dec)

	log.Printf("[mixer] channel %d queue %q trace=%s", chIdx, params.Name, c.queued.traceID)
	return ctx.setError(Success, nil)
}

// Stop implements spec.md §4.5 stop: posts the channel's event if a
// stream was playing, then frees both slots.
func (ctx *Context) Stop(chIdx int) error {
	ctx.audioMu.Lock()
	defer ctx.audioMu.Unlock()

	c, err := ctx.checkChannel(chIdx)
	if err != nil {
		return ctx.setError(GenericError, err)
	}

	if !c.playing.empty() && c.event != 0 && ctx.events != nil {
		ctx.events.PostEvent(chIdx, c.event)
	}

	ctx.retireSlot(&c.playing)
	ctx.retireSlot(&c.queued)
	c.stopSamples = -1
	c.pos = 0

	return ctx.setError(Success, nil)
}

// Dequeue implements spec.md §4.5 dequeue: the queued slot is removed
// unless the playing slot is tight; evenTight overrides that rule. When
// the queued slot is kept, only its own tight flag is cleared.
func (ctx *Context) Dequeue(chIdx int, evenTight bool) error {
	ctx.audioMu.Lock()
	defer ctx.audioMu.Unlock()

	c, err := ctx.checkChannel(chIdx)
	if err != nil {
		return ctx.setError(GenericError, err)
	}
	if c.queued.empty() {
		return ctx.setError(Success, nil)
	}

	if !c.playing.tight || evenTight {
		ctx.retireSlot(&c.queued)
	} else {
		c.queued.tight = false
	}
	return ctx.setError(Success, nil)
}

// Fadeout implements spec.md §4.5 fadeout. ms == 0 schedules an
// immediate stop. Otherwise the fade envelope retargets from its
// current value to 0 over the given duration, stop_samples is armed to
// match, the queued slot's tight flag is cleared, and if there is no
// queued stream the playing slot's tight flag is cleared too (so a
// later promotion of nothing doesn't matter, but a later queue onto
// this channel isn't accidentally treated as tight).
func (ctx *Context) Fadeout(chIdx int, ms int) error {
	ctx.audioMu.Lock()
	defer ctx.audioMu.Unlock()

	c, err := ctx.checkChannel(chIdx)
	if err != nil {
		return ctx.setError(GenericError, err)
	}
	if c.playing.empty() {
		return ctx.setError(Success, nil)
	}

	if ms == 0 {
		c.stopSamples = 0
		return ctx.setError(Success, nil)
	}

	duration := msToSamples(ms, ctx.sampleRate)
	c.fade.Retarget(0.0, duration)
	c.stopSamples = int64(duration)
	c.queued.tight = false
	if c.queued.empty() {
		c.playing.tight = false
	}
	return ctx.setError(Success, nil)
}

// Pause implements spec.md §4.5 pause: sets the channel's pause flag
// and forwards to the decoder. No audio lock required — paused is a
// single field Mix reads as a plain bool guarded by the host's
// serialization guarantee (spec.md §5), so a brief, appropriately-timed
// write is safe without further synchronization here; any multi-field
// invariant stays intact because a pause flip alone can't violate one.
func (ctx *Context) Pause(chIdx int, paused bool) error {
	c, err := ctx.checkChannelUnlocked(chIdx)
	if err != nil {
		return ctx.setError(GenericError, err)
	}
	c.paused = paused
	if !c.playing.empty() {
		c.playing.decoder.Pause(paused)
	}
	return ctx.setError(Success, nil)
}

// checkChannelUnlocked is checkChannel for the handful of operations
// spec.md documents as not requiring the audio lock. It still takes
// the audio lock itself around the table-growth path, since growing
// the channel slice is a shared-table mutation Mix iterates over.
func (ctx *Context) checkChannelUnlocked(idx int) (*Channel, error) {
	ctx.audioMu.Lock()
	defer ctx.audioMu.Unlock()
	return ctx.checkChannel(idx)
}

// UnpauseAllAtStart implements spec.md §4.5: for every channel whose
// playing stream has pos == 0, wait for the decoder to be ready, then
// unpause the channel and the decoder. Used to synchronize the first
// frame of several simultaneously-started channels.
func (ctx *Context) UnpauseAllAtStart() error {
	ctx.audioMu.Lock()
	pending := make([]*Channel, 0, len(ctx.channels))
	for _, c := range ctx.channels {
		if !c.playing.empty() && c.pos == 0 {
			pending = append(pending, c)
		}
	}
	ctx.audioMu.Unlock()

	for _, c := range pending {
		c.playing.decoder.WaitReady()
	}

	ctx.audioMu.Lock()
	for _, c := range pending {
		if !c.playing.empty() {
			c.paused = false
			c.playing.decoder.Pause(false)
		}
	}
	ctx.audioMu.Unlock()

	return ctx.setError(Success, nil)
}

// SetVolume sets a channel's mixer volume immediately (no ramp).
func (ctx *Context) SetVolume(chIdx int, vol float64) error {
	c, err := ctx.checkChannelUnlocked(chIdx)
	if err != nil {
		return ctx.setError(GenericError, err)
	}
	c.mixerVolume = vol
	return ctx.setError(Success, nil)
}

// GetVolume returns a channel's mixer volume.
func (ctx *Context) GetVolume(chIdx int) (float64, error) {
	c, err := ctx.checkChannelUnlocked(chIdx)
	if err != nil {
		return 0, ctx.setError(GenericError, err)
	}
	return c.mixerVolume, ctx.setError(Success, nil)
}

// SetPan retargets a channel's pan interpolator from its current value
// to pan over delaySeconds.
func (ctx *Context) SetPan(chIdx int, pan float64, delaySeconds float64) error {
	ctx.audioMu.Lock()
	defer ctx.audioMu.Unlock()

	c, err := ctx.checkChannel(chIdx)
	if err != nil {
		return ctx.setError(GenericError, err)
	}
	c.pan.Retarget(pan, msToSamples(int(delaySeconds*1000), ctx.sampleRate))
	return ctx.setError(Success, nil)
}

// SetSecondaryVolume retargets a channel's secondary-volume
// interpolator from its current value to vol over delaySeconds.
func (ctx *Context) SetSecondaryVolume(chIdx int, vol float64, delaySeconds float64) error {
	ctx.audioMu.Lock()
	defer ctx.audioMu.Unlock()

	c, err := ctx.checkChannel(chIdx)
	if err != nil {
		return ctx.setError(GenericError, err)
	}
	c.secondaryVolume.Retarget(vol, msToSamples(int(delaySeconds*1000), ctx.sampleRate))
	return ctx.setError(Success, nil)
}

// SetEndEvent sets the event tag posted when the channel's playing
// stream ends. 0 means "no event".
func (ctx *Context) SetEndEvent(chIdx int, event int) error {
	c, err := ctx.checkChannelUnlocked(chIdx)
	if err != nil {
		return ctx.setError(GenericError, err)
	}
	c.event = event
	return ctx.setError(Success, nil)
}

// SetVideo sets the channel's video mode, applied to subsequent
// Play/Queue calls (not retroactively to a stream already playing).
func (ctx *Context) SetVideo(chIdx int, mode VideoMode) error {
	c, err := ctx.checkChannelUnlocked(chIdx)
	if err != nil {
		return ctx.setError(GenericError, err)
	}
	c.video = mode
	return ctx.setError(Success, nil)
}

// GetPos returns the playing stream's position in milliseconds, with
// its start offset added to the time mixed so far, or -1 if the channel
// has no playing stream.
//
// checkChannel's table-growth path needs the audio lock (it mutates
// ctx.channels, which Mix iterates), but the read itself only needs the
// name lock (spec.md §5). The two locks are never held at once here —
// acquiring them nested in opposite orders on different call paths
// would risk deadlock — so the index check happens first and releases
// audioMu before nameMu is taken.
func (ctx *Context) GetPos(chIdx int) (int64, error) {
	c, err := ctx.checkChannelUnlocked(chIdx)
	if err != nil {
		return -1, ctx.setError(GenericError, err)
	}

	ctx.nameMu.Lock()
	defer ctx.nameMu.Unlock()
	if c.playing.empty() {
		return -1, ctx.setError(Success, nil)
	}
	return samplesToMs(c.pos, ctx.sampleRate) + int64(c.playing.startOffsetMS), ctx.setError(Success, nil)
}

// GetDuration returns the playing stream's duration in seconds, or 0
// if the channel is empty.
func (ctx *Context) GetDuration(chIdx int) (float64, error) {
	c, err := ctx.checkChannelUnlocked(chIdx)
	if err != nil {
		return 0, ctx.setError(GenericError, err)
	}

	ctx.nameMu.Lock()
	defer ctx.nameMu.Unlock()
	if c.playing.empty() {
		return 0, ctx.setError(Success, nil)
	}
	return c.playing.decoder.Duration(), ctx.setError(Success, nil)
}

// QueueDepth returns 0, 1 or 2: how many of the channel's two slots
// are occupied.
func (ctx *Context) QueueDepth(chIdx int) (int, error) {
	c, err := ctx.checkChannelUnlocked(chIdx)
	if err != nil {
		return 0, ctx.setError(GenericError, err)
	}

	ctx.nameMu.Lock()
	defer ctx.nameMu.Unlock()
	return c.queueDepth(), ctx.setError(Success, nil)
}

// PlayingName returns the display name of the playing slot, or
// ("", false) if the channel is empty.
func (ctx *Context) PlayingName(chIdx int) (string, bool, error) {
	c, err := ctx.checkChannelUnlocked(chIdx)
	if err != nil {
		return "", false, ctx.setError(GenericError, err)
	}

	ctx.nameMu.Lock()
	defer ctx.nameMu.Unlock()
	if c.playing.empty() {
		return "", false, ctx.setError(Success, nil)
	}
	return c.playing.name, true, ctx.setError(Success, nil)
}

// ReadVideo pulls a decoded video frame from the playing decoder, if
// any. May block; release any host-language global interpreter lock
// around this call. The decoder reference is snapshotted under the
// name lock and the (potentially blocking) call happens outside it, so
// a concurrent promotion never waits behind a slow video read.
func (ctx *Context) ReadVideo(chIdx int) (VideoFrame, error) {
	c, err := ctx.checkChannelUnlocked(chIdx)
	if err != nil {
		return nil, ctx.setError(GenericError, err)
	}

	dec := ctx.playingDecoder(c)
	if dec == nil {
		return nil, ctx.setError(Success, nil)
	}
	return dec.ReadVideo(), ctx.setError(Success, nil)
}

// VideoReady reports the playing decoder's video readiness, or true if
// the channel is empty.
func (ctx *Context) VideoReady(chIdx int) (bool, error) {
	c, err := ctx.checkChannelUnlocked(chIdx)
	if err != nil {
		return false, ctx.setError(GenericError, err)
	}

	dec := ctx.playingDecoder(c)
	if dec == nil {
		return true, ctx.setError(Success, nil)
	}
	return dec.VideoReady(), ctx.setError(Success, nil)
}

func (ctx *Context) playingDecoder(c *Channel) Decoder {
	ctx.nameMu.Lock()
	defer ctx.nameMu.Unlock()
	if c.playing.empty() {
		return nil
	}
	return c.playing.decoder
}
