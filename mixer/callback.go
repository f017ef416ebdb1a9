package mixer

import "math"

const bytesPerFrame = 4 // stereo, 16-bit

// Mix is the real-time callback described in spec.md §4.3. It fills buf
// (interleaved signed 16-bit stereo, native-endian) completely: every
// unfilled frame is silence. Mix never allocates in the steady state
// (mixAccumBuf/mixScratchBuf grow once and are reused) and never calls
// Decoder.Close — every retired decoder goes through the dying list.
//
// Mix holds the audio lock for its entire body, exactly like the
// original's LOCK_AUDIO/UNLOCK_AUDIO bracketing the SDL callback: this
// is what makes every other audio-lock-holding control operation (which
// may itself block briefly opening a decoder) mutually exclusive with a
// mix cycle, per spec.md §5. Callers driving a real device must invoke
// Mix from a single dedicated thread/goroutine; spec.md's "never block"
// contract is about I/O and allocation, not about contending for this
// lock, which the host's own device thread is the only other audio-side
// locker of.
func (ctx *Context) Mix(buf []byte) {
	ctx.audioMu.Lock()
	defer ctx.audioMu.Unlock()

	n := len(buf) / bytesPerFrame
	accum := ctx.mixAccumBuf(n)
	scratch := ctx.mixScratchBuf(n)

	for idx, c := range ctx.channels {
		if c.playing.empty() || c.paused {
			continue
		}
		ctx.mixChannel(idx, c, accum, scratch, n)
	}

	for i := 0; i < n; i++ {
		putClippedSample(buf[i*4:], accum[i*2])
		putClippedSample(buf[i*4+2:], accum[i*2+1])
	}
}

// mixAccumBuf and mixScratchBuf are the callback's only working
// memory. They are grown lazily and reused across calls so the
// steady-state path (host buffer size never changes after the first
// call) never allocates.
func (ctx *Context) mixAccumBuf(n int) []float64 {
	need := n * 2
	if cap(ctx.accumBuf) < need {
		ctx.accumBuf = make([]float64, need)
	}
	buf := ctx.accumBuf[:need]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

func (ctx *Context) mixScratchBuf(n int) []byte {
	need := n * bytesPerFrame
	if cap(ctx.scratchBuf) < need {
		ctx.scratchBuf = make([]byte, need)
	}
	return ctx.scratchBuf[:need]
}

func (ctx *Context) mixChannel(idx int, c *Channel, accum []float64, scratch []byte, n int) {
	mixed := 0
	for mixed < n && !c.playing.empty() {
		need := n - mixed
		written := c.playing.decoder.ReadAudio(scratch[:need*bytesPerFrame])
		returned := written / bytesPerFrame

		if returned == 0 || c.stopSamples == 0 {
			ctx.finishPlaying(idx, c)
			continue
		}

		remainingStop := returned
		if c.stopSamples > 0 && int(c.stopSamples) < remainingStop {
			remainingStop = int(c.stopSamples)
		}
		k := remainingStop

		rel := c.playing.relativeVolume
		if rel == 0 {
			rel = 1.0
		}

		for i := 0; i < k; i++ {
			left := int16FromBytes(scratch[i*4], scratch[i*4+1])
			right := int16FromBytes(scratch[i*4+2], scratch[i*4+3])

			fadeGain := c.fade.Get()
			c.fade.Advance(1)
			secGain := c.secondaryVolume.Get()
			c.secondaryVolume.Advance(1)
			panVal := c.pan.Get()
			c.pan.Advance(1)

			gain := c.mixerVolume * secGain * fadeGain * rel
			panL, panR := panGains(panVal)

			out := mixed + i
			accum[out*2] += float64(left) / 32768.0 * gain * panL
			accum[out*2+1] += float64(right) / 32768.0 * gain * panR

			c.pos++
			if c.stopSamples > 0 {
				c.stopSamples--
			}
		}

		mixed += k
	}
}

// finishPlaying implements spec.md §4.3's end-of-stream handling: post
// the channel's event, hand the decoder to the dying list under the
// name lock, then promote the queued slot (if any) into playing.
func (ctx *Context) finishPlaying(idx int, c *Channel) {
	if c.event != 0 && ctx.events != nil {
		ctx.events.PostEvent(idx, c.event)
	}

	ctx.nameMu.Lock()
	ctx.dying.push(c.playing.decoder, c.playing.name)
	c.promote(ctx.sampleRate)
	ctx.nameMu.Unlock()
}

// panGains converts a pan value in [-1, 1] (negative = left-biased)
// into independent left/right linear gains. Centered (pan == 0) leaves
// both channels at unity; panning attenuates only the opposite side,
// matching spec.md §4.3's "pan interpolator attenuating left vs. right
// channels".
func panGains(pan float64) (left, right float64) {
	switch {
	case pan > 0:
		return 1.0 - pan, 1.0
	case pan < 0:
		return 1.0, 1.0 + pan
	default:
		return 1.0, 1.0
	}
}

func int16FromBytes(lo, hi byte) int16 {
	return int16(uint16(lo) | uint16(hi)<<8)
}

// putClippedSample converts a float sample to signed 16-bit with
// saturation (not wraparound) and writes it little-endian into out[0:2].
func putClippedSample(out []byte, v float64) {
	var s int16
	switch {
	case v >= 1.0:
		s = math.MaxInt16
	case v < -1.0:
		s = math.MinInt16
	default:
		s = int16(v * 32768.0)
	}
	out[0] = byte(uint16(s))
	out[1] = byte(uint16(s) >> 8)
}
