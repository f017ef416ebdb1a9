package mixer

import (
	"log"
	"sync"
	"sync/atomic"
)

// EventSink receives end-of-stream event notifications posted by the
// mixing callback. Implementations must not block and must be safe to
// call from the audio thread: Mix calls PostEvent while it holds the
// audio lock. Reap only closes retired decoders; it does not drain
// events.
type EventSink interface {
	PostEvent(channel int, event int)
}

// EventSinkFunc adapts a function to an EventSink.
type EventSinkFunc func(channel int, event int)

// PostEvent implements EventSink.
func (f EventSinkFunc) PostEvent(channel int, event int) {
	f(channel, event)
}

// Context is the process-wide mixer instance described in spec.md §9
// ("Global state"): the channel table, the dying list, the sample
// rate and the last-error state, tied together in one value. A host
// normally owns exactly one Context.
type Context struct {
	// audioMu excludes Mix. Acquired by control operations that mutate
	// fields Mix reads on every sample.
	audioMu sync.Mutex
	// nameMu protects the narrower "playing name / pos / queued
	// presence" fields and the dying list head.
	nameMu sync.Mutex

	sampleRate int
	channels   []*Channel
	dying      dyingList

	decoders DecoderFactory
	events   EventSink

	// accumBuf/scratchBuf are Mix's reused working buffers; see
	// callback.go's mixAccumBuf/mixScratchBuf.
	accumBuf   []float64
	scratchBuf []byte

	lastErrorCode atomic.Int32
	lastErrorMu   sync.Mutex
	lastErrorMsg  string
}

// NewContext initializes a mixer bound to a pre-opened output device at
// sampleRate Hz. decoders supplies codec implementations by extension
// hint; events (optional, may be nil) receives end-of-stream
// notifications.
//
// This corresponds to spec.md §4.6/§9's init: there is no sample-rate
// negotiation or device enumeration here (§1 scopes that to the host).
func NewContext(sampleRate int, decoders DecoderFactory, events EventSink) *Context {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &Context{
		sampleRate: sampleRate,
		decoders:   decoders,
		events:     events,
	}
}

// Quit releases every channel's decoders and drains the dying list. Not
// safe to call while Mix may still be invoked concurrently — the host
// must stop the device first.
func (ctx *Context) Quit() {
	ctx.audioMu.Lock()
	for _, c := range ctx.channels {
		if !c.playing.empty() {
			ctx.nameMu.Lock()
			ctx.dying.push(c.playing.decoder, c.playing.name)
			ctx.nameMu.Unlock()
			c.playing.clear()
		}
		if !c.queued.empty() {
			ctx.nameMu.Lock()
			ctx.dying.push(c.queued.decoder, c.queued.name)
			ctx.nameMu.Unlock()
			c.queued.clear()
		}
	}
	ctx.channels = nil
	ctx.audioMu.Unlock()

	ctx.Reap()
}

// Reap is the periodic reaper from spec.md §4.4: it detaches the dying
// list under the name lock, then closes every decoder outside the
// lock. The host's main loop must call this frequently enough to bound
// the worst-case queue length (spec.md recommends at least once per
// host-application frame).
func (ctx *Context) Reap() int {
	ctx.nameMu.Lock()
	head := ctx.dying.detach()
	ctx.nameMu.Unlock()

	n := closeAll(head)
	if n > 0 {
		log.Printf("[reaper] closed %d decoder(s)", n)
	}
	return n
}

// SampleRate returns the output device's fixed sample rate.
func (ctx *Context) SampleRate() int {
	return ctx.sampleRate
}

// checkChannel validates idx and grows the channel table on demand,
// per spec.md §4.5. A negative index is rejected. New slots are
// zero-initialized per spec.md §3 (paused=true, mixer_volume=1.0). The
// table only ever grows; existing indices stay stable for the process
// lifetime.
func (ctx *Context) checkChannel(idx int) (*Channel, error) {
	if idx < 0 {
		return nil, newError(GenericError, "negative channel index %d", idx)
	}
	if idx >= len(ctx.channels) {
		grown := make([]*Channel, idx+1)
		copy(grown, ctx.channels)
		for i := len(ctx.channels); i <= idx; i++ {
			grown[i] = newChannel()
		}
		ctx.channels = grown
	}
	return ctx.channels[idx], nil
}

func (ctx *Context) setError(code ErrorCode, err error) error {
	ctx.lastErrorCode.Store(int32(code))
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	ctx.lastErrorMu.Lock()
	ctx.lastErrorMsg = msg
	ctx.lastErrorMu.Unlock()
	return err
}

// ErrorCode returns the last control operation's error code, matching
// spec.md §6.3/§7's process-wide last-error accessor.
func (ctx *Context) ErrorCode() ErrorCode {
	return ErrorCode(ctx.lastErrorCode.Load())
}

// LastError returns the last control operation's error message, or ""
// on success. Mirrors spec.md §7's get_error.
func (ctx *Context) LastError() string {
	ctx.lastErrorMu.Lock()
	defer ctx.lastErrorMu.Unlock()
	return ctx.lastErrorMsg
}
