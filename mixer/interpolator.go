package mixer

// Interpolator is a one-shot linear ramp from a start value to an end
// value over a sample-count duration. It is used for fade, pan and
// secondary volume.
//
// A zero-value Interpolator reports 0. Callers that want a constant
// value should call Init.
type Interpolator struct {
	done     uint64
	duration uint64
	start    float64
	end      float64
}

// NewConstantInterpolator returns an Interpolator that always reports value.
func NewConstantInterpolator(value float64) Interpolator {
	var ip Interpolator
	ip.Init(value)
	return ip
}

// Init sets the interpolator to report a constant value.
func (ip *Interpolator) Init(value float64) {
	ip.start = value
	ip.end = value
	ip.done = 0
	ip.duration = 0
}

// SetRamp begins a new ramp from start to end over durationSamples,
// resetting elapsed progress to zero.
func (ip *Interpolator) SetRamp(start, end float64, durationSamples uint64) {
	ip.start = start
	ip.end = end
	ip.duration = durationSamples
	ip.done = 0
}

// Retarget begins a new ramp from the interpolator's current value to
// end, over durationSamples. This is the "retrigger mid-ramp" case used
// by fadeout/set_pan/set_secondary_volume: the new ramp starts from
// wherever the old one currently is, not from its start or end.
func (ip *Interpolator) Retarget(end float64, durationSamples uint64) {
	ip.SetRamp(ip.Get(), end, durationSamples)
}

// Get returns the current interpolated value. It has no side effect on
// the elapsed sample count.
func (ip *Interpolator) Get() float64 {
	if ip.done >= ip.duration {
		return ip.end
	}
	frac := float64(ip.done) / float64(ip.duration)
	return ip.start + (ip.end-ip.start)*frac
}

// Advance moves the interpolator forward by n samples. Advancing past
// duration is harmless; Get continues to report end.
func (ip *Interpolator) Advance(n uint64) {
	ip.done += n
}

// Done reports whether the ramp has fully elapsed.
func (ip *Interpolator) Done() bool {
	return ip.done >= ip.duration
}
