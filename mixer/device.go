package mixer

// Device is the host output device contract described in spec.md §6.1.
// A single device is opened with a configurable sample rate, channel
// count (nominally 2) and buffer size in sample-frames, producing
// interleaved signed 16-bit native-endian output.
//
// The mixer core does not implement Device itself — device enumeration
// and format negotiation are out of scope (§1). Concrete
// implementations live in internal/device/... and call Context.Mix to
// fill each buffer.
type Device interface {
	// SampleRate returns the device's fixed output sample rate in Hz.
	SampleRate() int

	// Run drives the device until stopped, calling fill for every
	// buffer of PCM it needs. fill must completely populate buf (in
	// interleaved S16 stereo bytes) before returning.
	Run(fill func(buf []byte)) error

	// Close releases the device.
	Close() error
}
