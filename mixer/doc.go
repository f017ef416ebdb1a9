// Package mixer implements a fixed-rate, multi-channel audio mixer core
// for an interactive narrative runtime.
//
// The package is split into two halves that run on different threads:
//
//   - A real-time mixing callback (Context.Mix), invoked by the host
//     audio subsystem on its own cadence. It must never block, allocate
//     in the common path, or close a decoder.
//   - A control API (the Play/Queue/Stop/... methods on Context),
//     invoked from the application thread to drive playback.
//
// Context owns the locks that keep the two sides consistent: the audio
// lock excludes Mix while multi-field channel state is mutated, and the
// name lock protects the narrower set of fields (playing name, position,
// the dying list head) that queries must be able to read without
// waiting behind a full mix cycle.
package mixer
