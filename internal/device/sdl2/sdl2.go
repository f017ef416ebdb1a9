//go:build sdl2

// Package sdl2 implements mixer.Device over github.com/veandco/go-sdl2,
// grounded on jeebie's backend/sdl2.initAudio/queueAudioSamples polling
// loop, adapted from "fixed-size samples pushed every render frame" to
// "queue whatever keeps the device from starving".
package sdl2

import (
	"fmt"
	"log"
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

const targetQueuedBytes = 8192 // ~2048 stereo frames

// Device drives the SDL2 audio queue, pulling PCM from the mixer
// whenever the device's internal queue runs low.
type Device struct {
	id         sdl.AudioDeviceID
	sampleRate int
	frameBytes int
	poll       time.Duration
	quit       chan struct{}
}

// Open opens the default SDL2 audio output device at sampleRate Hz,
// requesting a device-side buffer of frameSize sample-frames.
func Open(sampleRate, frameSize int) (*Device, error) {
	if err := sdl.Init(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("sdl2: init: %w", err)
	}

	spec := &sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_S16LSB,
		Channels: 2,
		Samples:  uint16(frameSize),
	}
	obtained := &sdl.AudioSpec{}
	id, err := sdl.OpenAudioDevice("", false, spec, obtained, 0)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: open audio device: %w", err)
	}
	sdl.PauseAudioDevice(id, false)

	log.Printf("[sdl2] opened output freq=%d samples=%d", obtained.Freq, obtained.Samples)
	return &Device{
		id:         id,
		sampleRate: int(obtained.Freq),
		frameBytes: frameSize * 4,
		poll:       time.Duration(frameSize) * time.Second / time.Duration(sampleRate) / 2,
		quit:       make(chan struct{}),
	}, nil
}

// SampleRate implements mixer.Device.
func (d *Device) SampleRate() int { return d.sampleRate }

// Run implements mixer.Device. Unlike queueAudioSamples (called once
// per render frame in the teacher), this drives its own poll loop
// since the mixer has no separate render cadence to piggyback on.
func (d *Device) Run(fill func(buf []byte)) error {
	buf := make([]byte, d.frameBytes)
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	for {
		select {
		case <-d.quit:
			return nil
		case <-ticker.C:
			queued := sdl.GetQueuedAudioSize(d.id)
			for queued < targetQueuedBytes {
				fill(buf)
				if err := sdl.QueueAudio(d.id, buf); err != nil {
					return fmt.Errorf("sdl2: queue audio: %w", err)
				}
				queued += uint32(len(buf))
			}
		}
	}
}

// Close implements mixer.Device.
func (d *Device) Close() error {
	close(d.quit)
	sdl.CloseAudioDevice(d.id)
	sdl.Quit()
	return nil
}
