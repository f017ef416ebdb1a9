// Package portaudio implements mixer.Device over github.com/gordonklaus/portaudio,
// grounded on client/audio.go's playback stream setup and playbackLoop.
package portaudio

import (
	"encoding/binary"
	"fmt"
	"log"

	"github.com/gordonklaus/portaudio"
	"github.com/hearthscript/mixer/mixer"
)

// Device drives a single blocking stereo S16 PortAudio output stream.
type Device struct {
	sampleRate int
	frameSize  int
	stream     *portaudio.Stream
	buf        []int16
	scratch    []byte
}

// Open initializes PortAudio and opens an output device at sampleRate
// Hz with the given frame size (in sample-frames). A deviceIndex within
// the enumerated device list selects that device; a negative or
// out-of-range deviceIndex selects the host default, matching
// resolveDevice's fallback branch in the teacher.
func Open(sampleRate, frameSize, deviceIndex int) (*Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio: enumerate devices: %w", err)
	}
	outputDev, err := resolveDevice(devices, deviceIndex)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	buf := make([]int16, frameSize*2)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   outputDev,
			Channels: 2,
			Latency:  outputDev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: frameSize,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio: open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio: start stream: %w", err)
	}

	log.Printf("[portaudio] started output=%s rate=%d frame=%d", outputDev.Name, sampleRate, frameSize)
	return &Device{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		stream:     stream,
		buf:        buf,
		scratch:    make([]byte, frameSize*4),
	}, nil
}

func resolveDevice(devices []*portaudio.DeviceInfo, idx int) (*portaudio.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return portaudio.DefaultOutputDevice()
}

// SampleRate implements mixer.Device.
func (d *Device) SampleRate() int { return d.sampleRate }

// Run implements mixer.Device: it repeatedly fills the scratch buffer,
// widens it into the int16 stream buffer, and writes a blocking period
// to PortAudio. Mirrors the teacher's playbackLoop shape (fill then
// write in a tight loop) minus the jitter-buffer source.
func (d *Device) Run(fill func(buf []byte)) error {
	for {
		fill(d.scratch)
		for i := range d.buf {
			d.buf[i] = int16(binary.LittleEndian.Uint16(d.scratch[i*2:]))
		}
		if err := d.stream.Write(); err != nil {
			if err == portaudio.OutputUnderflowed {
				continue
			}
			return fmt.Errorf("portaudio: write: %w", err)
		}
	}
}

// Close implements mixer.Device.
func (d *Device) Close() error {
	stopErr := d.stream.Stop()
	closeErr := d.stream.Close()
	portaudio.Terminate()
	if stopErr != nil {
		return stopErr
	}
	return closeErr
}
