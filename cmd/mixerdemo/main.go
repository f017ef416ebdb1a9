// Command mixerdemo wires a mixer.Context to a real output device and
// plays files named on the command line, one per channel. It exists to
// exercise the mixer package end to end; it is not a media player.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/hearthscript/mixer/internal/decoder/aac"
	"github.com/hearthscript/mixer/internal/decoder/opus"
	"github.com/hearthscript/mixer/internal/device/portaudio"
	"github.com/hearthscript/mixer/mixer"
	"golang.org/x/sync/errgroup"
)

// Version is the demo binary's version string, set at build time via
// -ldflags the same way the teacher's server sets Version.
var Version = "dev"

func main() {
	sampleRate := flag.Int("rate", 48000, "output sample rate in Hz")
	frameSize := flag.Int("frame", 960, "device buffer size in sample-frames")
	deviceIndex := flag.Int("device", -1, "PortAudio output device index (-1 for default)")
	metricsInterval := flag.Duration("metrics-interval", 5*time.Second, "status log interval")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		log.Printf("mixerdemo %s", Version)
		return
	}

	files := flag.Args()
	if len(files) == 0 {
		log.Fatal("usage: mixerdemo [flags] file [file...]")
	}

	decoders := decoderRegistry()

	events := mixer.EventSinkFunc(func(channel, event int) {
		log.Printf("[mixer] channel %d finished (event=%d)", channel, event)
	})
	ctx := mixer.NewContext(*sampleRate, decoders, events)

	dev, err := portaudio.Open(*sampleRate, *frameSize, *deviceIndex)
	if err != nil {
		log.Fatalf("[device] %v", err)
	}

	for i, path := range files {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("[play] open %s: %v", path, err)
		}
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		params := mixer.PlayParams{
			Source:         f,
			Ext:            ext,
			Name:           filepath.Base(path),
			RelativeVolume: 1.0,
		}
		if err := ctx.Play(i, params, false); err != nil {
			log.Fatalf("[play] %s: %v", path, err)
		}
		log.Printf("[play] channel %d <- %s", i, path)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Println("[mixerdemo] shutting down...")
		cancel()
	}()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return dev.Run(ctx.Mix)
	})

	g.Go(func() error {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				ctx.Reap()
			}
		}
	})

	g.Go(func() error {
		runMetrics(gctx, ctx, len(files), *metricsInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		dev.Close()
		ctx.Quit()
		return nil
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		log.Fatalf("[mixerdemo] %v", err)
	}
}

// decoderRegistry dispatches Open by file extension across every
// codec adapter this binary links in, matching spec.md §6.2's
// "decoder implementations live outside the core".
func decoderRegistry() mixer.DecoderFactory {
	return mixer.DecoderFactoryFunc(func(source io.ReadSeeker, ext string) (mixer.Decoder, error) {
		switch ext {
		case "aac":
			return aac.Factory.Open(source, ext)
		default:
			return opus.Factory.Open(source, ext)
		}
	})
}

// runMetrics logs channel occupancy every interval, in the shape of
// the teacher's RunMetrics.
func runMetrics(ctx context.Context, mixCtx *mixer.Context, channels int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			active := 0
			for i := 0; i < channels; i++ {
				if depth, err := mixCtx.QueueDepth(i); err == nil && depth > 0 {
					active++
				}
			}
			log.Printf("[metrics] active=%d/%d err=%q", active, channels, mixCtx.LastError())
		}
	}
}
