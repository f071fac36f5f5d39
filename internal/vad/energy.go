// Package vad emits speech-start/speech-end boundaries from the live
// microphone. The default detector is a simple RMS energy gate over a raw
// PCM tap; the orchestrator only depends on the event contract.
package vad

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shayan12456/PromptLens/internal/domain"
	"github.com/Shayan12456/PromptLens/internal/media"
)

// Config tunes the energy gate.
type Config struct {
	Microphone media.MicrophoneConfig
	// Threshold is the normalized RMS level treated as speech.
	Threshold float64
	// FrameDuration is the analysis window.
	FrameDuration time.Duration
	// StartFrames is how many consecutive frames above threshold open a
	// speech segment.
	StartFrames int
	// HangFrames is how many consecutive frames below threshold close
	// one; it keeps short pauses inside a single segment.
	HangFrames int
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = 0.015
	}
	if c.FrameDuration <= 0 {
		c.FrameDuration = 30 * time.Millisecond
	}
	if c.StartFrames <= 0 {
		c.StartFrames = 3
	}
	if c.HangFrames <= 0 {
		c.HangFrames = 10
	}
	return c
}

// EnergyDetector gates speech on per-frame RMS energy.
type EnergyDetector struct {
	cfg Config
	log zerolog.Logger

	mu   sync.Mutex
	tap  io.ReadCloser
	done chan struct{}
}

func NewEnergyDetector(cfg Config, log zerolog.Logger) *EnergyDetector {
	return &EnergyDetector{cfg: cfg.withDefaults(), log: log}
}

// Start opens the PCM tap and begins emitting boundary events. The channel
// closes when the tap ends or Stop is called.
func (d *EnergyDetector) Start(ctx context.Context) (<-chan domain.SpeechEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tap != nil {
		return nil, errAlreadyStarted
	}

	tap, err := media.PCMTap(ctx, d.cfg.Microphone)
	if err != nil {
		return nil, err
	}

	events := make(chan domain.SpeechEvent, 8)
	done := make(chan struct{})
	d.tap = tap
	d.done = done

	go func() {
		defer close(done)
		defer close(events)
		gate(tap, d.cfg, events)
	}()

	return events, nil
}

// Stop closes the tap and waits for the event loop to finish. Safe to call
// when never started.
func (d *EnergyDetector) Stop() error {
	d.mu.Lock()
	tap := d.tap
	done := d.done
	d.tap = nil
	d.done = nil
	d.mu.Unlock()

	if tap == nil {
		return nil
	}
	err := tap.Close()
	if err != nil {
		d.log.Warn().Err(err).Msg("pcm tap close failed")
	}
	<-done
	return err
}

var errAlreadyStarted = &startedError{}

type startedError struct{}

func (e *startedError) Error() string { return "speech detector already started" }

// gate runs the energy state machine over s16le frames until the reader
// ends. It guarantees a trailing speech-end when a segment is still open.
func gate(r io.Reader, cfg Config, events chan<- domain.SpeechEvent) {
	sampleRate := cfg.Microphone.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	channels := cfg.Microphone.Channels
	if channels <= 0 {
		channels = 1
	}
	samples := int(float64(sampleRate*channels) * cfg.FrameDuration.Seconds())
	if samples < 1 {
		samples = 1
	}
	frame := make([]byte, samples*2)

	speaking := false
	above := 0
	below := 0

	for {
		if _, err := io.ReadFull(r, frame); err != nil {
			if speaking {
				events <- domain.SpeechEvent{Kind: domain.SpeechEnd}
			}
			return
		}

		if rms(frame) >= cfg.Threshold {
			above++
			below = 0
		} else {
			below++
			above = 0
		}

		switch {
		case !speaking && above >= cfg.StartFrames:
			speaking = true
			events <- domain.SpeechEvent{Kind: domain.SpeechStart}
		case speaking && below >= cfg.HangFrames:
			speaking = false
			events <- domain.SpeechEvent{Kind: domain.SpeechEnd}
		}
	}
}

// rms computes the normalized root-mean-square level of an s16le frame.
func rms(frame []byte) float64 {
	n := len(frame) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(frame[i*2:]))
		v := float64(s) / math.MaxInt16
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}
