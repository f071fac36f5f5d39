// Package usecase orchestrates the conversation session: the screen-share
// capture lifecycle, the voice exchange flow driven by speech boundaries,
// the typed chat flow, and single-slot response playback.
package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Shayan12456/PromptLens/internal/domain"
	"github.com/Shayan12456/PromptLens/internal/ports"
)

var (
	ErrShareActive   = errors.New("screen share already active")
	ErrShareInactive = errors.New("screen share not active")
)

// CaptureManager owns the microphone and screen streams for one share
// session. Acquisition is all-or-nothing; deactivation is idempotent.
type CaptureManager struct {
	mic    ports.MicrophoneCapture
	screen ports.ScreenCapture
	events ports.EventSink
	log    zerolog.Logger

	mu           sync.Mutex
	micStream    ports.MediaStream
	screenStream ports.MediaStream
}

func NewCaptureManager(mic ports.MicrophoneCapture, screen ports.ScreenCapture, events ports.EventSink, log zerolog.Logger) *CaptureManager {
	return &CaptureManager{mic: mic, screen: screen, events: events, log: log}
}

// Activate acquires the screen and microphone streams. On any failure no
// partial state is retained.
func (m *CaptureManager) Activate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.micStream != nil {
		return ErrShareActive
	}

	screenStream, err := m.screen.Acquire(ctx)
	if err != nil {
		m.events.SessionError(domain.ErrorCodePermissionDenied, err.Error())
		return err
	}
	micStream, err := m.mic.Acquire(ctx)
	if err != nil {
		_ = screenStream.Close()
		m.events.SessionError(domain.ErrorCodePermissionDenied, err.Error())
		return err
	}

	m.micStream = micStream
	m.screenStream = screenStream
	m.events.ScreenShareChanged(true)
	return nil
}

// Deactivate releases both streams. Safe to call when already inactive.
func (m *CaptureManager) Deactivate() {
	m.mu.Lock()
	micStream := m.micStream
	screenStream := m.screenStream
	m.micStream = nil
	m.screenStream = nil
	m.mu.Unlock()

	if micStream == nil {
		return
	}
	if err := micStream.Close(); err != nil {
		m.log.Warn().Err(err).Msg("microphone stream close failed")
	}
	if err := screenStream.Close(); err != nil {
		m.log.Warn().Err(err).Msg("screen stream close failed")
	}
	m.events.ScreenShareChanged(false)
}

// Active reports whether a share session is live.
func (m *CaptureManager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.micStream != nil
}

// Streams returns the live streams, or ok=false when the share is
// inactive.
func (m *CaptureManager) Streams() (mic, screen ports.MediaStream, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.micStream == nil {
		return nil, nil, false
	}
	return m.micStream, m.screenStream, true
}
