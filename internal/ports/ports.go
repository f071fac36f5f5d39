package ports

import (
	"context"

	"github.com/Shayan12456/PromptLens/internal/domain"
)

// MediaRecorder is one per-turn recording on a live stream. Halt asks the
// encoder to finish; Drain blocks until buffered chunks are flushed and
// returns the assembled capture.
type MediaRecorder interface {
	Halt() error
	Drain(ctx context.Context) ([]byte, error)
}

// MediaStream is a live acquired capture device (microphone or screen).
// Recorders exist only between speech boundaries; the stream outlives them.
type MediaStream interface {
	StartRecorder(ctx context.Context) (MediaRecorder, error)
	Close() error
}

// MicrophoneCapture acquires the microphone stream.
type MicrophoneCapture interface {
	Acquire(ctx context.Context) (MediaStream, error)
}

// ScreenCapture acquires the display stream.
type ScreenCapture interface {
	Acquire(ctx context.Context) (MediaStream, error)
}

// SpeechDetector emits speech-start/speech-end boundaries from the live
// microphone. The detection algorithm is opaque to the orchestrator.
type SpeechDetector interface {
	Start(ctx context.Context) (<-chan domain.SpeechEvent, error)
	Stop() error
}

// Responder is the multimodal AI backend.
type Responder interface {
	// TranscribeAndRespond submits one voice turn (audio + screen video)
	// with prior conversation context and returns the backend's free text.
	TranscribeAndRespond(ctx context.Context, audio, video domain.MediaPayload, history []domain.Turn) (string, error)
	// ChatRespond submits a typed message with prior context.
	ChatRespond(ctx context.Context, text string, history []domain.Turn) (string, error)
}

// SpeechSynthesizer converts sanitized text to playable audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// PlaybackHandle is one live audio playback that can be cut short.
type PlaybackHandle interface {
	Stop()
	Done() <-chan struct{}
}

// AudioPlayer starts playback of synthesized audio.
type AudioPlayer interface {
	Play(ctx context.Context, audio []byte) (PlaybackHandle, error)
}

// EventSink pushes backend state to the UI.
type EventSink interface {
	TranscriptChanged(view domain.TranscriptView)
	ScreenShareChanged(active bool)
	SessionError(code domain.ErrorCode, detail string)
}
