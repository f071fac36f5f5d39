package usecase

import (
	"context"
	"regexp"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Shayan12456/PromptLens/internal/ports"
)

var (
	markdownEmphasis = regexp.MustCompile("[*_`~^]")
	nonASCII         = regexp.MustCompile(`[^\x00-\x7F]`)
)

// SanitizeForSpeech strips markdown emphasis characters and non-ASCII
// runes; the synthesis backend is plain-text oriented.
func SanitizeForSpeech(text string) string {
	return nonASCII.ReplaceAllString(markdownEmphasis.ReplaceAllString(text, ""), "")
}

// PlaybackController keeps at most one response audio live at a time.
// Synthesis and playback failures are logged and swallowed; they never
// fail the surrounding exchange.
type PlaybackController struct {
	synth  ports.SpeechSynthesizer
	player ports.AudioPlayer
	log    zerolog.Logger

	mu     sync.Mutex
	handle ports.PlaybackHandle
}

func NewPlaybackController(synth ports.SpeechSynthesizer, player ports.AudioPlayer, log zerolog.Logger) *PlaybackController {
	return &PlaybackController{synth: synth, player: player, log: log}
}

// Speak synthesizes the sanitized text and starts playback, stopping any
// audio already playing. It returns once playback has started.
func (p *PlaybackController) Speak(ctx context.Context, text string) {
	clean := SanitizeForSpeech(text)
	if clean == "" {
		return
	}

	audio, err := p.synth.Synthesize(ctx, clean)
	if err != nil {
		p.log.Warn().Err(err).Msg("speech synthesis failed")
		return
	}
	if len(audio) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle != nil {
		p.handle.Stop()
		p.handle = nil
	}
	handle, err := p.player.Play(ctx, audio)
	if err != nil {
		p.log.Warn().Err(err).Msg("audio playback failed")
		return
	}
	p.handle = handle
}

// Cancel stops the live playback, if any. Safe to call with none active.
func (p *PlaybackController) Cancel() {
	p.mu.Lock()
	handle := p.handle
	p.handle = nil
	p.mu.Unlock()
	if handle != nil {
		handle.Stop()
	}
}
