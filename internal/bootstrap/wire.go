// Package bootstrap assembles the runtime dependency graph.
package bootstrap

import (
	"github.com/pkg/errors"

	"github.com/Shayan12456/PromptLens/internal/config"
	"github.com/Shayan12456/PromptLens/internal/logging"
	"github.com/Shayan12456/PromptLens/internal/media"
	"github.com/Shayan12456/PromptLens/internal/player"
	"github.com/Shayan12456/PromptLens/internal/ports"
	"github.com/Shayan12456/PromptLens/internal/providers/elevenlabs"
	"github.com/Shayan12456/PromptLens/internal/providers/gemini"
	"github.com/Shayan12456/PromptLens/internal/transcript"
	"github.com/Shayan12456/PromptLens/internal/usecase"
	"github.com/Shayan12456/PromptLens/internal/vad"
)

// Services is the assembled runtime graph.
type Services struct {
	Capture      *usecase.CaptureManager
	Orchestrator *usecase.Orchestrator
	Conversation *transcript.Conversation
	Config       config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(events ports.EventSink) (Services, error) {
	cfg := config.Load()
	if cfg.Gemini.APIKey == "" {
		return Services{}, errors.New("GEMINI_API_KEY is not configured")
	}

	log := logging.New()

	micCfg := media.MicrophoneConfig{
		Command:     cfg.Microphone.Command,
		InputFormat: cfg.Microphone.InputFormat,
		InputDevice: cfg.Microphone.InputDevice,
		SampleRate:  cfg.Microphone.SampleRate,
		Channels:    cfg.Microphone.Channels,
	}

	conversation := transcript.New(events)
	capture := usecase.NewCaptureManager(
		media.NewMicrophone(micCfg),
		media.NewScreen(media.ScreenConfig{
			Command:     cfg.Screen.Command,
			InputFormat: cfg.Screen.InputFormat,
			Display:     cfg.Screen.Display,
			FrameRate:   cfg.Screen.FrameRate,
		}),
		events,
		logging.Component(log, "capture"),
	)

	detector := vad.NewEnergyDetector(vad.Config{
		Microphone:    micCfg,
		Threshold:     cfg.Detector.Threshold,
		FrameDuration: cfg.Detector.FrameDuration,
		StartFrames:   cfg.Detector.StartFrames,
		HangFrames:    cfg.Detector.HangFrames,
	}, logging.Component(log, "vad"))

	playback := usecase.NewPlaybackController(
		elevenlabs.NewSynthesizer(elevenlabs.Config{
			APIKey:       cfg.ElevenLabs.APIKey,
			WSBaseURL:    cfg.ElevenLabs.WSBaseURL,
			VoiceID:      cfg.ElevenLabs.VoiceID,
			Model:        cfg.ElevenLabs.Model,
			OutputFormat: cfg.ElevenLabs.OutputFormat,
		}),
		player.NewFFPlay(player.Config{Command: cfg.Playback.Command}, logging.Component(log, "player")),
		logging.Component(log, "playback"),
	)

	orchestrator := usecase.NewOrchestrator(
		capture,
		detector,
		gemini.NewClient(gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			BaseURL: cfg.Gemini.BaseURL,
			Model:   cfg.Gemini.Model,
		}),
		conversation,
		playback,
		events,
		usecase.Config{
			Debounce:   cfg.Exchange.Debounce,
			MinCapture: cfg.Exchange.MinCapture,
			Settle:     cfg.Exchange.Settle,
		},
		logging.Component(log, "orchestrator"),
	)

	return Services{
		Capture:      capture,
		Orchestrator: orchestrator,
		Conversation: conversation,
		Config:       cfg,
	}, nil
}
