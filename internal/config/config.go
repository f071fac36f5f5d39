// Package config resolves runtime configuration from environment
// variables with sensible defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the application.
type Config struct {
	Gemini     GeminiConfig
	ElevenLabs ElevenLabsConfig
	Microphone MicrophoneConfig
	Screen     ScreenConfig
	Playback   PlaybackConfig
	Detector   DetectorConfig
	Exchange   ExchangeConfig
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type ElevenLabsConfig struct {
	APIKey       string
	WSBaseURL    string
	VoiceID      string
	Model        string
	OutputFormat string
}

type MicrophoneConfig struct {
	Command     string
	InputFormat string
	InputDevice string
	SampleRate  int
	Channels    int
}

type ScreenConfig struct {
	Command     string
	InputFormat string
	Display     string
	FrameRate   int
}

type PlaybackConfig struct {
	Command string
}

type DetectorConfig struct {
	Threshold     float64
	FrameDuration time.Duration
	StartFrames   int
	HangFrames    int
}

type ExchangeConfig struct {
	Debounce   time.Duration
	MinCapture time.Duration
	Settle     time.Duration
}

// Load resolves configuration from environment variables and defaults.
func Load() Config {
	ffmpeg := envOrDefault("PROMPTLENS_FFMPEG_COMMAND", "ffmpeg")

	return Config{
		Gemini: GeminiConfig{
			APIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			BaseURL: envOrDefault("GEMINI_API_BASE", "https://generativelanguage.googleapis.com/v1beta"),
			Model:   envOrDefault("GEMINI_MODEL", "gemini-2.0-flash-001"),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:       strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
			WSBaseURL:    envOrDefault("ELEVENLABS_WS_BASE", "wss://api.elevenlabs.io/v1"),
			VoiceID:      envOrDefault("ELEVENLABS_VOICE_ID", "JBFqnCBsd6RMkjVDRZzb"),
			Model:        envOrDefault("ELEVENLABS_MODEL", "eleven_monolingual_v1"),
			OutputFormat: envOrDefault("ELEVENLABS_OUTPUT_FORMAT", "mp3_44100_128"),
		},
		Microphone: MicrophoneConfig{
			Command:     ffmpeg,
			InputFormat: envOrDefault("PROMPTLENS_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice: envOrDefault("PROMPTLENS_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:  envOrDefaultInt("PROMPTLENS_SAMPLE_RATE", 16000),
			Channels:    envOrDefaultInt("PROMPTLENS_CHANNELS", 1),
		},
		Screen: ScreenConfig{
			Command:     ffmpeg,
			InputFormat: envOrDefault("PROMPTLENS_SCREEN_INPUT_FORMAT", "x11grab"),
			Display:     firstNonEmpty(os.Getenv("PROMPTLENS_DISPLAY"), os.Getenv("DISPLAY"), ":0.0"),
			FrameRate:   envOrDefaultInt("PROMPTLENS_SCREEN_FRAME_RATE", 15),
		},
		Playback: PlaybackConfig{
			Command: envOrDefault("PROMPTLENS_FFPLAY_COMMAND", "ffplay"),
		},
		Detector: DetectorConfig{
			Threshold:     envOrDefaultFloat("PROMPTLENS_VAD_THRESHOLD", 0.015),
			FrameDuration: time.Duration(envOrDefaultInt("PROMPTLENS_VAD_FRAME_MS", 30)) * time.Millisecond,
			StartFrames:   envOrDefaultInt("PROMPTLENS_VAD_START_FRAMES", 3),
			HangFrames:    envOrDefaultInt("PROMPTLENS_VAD_HANG_FRAMES", 10),
		},
		Exchange: ExchangeConfig{
			Debounce:   time.Duration(envOrDefaultInt("PROMPTLENS_DEBOUNCE_MS", 400)) * time.Millisecond,
			MinCapture: time.Duration(envOrDefaultInt("PROMPTLENS_MIN_CAPTURE_MS", 600)) * time.Millisecond,
			Settle:     time.Duration(envOrDefaultInt("PROMPTLENS_SETTLE_MS", 300)) * time.Millisecond,
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
