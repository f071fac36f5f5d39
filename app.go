package promptlens

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/Shayan12456/PromptLens/internal/bootstrap"
	"github.com/Shayan12456/PromptLens/internal/config"
	"github.com/Shayan12456/PromptLens/internal/domain"
	"github.com/Shayan12456/PromptLens/internal/transcript"
	"github.com/Shayan12456/PromptLens/internal/usecase"
)

const (
	eventTranscript = "promptlens:transcript"
	eventShare      = "promptlens:share"
	eventError      = "promptlens:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	capture      *usecase.CaptureManager
	orchestrator *usecase.Orchestrator
	conversation *transcript.Conversation
	cfg          config.Config
	bootErr      error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.capture = services.Capture
	a.orchestrator = services.Orchestrator
	a.conversation = services.Conversation
	a.cfg = services.Config
	a.TranscriptChanged(a.conversation.View())
}

func (a *App) shutdown(_ context.Context) {
	if a.orchestrator != nil {
		a.orchestrator.StopListening()
	}
	if a.capture != nil {
		a.capture.Deactivate()
	}
}

// ShareScreen acquires the screen and microphone and starts listening for
// speech.
func (a *App) ShareScreen() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.capture.Activate(a.ctx); err != nil {
		return err
	}
	if err := a.orchestrator.StartListening(a.ctx); err != nil {
		a.capture.Deactivate()
		a.SessionError(domain.ErrorCodeCapture, err.Error())
		return err
	}
	return nil
}

// StopShareScreen ends the share session. Safe to call when none is
// active.
func (a *App) StopShareScreen() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.orchestrator.StopListening()
	a.capture.Deactivate()
	return nil
}

// SendMessage runs one typed exchange. It returns when the exchange has
// fully resolved; transcript updates stream out as events meanwhile.
func (a *App) SendMessage(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.orchestrator.Send(a.ctx, text)
	return nil
}

// Transcript returns the current conversation snapshot.
func (a *App) Transcript() domain.TranscriptView {
	if a.conversation == nil {
		return domain.TranscriptView{}
	}
	return a.conversation.View()
}

// ScreenShareActive reports whether a share session is live.
func (a *App) ScreenShareActive() bool {
	return a.capture != nil && a.capture.Active()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	return map[string]string{
		"model":      a.cfg.Gemini.Model,
		"voice":      a.cfg.ElevenLabs.VoiceID,
		"ttsModel":   a.cfg.ElevenLabs.Model,
		"audioInput": a.cfg.Microphone.InputDevice,
		"display":    a.cfg.Screen.Display,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.orchestrator == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// TranscriptChanged pushes the conversation snapshot to the frontend.
func (a *App) TranscriptChanged(view domain.TranscriptView) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, view)
}

// ScreenShareChanged emits share lifecycle updates to the frontend.
func (a *App) ScreenShareChanged(active bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventShare, map[string]bool{"active": active})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodePermissionDenied:
		return "Screen or microphone access was denied"
	case domain.ErrorCodeEmptyCapture:
		return "Nothing was captured"
	case domain.ErrorCodeBackend:
		return "Assistant request failed"
	case domain.ErrorCodePlayback:
		return "Audio playback issue"
	case domain.ErrorCodeCapture:
		return "Recording issue"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
