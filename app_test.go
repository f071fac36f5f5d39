package promptlens

import (
	"errors"
	"testing"

	"github.com/Shayan12456/PromptLens/internal/domain"
)

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:          "Startup failed",
		domain.ErrorCodePermissionDenied: "Screen or microphone access was denied",
		domain.ErrorCodeEmptyCapture:     "Nothing was captured",
		domain.ErrorCodeBackend:          "Assistant request failed",
		domain.ErrorCodePlayback:         "Audio playback issue",
		domain.ErrorCodeCapture:          "Recording issue",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app = &App{bootErr: bootErr}
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
}

func TestTranscriptBeforeStartup(t *testing.T) {
	t.Parallel()

	app := &App{}
	view := app.Transcript()
	if len(view.Messages) != 0 || view.Phase != domain.PhaseIdle {
		t.Fatalf("expected empty view before startup, got %+v", view)
	}
	if app.ScreenShareActive() {
		t.Fatalf("expected no active share before startup")
	}
}

func TestEventEmissionGuardsNilContext(t *testing.T) {
	t.Parallel()

	app := &App{}
	app.TranscriptChanged(domain.TranscriptView{})
	app.ScreenShareChanged(true)
	app.SessionError(domain.ErrorCodeBackend, "boom")
}
