package domain

import (
	"encoding/base64"
	"strings"
)

// Sender identifies which side of the conversation a message belongs to.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Phase describes the in-flight exchange's stage. The zero value means no
// exchange is in flight.
type Phase string

const (
	PhaseIdle       Phase = ""
	PhaseListening  Phase = "listening"
	PhaseProcessing Phase = "processing"
	PhaseThinking   Phase = "thinking"
	PhaseGenerating Phase = "generating"
)

// Message is one transcript entry. A placeholder is a Message whose Text is
// still empty; it is resolved in place or removed before its exchange ends.
type Message struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	Sender       Sender `json:"sender"`
	VideoDataURI string `json:"videoDataUri,omitempty"`
}

// IsPlaceholder reports whether the message is still awaiting its content.
func (m Message) IsPlaceholder() bool {
	return m.Text == ""
}

// Role is a conversation role in backend request history.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one prior conversation entry sent to the backend for context.
type Turn struct {
	Role Role
	Text string
}

// TranscriptView is the full UI-facing conversation snapshot emitted on
// every state transition.
type TranscriptView struct {
	Messages []Message `json:"messages"`
	Phase    Phase     `json:"phase"`
	// IndicatorID is the id of the message whose bubble renders the
	// transient phase indicator, or empty when none should.
	IndicatorID string `json:"indicatorId,omitempty"`
}

// MediaPayload is an assembled per-turn capture encoded as a
// data:<mime>;base64,<payload> URI, consumed by one backend call and then
// discarded.
type MediaPayload struct {
	MIMEType string
	URI      string
}

// NewMediaPayload base64-encodes a captured blob into its transfer form.
func NewMediaPayload(mimeType string, data []byte) MediaPayload {
	return MediaPayload{
		MIMEType: mimeType,
		URI:      "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

// Empty reports whether the capture produced no bytes.
func (p MediaPayload) Empty() bool {
	return p.Base64() == ""
}

// Base64 strips the data URI prefix, yielding the bare payload the
// backend expects.
func (p MediaPayload) Base64() string {
	return StripDataURI(p.URI)
}

// StripDataURI removes a data URI prefix, returning the bare base64 payload.
func StripDataURI(s string) string {
	if i := strings.Index(s, ";base64,"); i >= 0 {
		return s[i+len(";base64,"):]
	}
	return s
}

// ErrorCode identifies failure classes surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup          ErrorCode = "startup"
	ErrorCodePermissionDenied ErrorCode = "permission_denied"
	ErrorCodeEmptyCapture     ErrorCode = "empty_capture"
	ErrorCodeBackend          ErrorCode = "backend"
	ErrorCodePlayback         ErrorCode = "playback"
	ErrorCodeCapture          ErrorCode = "capture"
)

// SpeechEventKind distinguishes detector events.
type SpeechEventKind string

const (
	SpeechStart SpeechEventKind = "speech_start"
	SpeechEnd   SpeechEventKind = "speech_end"
)

// SpeechEvent is one voice-activity boundary from the detector.
type SpeechEvent struct {
	Kind SpeechEventKind
}
