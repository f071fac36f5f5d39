// Package elevenlabs synthesizes speech through the ElevenLabs
// stream-input websocket API.
package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Config controls the ElevenLabs websocket settings.
type Config struct {
	APIKey       string
	WSBaseURL    string
	VoiceID      string
	Model        string
	OutputFormat string
}

func (c Config) withDefaults() Config {
	if c.WSBaseURL == "" {
		c.WSBaseURL = "wss://api.elevenlabs.io/v1"
	}
	if c.VoiceID == "" {
		c.VoiceID = "JBFqnCBsd6RMkjVDRZzb"
	}
	if c.Model == "" {
		c.Model = "eleven_monolingual_v1"
	}
	if c.OutputFormat == "" {
		c.OutputFormat = "mp3_44100_128"
	}
	return c
}

// Synthesizer implements ports.SpeechSynthesizer. Each Synthesize call
// runs one stream-input session and returns the concatenated audio.
type Synthesizer struct {
	cfg Config
}

func NewSynthesizer(cfg Config) *Synthesizer {
	return &Synthesizer{cfg: cfg.withDefaults()}
}

type textFrame struct {
	Text  string `json:"text"`
	Flush bool   `json:"flush,omitempty"`
}

type audioFrame struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return nil, errors.New("ELEVENLABS_API_KEY is not configured")
	}

	wsURL, err := buildStreamURL(s.cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("xi-api-key", s.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to ElevenLabs websocket")
	}

	session := &ttsSession{conn: conn, done: make(chan struct{})}
	defer session.close()

	go func() {
		select {
		case <-ctx.Done():
			session.close()
		case <-session.done:
		}
	}()

	// The protocol opens with a space, streams the utterance with a
	// flush, and closes the input with an empty text frame.
	frames := []textFrame{
		{Text: " "},
		{Text: text + " ", Flush: true},
		{Text: ""},
	}
	for _, frame := range frames {
		if err := conn.WriteJSON(frame); err != nil {
			return nil, errors.Wrap(err, "failed to send text frame")
		}
	}

	audio, err := session.collect()
	if err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return audio, nil
}

type ttsSession struct {
	conn *websocket.Conn

	done      chan struct{}
	closeOnce sync.Once
}

func (s *ttsSession) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// collect reads audio frames until the final one or a normal close.
func (s *ttsSession) collect() ([]byte, error) {
	var out []byte
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				return out, nil
			}
			return nil, errors.Wrap(err, "failed to read audio frame")
		}

		var frame audioFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			continue
		}
		if frame.Error != "" || frame.Message != "" {
			detail := frame.Error
			if detail == "" {
				detail = frame.Message
			}
			return nil, errors.Errorf("elevenlabs error: %s", detail)
		}

		if frame.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(frame.Audio)
			if err != nil {
				return nil, errors.Wrap(err, "invalid audio payload")
			}
			out = append(out, chunk...)
		}
		if frame.IsFinal {
			return out, nil
		}
	}
}

func buildStreamURL(cfg Config) (string, error) {
	base := strings.TrimSpace(cfg.WSBaseURL)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	streamURL, err := url.Parse(base + "/text-to-speech/" + url.PathEscape(cfg.VoiceID) + "/stream-input")
	if err != nil {
		return "", errors.Wrap(err, "invalid ElevenLabs base URL")
	}

	query := streamURL.Query()
	query.Set("model_id", cfg.Model)
	query.Set("output_format", cfg.OutputFormat)
	streamURL.RawQuery = query.Encode()
	return streamURL.String(), nil
}
