// Package gemini implements the multimodal backend over the Gemini
// generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/Shayan12456/PromptLens/internal/domain"
)

const (
	// DefaultBaseURL is the default Gemini API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel is the generation model used for both call shapes.
	DefaultModel = "gemini-2.0-flash-001"
)

// Config describes the Gemini connection.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	return c
}

// Client is a generateContent client implementing ports.Responder.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return NewClientWithHTTP(cfg, &http.Client{Timeout: 60 * time.Second})
}

func NewClientWithHTTP(cfg Config, httpClient *http.Client) *Client {
	return &Client{cfg: cfg.withDefaults(), httpClient: httpClient}
}

// The Gemini API uses camelCase JSON field names.
type generateRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// TranscribeAndRespond submits one voice turn with its screen recording
// and prior conversation, returning the model's free text.
func (c *Client) TranscribeAndRespond(ctx context.Context, audio, video domain.MediaPayload, history []domain.Turn) (string, error) {
	parts := []part{
		{Text: voiceInstruction},
		{InlineData: &blob{MIMEType: audio.MIMEType, Data: audio.Base64()}},
		{Text: "Here is the screen context to support understanding:"},
		{InlineData: &blob{MIMEType: video.MIMEType, Data: video.Base64()}},
	}

	req := &generateRequest{
		Contents:          append(historyContents(history), content{Role: "user", Parts: parts}),
		SystemInstruction: &content{Parts: []part{{Text: voiceSystemInstruction}}},
	}
	return c.generate(ctx, req)
}

// ChatRespond submits a typed message with prior conversation.
func (c *Client) ChatRespond(ctx context.Context, text string, history []domain.Turn) (string, error) {
	req := &generateRequest{
		Contents:          append(historyContents(history), content{Role: "user", Parts: []part{{Text: text}}}),
		SystemInstruction: &content{Parts: []part{{Text: chatSystemInstruction}}},
	}
	return c.generate(ctx, req)
}

func historyContents(history []domain.Turn) []content {
	contents := make([]content, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, content{
			Role:  string(turn.Role),
			Parts: []part{{Text: turn.Text}},
		})
	}
	return contents
}

func (c *Client) generate(ctx context.Context, req *generateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}

	url := c.cfg.BaseURL + "/models/" + c.cfg.Model + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", errors.Errorf("gemini api error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", errors.Errorf("gemini api error: status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", errors.Wrap(err, "failed to decode response")
	}
	if len(parsed.Candidates) == 0 {
		return "", errors.New("response contained no candidates")
	}

	var out bytes.Buffer
	for _, p := range parsed.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	return out.String(), nil
}
