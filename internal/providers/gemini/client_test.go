package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shayan12456/PromptLens/internal/domain"
)

func newTestServer(t *testing.T, status int, body string, capture *generateRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func candidateBody(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + string(mustJSON(text)) + `}]}}]}`
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func TestTranscribeAndRespondRequestShape(t *testing.T) {
	t.Parallel()

	var captured generateRequest
	server := newTestServer(t, http.StatusOK, candidateBody("result: Sure, transcript: hi"), &captured)
	defer server.Close()

	client := NewClientWithHTTP(Config{APIKey: "secret", BaseURL: server.URL}, server.Client())

	audio := domain.NewMediaPayload("audio/webm", []byte("voice"))
	video := domain.NewMediaPayload("video/webm", []byte("frames"))
	history := []domain.Turn{
		{Role: domain.RoleModel, Text: "How may I help you?"},
		{Role: domain.RoleUser, Text: "earlier question"},
	}

	out, err := client.TranscribeAndRespond(context.Background(), audio, video, history)
	require.NoError(t, err)
	assert.Equal(t, "result: Sure, transcript: hi", out)

	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "model", captured.Contents[0].Role)
	assert.Equal(t, "How may I help you?", captured.Contents[0].Parts[0].Text)
	assert.Equal(t, "user", captured.Contents[1].Role)

	turn := captured.Contents[2]
	require.Len(t, turn.Parts, 4)
	assert.Equal(t, "user", turn.Role)
	assert.NotEmpty(t, turn.Parts[0].Text)
	require.NotNil(t, turn.Parts[1].InlineData)
	assert.Equal(t, "audio/webm", turn.Parts[1].InlineData.MIMEType)
	assert.Equal(t, audio.Base64(), turn.Parts[1].InlineData.Data)
	assert.NotContains(t, turn.Parts[1].InlineData.Data, "base64,")
	require.NotNil(t, turn.Parts[3].InlineData)
	assert.Equal(t, "video/webm", turn.Parts[3].InlineData.MIMEType)

	require.NotNil(t, captured.SystemInstruction)
	assert.NotEmpty(t, captured.SystemInstruction.Parts[0].Text)
}

func TestChatRespondRequestShape(t *testing.T) {
	t.Parallel()

	var captured generateRequest
	server := newTestServer(t, http.StatusOK, candidateBody("Hi!"), &captured)
	defer server.Close()

	client := NewClientWithHTTP(Config{APIKey: "secret", BaseURL: server.URL}, server.Client())

	out, err := client.ChatRespond(context.Background(), "hello", []domain.Turn{
		{Role: domain.RoleModel, Text: "How may I help you?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi!", out)

	require.Len(t, captured.Contents, 2)
	last := captured.Contents[1]
	assert.Equal(t, "user", last.Role)
	require.Len(t, last.Parts, 1)
	assert.Equal(t, "hello", last.Parts[0].Text)
	assert.Nil(t, last.Parts[0].InlineData)
}

func TestGenerateAPIError(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, http.StatusBadRequest, `{"error":{"code":400,"message":"invalid argument","status":"INVALID_ARGUMENT"}}`, nil)
	defer server.Close()

	client := NewClientWithHTTP(Config{APIKey: "secret", BaseURL: server.URL}, server.Client())

	_, err := client.ChatRespond(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid argument")
}

func TestGenerateNoCandidates(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, http.StatusOK, `{"candidates":[]}`, nil)
	defer server.Close()

	client := NewClientWithHTTP(Config{APIKey: "secret", BaseURL: server.URL}, server.Client())

	_, err := client.ChatRespond(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestGenerateConcatenatesParts(t *testing.T) {
	t.Parallel()

	body := `{"candidates":[{"content":{"parts":[{"text":"Hello "},{"text":"world"}]}}]}`
	server := newTestServer(t, http.StatusOK, body, nil)
	defer server.Close()

	client := NewClientWithHTTP(Config{APIKey: "secret", BaseURL: server.URL}, server.Client())

	out, err := client.ChatRespond(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out)
}
