package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeProvider serves /v1/chat/completions and records each request.
func newFakeProvider(t *testing.T, handler func(req openai.ChatCompletionRequest) (int, any)) (*httptest.Server, *[]openai.ChatCompletionRequest) {
	t.Helper()
	var seen []openai.ChatCompletionRequest

	e := echo.New()
	e.POST("/v1/chat/completions", func(c echo.Context) error {
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": map[string]any{"message": err.Error()}})
		}
		seen = append(seen, req)
		status, body := handler(req)
		return c.JSON(status, body)
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, &seen
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:    "chatcmpl-1",
		Model: "test-model",
		Choices: []openai.ChatCompletionChoice{{
			Index:        0,
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: openai.Usage{PromptTokens: 40, CompletionTokens: 12, TotalTokens: 52},
	}
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)

	_, err = NewService(&Config{Provider: "groq", APIKey: "k"})
	assert.ErrorContains(t, err, "model is required")

	_, err = NewService(&Config{Provider: "groq", Model: "m"})
	assert.ErrorContains(t, err, "api key is required")

	svc, err := NewService(&Config{Provider: "ollama", Model: "llama3.1"})
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", svc.Model())
}

func TestNewService_Defaults(t *testing.T) {
	svc, err := NewService(&Config{Provider: "groq", Model: "m", APIKey: "k"})
	require.NoError(t, err)

	s, ok := svc.(*service)
	require.True(t, ok)
	assert.Equal(t, 800, s.maxTokens)
	assert.Equal(t, float32(0.7), s.temperature)
	assert.Equal(t, float32(0.9), s.topP)
	assert.Equal(t, 60, s.timeout)
}

func TestChat(t *testing.T) {
	srv, seen := newFakeProvider(t, func(openai.ChatCompletionRequest) (int, any) {
		return http.StatusOK, reply("1. Break text into short chunks\n2. Use a ruler")
	})

	svc, err := NewService(&Config{
		Provider:   "groq",
		Model:      "test-model",
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/v1",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	msgs := FormatMessages("You are helpful.", "How can I read faster?", []Message{
		UserMessage("hi"),
		AssistantMessage("Hello!"),
	})
	content, stats, err := svc.Chat(context.Background(), msgs, CallOptions{MaxTokens: 150})
	require.NoError(t, err)

	assert.Equal(t, "1. Break text into short chunks\n2. Use a ruler", content)
	require.NotNil(t, stats)
	assert.Equal(t, 52, stats.TotalTokens)
	assert.Equal(t, 40, stats.PromptTokens)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, 150, req.MaxTokens)
	assert.Equal(t, float32(0.9), req.TopP)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, req.Messages[2].Role)
	assert.Equal(t, "How can I read faster?", req.Messages[3].Content)
}

func TestChat_Errors(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		srv, _ := newFakeProvider(t, func(openai.ChatCompletionRequest) (int, any) {
			return http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"message": "Invalid API Key", "type": "invalid_request_error"},
			}
		})
		svc, err := NewService(&Config{Provider: "groq", Model: "m", APIKey: "bad", BaseURL: srv.URL + "/v1"})
		require.NoError(t, err)

		_, _, err = svc.Chat(context.Background(), []Message{UserMessage("hi")}, CallOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LLM chat failed")
		assert.Contains(t, err.Error(), "Invalid API Key")
	})

	t.Run("no choices", func(t *testing.T) {
		srv, _ := newFakeProvider(t, func(openai.ChatCompletionRequest) (int, any) {
			return http.StatusOK, openai.ChatCompletionResponse{ID: "empty"}
		})
		svc, err := NewService(&Config{Provider: "groq", Model: "m", APIKey: "k", BaseURL: srv.URL + "/v1"})
		require.NoError(t, err)

		_, _, err = svc.Chat(context.Background(), []Message{UserMessage("hi")}, CallOptions{})
		assert.ErrorContains(t, err, "empty response")
	})
}

func TestConvertMessages(t *testing.T) {
	out := convertMessages([]Message{
		SystemPrompt("s"),
		UserMessage("u"),
		AssistantMessage("a"),
		{Role: "tool", Content: "x"},
	})
	require.Len(t, out, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, out[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, out[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, out[2].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, out[3].Role)
}

func TestFormatMessages_NoSystemPrompt(t *testing.T) {
	msgs := FormatMessages("", "question", nil)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Role)
}
