package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChatCompleter struct {
	content  string
	err      error
	requests []openai.ChatCompletionRequest
}

func (m *mockChatCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: m.content}},
		},
	}, nil
}

func newTestSummarizer(client ChatCompleter) *OpenAISummarizer {
	return &OpenAISummarizer{
		client:  client,
		model:   "gpt-4o-mini",
		timeout: time.Minute,
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{Name: "test"}),
	}
}

func TestOpenAISummarizer_Summarize(t *testing.T) {
	client := &mockChatCompleter{content: "  今週は2件の問い合わせがありました。  "}
	s := newTestSummarizer(client)

	summary, err := s.Summarize(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "今週は2件の問い合わせがありました。", summary, "response should be trimmed")

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "gpt-4o-mini", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)

	// The user prompt carries the property, period, and each inquiry line.
	prompt := req.Messages[1].Content
	assert.Contains(t, prompt, "グランメゾン青山")
	assert.Contains(t, prompt, "2024-06-03")
	assert.Contains(t, prompt, "山田太郎")
	assert.Contains(t, prompt, "佐藤花子")
}

func TestOpenAISummarizer_Summarize_APIError(t *testing.T) {
	s := newTestSummarizer(&mockChatCompleter{err: errors.New("rate limited")})

	_, err := s.Summarize(context.Background(), testRequest())
	require.Error(t, err)
}

func TestOpenAISummarizer_Summarize_NoChoices(t *testing.T) {
	// A completer that returns an empty choice list.
	client := &emptyChatCompleter{}
	s := newTestSummarizer(client)

	_, err := s.Summarize(context.Background(), testRequest())
	require.Error(t, err)
}

type emptyChatCompleter struct{}

func (emptyChatCompleter) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}
