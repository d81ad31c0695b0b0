package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/closetmind/plugin/ai/timeout"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LLMService is the LLM service interface.
type LLMService interface {
	// Chat performs synchronous chat and returns the first choice's content.
	Chat(ctx context.Context, messages []Message, opts ...ChatOption) (string, error)
}

// ChatOption overrides request parameters for one Chat call.
type ChatOption func(*chatOptions)

type chatOptions struct {
	maxTokens   int
	temperature float32
	jsonObject  bool
}

// WithMaxTokens overrides the configured completion token limit.
func WithMaxTokens(n int) ChatOption {
	return func(o *chatOptions) { o.maxTokens = n }
}

// WithTemperature overrides the configured sampling temperature.
func WithTemperature(t float32) ChatOption {
	return func(o *chatOptions) { o.temperature = t }
}

// WithJSONResponse asks the model for a single JSON object.
func WithJSONResponse() ChatOption {
	return func(o *chatOptions) { o.jsonObject = true }
}

// chatClient is the subset of the OpenAI-compatible client used for completions.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type llmService struct {
	client      chatClient
	model       string
	maxTokens   int
	temperature float32
}

// NewLLMService creates a new LLMService. Every supported provider speaks the
// OpenAI chat completions protocol; they differ only in base URL and auth.
func NewLLMService(cfg *LLMConfig) (LLMService, error) {
	clientConfig := openai.DefaultConfig(cfg.APIKey)

	switch cfg.Provider {
	case "openai":
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	case "deepseek", "ollama":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%s requires a base URL", cfg.Provider)
		}
		clientConfig.BaseURL = cfg.BaseURL
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	return newLLMService(openai.NewClientWithConfig(clientConfig), cfg), nil
}

func newLLMService(client chatClient, cfg *LLMConfig) *llmService {
	return &llmService{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (s *llmService) Chat(ctx context.Context, messages []Message, opts ...ChatOption) (string, error) {
	o := chatOptions{maxTokens: s.maxTokens, temperature: s.temperature}
	for _, opt := range opts {
		opt(&o)
	}

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    convertMessages(messages),
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	}
	// The request field is omitempty; the smallest positive value is how
	// go-openai sends a temperature of zero.
	if req.Temperature <= 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	}
	if o.jsonObject {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.CompletionTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("empty response")
	}

	slog.Debug("chat completion finished",
		"model", s.model,
		"latency_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}

// Helper for creating system prompts
func SystemPrompt(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// Helper for creating user messages
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Helper for creating assistant messages
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// FormatMessages lays out a system prompt, earlier turns and the new user turn
// in the order chat models expect. An empty systemPrompt is left out.
func FormatMessages(systemPrompt string, userContent string, history []Message) []Message {
	messages := []Message{}
	if systemPrompt != "" {
		messages = append(messages, SystemPrompt(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userContent))
	return messages
}
