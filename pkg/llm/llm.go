package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// LLM represents a generic interface for interacting with LLMs
type LLM interface {
	// Query sends a single prompt and returns the model's text answer.
	Query(ctx context.Context, text string) (string, error)
}

var (
	ErrNotConfigured = errors.New("llm api key not configured")
	ErrEmptyResponse = errors.New("llm returned no content")
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int
	Timeout     time.Duration
}

// LLMHandler talks to any OpenAI-compatible chat-completions endpoint
// (OpenAI, Gemini's compatibility layer, Ollama, LM Studio).
type LLMHandler struct {
	client    *openai.Client
	cfg       Config
	systemMsg string
	logger    *logrus.Logger
}

// NewLLMHandler creates a handler; systemPrompt may be empty.
func NewLLMHandler(cfg Config, systemPrompt string, logger *logrus.Logger) (*LLMHandler, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &LLMHandler{
		client:    openai.NewClientWithConfig(clientCfg),
		cfg:       cfg,
		systemMsg: systemPrompt,
		logger:    logger,
	}, nil
}

// Query queries the LLM with text and gets a response
func (h *LLMHandler) Query(ctx context.Context, text string) (string, error) {
	if h.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Timeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if h.systemMsg != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: h.systemMsg})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})

	start := time.Now()
	resp, err := h.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       h.cfg.Model,
		Messages:    messages,
		Temperature: h.cfg.Temperature,
		TopP:        h.cfg.TopP,
		MaxTokens:   h.cfg.MaxTokens,
	})
	if err != nil {
		h.logger.WithError(err).WithField("model", h.cfg.Model).Warn("llm query failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		h.logger.WithField("model", h.cfg.Model).Warn("llm returned empty answer")
		return "", ErrEmptyResponse
	}

	h.logger.WithFields(logrus.Fields{
		"model":             h.cfg.Model,
		"elapsed":           time.Since(start).String(),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	}).Debug("llm query done")
	return resp.Choices[0].Message.Content, nil
}
