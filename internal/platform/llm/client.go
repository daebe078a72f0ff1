// Package llm wraps an OpenAI-compatible endpoint for guide chat
// completions and message embeddings.
package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/selfmap/selfmap-backend/internal/platform/envutil"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
)

const (
	DefaultChatModel      = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"

	// Generation settings for the guide.
	maxNewTokens = 300
	temperature  = 0.6
	topP         = 0.9
)

type Client interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Config struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	EmbeddingDim   int
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:         envutil.String("OPENAI_API_KEY", ""),
		BaseURL:        envutil.String("OPENAI_BASE_URL", ""),
		ChatModel:      envutil.String("LLM_CHAT_MODEL", DefaultChatModel),
		EmbeddingModel: envutil.String("LLM_EMBEDDING_MODEL", DefaultEmbeddingModel),
		EmbeddingDim:   envutil.Int("LLM_EMBEDDING_DIM", 384),
		Timeout:        envutil.Duration("LLM_TIMEOUT", 60*time.Second),
		MaxRetries:     envutil.Int("LLM_MAX_RETRIES", 2),
		RetryDelay:     envutil.Duration("LLM_RETRY_DELAY", 2*time.Second),
	}
}

type openAIClient struct {
	client *openai.Client
	cfg    Config
	log    *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &openAIClient{
		client: openai.NewClientWithConfig(apiCfg),
		cfg:    cfg,
		log:    log.With("client", "LLMClient"),
	}, nil
}

func (c *openAIClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   maxNewTokens,
		Temperature: temperature,
		TopP:        topP,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns an embedding for text, retrying transient failures
// with linear backoff.
func (c *openAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * c.cfg.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		resp, err := c.embedOnce(ctx, text)
		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *openAIClient) embedOnce(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(c.cfg.EmbeddingModel),
		Dimensions: c.cfg.EmbeddingDim,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return resp.Data[0].Embedding, nil
}
