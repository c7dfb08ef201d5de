package textgen

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

// OpenAIConfig configures the OpenAI-compatible chat-model client.
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	// RequestsPerMinute caps the client-side request rate. Zero
	// disables limiting.
	RequestsPerMinute int
}

// DefaultOpenAIConfig returns conservative defaults for report
// generation workloads.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model:             "gpt-4o",
		Temperature:       0.4,
		RequestsPerMinute: 20,
	}
}

// OpenAIClient is the production Client backed by an OpenAI-compatible
// endpoint via the eino chat-model component.
type OpenAIClient struct {
	chatModel model.ChatModel
	modelName string
	temp      float32
	limiter   *rate.Limiter
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient builds the chat model and rate limiter.
func NewOpenAIClient(ctx context.Context, cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("textgen: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIConfig().Model
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("textgen: init chat model: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	return &OpenAIClient{
		chatModel: chatModel,
		modelName: cfg.Model,
		temp:      cfg.Temperature,
		limiter:   limiter,
	}, nil
}

// Generate sends the composed prompts and returns the completion with
// token usage. Rate limiting blocks here, honoring ctx cancellation.
// Failures are returned as-is; the sequential-generation contract
// leaves retry policy to the caller, which chooses not to retry.
func (c *OpenAIClient) Generate(ctx context.Context, req *Request) (*Completion, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("textgen: rate limit wait: %w", err)
		}
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: req.System},
		{Role: schema.User, Content: req.User},
	}

	var opts []model.Option
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	if c.temp > 0 {
		opts = append(opts, model.WithTemperature(c.temp))
	}

	resp, err := c.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("textgen: generate: %w", err)
	}

	out := &Completion{
		Text:  resp.Content,
		Model: c.modelName,
	}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		out.InputTokens = resp.ResponseMeta.Usage.PromptTokens
		out.OutputTokens = resp.ResponseMeta.Usage.CompletionTokens
	}
	return out, nil
}
