package text

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	openAIProviderName   = "openai"
	openAIDefaultModel   = openai.GPT4oMini
	openAIDefaultTimeout = 20 * time.Second

	// Rough blended per-token price used for cost accounting.
	openAICostPerToken = 0.000002
)

// OpenAIOptions configures the OpenAI-backed generator.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIGenerator produces snippets through the OpenAI chat API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	cfg := openai.DefaultConfig(strings.TrimSpace(opts.APIKey))
	if baseURL := strings.TrimRight(opts.BaseURL, "/"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	} else {
		cfg.HTTPClient = &http.Client{Timeout: openAIDefaultTimeout}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openAIDefaultModel
	}
	return &OpenAIGenerator{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (g *OpenAIGenerator) Name() string {
	return openAIProviderName
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		User:        req.UserID,
	})
	if err != nil {
		return nil, g.classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: openAIProviderName, Kind: ErrInvalidResponse, Err: errors.New("no choices returned")}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, &ProviderError{Provider: openAIProviderName, Kind: ErrInvalidResponse, Err: errors.New("empty completion")}
	}
	model := resp.Model
	if model == "" {
		model = g.model
	}
	return &Result{
		Content:      content,
		Tokens:       resp.Usage.TotalTokens,
		Model:        model,
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

func (g *OpenAIGenerator) TestConnection(ctx context.Context) bool {
	_, err := g.client.ListModels(ctx)
	return err == nil
}

func (g *OpenAIGenerator) classify(err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		perr := classifyStatus(openAIProviderName, apiErr.HTTPStatusCode, err)
		if perr.Kind == ErrRateLimited {
			perr.RetryAfter = time.Second
		}
		return perr
	}
	return &ProviderError{Provider: openAIProviderName, Kind: ErrServerError, Err: err}
}

// EstimateCost converts a token count to an approximate dollar cost.
func EstimateCost(tokens int) float64 {
	return float64(tokens) * openAICostPerToken
}

var _ Generator = (*OpenAIGenerator)(nil)
