package text

import (
	"context"
	"fmt"
	"time"

	"github.com/uplift-app/uplift-api/internal/domain"
)

// Request carries everything a backend needs to produce one snippet.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	Category     domain.Category
	Locale       string
	UserID       string
}

// Result is the normalized success shape across backends.
type Result struct {
	Content      string
	Tokens       int
	Model        string
	FinishReason string
}

// Generator is the uniform interface every text backend implements.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Result, error)
	// TestConnection performs a minimal round-trip. It never returns an
	// error; any failure reports false.
	TestConnection(ctx context.Context) bool
}

// ErrorKind classifies backend failures for the orchestrator.
type ErrorKind string

const (
	ErrRateLimited     ErrorKind = "rate_limited"
	ErrAuthFailed      ErrorKind = "auth_failed"
	ErrServerError     ErrorKind = "server_error"
	ErrInvalidResponse ErrorKind = "invalid_response"
)

// ProviderError is a classified backend failure.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt against a different provider
// could succeed. Auth and malformed-response failures are fatal for the
// originating backend but still allow fallback.
func (e *ProviderError) Retryable() bool {
	return e.Kind == ErrRateLimited || e.Kind == ErrServerError
}

func classifyStatus(provider string, status int, err error) *ProviderError {
	switch {
	case status == 429:
		return &ProviderError{Provider: provider, Kind: ErrRateLimited, Err: err}
	case status == 401 || status == 403:
		return &ProviderError{Provider: provider, Kind: ErrAuthFailed, Err: err}
	case status >= 500:
		return &ProviderError{Provider: provider, Kind: ErrServerError, Err: err}
	default:
		return &ProviderError{Provider: provider, Kind: ErrInvalidResponse, Err: err}
	}
}
