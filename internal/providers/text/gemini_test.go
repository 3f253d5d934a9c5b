package text

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func geminiWithResponse(t *testing.T, status int, body string, header http.Header) *GeminiGenerator {
	t.Helper()
	g, err := NewGeminiGenerator(GeminiOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: status,
				Header:     header,
				Body:       io.NopCloser(strings.NewReader(body)),
			}, nil
		})},
	})
	if err != nil {
		t.Fatalf("NewGeminiGenerator returned error: %v", err)
	}
	return g
}

func TestGeminiGenerateSuccess(t *testing.T) {
	body := `{"candidates":[{"content":{"parts":[{"text":"Small steps still move you forward."}]},"finishReason":"STOP"}],"usageMetadata":{"totalTokenCount":17},"modelVersion":"gemini-1.5-flash-002"}`
	g := geminiWithResponse(t, http.StatusOK, body, http.Header{})

	res, err := g.Generate(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "user", MaxTokens: 80, Temperature: 0.8})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if res.Content != "Small steps still move you forward." {
		t.Fatalf("Content = %q", res.Content)
	}
	if res.Tokens != 17 {
		t.Fatalf("Tokens = %d, want 17", res.Tokens)
	}
	if res.Model != "gemini-1.5-flash-002" {
		t.Fatalf("Model = %q", res.Model)
	}
	if res.FinishReason != "STOP" {
		t.Fatalf("FinishReason = %q", res.FinishReason)
	}
}

func TestGeminiClassifiesRateLimit(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "7")
	g := geminiWithResponse(t, http.StatusTooManyRequests, `{}`, header)

	_, err := g.Generate(context.Background(), Request{})
	perr, ok := err.(*ProviderError)
	if !ok {
		t.Fatalf("err = %T, want *ProviderError", err)
	}
	if perr.Kind != ErrRateLimited {
		t.Fatalf("Kind = %q, want rate_limited", perr.Kind)
	}
	if perr.RetryAfter != 7*time.Second {
		t.Fatalf("RetryAfter = %v, want 7s", perr.RetryAfter)
	}
}

func TestGeminiClassifiesAuthAndServerFailures(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusUnauthorized, ErrAuthFailed},
		{http.StatusForbidden, ErrAuthFailed},
		{http.StatusInternalServerError, ErrServerError},
		{http.StatusBadGateway, ErrServerError},
	}
	for _, tc := range cases {
		g := geminiWithResponse(t, tc.status, `{}`, http.Header{})
		_, err := g.Generate(context.Background(), Request{})
		perr, ok := err.(*ProviderError)
		if !ok {
			t.Fatalf("status %d: err = %T, want *ProviderError", tc.status, err)
		}
		if perr.Kind != tc.want {
			t.Fatalf("status %d: Kind = %q, want %q", tc.status, perr.Kind, tc.want)
		}
	}
}

func TestGeminiEmptyPayloadIsInvalidResponse(t *testing.T) {
	g := geminiWithResponse(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`, http.Header{})
	_, err := g.Generate(context.Background(), Request{})
	perr, ok := err.(*ProviderError)
	if !ok {
		t.Fatalf("err = %T, want *ProviderError", err)
	}
	if perr.Kind != ErrInvalidResponse {
		t.Fatalf("Kind = %q, want invalid_response", perr.Kind)
	}
}

func TestGeminiTestConnectionNeverPanicsOnFailure(t *testing.T) {
	g, err := NewGeminiGenerator(GeminiOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, io.ErrUnexpectedEOF
		})},
	})
	if err != nil {
		t.Fatalf("NewGeminiGenerator returned error: %v", err)
	}
	if g.TestConnection(context.Background()) {
		t.Fatal("TestConnection = true, want false on transport failure")
	}
}
