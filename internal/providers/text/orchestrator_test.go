package text

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type fakeGenerator struct {
	name     string
	calls    int
	generate func(context.Context, Request) (*Result, error)
	healthy  bool
}

func (f *fakeGenerator) Name() string {
	return f.name
}

func (f *fakeGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	f.calls++
	if f.generate != nil {
		return f.generate(ctx, req)
	}
	return nil, errors.New("generate not implemented")
}

func (f *fakeGenerator) TestConnection(ctx context.Context) bool {
	return f.healthy
}

func failing(name string) *fakeGenerator {
	return &fakeGenerator{name: name, generate: func(context.Context, Request) (*Result, error) {
		return nil, &ProviderError{Provider: name, Kind: ErrServerError, Err: errors.New("boom")}
	}}
}

func succeeding(name, content string) *fakeGenerator {
	return &fakeGenerator{name: name, generate: func(context.Context, Request) (*Result, error) {
		return &Result{Content: content, Tokens: 42, Model: name + "-model"}, nil
	}}
}

func TestOrchestratorFallbackInvokedExactlyOnce(t *testing.T) {
	preferred := failing("openai")
	secondary := succeeding("gemini", "keep going")
	o := NewOrchestrator(preferred, secondary, true, zerolog.Nop())

	res, err := o.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if res.Content != "keep going" {
		t.Fatalf("Content = %q, want fallback content", res.Content)
	}
	if preferred.calls != 1 || secondary.calls != 1 {
		t.Fatalf("calls = (%d, %d), want (1, 1)", preferred.calls, secondary.calls)
	}
}

func TestOrchestratorBothFailCarriesBothErrors(t *testing.T) {
	preferred := failing("openai")
	secondary := failing("gemini")
	o := NewOrchestrator(preferred, secondary, true, zerolog.Nop())

	_, err := o.Generate(context.Background(), Request{})
	var allFailed *AllProvidersFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("err = %v, want AllProvidersFailedError", err)
	}
	if allFailed.PreferredErr == nil || allFailed.FallbackErr == nil {
		t.Fatal("expected both underlying errors to be carried")
	}
	if secondary.calls != 1 {
		t.Fatalf("secondary calls = %d, want 1", secondary.calls)
	}
}

func TestOrchestratorFallbackDisabledPropagatesPreferredError(t *testing.T) {
	preferred := failing("openai")
	secondary := succeeding("gemini", "unused")
	o := NewOrchestrator(preferred, secondary, false, zerolog.Nop())

	_, err := o.Generate(context.Background(), Request{})
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want untouched ProviderError", err)
	}
	if perr.Provider != "openai" {
		t.Fatalf("Provider = %q, want openai", perr.Provider)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary calls = %d, want 0", secondary.calls)
	}
}

func TestOrchestratorHealthClassification(t *testing.T) {
	cases := []struct {
		name      string
		preferred bool
		secondary bool
		want      HealthState
	}{
		{"both up", true, true, HealthHealthy},
		{"preferred down", false, true, HealthDegraded},
		{"secondary down", true, false, HealthDegraded},
		{"both down", false, false, HealthUnhealthy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := NewOrchestrator(
				&fakeGenerator{name: "openai", healthy: tc.preferred},
				&fakeGenerator{name: "gemini", healthy: tc.secondary},
				true,
				zerolog.Nop(),
			)
			status := o.HealthStatus(context.Background())
			if status.Status != tc.want {
				t.Fatalf("Status = %q, want %q", status.Status, tc.want)
			}
			if status.Providers["openai"] != tc.preferred || status.Providers["gemini"] != tc.secondary {
				t.Fatalf("Providers = %v", status.Providers)
			}
			if status.PreferredProvider != "openai" {
				t.Fatalf("PreferredProvider = %q", status.PreferredProvider)
			}
		})
	}
}
