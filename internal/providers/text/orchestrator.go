package text

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/uplift-app/uplift-api/internal/domain"
)

// HealthState classifies overall provider availability.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// HealthStatus reports the outcome of one live probe round. It is never
// cached between calls.
type HealthStatus struct {
	Status            HealthState     `json:"status"`
	Providers         map[string]bool `json:"providers"`
	PreferredProvider string          `json:"preferredProvider"`
	FallbackEnabled   bool            `json:"fallbackEnabled"`
}

// AllProvidersFailedError carries both underlying failures when neither
// provider could produce content.
type AllProvidersFailedError struct {
	PreferredErr error
	FallbackErr  error
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all providers failed: preferred: %v; fallback: %v", e.PreferredErr, e.FallbackErr)
}

func (e *AllProvidersFailedError) Unwrap() error {
	return domain.ErrAllProvidersFailed
}

// Orchestrator routes generation requests to a preferred provider with an
// optional single fallback to the secondary.
type Orchestrator struct {
	preferred       Generator
	secondary       Generator
	fallbackEnabled bool
	logger          zerolog.Logger
}

func NewOrchestrator(preferred, secondary Generator, fallbackEnabled bool, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		preferred:       preferred,
		secondary:       secondary,
		fallbackEnabled: fallbackEnabled,
		logger:          logger,
	}
}

// Generate tries the preferred provider and, when fallback is enabled,
// retries the same request exactly once against the secondary. With
// fallback disabled the preferred provider's error propagates untouched.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	res, err := o.preferred.Generate(ctx, req)
	if err == nil {
		return res, nil
	}
	if !o.fallbackEnabled || o.secondary == nil {
		return nil, err
	}
	o.logger.Warn().
		Str("provider", o.preferred.Name()).
		Err(err).
		Msg("preferred provider failed, trying fallback")
	fallbackRes, fallbackErr := o.secondary.Generate(ctx, req)
	if fallbackErr == nil {
		return fallbackRes, nil
	}
	return nil, &AllProvidersFailedError{PreferredErr: err, FallbackErr: fallbackErr}
}

// HealthStatus probes both providers concurrently and classifies the
// aggregate. One provider's failure never blocks the other's probe.
func (o *Orchestrator) HealthStatus(ctx context.Context) HealthStatus {
	providers := []Generator{o.preferred, o.secondary}
	results := make([]bool, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		if p == nil {
			continue
		}
		wg.Add(1)
		go func(i int, p Generator) {
			defer wg.Done()
			results[i] = p.TestConnection(ctx)
		}(i, p)
	}
	wg.Wait()

	status := HealthStatus{
		Providers:         make(map[string]bool, len(providers)),
		PreferredProvider: o.preferred.Name(),
		FallbackEnabled:   o.fallbackEnabled,
	}
	up := 0
	for i, p := range providers {
		if p == nil {
			continue
		}
		status.Providers[p.Name()] = results[i]
		if results[i] {
			up++
		}
	}
	switch up {
	case len(status.Providers):
		status.Status = HealthHealthy
	case 0:
		status.Status = HealthUnhealthy
	default:
		status.Status = HealthDegraded
	}
	return status
}
