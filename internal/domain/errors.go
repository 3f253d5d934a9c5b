package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrCategoryForbidden  = errors.New("category not available on current tier")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrAllProvidersFailed = errors.New("all providers failed")
	ErrProviderFailure    = errors.New("provider failure")
	ErrContentGeneration  = errors.New("content generation failed")
)
