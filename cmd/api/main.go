package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/uplift-app/uplift-api/internal/adapter/repo"
	"github.com/uplift-app/uplift-api/internal/cache"
	"github.com/uplift-app/uplift-api/internal/dailydrop"
	"github.com/uplift-app/uplift-api/internal/dedup"
	"github.com/uplift-app/uplift-api/internal/entitlement"
	"github.com/uplift-app/uplift-api/internal/http/handlers"
	"github.com/uplift-app/uplift-api/internal/http/httpapi"
	"github.com/uplift-app/uplift-api/internal/infra"
	"github.com/uplift-app/uplift-api/internal/infra/geoip"
	"github.com/uplift-app/uplift-api/internal/middleware"
	"github.com/uplift-app/uplift-api/internal/providers/text"
	"github.com/uplift-app/uplift-api/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	users := repo.NewUserRepository(dbpool)
	messages := repo.NewMessageRepository(dbpool)
	drops := repo.NewDailyDropRepository(dbpool)

	orchestrator := buildOrchestrator(cfg, logger)
	validator := entitlement.NewValidator(buildEntitlementSources(cfg, logger), messages, logger)
	deduper := dedup.NewEngine(messages, logger)
	store := buildCache(cfg, logger)

	dropGen := dailydrop.NewGenerator(drops, orchestrator, deduper, store, dailydrop.DefaultRetryPolicy(), logger)
	messageSvc := service.NewMessageService(users, messages, validator, orchestrator, deduper, logger)

	app := handlers.NewApp(messageSvc, dropGen, orchestrator, users, logger)

	var lookup middleware.CountryLookup
	if cfg.GeoIPDBPath != "" {
		resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn().Err(err).Msg("geoip database unavailable, falling back to header locale detection")
		} else {
			defer resolver.Close()
			lookup = resolver.CountryCode
		}
	}

	router := httpapi.NewRouter(cfg, app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func buildOrchestrator(cfg *infra.Config, logger infra.Logger) *text.Orchestrator {
	var openaiGen, geminiGen text.Generator

	if gen, err := text.NewOpenAIGenerator(text.OpenAIOptions{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	}); err != nil {
		logger.Warn().Err(err).Msg("openai provider unavailable")
	} else {
		openaiGen = gen
	}

	if gen, err := text.NewGeminiGenerator(text.GeminiOptions{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}); err != nil {
		logger.Warn().Err(err).Msg("gemini provider unavailable")
	} else {
		geminiGen = gen
	}

	preferred, secondary := openaiGen, geminiGen
	if cfg.PreferredProvider == "gemini" {
		preferred, secondary = geminiGen, openaiGen
	}
	if preferred == nil {
		preferred, secondary = secondary, nil
	}
	if preferred == nil {
		logger.Fatal().Msg("no text provider configured")
	}
	return text.NewOrchestrator(preferred, secondary, cfg.FallbackEnabled && secondary != nil, logger)
}

func buildEntitlementSources(cfg *infra.Config, logger infra.Logger) []entitlement.Source {
	var sources []entitlement.Source

	if src, err := entitlement.NewRevenueCatSource(entitlement.RevenueCatOptions{
		APIKey:  cfg.RevenueCatAPIKey,
		BaseURL: cfg.RevenueCatBaseURL,
	}); err != nil {
		logger.Warn().Err(err).Msg("revenuecat source unavailable")
	} else {
		sources = append(sources, src)
	}

	if src, err := entitlement.NewStripeSource(entitlement.StripeOptions{
		APIKey:  cfg.StripeAPIKey,
		BaseURL: cfg.StripeBaseURL,
	}); err != nil {
		logger.Warn().Err(err).Msg("stripe source unavailable")
	} else {
		sources = append(sources, src)
	}

	return sources
}

func buildCache(cfg *infra.Config, logger zerolog.Logger) cache.Cache {
	if cfg.RedisURL == "" {
		return cache.NewMemory(0)
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid redis url, using in-memory cache")
		return cache.NewMemory(0)
	}
	return cache.NewRedis(redis.NewClient(opts), logger)
}
