package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/uplift-app/uplift-api/internal/adapter/repo"
	"github.com/uplift-app/uplift-api/internal/cache"
	"github.com/uplift-app/uplift-api/internal/dailydrop"
	"github.com/uplift-app/uplift-api/internal/dedup"
	"github.com/uplift-app/uplift-api/internal/infra"
	"github.com/uplift-app/uplift-api/internal/providers/text"
)

// The daily drop worker pre-generates the day's drop for every
// configured locale so the first morning request is served from the
// database instead of waiting on a provider round trip.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	messages := repo.NewMessageRepository(pool)
	drops := repo.NewDailyDropRepository(pool)

	orchestrator := buildOrchestrator(cfg, logger)
	deduper := dedup.NewEngine(messages, logger)

	var store cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		if opts, err := redis.ParseURL(cfg.RedisURL); err != nil {
			logger.Warn().Err(err).Msg("worker: invalid redis url, running without cache")
		} else {
			store = cache.NewRedis(redis.NewClient(opts), logger)
		}
	}

	gen := dailydrop.NewGenerator(drops, orchestrator, deduper, store, dailydrop.DefaultRetryPolicy(), logger)

	worker := &dropWorker{
		gen:      gen,
		locales:  cfg.DailyDropLocales,
		interval: cfg.DailyDropInterval,
		logger:   logger,
	}
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

type dropWorker struct {
	gen      *dailydrop.Generator
	locales  []string
	interval time.Duration
	logger   infra.Logger
}

// Run generates today's drops immediately, then on every tick. The
// generator is idempotent per (date, locale), so repeated ticks within
// the same day are cheap reads.
func (w *dropWorker) Run(ctx context.Context) error {
	w.generateAll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.generateAll(ctx)
		}
	}
}

func (w *dropWorker) generateAll(ctx context.Context) {
	date := time.Now().UTC().Format(dailydrop.DateFormat)
	for _, locale := range w.locales {
		res, err := w.gen.GetDailyDrop(ctx, date, locale)
		if err != nil {
			w.logger.Error().Err(err).Str("locale", locale).Str("date", date).Msg("worker: drop generation failed")
			continue
		}
		if res.WasGenerated {
			w.logger.Info().Str("locale", locale).Str("date", date).Str("model", res.Drop.Model).Msg("worker: drop generated")
		}
	}
}

func buildOrchestrator(cfg *infra.Config, logger infra.Logger) *text.Orchestrator {
	var openaiGen, geminiGen text.Generator

	if gen, err := text.NewOpenAIGenerator(text.OpenAIOptions{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	}); err != nil {
		logger.Warn().Err(err).Msg("worker: openai provider unavailable")
	} else {
		openaiGen = gen
	}

	if gen, err := text.NewGeminiGenerator(text.GeminiOptions{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}); err != nil {
		logger.Warn().Err(err).Msg("worker: gemini provider unavailable")
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
		logger.Fatal().Msg("worker: no text provider configured")
	}
	return text.NewOrchestrator(preferred, secondary, cfg.FallbackEnabled && secondary != nil, logger)
}
