package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ipartes/quote-cli/internal/config"
	"github.com/ipartes/quote-cli/internal/cost"
	"github.com/ipartes/quote-cli/internal/directory"
	"github.com/ipartes/quote-cli/internal/discovery"
	"github.com/ipartes/quote-cli/internal/llm"
	"github.com/ipartes/quote-cli/internal/metrics"
	"github.com/ipartes/quote-cli/internal/quote"
	"github.com/ipartes/quote-cli/internal/resilience"
	"github.com/ipartes/quote-cli/internal/store"
	"github.com/ipartes/quote-cli/pkg/anthropic"
	"github.com/ipartes/quote-cli/pkg/openai"
)

// appEnv holds the services a command needs. Fields a mode does not use
// stay nil.
type appEnv struct {
	Store     store.Store
	Metrics   *metrics.Metrics
	LLM       *llm.Guarded
	Directory *directory.Service
	Discovery *discovery.Orchestrator
	Drafter   *quote.Drafter
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initApp validates cfg for mode and builds the services it needs.
// Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &appEnv{}
	if mode == config.ModeServe {
		env.Metrics = metrics.New()
	}

	if mode != config.ModeDraft {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		env.Store = st
		env.Directory = directory.New(st)
	}

	if mode != config.ModeDirectory {
		completer, err := newCompleter()
		if err != nil {
			env.Close()
			return nil, err
		}
		env.LLM = llm.NewGuarded(cfg.LLM.Provider, completer, guardOptions(cfg.LLM), env.Metrics)
		env.Drafter = quote.NewDrafter(env.LLM, cfg.Quote.ShippingAddress)
		if env.Directory != nil {
			env.Discovery = discovery.New(env.LLM, env.Directory,
				discovery.WithConcurrency(cfg.Discovery.Concurrency),
				discovery.WithMetrics(env.Metrics),
			)
		}
	}

	return env, nil
}

// initStore opens the configured backend and applies its schema. A Mongo
// server that is down at startup is logged and retried on first use.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, store.Config{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
		Database:    cfg.Store.Database,
		Collection:  cfg.Store.Collection,
		Timeout:     cfg.Store.Timeout,
		MaxPoolSize: cfg.Store.MaxPoolSize,
	})
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}

	if err := st.Migrate(ctx); err != nil {
		if cfg.Store.Driver == store.DriverMongo {
			zap.L().Warn("store: migrate failed, continuing without indexes", zap.Error(err))
			return st, nil
		}
		_ = st.Close()
		return nil, eris.Wrap(err, "init store: migrate")
	}

	zap.L().Info("store ready", zap.String("driver", cfg.Store.Driver))
	return st, nil
}

// newCompleter builds the unguarded client for the configured provider.
func newCompleter() (llm.Completer, error) {
	switch cfg.LLM.Provider {
	case llm.ProviderOpenAI:
		client := openai.NewClient(cfg.OpenAI.APIKey,
			openai.WithBaseURL(cfg.OpenAI.BaseURL),
			openai.WithModel(cfg.OpenAI.Model),
		)
		return llm.NewOpenAI(client), nil
	case llm.ProviderAnthropic:
		client := anthropic.NewClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
		return llm.NewAnthropic(client), nil
	default:
		return nil, eris.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func guardOptions(c config.LLMConfig) llm.GuardOptions {
	return llm.GuardOptions{
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		Retry: resilience.Policy{
			Attempts:   c.RetryAttempts,
			Backoff:    c.RetryBackoff,
			MaxBackoff: c.RetryMaxBackoff,
			Jitter:     0.2,
		},
		Breaker: resilience.BreakerConfig{
			Threshold: c.BreakerThreshold,
			Cooldown:  c.BreakerCooldown,
		},
		Pricing: cost.NewCalculator(cost.DefaultRates()),
	}
}
