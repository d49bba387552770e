package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ipartes/quote-cli/internal/cost"
	"github.com/ipartes/quote-cli/internal/metrics"
	"github.com/ipartes/quote-cli/internal/resilience"
)

// GuardOptions configures Guarded.
type GuardOptions struct {
	// RequestsPerSecond caps outbound calls; 0 disables the limiter.
	RequestsPerSecond float64
	Burst             int
	Retry             resilience.Policy
	Breaker           resilience.BreakerConfig
	// Pricing estimates spend per call; nil skips cost tracking.
	Pricing *cost.Calculator
}

// Guarded wraps a Completer with a rate limiter, retries and a circuit
// breaker, and reports each call to metrics.
type Guarded struct {
	provider string
	next     Completer
	limiter  *rate.Limiter
	retry    resilience.Policy
	breaker  *resilience.Breaker
	pricing  *cost.Calculator
	metrics  *metrics.Metrics
}

// NewGuarded builds a Guarded around next. m may be nil.
func NewGuarded(provider string, next Completer, opts GuardOptions, m *metrics.Metrics) *Guarded {
	g := &Guarded{
		provider: provider,
		next:     next,
		retry:    opts.Retry,
		pricing:  opts.Pricing,
		metrics:  m,
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	if g.retry.OnRetry == nil {
		g.retry.OnRetry = resilience.LogRetries("llm", provider)
	}

	bc := opts.Breaker
	userHook := bc.OnStateChange
	bc.OnStateChange = func(from, to resilience.State) {
		zap.L().Warn("llm: circuit state change",
			zap.String("provider", provider),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
		m.SetBreakerState(provider, int(to))
		if userHook != nil {
			userHook(from, to)
		}
	}
	g.breaker = resilience.NewBreaker(bc)
	return g
}

// Complete runs req through the limiter, breaker and retry policy.
func (g *Guarded) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := resilience.RetryVal(ctx, g.retry, func(ctx context.Context) (*Response, error) {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return resilience.Guard(ctx, g.breaker, func(ctx context.Context) (*Response, error) {
			return g.next.Complete(ctx, req)
		})
	})

	elapsed := time.Since(start)
	log := zap.L().With(
		zap.String("provider", g.provider),
		zap.String("operation", req.Operation),
		zap.Duration("elapsed", elapsed),
	)

	if err != nil {
		outcome := "error"
		if errors.Is(err, resilience.ErrOpen) {
			outcome = "rejected"
		}
		g.metrics.ObserveLLM(g.provider, req.Operation, outcome, elapsed)
		log.Error("llm: call failed", zap.Error(err))
		return nil, err
	}

	g.metrics.ObserveLLM(g.provider, req.Operation, "ok", elapsed)
	g.metrics.AddTokens(g.provider, resp.InputTokens, resp.OutputTokens)
	usd := g.pricing.Completion(resp.Model, resp.InputTokens, resp.OutputTokens)
	g.metrics.AddCost(g.provider, resp.Model, usd)
	log.Debug("llm: call completed",
		zap.String("model", resp.Model),
		zap.Int64("input_tokens", resp.InputTokens),
		zap.Int64("output_tokens", resp.OutputTokens),
		zap.Float64("cost_usd", usd),
	)
	return resp, nil
}

// BreakerState reports the current breaker state.
func (g *Guarded) BreakerState() resilience.State {
	return g.breaker.State()
}
