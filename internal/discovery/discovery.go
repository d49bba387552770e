// Package discovery finds supplier contact emails for products by asking a
// language model and merging the answer with the supplier directory.
package discovery

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ipartes/quote-cli/internal/apperr"
	"github.com/ipartes/quote-cli/internal/llm"
	"github.com/ipartes/quote-cli/internal/metrics"
	"github.com/ipartes/quote-cli/internal/parse"
)

// MsgProductRequired is returned for blank input.
const MsgProductRequired = "Dados do produto são obrigatórios"

// EmailSource supplies the emails already registered in the directory.
type EmailSource interface {
	RegisteredEmails(ctx context.Context) ([]string, error)
}

// Result is the outcome for one product.
type Result struct {
	Product          string   `json:"product" yaml:"product"`
	Suppliers        []string `json:"suppliers" yaml:"suppliers"`
	ChatGPTEmails    []string `json:"chatGptEmails" yaml:"chat_gpt_emails"`
	RegisteredEmails []string `json:"registeredEmails" yaml:"registered_emails"`
}

// Single is the response shape when the input held one product.
type Single struct {
	Suppliers        []string `json:"suppliers" yaml:"suppliers"`
	ChatGPTEmails    []string `json:"chatGptEmails" yaml:"chat_gpt_emails"`
	RegisteredEmails []string `json:"registeredEmails" yaml:"registered_emails"`
}

// Batch is the response shape when the input held several products.
type Batch struct {
	MultipleProducts bool     `json:"multipleProducts" yaml:"multiple_products"`
	Results          []Result `json:"results" yaml:"results"`
	TotalProducts    int      `json:"totalProducts" yaml:"total_products"`
}

// Envelope picks the response shape for results: Single for exactly one,
// Batch otherwise.
func Envelope(results []Result) any {
	if len(results) == 1 {
		r := results[0]
		return Single{
			Suppliers:        r.Suppliers,
			ChatGPTEmails:    r.ChatGPTEmails,
			RegisteredEmails: r.RegisteredEmails,
		}
	}
	if results == nil {
		results = []Result{}
	}
	return Batch{MultipleProducts: true, Results: results, TotalProducts: len(results)}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets how many products are processed at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMetrics records per-product outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// Orchestrator runs contact discovery. It only reads the directory.
type Orchestrator struct {
	llm         llm.Completer
	directory   EmailSource
	concurrency int
	metrics     *metrics.Metrics
}

// New creates an Orchestrator. Products are processed one at a time unless
// WithConcurrency says otherwise.
func New(completer llm.Completer, directory EmailSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{llm: completer, directory: directory, concurrency: 1}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Discover parses input into products and returns one Result per product in
// input order. Model and directory failures degrade to empty lists, and so
// does a deadline that expires mid-batch: products not yet answered get no
// model emails. Only blank input and cancellation by the caller are errors.
func (o *Orchestrator) Discover(ctx context.Context, input string) ([]Result, error) {
	if strings.TrimSpace(input) == "" {
		return nil, apperr.Validation(MsgProductRequired).WithOp("discovery.Discover")
	}

	products := parse.Products(input)
	zap.L().Info("discovery: products detected", zap.Int("count", len(products)))

	registered := o.registeredEmails(ctx)

	results := make([]Result, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, product := range products {
		g.Go(func() error {
			results[i] = o.discoverProduct(gctx, product, registered)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return nil, err
	}
	return results, nil
}

func (o *Orchestrator) discoverProduct(ctx context.Context, product string, registered []string) Result {
	start := time.Now()
	log := zap.L().With(zap.String("product", product))

	modelEmails := []string{}
	ok := true
	if err := ctx.Err(); err != nil {
		ok = false
		log.Warn("discovery: request context done, skipping model call", zap.Error(err))
	} else {
		resp, err := o.llm.Complete(ctx, llm.Request{
			Operation: "discover",
			System:    SystemPrompt,
			User:      UserPrompt(product),
		})
		if err != nil {
			ok = false
			log.Error("discovery: model call failed", zap.Error(err))
		} else {
			modelEmails = parse.Emails(resp.Text)
		}
	}

	o.metrics.ObserveProduct(ok, len(modelEmails), len(registered))
	log.Info("discovery: product processed",
		zap.Int("model_emails", len(modelEmails)),
		zap.Int("registered_emails", len(registered)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return Result{
		Product:          product,
		Suppliers:        parse.Union(modelEmails, registered),
		ChatGPTEmails:    modelEmails,
		RegisteredEmails: registered,
	}
}

func (o *Orchestrator) registeredEmails(ctx context.Context) []string {
	emails, err := o.directory.RegisteredEmails(ctx)
	if err != nil {
		zap.L().Error("discovery: directory unavailable, continuing without registered emails", zap.Error(err))
		return []string{}
	}
	if emails == nil {
		return []string{}
	}
	return emails
}
