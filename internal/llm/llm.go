// Package llm puts the language-model providers behind one small interface
// and adds rate limiting, retries, circuit breaking and metrics.
package llm

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/ipartes/quote-cli/internal/resilience"
	"github.com/ipartes/quote-cli/pkg/anthropic"
	"github.com/ipartes/quote-cli/pkg/openai"
)

// Providers accepted in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = eris.New("llm: empty response")

// Request is a single system + user exchange.
type Request struct {
	// Operation labels the call in logs and metrics ("draft", "discover").
	Operation string
	System    string
	User      string
}

// Response is the assistant reply plus reported usage.
type Response struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Completer produces one reply for one request.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

type openAICompleter struct {
	client openai.Client
}

// NewOpenAI adapts an OpenAI chat-completions client.
func NewOpenAI(client openai.Client) Completer {
	return &openAICompleter{client: client}
}

func (c *openAICompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Messages: []openai.Message{
			{Role: openai.RoleSystem, Content: req.System},
			{Role: openai.RoleUser, Content: req.User},
		},
	})
	if err != nil {
		var se *openai.StatusError
		if errors.As(err, &se) {
			return nil, resilience.MarkTransient(err, se.StatusCode)
		}
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return &Response{
		Text:         resp.Text(),
		Model:        resp.Model,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}

type anthropicCompleter struct {
	client anthropic.Client
}

// NewAnthropic adapts an Anthropic Messages client.
func NewAnthropic(client anthropic.Client) Completer {
	return &anthropicCompleter{client: client}
}

func (c *anthropicCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		System:   req.System,
		Messages: []anthropic.Message{{Role: "user", Content: req.User}},
	})
	if err != nil {
		var se *anthropic.StatusError
		if errors.As(err, &se) {
			return nil, resilience.MarkTransient(err, se.StatusCode)
		}
		return nil, err
	}
	if len(resp.Content) == 0 {
		return nil, ErrEmptyResponse
	}
	return &Response{
		Text:         resp.Text(),
		Model:        resp.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
