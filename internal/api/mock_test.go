package api

import (
	"context"
	"sync"

	"github.com/ipartes/quote-cli/internal/discovery"
	"github.com/ipartes/quote-cli/internal/llm"
	"github.com/ipartes/quote-cli/internal/model"
)

type fakeDrafter struct {
	mu    sync.Mutex
	email string
	err   error
	got   []string
}

func (f *fakeDrafter) Draft(_ context.Context, input string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, input)
	return f.email, f.err
}

type fakeDiscoverer struct {
	results []discovery.Result
	err     error
}

func (f *fakeDiscoverer) Discover(_ context.Context, _ string) ([]discovery.Result, error) {
	return f.results, f.err
}

// stallingCompleter answers every product with reply except stall, which
// waits until ctx is done.
type stallingCompleter struct {
	reply string
	stall string
}

func (c stallingCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if req.User == discovery.UserPrompt(c.stall) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &llm.Response{Text: c.reply}, nil
}

type staticEmails []string

func (e staticEmails) RegisteredEmails(context.Context) ([]string, error) { return e, nil }

// brokenDirectory fails every call with err.
type brokenDirectory struct {
	err error
}

func (b brokenDirectory) List(context.Context) ([]model.Supplier, error) { return nil, b.err }

func (b brokenDirectory) AddSupplier(context.Context, string, string) (*model.Supplier, bool, error) {
	return nil, false, b.err
}

func (b brokenDirectory) AddEmail(context.Context, string, string) (*model.Supplier, error) {
	return nil, b.err
}

func (b brokenDirectory) RemoveEmail(context.Context, string, string) (*model.Supplier, error) {
	return nil, b.err
}

func (b brokenDirectory) Delete(context.Context, string) error { return b.err }
