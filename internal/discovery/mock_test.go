package discovery

import (
	"context"
	"strings"
	"sync"

	"github.com/ipartes/quote-cli/internal/llm"
)

// fakeCompleter answers by looking up the product line in replies. Products
// listed in fail return an error; products listed in block wait for ctx.
type fakeCompleter struct {
	mu      sync.Mutex
	replies map[string]string
	fail    map[string]error
	block   map[string]bool
	prompts []llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	product := strings.TrimPrefix(req.User, userPromptPrefix)

	f.mu.Lock()
	f.prompts = append(f.prompts, req)
	blocked := f.block[product]
	err, failed := f.fail[product]
	reply := f.replies[product]
	f.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if failed {
		return nil, err
	}
	return &llm.Response{Text: reply}, nil
}

type fakeDirectory struct {
	emails []string
	err    error
	calls  int
}

func (d *fakeDirectory) RegisteredEmails(context.Context) ([]string, error) {
	d.calls++
	return d.emails, d.err
}
