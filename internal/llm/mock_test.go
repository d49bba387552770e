package llm

import (
	"context"
	"sync"
)

// scriptedCompleter returns errs in order, then text.
type scriptedCompleter struct {
	mu    sync.Mutex
	errs  []error
	text  string
	calls int
	last  Request
}

func (s *scriptedCompleter) Complete(_ context.Context, req Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = req
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return &Response{Text: s.text, Model: "test-model", InputTokens: 7, OutputTokens: 3}, nil
}

func (s *scriptedCompleter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
