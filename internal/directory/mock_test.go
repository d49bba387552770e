package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ipartes/quote-cli/internal/model"
	"github.com/ipartes/quote-cli/internal/store"
)

// memStore is an in-memory store.Store. Set err to fail every call.
type memStore struct {
	mu      sync.Mutex
	order   []string
	records map[string]model.Supplier
	nextID  int
	err     error
	updates int
}

func newMemStore(seed ...model.Supplier) *memStore {
	m := &memStore{records: make(map[string]model.Supplier)}
	for _, s := range seed {
		if s.ID == "" {
			m.nextID++
			s.ID = fmt.Sprintf("sup-%d", m.nextID)
		}
		s.Emails = model.NormalizeEmails(s.Emails, "")
		m.records[s.ID] = s
		m.order = append(m.order, s.ID)
	}
	return m
}

func (m *memStore) ListSuppliers(context.Context) ([]model.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]model.Supplier, 0, len(m.order))
	for _, id := range m.order {
		s := m.records[id]
		s.Emails = append([]string{}, s.Emails...)
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) GetSupplier(_ context.Context, id string) (*model.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	s.Emails = append([]string{}, s.Emails...)
	return &s, nil
}

func (m *memStore) CreateSupplier(_ context.Context, s *model.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	s.ID = fmt.Sprintf("sup-%d", m.nextID)
	s.Emails = model.NormalizeEmails(s.Emails, "")
	s.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.UpdatedAt = s.CreatedAt
	m.records[s.ID] = *s
	m.order = append(m.order, s.ID)
	return nil
}

func (m *memStore) UpdateEmails(_ context.Context, id string, emails []string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	s, ok := m.records[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Emails = append([]string{}, emails...)
	s.UpdatedAt = updatedAt
	m.records[id] = s
	m.updates++
	return nil
}

func (m *memStore) DeleteSupplier(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.records, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

var _ store.Store = (*memStore)(nil)
