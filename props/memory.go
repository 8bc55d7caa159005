package props

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Backend. Nothing survives a restart.
type Memory struct {
	sync.Mutex
	scopes map[string]map[string]string
}

type memoryStore struct {
	backend *Memory
	scope   string
}

func NewMemory() *Memory {
	return &Memory{
		scopes: map[string]map[string]string{},
	}
}

func (m *Memory) Scope(name string) Store {
	return &memoryStore{
		backend: m,
		scope:   name,
	}
}

func (m *Memory) Close() error {
	return nil
}

func (s *memoryStore) properties() map[string]string {
	p, ok := s.backend.scopes[s.scope]
	if !ok {
		p = map[string]string{}
		s.backend.scopes[s.scope] = p
	}

	return p
}

func (s *memoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.backend.Lock()
	defer s.backend.Unlock()

	v, ok := s.properties()[key]

	return v, ok, nil
}

func (s *memoryStore) Set(ctx context.Context, key, value string) error {
	s.backend.Lock()
	defer s.backend.Unlock()

	s.properties()[key] = value

	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.backend.Lock()
	defer s.backend.Unlock()

	delete(s.properties(), key)

	return nil
}

func (s *memoryStore) Update(ctx context.Context, batch Batch) error {
	s.backend.Lock()
	defer s.backend.Unlock()

	p := s.properties()
	for k, v := range batch.Set {
		p[k] = v
	}

	for _, k := range batch.Delete {
		delete(p, k)
	}

	return nil
}

func (s *memoryStore) DeleteAll(ctx context.Context) error {
	s.backend.Lock()
	defer s.backend.Unlock()

	delete(s.backend.scopes, s.scope)

	return nil
}

func (s *memoryStore) Keys(ctx context.Context) ([]string, error) {
	s.backend.Lock()
	defer s.backend.Unlock()

	keys := []string{}
	for k := range s.properties() {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys, nil
}
