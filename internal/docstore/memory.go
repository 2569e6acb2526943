package docstore

import (
	"context"
	"reflect"
	"sync"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	unique      map[string][]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		unique:      make(map[string][]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, collection, key string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, collection, key string, doc Document, merge bool) error {
	if merge && len(doc) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]Document)
		s.collections[collection] = docs
	}

	next := doc.Clone()
	if merge {
		next = docs[key].Clone()
		if next == nil {
			next = make(Document, len(doc))
		}
		for k, v := range doc {
			next[k] = v
		}
	}

	for _, field := range s.unique[collection] {
		val, present := next[field]
		if !present {
			continue
		}
		for otherKey, other := range docs {
			if otherKey == key {
				continue
			}
			if existing, ok := other[field]; ok && reflect.DeepEqual(existing, val) {
				return ErrDuplicate
			}
		}
	}

	docs[key] = next
	return nil
}

func (s *MemoryStore) QueryWhere(_ context.Context, collection, field string, value any) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Document
	for _, doc := range s.collections[collection] {
		if v, ok := doc[field]; ok && reflect.DeepEqual(v, value) {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], key)
	return nil
}

func (s *MemoryStore) List(_ context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		out = append(out, doc.Clone())
	}
	return out, nil
}

func (s *MemoryStore) EnsureUnique(_ context.Context, collection, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.unique[collection] {
		if f == field {
			return nil
		}
	}
	seen := make(map[any]struct{})
	for _, doc := range s.collections[collection] {
		v, ok := doc[field]
		if !ok || v == nil || !reflect.TypeOf(v).Comparable() {
			continue
		}
		if _, dup := seen[v]; dup {
			return ErrDuplicate
		}
		seen[v] = struct{}{}
	}
	s.unique[collection] = append(s.unique[collection], field)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
