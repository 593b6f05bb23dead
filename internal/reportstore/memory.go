package reportstore

import (
	"context"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore keeps the most recent records in process. Records are held
// encoded so callers never share state with the store.
type MemoryStore struct {
	cache *lru.Cache[string, []byte]
}

func NewMemoryStore(maxEntries int) (*MemoryStore, error) {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	cache, err := lru.New[string, []byte](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("init memory store: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Put(ctx context.Context, rec Record) error {
	id, err := checkID(rec.ID)
	if err != nil {
		return err
	}
	b, err := encode(rec)
	if err != nil {
		return err
	}
	s.cache.Add(id, b)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	b, ok := s.cache.Get(id)
	if !ok {
		return Record{}, ErrNotFound
	}
	return decode(b)
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	ids := s.cache.Keys()
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Close() error {
	s.cache.Purge()
	return nil
}
