package memory

import (
	"context"
	"time"

	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/cache"
)

// Store keeps documents in process memory. Contents are lost on exit.
type Store struct {
	docs *cache.Store[[]byte]
}

func NewStore() *Store {
	return &Store{docs: cache.NewStore[[]byte](0)}
}

func (s *Store) Read(ctx context.Context, name string) ([]byte, bool, error) {
	raw, ok := s.docs.Get(ctx, name)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

func (s *Store) Write(ctx context.Context, name string, _ time.Time, payload []byte) error {
	s.docs.Set(ctx, name, append([]byte(nil), payload...))
	return nil
}
