package memory

import (
	"context"
	"time"

	"ikms-rag-be/internal/repository/contract"
	"ikms-rag-be/pkg/rag/graph"

	"github.com/patrickmn/go-cache"
)

// CheckpointRepository is the process-local session store.
// States are copied on the way in and out so callers never share slices with the cache.
type CheckpointRepository struct {
	cache *cache.Cache
}

var _ contract.CheckpointRepository = (*CheckpointRepository)(nil)

// NewCheckpointRepository keeps entries for ttl; zero means they never expire
func NewCheckpointRepository(ttl time.Duration) *CheckpointRepository {
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		// purge expired sessions every 10 minutes
		cleanup = 10 * time.Minute
	}
	return &CheckpointRepository{
		cache: cache.New(expiration, cleanup),
	}
}

func (r *CheckpointRepository) Put(_ context.Context, sessionID string, state *graph.State) error {
	st := state.Clone()
	r.cache.Set(sessionID, &st, cache.DefaultExpiration)
	return nil
}

func (r *CheckpointRepository) Get(_ context.Context, sessionID string) (*graph.State, bool, error) {
	if x, found := r.cache.Get(sessionID); found {
		st := x.(*graph.State).Clone()
		return &st, true, nil
	}
	return nil, false, nil
}

func (r *CheckpointRepository) Count() int {
	return r.cache.ItemCount()
}
