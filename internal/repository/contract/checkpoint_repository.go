package contract

import (
	"context"

	"ikms-rag-be/pkg/rag/graph"
)

// CheckpointRepository maps a session id to the latest pipeline state.
// A miss is reported as found=false, never as an error.
type CheckpointRepository interface {
	Get(ctx context.Context, sessionID string) (*graph.State, bool, error)
	Put(ctx context.Context, sessionID string, state *graph.State) error
}
