package graph

import (
	"context"
	"fmt"
	"time"

	"ikms-rag-be/internal/metrics"
	"ikms-rag-be/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	START = "__start__"
	END   = "__end__"

	logModule = "Pipeline"
)

// NodeFunc is one stage: it reads the state and returns the fields it produced
type NodeFunc func(ctx context.Context, state State) (StateDelta, error)

// Checkpointer persists the state of a session between and during runs
type Checkpointer interface {
	Get(ctx context.Context, sessionID string) (*State, bool, error)
	Put(ctx context.Context, sessionID string, state *State) error
}

// Builder collects nodes and edges. Errors are reported by Compile.
type Builder struct {
	nodes map[string]NodeFunc
	edges map[string]string
	errs  []error
}

func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[string]NodeFunc),
		edges: make(map[string]string),
	}
}

func (b *Builder) AddNode(name string, fn NodeFunc) *Builder {
	switch {
	case name == START || name == END || name == "":
		b.errs = append(b.errs, fmt.Errorf("reserved node name %q", name))
	case fn == nil:
		b.errs = append(b.errs, fmt.Errorf("node %q has no function", name))
	case b.nodes[name] != nil:
		b.errs = append(b.errs, fmt.Errorf("duplicate node %q", name))
	default:
		b.nodes[name] = fn
	}
	return b
}

// AddEdge links from -> to. Every node has exactly one successor.
func (b *Builder) AddEdge(from, to string) *Builder {
	if existing, ok := b.edges[from]; ok {
		b.errs = append(b.errs, fmt.Errorf("node %q already continues to %q", from, existing))
		return b
	}
	b.edges[from] = to
	return b
}

type compileOptions struct {
	checkpointer Checkpointer
	stageTimeout time.Duration
	logger       logger.ILogger
}

type CompileOption func(*compileOptions)

func WithCheckpointer(c Checkpointer) CompileOption {
	return func(o *compileOptions) {
		o.checkpointer = c
	}
}

// WithStageTimeout bounds every stage; zero disables the bound
func WithStageTimeout(d time.Duration) CompileOption {
	return func(o *compileOptions) {
		o.stageTimeout = d
	}
}

func WithLogger(l logger.ILogger) CompileOption {
	return func(o *compileOptions) {
		o.logger = l
	}
}

// Compile resolves the edges into a single START..END chain covering every node
func (b *Builder) Compile(opts ...CompileOption) (*CompiledGraph, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGraph, b.errs[0])
	}

	options := compileOptions{logger: logger.NewNopLogger()}
	for _, opt := range opts {
		opt(&options)
	}

	var sequence []string
	visited := make(map[string]bool)
	current := START
	for {
		next, ok := b.edges[current]
		if !ok {
			return nil, fmt.Errorf("%w: node %q has no outgoing edge", ErrInvalidGraph, current)
		}
		if next == END {
			break
		}
		if _, ok := b.nodes[next]; !ok {
			return nil, fmt.Errorf("%w: edge %s -> %s targets unknown node", ErrInvalidGraph, current, next)
		}
		if visited[next] {
			return nil, fmt.Errorf("%w: cycle at node %q", ErrInvalidGraph, next)
		}
		visited[next] = true
		sequence = append(sequence, next)
		current = next
	}

	if len(sequence) != len(b.nodes) {
		for name := range b.nodes {
			if !visited[name] {
				return nil, fmt.Errorf("%w: node %q is unreachable", ErrInvalidGraph, name)
			}
		}
	}

	nodes := make(map[string]NodeFunc, len(b.nodes))
	for k, v := range b.nodes {
		nodes[k] = v
	}

	return &CompiledGraph{
		sequence: sequence,
		nodes:    nodes,
		opts:     options,
		tracer:   otel.Tracer("rag/graph"),
	}, nil
}

// CompiledGraph executes its nodes strictly in order, one at a time
type CompiledGraph struct {
	sequence []string
	nodes    map[string]NodeFunc
	opts     compileOptions
	tracer   trace.Tracer
}

// Nodes returns the execution order
func (g *CompiledGraph) Nodes() []string {
	return append([]string(nil), g.sequence...)
}

// GetState loads the last checkpoint of a session
func (g *CompiledGraph) GetState(ctx context.Context, sessionID string) (*State, bool, error) {
	if g.opts.checkpointer == nil {
		return nil, false, nil
	}
	st, found, err := g.opts.checkpointer.Get(ctx, sessionID)
	if err != nil {
		return nil, false, &CheckpointError{SessionID: sessionID, Err: err}
	}
	return st, found, nil
}

// Invoke runs every stage against input and checkpoints after each one.
// The first failing stage aborts the run; nothing is retried.
func (g *CompiledGraph) Invoke(ctx context.Context, sessionID string, input State) (State, error) {
	state := input.Clone()

	for _, name := range g.sequence {
		delta, err := g.runNode(ctx, sessionID, name, state)
		if err != nil {
			return State{}, &StageError{Stage: name, Err: err}
		}
		state.Apply(delta)

		if g.opts.checkpointer != nil {
			snapshot := state.Clone()
			if err := g.opts.checkpointer.Put(ctx, sessionID, &snapshot); err != nil {
				return State{}, &CheckpointError{SessionID: sessionID, Err: err}
			}
		}
	}

	return state, nil
}

func (g *CompiledGraph) runNode(ctx context.Context, sessionID, name string, state State) (StateDelta, error) {
	if g.opts.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.stageTimeout)
		defer cancel()
	}

	ctx, span := g.tracer.Start(ctx, "stage."+name, trace.WithAttributes(
		attribute.String("qa.stage", name),
		attribute.String("qa.session_id", sessionID),
	))
	defer span.End()

	g.opts.logger.Debug(logModule, "Stage started", map[string]interface{}{
		"stage":      name,
		"session_id": sessionID,
	})

	start := time.Now()
	delta, err := g.nodes[name](ctx, state)
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	if err != nil {
		metrics.StageRunsTotal.WithLabelValues(name, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.opts.logger.Error(logModule, "Stage failed", map[string]interface{}{
			"stage":       name,
			"session_id":  sessionID,
			"duration_ms": elapsed.Milliseconds(),
			"error":       err.Error(),
		})
		return StateDelta{}, err
	}

	metrics.StageRunsTotal.WithLabelValues(name, "success").Inc()
	g.opts.logger.Info(logModule, "Stage finished", map[string]interface{}{
		"stage":       name,
		"session_id":  sessionID,
		"duration_ms": elapsed.Milliseconds(),
	})
	return delta, nil
}
