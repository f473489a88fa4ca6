package agent

import (
	"context"
	"errors"
	"fmt"

	"ikms-rag-be/pkg/llm"
)

// Tool is a function the model may invoke during an agent run
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON schema of the arguments object
	Parameters() map[string]interface{}
	Call(ctx context.Context, args map[string]interface{}) (string, error)
}

// ErrInvalidArguments marks argument errors. They go back to the model as a
// tool result; any other tool error aborts the run.
var ErrInvalidArguments = errors.New("invalid tool arguments")

func Definition(t Tool) llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}

// StringArg extracts a required string argument
func StringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: missing argument %q", ErrInvalidArguments, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: argument %q must be a string, got %T", ErrInvalidArguments, key, v)
	}
	return s, nil
}
