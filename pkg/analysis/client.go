// Package analysis turns an assembled context bundle into a structured
// compliance verdict for one chunk.
package analysis

import (
	"context"
	"fmt"

	"compliance-audit-be/internal/entity"
	"compliance-audit-be/pkg/evidence"
)

// Client produces a validated Result for one chunk and its context.
type Client interface {
	Analyze(ctx context.Context, chunk *entity.Chunk, bundle *evidence.Bundle) (*Result, error)
}

// MalformedResponseError marks a response the model produced but the
// schema rejects. The caller treats it as a chunk failure, not a
// transport problem.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed analysis response: %s: %v", e.Reason, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// TransientError marks a transport or rate-limit failure worth retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient analysis error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
