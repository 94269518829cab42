// Package recorder defines the port through which assembled responses leave
// the orchestrator: persistence, publication and read-back.
package recorder

import (
	"context"

	"github.com/Strob0t/Principal/internal/domain/response"
)

// Recorder accepts a finished response. Implementations must not modify it.
type Recorder interface {
	Record(ctx context.Context, resp *response.Response) error
}

// Reader reads recorded responses back.
type Reader interface {
	// Recent returns up to limit full responses, newest first.
	Recent(ctx context.Context, limit int) ([]*response.Response, error)

	// Get returns the most recent response recorded for requestID, or
	// domain.ErrNotFound.
	Get(ctx context.Context, requestID string) (*response.Response, error)
}

// Store is a Recorder that can also be read from.
type Store interface {
	Recorder
	Reader
}

// Limits for Reader.Recent.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ClampLimit maps a caller-supplied limit onto [1, MaxLimit], using
// DefaultLimit for non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
