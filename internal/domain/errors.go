// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the operation is not valid for the entity's current state.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates a malformed or incomplete input.
// Wrap it as fmt.Errorf("%w: detail", ErrValidation) so the detail can be surfaced.
var ErrValidation = errors.New("validation failed")

// ErrUnknownDomain indicates a request type with no registered specialist.
var ErrUnknownDomain = errors.New("unknown domain")

// ErrQueueSaturated indicates the dispatch queue is at capacity.
var ErrQueueSaturated = errors.New("dispatch queue saturated")

// ErrDuplicateRequest indicates a request id that is already in flight.
var ErrDuplicateRequest = errors.New("request already in flight")

// ErrNotInitialized indicates the orchestrator has not completed initialization.
var ErrNotInitialized = errors.New("orchestrator not initialized")

// ErrSynthesisEmpty indicates synthesis was attempted with no approved results.
var ErrSynthesisEmpty = errors.New("nothing to synthesize")

// ErrCancelled indicates the caller cancelled processing before it finished.
var ErrCancelled = errors.New("processing cancelled")
