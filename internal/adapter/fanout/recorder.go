// Package fanout delivers each response to several recorders.
package fanout

import (
	"context"
	"errors"
	"fmt"

	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/port/recorder"
)

// Named pairs a recorder with the name used in error messages.
type Named struct {
	Name     string
	Recorder recorder.Recorder
}

// Recorder records to every target in order. One target failing does not
// stop the others; all failures are joined.
type Recorder struct {
	targets []Named
}

// New returns a fan-out over targets. Nil recorders are skipped.
func New(targets ...Named) *Recorder {
	r := &Recorder{}
	for _, t := range targets {
		if t.Recorder != nil {
			r.targets = append(r.targets, t)
		}
	}
	return r
}

// Record implements recorder.Recorder.
func (r *Recorder) Record(ctx context.Context, resp *response.Response) error {
	var errs []error
	for _, t := range r.targets {
		if err := t.Recorder.Record(ctx, resp); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of targets.
func (r *Recorder) Len() int { return len(r.targets) }
