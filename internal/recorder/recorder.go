// Package recorder persists scored trial results.
package recorder

import (
	"context"
	"errors"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// Recorder accepts completed trial results. Record must not return until the
// row is durable.
type Recorder interface {
	Record(ctx context.Context, row model.ResultRow) error
	Close() error
}

// Multi fans each row out to every recorder, in order. Put recorders that
// overwrite a trial on retry before append-only ones.
type Multi []Recorder

// Record writes row to each recorder in turn and stops at the first failure,
// so later recorders never hold a row an earlier one rejected.
func (m Multi) Record(ctx context.Context, row model.ResultRow) error {
	for _, r := range m {
		if err := r.Record(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all recorders.
func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
