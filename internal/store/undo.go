package store

import (
	"context"
	"errors"
)

// Undo records compensating actions for a multi-document write. Steps are
// pushed after each successful write and replayed in reverse by Rollback.
// The zero value is ready to use.
type Undo struct {
	steps []func(context.Context) error
}

// Push registers the action that reverts the write just performed.
func (u *Undo) Push(step func(ctx context.Context) error) {
	u.steps = append(u.steps, step)
}

// Len returns the number of registered steps.
func (u *Undo) Len() int { return len(u.steps) }

// Rollback runs the registered steps newest first. All steps run even if some
// fail; the failures are joined.
func (u *Undo) Rollback(ctx context.Context) error {
	var errs []error
	for i := len(u.steps) - 1; i >= 0; i-- {
		if err := u.steps[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	u.steps = nil
	return errors.Join(errs...)
}

// Fail rolls back and returns cause joined with any rollback failure.
func (u *Undo) Fail(ctx context.Context, cause error) error {
	if rbErr := u.Rollback(ctx); rbErr != nil {
		return errors.Join(cause, rbErr)
	}
	return cause
}

// Insert writes doc into c and registers its deletion.
func Insert[T any](ctx context.Context, u *Undo, c *Collection[T], doc *T) (string, error) {
	id, err := c.Insert(ctx, doc)
	if err != nil {
		return "", err
	}
	u.Push(func(ctx context.Context) error { return c.Delete(ctx, id) })
	return id, nil
}
