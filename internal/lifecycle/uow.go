package lifecycle

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// unitOfWork collects undo actions for completed steps. rollback runs them
// newest first; commit forgets them.
type unitOfWork struct {
	logger *zap.Logger
	undo   []undoStep
}

type undoStep struct {
	name string
	fn   func() error
}

func newUnitOfWork(logger *zap.Logger) *unitOfWork {
	return &unitOfWork{logger: logger}
}

// onRollback registers fn to undo the step just completed.
func (u *unitOfWork) onRollback(name string, fn func() error) {
	u.undo = append(u.undo, undoStep{name: name, fn: fn})
}

// rollback runs every undo action even when some fail and returns the
// failures joined.
func (u *unitOfWork) rollback() error {
	var errs []error
	for i := len(u.undo) - 1; i >= 0; i-- {
		step := u.undo[i]
		if err := step.fn(); err != nil {
			u.logger.Warn("rollback step failed", zap.String("step", step.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
			continue
		}
		u.logger.Debug("rolled back", zap.String("step", step.name))
	}
	u.undo = nil
	return errors.Join(errs...)
}

func (u *unitOfWork) commit() { u.undo = nil }

// fail rolls back and returns cause, with any rollback failures attached.
func (u *unitOfWork) fail(cause error) error {
	if rerr := u.rollback(); rerr != nil {
		return errors.Join(cause, fmt.Errorf("rollback incomplete: %w", rerr))
	}
	return cause
}
