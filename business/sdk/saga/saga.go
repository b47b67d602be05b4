// Package saga runs an ordered list of steps and unwinds the completed ones
// when a later step fails.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
)

// Step is a unit of work with an optional compensating action. Undo is only
// registered once Do succeeded.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// StepError reports the step that failed and whether its compensations ran
// cleanly.
type StepError struct {
	Step         string
	Err          error
	Compensation error
}

func (e *StepError) Error() string {
	if e.Compensation != nil {
		return fmt.Sprintf("step %q: %v (compensation: %v)", e.Step, e.Err, e.Compensation)
	}
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

// Unwrap exposes both the step error and any compensation error.
func (e *StepError) Unwrap() []error {
	if e.Compensation == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Compensation}
}

// Option configures a Saga.
type Option func(*Saga)

// WithStepTimeout bounds every Do and Undo call. Zero disables the bound.
func WithStepTimeout(d time.Duration) Option {
	return func(s *Saga) {
		s.stepTimeout = d
	}
}

// Saga executes steps strictly in order.
type Saga struct {
	log         *logger.Logger
	name        string
	stepTimeout time.Duration
	undo        []Step
}

// New constructs a saga for a single operation.
func New(log *logger.Logger, name string, opts ...Option) *Saga {
	s := Saga{
		log:  log,
		name: name,
	}

	for _, opt := range opts {
		opt(&s)
	}

	return &s
}

// Run executes the step. On failure every previously completed step is
// compensated in reverse order and a *StepError is returned. A step whose Do
// returned after its deadline counts as failed, and its own Undo runs too.
func (s *Saga) Run(ctx context.Context, step Step) error {
	done, err := s.call(ctx, step.Do)

	if done && step.Undo != nil {
		s.undo = append(s.undo, step)
	}

	if err != nil {
		s.log.Info(ctx, "saga", "operation", s.name, "step", step.Name, "status", "failed", "err", err)

		return &StepError{
			Step:         step.Name,
			Err:          err,
			Compensation: s.Compensate(ctx),
		}
	}

	return nil
}

// Compensate runs the registered undo actions newest first. It keeps going
// when an undo fails and returns the joined failures. Compensations run on a
// context that is not cancelled with the caller's.
func (s *Saga) Compensate(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(s.undo) - 1; i >= 0; i-- {
		step := s.undo[i]

		if _, err := s.call(ctx, step.Undo); err != nil {
			s.log.Error(ctx, "saga", "operation", s.name, "compensate", step.Name, "err", err)
			errs = append(errs, fmt.Errorf("undo %s: %w", step.Name, err))
			continue
		}

		s.log.Info(ctx, "saga", "operation", s.name, "compensated", step.Name)
	}

	s.undo = nil

	return errors.Join(errs...)
}

// Forget drops the registered compensations. Called once the operation has
// reached a point of no return.
func (s *Saga) Forget() {
	s.undo = nil
}

// call reports whether fn itself succeeded and the error the step is judged
// by. A step that ignored its deadline succeeded but still fails.
func (s *Saga) call(ctx context.Context, fn func(context.Context) error) (bool, error) {
	if s.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.stepTimeout)
		defer cancel()
	}

	if err := fn(ctx); err != nil {
		return false, err
	}

	if err := ctx.Err(); err != nil {
		return true, err
	}

	return true, nil
}
