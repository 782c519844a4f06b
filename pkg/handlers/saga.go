package handlers

import (
	"context"
	"fmt"
)

// step is one action of a multi-document operation that has no transaction.
type step struct {
	name string
	run  func(ctx context.Context) error
}

// SagaError reports how far a sequence of steps got before one failed.
type SagaError struct {
	Completed []string
	Failed    string
	Err       error
}

func (e *SagaError) Error() string {
	return fmt.Sprintf("step %s failed after %v: %v", e.Failed, e.Completed, e.Err)
}

func (e *SagaError) Unwrap() error { return e.Err }

// runSaga runs steps in order and stops at the first failure. Completed steps
// are not undone.
func runSaga(ctx context.Context, steps []step) error {
	completed := []string{}
	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			return &SagaError{Completed: completed, Failed: s.name, Err: err}
		}
		completed = append(completed, s.name)
	}
	return nil
}
