// Package saga runs an ordered list of actions with compensations, unwinding
// already-completed steps when a later one fails. It stands in for a shared
// transaction across backends that have none, e.g. object storage plus a
// metadata row.
package saga

import (
	"context"
	"fmt"

	"github.com/devanup/DocBox/internal/logger"
	"go.uber.org/zap"
)

// Step pairs an action with the compensation that undoes it. Compensate may
// be nil for steps that need no undo.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Execute runs steps in order, halting on the first failure and compensating
// every previously completed step in reverse order. The run failure is what
// propagates; a compensation failure is logged and otherwise swallowed, since
// the caller can only act on the original error anyway.
func Execute(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := step.Run(ctx); err != nil {
			unwind(ctx, steps[:i])
			return fmt.Errorf("%s: %w", step.Name, err)
		}
	}
	return nil
}

func unwind(ctx context.Context, completed []Step) {
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			logger.L().Error("saga compensation failed",
				zap.String("step", step.Name),
				zap.Error(err),
			)
		}
	}
}
