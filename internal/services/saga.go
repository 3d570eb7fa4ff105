package services

import (
	"context"

	"go.uber.org/zap"
)

// sagaStep is one forward action with an optional compensating action.
// Compensations run in reverse order when a later step fails.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// saga executes ordered steps against systems without a shared
// transaction. On the first failure it unwinds the already-applied
// steps by running their compensations newest-first. Compensation
// failures are logged and never mask the original error.
type saga struct {
	logger *zap.Logger
	steps  []sagaStep
}

func newSaga(logger *zap.Logger) *saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &saga{logger: logger}
}

func (s *saga) addStep(name string, run func(ctx context.Context) error, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, sagaStep{name: name, run: run, compensate: compensate})
}

func (s *saga) run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.run(ctx); err != nil {
			s.logger.Warn("saga step failed, compensating",
				zap.String("step", step.name),
				zap.Error(err))
			s.unwind(ctx, i)
			return err
		}
	}
	return nil
}

// unwindAll compensates every step of a fully completed saga. Used
// when a follow-up action outside the saga fails and the remote work
// must be rolled back.
func (s *saga) unwindAll(ctx context.Context) {
	s.unwind(ctx, len(s.steps))
}

func (s *saga) unwind(ctx context.Context, failedIndex int) {
	for i := failedIndex - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(ctx); err != nil {
			s.logger.Error("saga compensation failed",
				zap.String("step", step.name),
				zap.Error(err))
		}
	}
}
