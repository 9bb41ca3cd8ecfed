// Package schedule runs flows on cron schedules.
package schedule

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/hacking-linux/workflow/pkg/engine"
	"github.com/hacking-linux/workflow/pkg/logging"
)

// Scheduler triggers flow runs from cron expressions. Each tick executes
// the flow with a fresh context; outcomes are logged and never abort the
// scheduler itself.
type Scheduler struct {
	cron     *cron.Cron
	executor *engine.Executor
	logger   logging.Logger
}

// NewScheduler creates a scheduler driving the given executor
func NewScheduler(executor *engine.Executor, logger logging.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		executor: executor,
		logger:   logger,
	}
}

// Add schedules a flow under a standard cron expression
func (s *Scheduler) Add(spec, flowName string) error {
	_, err := s.cron.AddFunc(spec, func() {
		result, err := s.executor.Run(context.Background(), flowName, nil)
		if err != nil {
			s.logger.Error("scheduled run failed",
				logging.F("flow", flowName),
				logging.F("step", result.FailedStep),
				logging.F("error", err.Error()))
			return
		}
		s.logger.Info("scheduled run finished",
			logging.F("flow", flowName),
			logging.F("status", string(result.Status)))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule flow %q: %w", flowName, err)
	}
	return nil
}

// Entries returns the number of scheduled flows
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Start begins triggering schedules in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight runs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
