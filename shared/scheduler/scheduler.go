package scheduler

import (
	"context"
	"fmt"
	"time"

	"shorts-studio/shared/logger"
	"shorts-studio/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Metrics defines the common interface for agent metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent defines the interface that all agents must implement
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// Scheduler manages the execution of an agent on a cron schedule. The
// schedule has a leading seconds field.
type Scheduler struct {
	schedule string
	monitor  *monitoring.Monitor
	metrics  *monitoring.Metrics
	agent    Agent
	cron     *cron.Cron
	log      logger.Logger
}

func New(schedule string, agent Agent, monitor *monitoring.Monitor, metrics *monitoring.Metrics, log logger.Logger) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		monitor:  monitor,
		metrics:  metrics,
		agent:    agent,
		log:      log,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start initializes the agent and blocks running it on schedule until ctx
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Error("Scheduled run failed", logger.String("agent", s.agent.Name()), logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.log.Info("Scheduler started", logger.String("agent", s.agent.Name()), logger.String("schedule", s.schedule))
	s.cron.Start()

	<-ctx.Done()
	s.log.Info("Scheduler stopped", logger.String("agent", s.agent.Name()))
	<-s.cron.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	s.log.Info("Starting run", logger.String("agent", agentName))

	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	err := s.agent.RunOnce(ctx, events)
	duration := time.Since(startTime)
	if s.metrics != nil {
		s.metrics.RunDuration.Observe(duration.Seconds())
	}

	if err != nil {
		if s.metrics != nil {
			s.metrics.ScheduledRuns.WithLabelValues("failure").Inc()
		}
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), duration)
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	if s.metrics != nil {
		s.metrics.ScheduledRuns.WithLabelValues("success").Inc()
	}
	return nil
}
