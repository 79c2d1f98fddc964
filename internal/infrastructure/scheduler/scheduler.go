package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work. Errors are logged and never stop the
// schedule.
type Job func(ctx context.Context) error

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Cron() cron.Logger
}

type entry struct {
	name      string
	schedule  cron.Schedule
	job       Job
	immediate bool
}

// Scheduler is a stopped/running state machine around robfig/cron. Each Start
// builds a fresh cron instance, so there is never more than one set of timers.
type Scheduler struct {
	mu      sync.Mutex
	logger  Logger
	parser  cron.Parser
	entries []entry

	cron    *cron.Cron
	pending sync.WaitGroup
}

func New(logger Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		parser: cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// AddJob registers a job on a six-field cron spec (seconds first).
func (s *Scheduler) AddJob(name, spec string, job Job) error {
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return err
	}
	s.add(entry{name: name, schedule: schedule, job: job})
	return nil
}

// AddEvery registers a job on a fixed interval. With immediate set, Start
// also runs it once right away instead of waiting a full interval.
func (s *Scheduler) AddEvery(name string, every time.Duration, job Job, immediate bool) error {
	if every < time.Second {
		return fmt.Errorf("interval for %s must be at least 1s, got %s", name, every)
	}
	s.add(entry{name: name, schedule: cron.Every(every), job: job, immediate: immediate})
	return nil
}

func (s *Scheduler) add(e entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	if s.cron != nil {
		s.cron.Schedule(e.schedule, s.wrap(e))
	}
}

// Start moves to running. Calling it while running restarts the timers.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.stopLocked()
	}

	c := cron.New(cron.WithLogger(s.logger.Cron()))
	for _, e := range s.entries {
		job := s.wrap(e)
		c.Schedule(e.schedule, job)

		if e.immediate {
			s.pending.Add(1)
			go func() {
				defer s.pending.Done()
				job.Run()
			}()
		}
	}

	c.Start()
	s.cron = c
	s.logger.Infof("Scheduler started with %d job(s)", len(s.entries))
}

// Stop moves to stopped and waits for running jobs to finish. No job fires
// after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cron == nil {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.pending.Wait()
	s.cron = nil
	s.logger.Infof("Scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cron != nil
}

// wrap turns a Job into a cron.Job that logs failures, survives panics and
// skips a tick while the previous run is still going.
func (s *Scheduler) wrap(e entry) cron.Job {
	chain := cron.NewChain(cron.Recover(s.logger.Cron()), cron.SkipIfStillRunning(s.logger.Cron()))

	return chain.Then(cron.FuncJob(func() {
		start := time.Now()
		if err := e.job(context.Background()); err != nil {
			s.logger.Errorf("Scheduled job %s failed after %s: %v", e.name, time.Since(start).Round(time.Millisecond), err)
		}
	}))
}
