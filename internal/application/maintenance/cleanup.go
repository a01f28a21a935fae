package maintenance

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/todo-api-nosql/internal/pkg/metrics"
)

const defaultRegistrationSpec = "@every 15m"

// Purger removes expired pending registrations.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Cleaner runs background maintenance on a cron schedule.
type Cleaner struct {
	registrations Purger
	cron          *cron.Cron
	schedule      string
	jobs          []job
}

type job struct {
	spec string
	fn   func()
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for the registration sweep.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithJob schedules an extra housekeeping function alongside the registration sweep.
func WithJob(spec string, fn func()) Option {
	return func(cleaner *Cleaner) {
		if spec != "" && fn != nil {
			cleaner.jobs = append(cleaner.jobs, job{spec: spec, fn: fn})
		}
	}
}

// NewCleaner constructs a Cleaner. A nil purger disables the sweep.
func NewCleaner(registrations Purger, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		registrations: registrations,
		schedule:      defaultRegistrationSpec,
	}
	for _, opt := range opts {
		opt(cleaner)
	}
	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers the sweep and launches the scheduler. An invalid schedule
// is returned as an error.
func (c *Cleaner) Start() error {
	if c.registrations == nil && len(c.jobs) == 0 {
		return nil
	}
	if c.registrations != nil {
		if _, err := c.cron.AddFunc(c.schedule, func() {
			if err := c.RunOnce(context.Background()); err != nil {
				slog.Warn("registration cleanup failed", "err", err)
			}
		}); err != nil {
			return err
		}
	}
	for _, j := range c.jobs {
		if _, err := c.cron.AddFunc(j.spec, j.fn); err != nil {
			return err
		}
	}
	c.cron.Start()
	return nil
}

// Stop halts the scheduler; the returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	return c.cron.Stop()
}

// RunOnce performs a single sweep.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if c.registrations == nil {
		return nil
	}
	n, err := c.registrations.PurgeExpired(ctx)
	if n > 0 {
		metrics.ExpiredRegistrationsPurged.Add(float64(n))
		slog.Info("purged expired registrations", "count", n)
	}
	return err
}
