package triggers

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner executes a single trigger.
type Runner func(ctx context.Context, trigger Trigger) error

// Daemon runs the registered triggers on their schedules, picking up added and deleted
// triggers every reconcile interval.
type Daemon struct {
	Interval time.Duration

	registry *Registry
	runner   Runner
	logger   *zap.Logger

	cron    *cron.Cron
	entries map[string]cron.EntryID
	guard   sync.Mutex
}

func NewDaemon(registry *Registry, runner Runner, logger *zap.Logger) *Daemon {
	return &Daemon{
		Interval: time.Minute,
		registry: registry,
		runner:   runner,
		logger:   logger.Named("daemon"),
		entries:  map[string]cron.EntryID{},
	}
}

// Run blocks until the context is cancelled, waiting for running triggers to complete
// before returning.
func (d *Daemon) Run(ctx context.Context) error {
	log := cronLogger{d.logger.Sugar()}

	d.cron = cron.New(cron.WithLogger(log), cron.WithChain(cron.Recover(log)))

	if err := d.reconcile(ctx); err != nil {
		return err
	}

	d.cron.Schedule(cron.Every(d.Interval), cron.FuncJob(func() {
		if err := d.reconcile(ctx); err != nil {
			d.logger.Error("error reconciling triggers", zap.Error(err))
		}
	}))

	d.cron.Start()
	d.logger.Info("started")

	<-ctx.Done()

	d.logger.Info("stopping")
	<-d.cron.Stop().Done()

	return nil
}

func (d *Daemon) reconcile(ctx context.Context) error {
	d.guard.Lock()
	defer d.guard.Unlock()

	list, err := d.registry.All(ctx)
	if err != nil {
		return err
	}

	live := map[string]bool{}
	for _, t := range list {
		live[t.ID] = true

		if _, ok := d.entries[t.ID]; ok {
			continue
		}

		if id, err := d.schedule(ctx, t); err != nil {
			d.logger.Warn("invalid trigger", zap.String("trigger", t.ID), zap.Error(err))
		} else {
			d.entries[t.ID] = id
		}
	}

	for trigger, entry := range d.entries {
		if !live[trigger] {
			d.cron.Remove(entry)
			delete(d.entries, trigger)
			d.logger.Info("unscheduled trigger", zap.String("trigger", trigger))
		}
	}

	return nil
}

func (d *Daemon) schedule(ctx context.Context, t Trigger) (cron.EntryID, error) {
	spec, err := t.Spec()
	if err != nil {
		return 0, err
	}

	s, err := cron.ParseStandard(spec)
	if err != nil {
		return 0, err
	}

	log := cronLogger{d.logger.Sugar()}
	job := cron.NewChain(cron.SkipIfStillRunning(log)).Then(cron.FuncJob(func() {
		d.logger.Info("running trigger", zap.String("trigger", t.ID), zap.String("document", t.Document))

		if err := d.runner(ctx, t); err != nil {
			d.logger.Error("trigger failed", zap.String("trigger", t.ID), zap.String("document", t.Document), zap.Error(err))
		}
	}))

	id := d.cron.Schedule(s, job)

	d.logger.Info("scheduled trigger", zap.String("trigger", t.ID), zap.String("document", t.Document), zap.String("spec", spec))

	return id, nil
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
