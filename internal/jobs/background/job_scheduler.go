package background

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Runner is one unit of scheduled work
type Runner interface {
	Run(ctx context.Context) error
}

// JobScheduler runs the periodic maintenance jobs in-process
type JobScheduler struct {
	scheduler gocron.Scheduler
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	jobs      map[string]gocron.Job
}

// Jobs groups the runners the scheduler drives
type Jobs struct {
	DashboardRefresh Runner
	LowStockAlerts   Runner
	StaleCartCleanup Runner
}

func NewJobScheduler(jobs Jobs, logger *zap.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobScheduler{
		scheduler: scheduler,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[string]gocron.Job),
	}

	if err := js.register("dashboard-stats-refresh", gocron.DurationJob(5*time.Minute), jobs.DashboardRefresh); err != nil {
		cancel()
		return nil, err
	}
	if err := js.register("low-stock-alerts", gocron.DurationJob(30*time.Minute), jobs.LowStockAlerts); err != nil {
		cancel()
		return nil, err
	}
	if err := js.register("stale-cart-cleanup", gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))), jobs.StaleCartCleanup); err != nil {
		cancel()
		return nil, err
	}

	logger.Info("registered background jobs", zap.Int("count", len(js.jobs)))
	return js, nil
}

func (js *JobScheduler) register(name string, def gocron.JobDefinition, runner Runner) error {
	if runner == nil {
		return fmt.Errorf("no runner for %s job", name)
	}
	job, err := js.scheduler.NewJob(
		def,
		gocron.NewTask(func() { js.run(name, runner) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", name, err)
	}
	js.jobs[name] = job
	return nil
}

func (js *JobScheduler) run(name string, runner Runner) {
	start := time.Now()
	if err := runner.Run(js.ctx); err != nil {
		js.logger.Error("background job failed", zap.String("job", name), zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	js.logger.Debug("background job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler")
	js.scheduler.Start()
}

// Stop cancels running jobs and waits for the scheduler to shut down
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

// JobNames lists registered job names
func (js *JobScheduler) JobNames() []string {
	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return names
}
