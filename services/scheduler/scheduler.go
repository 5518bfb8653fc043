package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/metrics"
	"github.com/trezcool/carline/core/queue"
)

const resetReportTemplate = "queue_reset_report"

func init() {
	if err := core.RegisterEmailTemplate(resetReportTemplate, `The daily queue reset ran at {{.RanAt.Format "2006-01-02 15:04 MST"}}.

Entries archived: {{.Result.Entries}}
Campuses cleared: {{.Result.Campuses}}
Failures: {{.Result.Failed}}

Cars were still waiting when the reset ran; their pickups were credited to whoever queued them.
`); err != nil {
		log.Fatal(err)
	}
}

type (
	Resetter interface {
		ScheduledClearAllQueues(ctx context.Context) (queue.ResetResult, error)
	}

	Refresher interface {
		RefreshDay(ctx context.Context, day time.Time) ([]metrics.Snapshot, error)
		RefreshMonth(ctx context.Context, month time.Time) ([]metrics.Snapshot, error)
	}

	Options struct {
		ResetSchedule   string
		MetricsSchedule string
		Location        *time.Location
		ReportTo        []string
		Std             *log.Logger // cron's own logs
	}

	Scheduler struct {
		cron    *cron.Cron
		opts    Options
		queue   Resetter
		metrics Refresher
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func New(opts Options, queueSvc Resetter, metricsSvc Refresher, mailSvc core.EmailService, logger core.Logger) (*Scheduler, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	cronLogger := cron.DiscardLogger
	if opts.Std != nil {
		cronLogger = cron.PrintfLogger(opts.Std)
	}

	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(opts.Location),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger), cron.Recover(cronLogger)),
		),
		opts:    opts,
		queue:   queueSvc,
		metrics: metricsSvc,
		mailSvc: mailSvc,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(opts.ResetSchedule, func() { s.RunReset(context.Background()) }); err != nil {
		return nil, errors.Wrapf(err, "scheduling queue reset %q", opts.ResetSchedule)
	}
	if opts.MetricsSchedule != "" {
		if _, err := s.cron.AddFunc(opts.MetricsSchedule, func() { s.RefreshMetrics(context.Background()) }); err != nil {
			return nil, errors.Wrapf(err, "scheduling metrics refresh %q", opts.MetricsSchedule)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop waits for running jobs or for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunReset clears every queue and mails a report when anything was left over.
func (s *Scheduler) RunReset(ctx context.Context) queue.ResetResult {
	res, err := s.queue.ScheduledClearAllQueues(ctx)
	if err != nil {
		s.logger.Error("scheduled queue reset failed", err)
		return res
	}
	if (res.Entries > 0 || res.Failed > 0) && len(s.opts.ReportTo) > 0 {
		s.mailSvc.SendMessages(&core.EmailMessage{
			To:           core.ParseAddresses(s.opts.ReportTo),
			Subject:      fmt.Sprintf("Queue reset archived %d waiting cars", res.Entries),
			TemplateName: resetReportTemplate,
			TemplateData: struct {
				RanAt  time.Time
				Result queue.ResetResult
			}{core.NowFunc().In(s.opts.Location), res},
		})
	}
	return res
}

// RefreshMetrics recomputes yesterday's day snapshots and the month they belong to.
func (s *Scheduler) RefreshMetrics(ctx context.Context) {
	yesterday := core.NowFunc().In(s.opts.Location).AddDate(0, 0, -1)
	if _, err := s.metrics.RefreshDay(ctx, yesterday); err != nil {
		s.logger.Error("refreshing day metrics", err)
	}
	if _, err := s.metrics.RefreshMonth(ctx, yesterday); err != nil {
		s.logger.Error("refreshing month metrics", err)
	}
}
