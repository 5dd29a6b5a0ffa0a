package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/config"
	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/repository"
	"github.com/mamadbah2/dairy/internal/service/reporting"
)

// ReportBuilder computes the weekly report of one owner.
type ReportBuilder interface {
	WeeklyReport(ctx context.Context, owner primitive.ObjectID, now time.Time) (models.WeeklyReport, error)
}

// ReportExporter mirrors stored reports to an external sheet.
type ReportExporter interface {
	AppendWeeklyReport(ctx context.Context, report models.WeeklyReport) error
}

// Notifier delivers the weekly digest text.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Deps are the collaborators of the weekly report job. Exporter and Notifier
// may be nil.
type Deps struct {
	Users    repository.UserRepository
	Reports  repository.ReportRepository
	Builder  ReportBuilder
	Exporter ReportExporter
	Notifier Notifier
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	location *time.Location
	deps     Deps
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, deps Deps, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     cfg.CronSchedule,
		location: loc,
		deps:     deps,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start registers the weekly report job and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.logger.Info("weekly report disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.runWeeklyReport); err != nil {
		return fmt.Errorf("schedule weekly report %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.spec), zap.String("timezone", s.location.String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runWeeklyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.RunWeeklyReport(ctx); err != nil {
		s.logger.Error("weekly report failed", zap.Error(err))
	}
}

// RunWeeklyReport builds, stores and publishes the weekly report of every
// user. A failing user is logged and skipped.
func (s *Scheduler) RunWeeklyReport(ctx context.Context) ([]models.WeeklyReport, error) {
	now := s.now().In(s.location)
	s.logger.Info("generating weekly report", zap.Time("now", now))

	owners, err := s.deps.Users.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var reports []models.WeeklyReport
	for _, owner := range owners {
		log := s.logger.With(zap.String("user_id", owner.Hex()))

		report, err := s.deps.Builder.WeeklyReport(ctx, owner, now)
		if err != nil {
			log.Error("build weekly report", zap.Error(err))
			continue
		}
		if err := s.deps.Reports.SaveWeeklyReport(ctx, report); err != nil {
			log.Error("save weekly report", zap.Error(err))
			continue
		}
		if s.deps.Exporter != nil {
			if err := s.deps.Exporter.AppendWeeklyReport(ctx, report); err != nil {
				log.Warn("export weekly report", zap.Error(err))
			}
		}
		reports = append(reports, report)
	}

	if s.deps.Notifier != nil && len(reports) > 0 {
		if err := s.deps.Notifier.Notify(ctx, reporting.FormatWeeklyDigest(reports)); err != nil {
			s.logger.Error("failed to send weekly report", zap.Error(err))
		} else {
			s.logger.Info("weekly report sent successfully", zap.Int("reports", len(reports)))
		}
	}

	return reports, nil
}
