package scheduler

import (
	"os"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"glasshouse/server/internal/report"
)

// Scheduler runs the daily snapshot job: regenerate the report so a
// snapshot row is persisted for trend comparison.
type Scheduler struct {
	reports *report.Service
	logger  *logrus.Logger
	cron    *cron.Cron
}

// NewScheduler creates a new scheduler
func NewScheduler(reports *report.Service, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Scheduler{
		reports: reports,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start registers the snapshot job on the given cron schedule and
// begins the scheduler.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, s.runSnapshotJob)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.WithField("schedule", schedule).Info("Scheduler started")
	return nil
}

// runSnapshotJob regenerates the report, persisting today's snapshot
func (s *Scheduler) runSnapshotJob() {
	s.logger.Info("Starting scheduled snapshot job")

	doc, err := s.reports.Regenerate()
	if err != nil {
		s.logger.WithError(err).Error("Snapshot job failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"win_rate":    doc.Current.Performance.WinRate,
		"sale_count":  doc.Current.Performance.SaleCount,
		"toxic_count": doc.Current.Inventory.ToxicCount,
		"alerts":      len(doc.Warnings.Alerts),
	}).Info("Snapshot job completed")
}

// Stop gracefully stops the scheduler, waiting for a running job
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}
