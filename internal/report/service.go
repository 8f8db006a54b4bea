package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"glasshouse/server/config"
	"glasshouse/server/internal/database"
	"glasshouse/server/internal/metrics"
	"glasshouse/server/internal/models"
)

// snapshotTrailingDays bounds the history window fed into trend
// comparison and the toxic countdown projection: eight weeks of daily
// snapshots.
const snapshotTrailingDays = 56

// Notifier receives the alert lines of a freshly generated report.
type Notifier interface {
	Notify(alerts []string) error
}

// Service owns report generation: it reads the stored records, runs
// the metrics pipeline, persists the snapshot and caches the latest
// document for the API.
type Service struct {
	db        *database.Database
	assembler *metrics.Assembler
	logger    *logrus.Logger
	notifier  Notifier

	mu     sync.RWMutex
	latest *models.ReportDocument
}

func NewService(db *database.Database, cfg config.MetricsConfig, notifier Notifier, logger *logrus.Logger) (*Service, error) {
	assembler, err := metrics.NewAssembler(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		db:        db,
		assembler: assembler,
		logger:    logger,
		notifier:  notifier,
	}, nil
}

// Regenerate recomputes the report from the stored records, persists a
// snapshot for the day and pushes any alerts.
func (s *Service) Regenerate() (*models.ReportDocument, error) {
	sales, err := s.db.GetSales("", "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	listings, err := s.db.GetListings("")
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}

	today := time.Now()
	history, err := s.db.GetSnapshotHistory(today.Format("2006-01-02"), snapshotTrailingDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot history: %w", err)
	}
	// Snapshots land daily, so the WoW baseline is the entry a week
	// back, not yesterday's.
	prior := metrics.SelectComparison(history, today)

	doc := s.assembler.Assemble(sales, listings, prior, history)

	snap := s.assembler.Summarize(doc.Current)
	if err := s.db.SaveSnapshot(snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.mu.Lock()
	s.latest = &doc
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"sales":    len(sales),
		"listings": len(listings),
		"skipped":  doc.Warnings.SkippedRecords,
		"alerts":   len(doc.Warnings.Alerts),
	}).Info("Regenerated report")

	if s.notifier != nil && len(doc.Warnings.Alerts) > 0 {
		if err := s.notifier.Notify(doc.Warnings.Alerts); err != nil {
			s.logger.WithError(err).Error("Failed to send alert notification")
		}
	}

	return &doc, nil
}

// Latest returns the cached report, generating one on first call.
func (s *Service) Latest() (*models.ReportDocument, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest != nil {
		return latest, nil
	}
	return s.Regenerate()
}

// ClassifiedRecords classifies the current store for the record-list
// endpoints. Invalid records are dropped from the result; the report's
// warnings section carries their errors.
func (s *Service) ClassifiedRecords(city string) ([]models.Sale, []models.Listing, []models.RecordError, error) {
	sales, err := s.db.GetSales("", "", city)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load sales: %w", err)
	}
	listings, err := s.db.GetListings(city)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load listings: %w", err)
	}

	validSales, validListings, recordErrs := s.assembler.Classify(sales, listings)
	return validSales, validListings, recordErrs, nil
}
