package processor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"glasshouse/server/config"
	"glasshouse/server/internal/database"
	"glasshouse/server/internal/queue"
)

// TxRunner is the slice of *gorm.DB the processor needs; tests swap in
// a mock.
type TxRunner interface {
	Transaction(fc func(*gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor drains the record queue and writes each batch to the
// database in a single transaction with retry
type BatchProcessor struct {
	db        TxRunner
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.RecordQueue
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db TxRunner, queue *queue.RecordQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing batches from the queue
func (p *BatchProcessor) Start() {
	for i := 0; i < p.config.BatchProcessing.ProcessorCount; i++ {
		p.waitGroup.Add(1)
		go p.processLoop()
	}
}

// Stop gracefully shuts down the processor
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.waitGroup.Wait()
}

// processLoop handles the continuous processing of batches
func (p *BatchProcessor) processLoop() {
	defer p.waitGroup.Done()

	p.queue.Subscribe(func(batch *queue.RecordBatch) error {
		return p.processBatch(batch)
	})
}

// processBatch persists a single record batch with transaction and retry logic
func (p *BatchProcessor) processBatch(batch *queue.RecordBatch) error {
	var err error
	for attempt := 0; attempt <= p.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.BatchProcessing.MaxRetries)
			time.Sleep(time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second)
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := database.UpsertSales(tx, batch.BatchID, batch.Sales); err != nil {
				return fmt.Errorf("failed to upsert sales batch: %w", err)
			}
			if err := database.UpsertListings(tx, batch.BatchID, batch.Listings); err != nil {
				return fmt.Errorf("failed to upsert listings batch: %w", err)
			}
			if err := database.RecordImportBatch(tx, batch.BatchID, batch.Source, len(batch.Sales), len(batch.Listings), batch.ErrorCount); err != nil {
				return fmt.Errorf("failed to record import batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.logger.WithFields(logrus.Fields{
				"batch_id": batch.BatchID,
				"sales":    len(batch.Sales),
				"listings": len(batch.Listings),
			}).Info("Successfully processed batch")
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.BatchProcessing.MaxRetries, err)
}
