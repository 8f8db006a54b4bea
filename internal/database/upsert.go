package database

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"glasshouse/server/internal/models"
)

// OpenGorm opens the same SQLite database for the batch-write path.
// The raw database/sql handle serves reads; batched upserts go through
// gorm transactions.
func OpenGorm(dbPath string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// saleRow mirrors the sales table for gorm writes. Dates are stored as
// calendar-date text to stay queryable from the raw SQL side.
type saleRow struct {
	ID            int64 `gorm:"primaryKey"`
	PropertyID    string
	Address       string
	City          string
	State         string
	Zip           string
	PurchaseDate  string
	PurchasePrice *float64
	SaleDate      string
	SalePrice     *float64
	RealizedNet   *float64
	Beds          *int
	Baths         *float64
	Sqft          *int
	YearBuilt     *int
	ImportBatch   string
}

func (saleRow) TableName() string { return "sales" }

type listingRow struct {
	ID            int64 `gorm:"primaryKey"`
	PropertyID    string
	Address       string
	City          string
	State         string
	PurchaseDate  *string
	ListPrice     *float64
	PurchasePrice *float64
	DaysOnMarket  int
	PriceCuts     int
	ImportBatch   string
}

func (listingRow) TableName() string { return "listings" }

type importBatchRow struct {
	ID           string `gorm:"primaryKey"`
	Source       string
	SaleCount    int
	ListingCount int
	ErrorCount   int
	CreatedAt    string
}

func (importBatchRow) TableName() string { return "import_batches" }

// UpsertSales writes a batch of sales inside the given transaction,
// replacing rows that share a property id.
func UpsertSales(tx *gorm.DB, batchID string, sales []models.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	rows := make([]saleRow, 0, len(sales))
	for _, s := range sales {
		rows = append(rows, saleRow{
			PropertyID:    s.PropertyID,
			Address:       s.Address,
			City:          s.City,
			State:         s.State,
			Zip:           s.Zip,
			PurchaseDate:  s.PurchaseDate.Format("2006-01-02"),
			PurchasePrice: s.PurchasePrice,
			SaleDate:      s.SaleDate.Format("2006-01-02"),
			SalePrice:     s.SalePrice,
			RealizedNet:   s.RealizedNet,
			Beds:          s.Beds,
			Baths:         s.Baths,
			Sqft:          s.Sqft,
			YearBuilt:     s.YearBuilt,
			ImportBatch:   batchID,
		})
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "property_id"}},
		UpdateAll: true,
	}).Create(&rows).Error
}

// UpsertListings writes a batch of listings inside the given
// transaction, replacing rows that share a property id.
func UpsertListings(tx *gorm.DB, batchID string, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	rows := make([]listingRow, 0, len(listings))
	for _, l := range listings {
		row := listingRow{
			PropertyID:    l.PropertyID,
			Address:       l.Address,
			City:          l.City,
			State:         l.State,
			ListPrice:     l.ListPrice,
			PurchasePrice: l.PurchasePrice,
			DaysOnMarket:  l.DaysOnMarket,
			PriceCuts:     l.PriceCuts,
			ImportBatch:   batchID,
		}
		if l.PurchaseDate != nil {
			d := l.PurchaseDate.Format("2006-01-02")
			row.PurchaseDate = &d
		}
		rows = append(rows, row)
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "property_id"}},
		UpdateAll: true,
	}).Create(&rows).Error
}

// RecordImportBatch writes the audit row for one completed import.
func RecordImportBatch(tx *gorm.DB, batchID, source string, saleCount, listingCount, errorCount int) error {
	row := importBatchRow{
		ID:           batchID,
		Source:       source,
		SaleCount:    saleCount,
		ListingCount: listingCount,
		ErrorCount:   errorCount,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}
