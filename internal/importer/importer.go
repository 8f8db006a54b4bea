package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"glasshouse/server/internal/models"
	"glasshouse/server/internal/queue"
)

// Importer reads Parcl Labs CSV exports and feeds the record queue.
// Column names vary between exports so headers are matched
// case-insensitively against the known aliases.
type Importer struct {
	queue  *queue.RecordQueue
	logger *logrus.Logger
}

// ImportResult summarizes one enqueued import.
type ImportResult struct {
	BatchID      string               `json:"batch_id"`
	SaleCount    int                  `json:"sale_count"`
	ListingCount int                  `json:"listing_count"`
	ParseErrors  []models.RecordError `json:"parse_errors,omitempty"`
}

func NewImporter(q *queue.RecordQueue, logger *logrus.Logger) *Importer {
	return &Importer{queue: q, logger: logger}
}

// salesColumns maps normalized header names to sale fields.
var salesColumns = map[string]string{
	"property id":    "property_id",
	"address":        "address",
	"city":           "city",
	"state":          "state",
	"zip code":       "zip",
	"purchase date":  "purchase_date",
	"purchase price": "purchase_price",
	"sale date":      "sale_date",
	"sale price":     "sale_price",
	"realized net":   "realized_net",
	"bedrooms":       "beds",
	"bathrooms":      "baths",
	"square feet":    "sqft",
	"year built":     "year_built",
}

// listingsColumns maps normalized header names to listing fields.
var listingsColumns = map[string]string{
	"property id":             "property_id",
	"address":                 "address",
	"city":                    "city",
	"state":                   "state",
	"original purchase date":  "purchase_date",
	"purchase date":           "purchase_date",
	"original purchase price": "purchase_price",
	"purchase price":          "purchase_price",
	"latest listing price":    "list_price",
	"list price":              "list_price",
	"days on market":          "days_on_market",
	"price cuts":              "price_cuts",
}

// ImportFiles parses the given CSV files and pushes the records onto
// the queue as one batch. Either path may be empty. Rows that cannot
// be parsed are reported, never fatal.
func (im *Importer) ImportFiles(salesPath, listingsPath string) (*ImportResult, error) {
	result := &ImportResult{BatchID: uuid.NewString()}

	var sales []models.Sale
	var listings []models.Listing

	if salesPath != "" {
		var errs []models.RecordError
		var err error
		sales, errs, err = im.parseSales(salesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to import sales csv: %w", err)
		}
		result.ParseErrors = append(result.ParseErrors, errs...)
	}

	if listingsPath != "" {
		var errs []models.RecordError
		var err error
		listings, errs, err = im.parseListings(listingsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to import listings csv: %w", err)
		}
		result.ParseErrors = append(result.ParseErrors, errs...)
	}

	result.SaleCount = len(sales)
	result.ListingCount = len(listings)

	batch := &queue.RecordBatch{
		BatchID:    result.BatchID,
		Source:     strings.TrimSpace(salesPath + " " + listingsPath),
		ErrorCount: len(result.ParseErrors),
		Sales:      sales,
		Listings:   listings,
	}
	if err := im.queue.Push(batch); err != nil {
		return nil, fmt.Errorf("failed to enqueue import batch: %w", err)
	}

	im.logger.WithFields(logrus.Fields{
		"batch_id":     result.BatchID,
		"sales":        result.SaleCount,
		"listings":     result.ListingCount,
		"parse_errors": len(result.ParseErrors),
	}).Info("Enqueued CSV import")

	return result, nil
}

func (im *Importer) parseSales(path string) ([]models.Sale, []models.RecordError, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}

	cols := mapColumns(header, salesColumns)
	var sales []models.Sale
	var errs []models.RecordError

	for i, row := range rows {
		get := func(field string) string { return cellValue(row, cols, field) }

		s := models.Sale{
			PropertyID: get("property_id"),
			Address:    get("address"),
			City:       get("city"),
			State:      get("state"),
			Zip:        get("zip"),
		}

		purchaseDate, ok := parseDate(get("purchase_date"))
		if !ok {
			errs = append(errs, rowError(s.RecordID(), i, "purchase_date", get("purchase_date")))
			continue
		}
		saleDate, ok := parseDate(get("sale_date"))
		if !ok {
			errs = append(errs, rowError(s.RecordID(), i, "sale_date", get("sale_date")))
			continue
		}
		s.PurchaseDate = purchaseDate
		s.SaleDate = saleDate
		s.PurchasePrice = parseCurrency(get("purchase_price"))
		s.SalePrice = parseCurrency(get("sale_price"))
		s.RealizedNet = parseCurrency(get("realized_net"))

		if v, ok := parseInt(get("beds")); ok {
			s.Beds = &v
		}
		if v := parseCurrency(get("baths")); v != nil {
			s.Baths = v
		}
		if v, ok := parseInt(get("sqft")); ok {
			s.Sqft = &v
		}
		if v, ok := parseInt(get("year_built")); ok {
			s.YearBuilt = &v
		}

		sales = append(sales, s)
	}
	return sales, errs, nil
}

func (im *Importer) parseListings(path string) ([]models.Listing, []models.RecordError, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}

	cols := mapColumns(header, listingsColumns)
	var listings []models.Listing
	var errs []models.RecordError

	for i, row := range rows {
		get := func(field string) string { return cellValue(row, cols, field) }

		l := models.Listing{
			PropertyID: get("property_id"),
			Address:    get("address"),
			City:       get("city"),
			State:      get("state"),
		}

		if raw := get("purchase_date"); raw != "" {
			d, ok := parseDate(raw)
			if !ok {
				errs = append(errs, rowError(l.RecordID(), i, "purchase_date", raw))
				continue
			}
			l.PurchaseDate = &d
		}
		l.ListPrice = parseCurrency(get("list_price"))
		l.PurchasePrice = parseCurrency(get("purchase_price"))
		if v, ok := parseInt(get("days_on_market")); ok {
			l.DaysOnMarket = v
		}
		if v, ok := parseInt(get("price_cuts")); ok {
			l.PriceCuts = v
		}

		listings = append(listings, l)
	}
	return listings, errs, nil
}

func readCSV(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

// mapColumns resolves header positions against the known aliases,
// case-insensitively.
func mapColumns(header []string, aliases map[string]string) map[string]int {
	cols := make(map[string]int)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if field, ok := aliases[key]; ok {
			if _, taken := cols[field]; !taken {
				cols[field] = i
			}
		}
	}
	return cols
}

func cellValue(row []string, cols map[string]int, field string) string {
	i, ok := cols[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func rowError(recordID string, row int, field, value string) models.RecordError {
	if recordID == "" {
		recordID = fmt.Sprintf("row %d", row+2)
	}
	return models.RecordError{
		RecordID: recordID,
		Field:    field,
		Reason:   fmt.Sprintf("unparseable value %q", value),
	}
}

// parseCurrency converts values like "$288,000" to a float. Blank and
// unparseable values read as absent, not zero.
func parseCurrency(val string) *float64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(val, "$", ""), ",", ""))
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}

// dateFormats are the layouts seen across Parcl exports.
var dateFormats = []string{
	"Jan 2, 2006",
	"2006-01-02",
	"1/2/2006",
	"1-2-2006",
}

func parseDate(val string) (time.Time, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, val); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseInt(val string) (int, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(val, ",", ""))
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}
