package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"glasshouse/server/internal/models"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// GetSales returns raw sale records, optionally filtered by city and a
// sale-date window. Derived fields (cohort, era, economics) are not
// stored; classification happens on read.
func (d *Database) GetSales(startDate, endDate, city string) ([]models.Sale, error) {
	query := `
        SELECT
            id,
            COALESCE(property_id, '') as property_id,
            COALESCE(address, '') as address,
            COALESCE(city, '') as city,
            COALESCE(state, '') as state,
            COALESCE(zip, '') as zip,
            purchase_date,
            purchase_price,
            sale_date,
            sale_price,
            realized_net,
            beds,
            baths,
            sqft,
            year_built
        FROM sales
        WHERE (? = '' OR sale_date >= ?)
        AND (? = '' OR sale_date <= ?)
        AND (? = '' OR LOWER(city) = LOWER(?))
        ORDER BY sale_date, id
    `
	rows, err := d.db.Query(query,
		startDate, startDate,
		endDate, endDate,
		city, city,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var s models.Sale
		var purchaseDate, saleDate sql.NullString
		var purchasePrice, salePrice, realizedNet, baths sql.NullFloat64
		var beds, sqft, yearBuilt sql.NullInt64

		err := rows.Scan(
			&s.ID,
			&s.PropertyID,
			&s.Address,
			&s.City,
			&s.State,
			&s.Zip,
			&purchaseDate,
			&purchasePrice,
			&saleDate,
			&salePrice,
			&realizedNet,
			&beds,
			&baths,
			&sqft,
			&yearBuilt,
		)
		if err != nil {
			return nil, err
		}

		if purchaseDate.Valid && purchaseDate.String != "" {
			if t, err := time.Parse("2006-01-02", purchaseDate.String); err == nil {
				s.PurchaseDate = t
			}
		}
		if saleDate.Valid && saleDate.String != "" {
			if t, err := time.Parse("2006-01-02", saleDate.String); err == nil {
				s.SaleDate = t
			}
		}
		if purchasePrice.Valid {
			v := purchasePrice.Float64
			s.PurchasePrice = &v
		}
		if salePrice.Valid {
			v := salePrice.Float64
			s.SalePrice = &v
		}
		if realizedNet.Valid {
			v := realizedNet.Float64
			s.RealizedNet = &v
		}
		if beds.Valid {
			v := int(beds.Int64)
			s.Beds = &v
		}
		if baths.Valid {
			v := baths.Float64
			s.Baths = &v
		}
		if sqft.Valid {
			v := int(sqft.Int64)
			s.Sqft = &v
		}
		if yearBuilt.Valid {
			v := int(yearBuilt.Int64)
			s.YearBuilt = &v
		}

		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// GetListings returns raw listing records, optionally filtered by
// city.
func (d *Database) GetListings(city string) ([]models.Listing, error) {
	query := `
        SELECT
            id,
            COALESCE(property_id, '') as property_id,
            COALESCE(address, '') as address,
            COALESCE(city, '') as city,
            COALESCE(state, '') as state,
            purchase_date,
            list_price,
            purchase_price,
            COALESCE(days_on_market, 0) as days_on_market,
            COALESCE(price_cuts, 0) as price_cuts
        FROM listings
        WHERE (? = '' OR LOWER(city) = LOWER(?))
        ORDER BY days_on_market DESC, id
    `
	rows, err := d.db.Query(query, city, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		var purchaseDate sql.NullString
		var listPrice, purchasePrice sql.NullFloat64

		err := rows.Scan(
			&l.ID,
			&l.PropertyID,
			&l.Address,
			&l.City,
			&l.State,
			&purchaseDate,
			&listPrice,
			&purchasePrice,
			&l.DaysOnMarket,
			&l.PriceCuts,
		)
		if err != nil {
			return nil, err
		}

		if purchaseDate.Valid && purchaseDate.String != "" {
			if t, err := time.Parse("2006-01-02", purchaseDate.String); err == nil {
				l.PurchaseDate = &t
			}
		}
		if listPrice.Valid {
			v := listPrice.Float64
			l.ListPrice = &v
		}
		if purchasePrice.Valid {
			v := purchasePrice.Float64
			l.PurchasePrice = &v
		}

		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// CountRecords returns the stored sale and listing counts, used by the
// import endpoint response.
func (d *Database) CountRecords() (sales int, listings int, err error) {
	if err = d.db.QueryRow("SELECT COUNT(*) FROM sales").Scan(&sales); err != nil {
		return 0, 0, err
	}
	if err = d.db.QueryRow("SELECT COUNT(*) FROM listings").Scan(&listings); err != nil {
		return 0, 0, err
	}
	return sales, listings, nil
}
