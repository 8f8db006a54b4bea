package database

func (d *Database) RunMigrations() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sales (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			property_id TEXT,
			address TEXT,
			city TEXT,
			state TEXT,
			zip TEXT,
			purchase_date TEXT,
			purchase_price REAL,
			sale_date TEXT,
			sale_price REAL,
			realized_net REAL,
			beds INTEGER,
			baths REAL,
			sqft INTEGER,
			year_built INTEGER,
			import_batch TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(property_id)
		)`,
		`CREATE TABLE IF NOT EXISTS listings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			property_id TEXT,
			address TEXT,
			city TEXT,
			state TEXT,
			purchase_date TEXT,
			list_price REAL,
			purchase_price REAL,
			days_on_market INTEGER,
			price_cuts INTEGER,
			import_batch TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(property_id)
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			win_rate REAL,
			kaz_win_rate REAL,
			avg_true_profit REAL,
			sale_count INTEGER,
			toxic_count INTEGER,
			underwater_count INTEGER,
			inventory_total INTEGER,
			market_win_rates TEXT,
			UNIQUE(date)
		)`,
		`CREATE TABLE IF NOT EXISTS import_batches (
			id TEXT PRIMARY KEY,
			source TEXT,
			sale_count INTEGER,
			listing_count INTEGER,
			error_count INTEGER,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_sale_date ON sales(sale_date)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_city ON sales(city)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_date ON snapshots(date)`,
	}

	for _, stmt := range statements {
		if _, err := d.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
