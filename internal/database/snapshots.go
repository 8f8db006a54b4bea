package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"glasshouse/server/internal/models"
)

// SaveSnapshot persists one report snapshot, replacing any earlier
// snapshot for the same date so reruns within a day stay idempotent.
func (d *Database) SaveSnapshot(snap models.Snapshot) error {
	marketRates, err := json.Marshal(snap.MarketWinRates)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
        INSERT INTO snapshots (
            date, generated_at, win_rate, kaz_win_rate, avg_true_profit,
            sale_count, toxic_count, underwater_count, inventory_total,
            market_win_rates
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(date) DO UPDATE SET
            generated_at = excluded.generated_at,
            win_rate = excluded.win_rate,
            kaz_win_rate = excluded.kaz_win_rate,
            avg_true_profit = excluded.avg_true_profit,
            sale_count = excluded.sale_count,
            toxic_count = excluded.toxic_count,
            underwater_count = excluded.underwater_count,
            inventory_total = excluded.inventory_total,
            market_win_rates = excluded.market_win_rates
    `,
		snap.Date,
		snap.GeneratedAt.Format(time.RFC3339),
		snap.WinRate,
		snap.KazWinRate,
		snap.AvgTrueProfit,
		snap.SaleCount,
		snap.ToxicCount,
		snap.Underwater,
		snap.InventoryTotal,
		string(marketRates),
	)
	return err
}

// GetSnapshotHistory returns up to limit snapshots before the given
// date, ordered oldest first for trend projection.
func (d *Database) GetSnapshotHistory(date string, limit int) ([]models.Snapshot, error) {
	rows, err := d.db.Query(`
        SELECT id, date, generated_at, win_rate, kaz_win_rate,
               avg_true_profit, sale_count, toxic_count, underwater_count,
               inventory_total, market_win_rates
        FROM snapshots
        WHERE date < ?
        ORDER BY date DESC
        LIMIT ?
    `, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*models.Snapshot, error) {
	var snap models.Snapshot
	var generatedAt string
	var marketRates sql.NullString

	err := row.Scan(
		&snap.ID,
		&snap.Date,
		&generatedAt,
		&snap.WinRate,
		&snap.KazWinRate,
		&snap.AvgTrueProfit,
		&snap.SaleCount,
		&snap.ToxicCount,
		&snap.Underwater,
		&snap.InventoryTotal,
		&marketRates,
	)
	if err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339, generatedAt); err == nil {
		snap.GeneratedAt = t
	}
	if marketRates.Valid && marketRates.String != "" {
		if err := json.Unmarshal([]byte(marketRates.String), &snap.MarketWinRates); err != nil {
			return nil, err
		}
	}
	return &snap, nil
}
