package db

import (
	"context"
	"time"
)

// Trade is one executed fill stored in the journal.
type Trade struct {
	ID        string
	OrderID   string
	Symbol    string
	Side      string
	Qty       float64
	Price     float64
	Notional  float64
	Reason    string
	CreatedAt time.Time
}

// InsertTrade appends a trade row. Rows are never updated or deleted.
func (d *Database) InsertTrade(ctx context.Context, t Trade) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO trades (id, order_id, symbol, side, qty, price, notional, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OrderID, t.Symbol, t.Side, t.Qty, t.Price, t.Notional, t.Reason, t.CreatedAt,
	)
	return err
}

// ListTrades returns the most recent trades, newest first. A zero or
// negative limit returns everything.
func (d *Database) ListTrades(ctx context.Context, limit int) ([]Trade, error) {
	query := `SELECT id, order_id, symbol, side, qty, price, notional, reason, created_at
		FROM trades ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.OrderID, &t.Symbol, &t.Side, &t.Qty, &t.Price, &t.Notional, &t.Reason, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
