package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/trogers1052/paper-trader/internal/models"
)

// Save replaces everything stored for st.Name in a single transaction
func (db *DB) Save(ctx context.Context, st models.LedgerState) error {
	if st.Name == "" {
		return errors.New("ledger name is required")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledgers (name, initial_balance, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (name) DO UPDATE SET
			initial_balance = EXCLUDED.initial_balance,
			balance = EXCLUDED.balance,
			updated_at = EXCLUDED.updated_at
	`, st.Name, st.InitialBalance, st.Balance, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert ledger: %w", err)
	}

	for _, table := range []string{"ledger_positions", "ledger_trades", "ledger_performance"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE ledger_name = $1", st.Name); err != nil {
			return fmt.Errorf("failed to delete existing %s: %w", table, err)
		}
	}

	symbols := make([]string, 0, len(st.Positions))
	for sym := range st.Positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		pos := st.Positions[sym]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_positions (ledger_name, symbol, quantity, avg_price)
			VALUES ($1, $2, $3, $4)
		`, st.Name, sym, pos.Quantity, pos.AverageCost)
		if err != nil {
			return fmt.Errorf("failed to insert position %s: %w", sym, err)
		}
	}

	for i, t := range st.TradeHistory {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_trades (
				ledger_name, seq, trade_id, executed_at, action, symbol,
				quantity, price, total, balance_after, reasoning
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, st.Name, i, t.ID, t.Timestamp, string(t.Action), t.Symbol,
			t.Quantity, t.Price, t.TotalAmount, t.BalanceAfter, t.Reasoning)
		if err != nil {
			return fmt.Errorf("failed to insert trade %d: %w", i, err)
		}
	}

	for i, p := range st.PerformanceHistory {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_performance (ledger_name, seq, recorded_at, cash, total_value)
			VALUES ($1, $2, $3, $4, $5)
		`, st.Name, i, p.Timestamp, p.Cash, p.TotalValue)
		if err != nil {
			return fmt.Errorf("failed to insert performance point %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load reads the ledger stored under name. models.ErrNoState is returned
// when none exists.
func (db *DB) Load(ctx context.Context, name string) (models.LedgerState, error) {
	st := models.LedgerState{Name: name}

	err := db.conn.QueryRowContext(ctx,
		`SELECT initial_balance, balance FROM ledgers WHERE name = $1`, name,
	).Scan(&st.InitialBalance, &st.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LedgerState{}, models.ErrNoState
	}
	if err != nil {
		return models.LedgerState{}, fmt.Errorf("failed to get ledger: %w", err)
	}

	if st.Positions, err = db.loadPositions(ctx, name); err != nil {
		return models.LedgerState{}, err
	}
	if st.TradeHistory, err = db.loadTrades(ctx, name); err != nil {
		return models.LedgerState{}, err
	}
	if st.PerformanceHistory, err = db.loadPerformance(ctx, name); err != nil {
		return models.LedgerState{}, err
	}
	return st, nil
}

func (db *DB) loadPositions(ctx context.Context, name string) (map[string]models.PositionState, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT symbol, quantity, avg_price FROM ledger_positions WHERE ledger_name = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := make(map[string]models.PositionState)
	for rows.Next() {
		var sym string
		var pos models.PositionState
		if err := rows.Scan(&sym, &pos.Quantity, &pos.AverageCost); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions[sym] = pos
	}
	return positions, rows.Err()
}

func (db *DB) loadTrades(ctx context.Context, name string) ([]models.TradeRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT trade_id, executed_at, action, symbol, quantity, price, total, balance_after, reasoning
		FROM ledger_trades
		WHERE ledger_name = $1
		ORDER BY seq
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []models.TradeRecord{}
	for rows.Next() {
		var t models.TradeRecord
		var action string
		err := rows.Scan(&t.ID, &t.Timestamp, &action, &t.Symbol, &t.Quantity,
			&t.Price, &t.TotalAmount, &t.BalanceAfter, &t.Reasoning)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Action = models.Action(action)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (db *DB) loadPerformance(ctx context.Context, name string) ([]models.PerformancePoint, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT recorded_at, cash, total_value
		FROM ledger_performance
		WHERE ledger_name = $1
		ORDER BY seq
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance history: %w", err)
	}
	defer rows.Close()

	points := []models.PerformancePoint{}
	for rows.Next() {
		var p models.PerformancePoint
		if err := rows.Scan(&p.Timestamp, &p.Cash, &p.TotalValue); err != nil {
			return nil, fmt.Errorf("failed to scan performance point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
