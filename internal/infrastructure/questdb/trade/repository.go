package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/questdb"
	"github.com/jackc/pgx/v5"
)

// Repository represents the repository for archived trades.
type Repository struct {
	client questdb.QuestDBClient
}

// NewRepository creates a new trade archive repository.
func NewRepository(client questdb.QuestDBClient) *Repository {
	return &Repository{
		client: client,
	}
}

// exec routes a statement through the transaction carried by the context,
// falling back to the pool client when none is present.
func (r *Repository) exec(ctx context.Context, sql string, args ...any) error {
	if tx, ok := questdb.TxFromContext(ctx); ok {
		_, err := tx.Exec(ctx, sql, args...)
		return err
	}
	return r.client.Exec(ctx, sql, args...)
}

func (r *Repository) copyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	if tx, ok := questdb.TxFromContext(ctx); ok {
		return tx.CopyFrom(ctx, table, columns, src)
	}
	return r.client.CopyFrom(ctx, table, columns, src)
}

// Store archives a single trade.
func (r *Repository) Store(ctx context.Context, trade *ArchivedTrade) error {
	query := `INSERT INTO trades (timestamp, trade_id, symbol, price, quantity, buyer, seller, taker_side)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	err := r.exec(ctx, query,
		trade.Timestamp, trade.TradeID, trade.Symbol, trade.Price, trade.Quantity,
		trade.Buyer, trade.Seller, trade.TakerSide)

	if err != nil {
		return fmt.Errorf("failed to store trade: %w", err)
	}

	return nil
}

// StoreBatch archives a batch of trades.
func (r *Repository) StoreBatch(ctx context.Context, trades []*ArchivedTrade) error {
	if len(trades) == 0 {
		return nil
	}

	// CopyFrom performs better than row-by-row inserts for large batches
	_, err := r.copyFrom(
		ctx,
		pgx.Identifier{"trades"},
		[]string{"timestamp", "trade_id", "symbol", "price", "quantity", "buyer", "seller", "taker_side"},
		pgx.CopyFromSlice(len(trades), func(i int) ([]any, error) {
			trade := trades[i]
			return []any{
				trade.Timestamp,
				trade.TradeID,
				trade.Symbol,
				trade.Price,
				trade.Quantity,
				trade.Buyer,
				trade.Seller,
				trade.TakerSide,
			}, nil
		}),
	)

	if err != nil {
		return fmt.Errorf("failed to copy trades: %w", err)
	}

	return nil
}

// GetByFilter retrieves archived trades by filter, newest first.
func (r *Repository) GetByFilter(ctx context.Context, filter Filter) ([]*ArchivedTrade, error) {
	query := "SELECT timestamp, trade_id, symbol, price, quantity, buyer, seller, taker_side FROM trades WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.Symbol != "" {
		query += fmt.Sprintf(" AND symbol = $%d", argIndex)
		args = append(args, filter.Symbol)
		argIndex++
	}

	if filter.User != "" {
		query += fmt.Sprintf(" AND (buyer = $%d OR seller = $%d)", argIndex, argIndex)
		args = append(args, filter.User)
		argIndex++
	}

	if filter.From != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", argIndex)
		args = append(args, *filter.From)
		argIndex++
	}

	if filter.To != nil {
		query += fmt.Sprintf(" AND timestamp <= $%d", argIndex)
		args = append(args, *filter.To)
		argIndex++
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	rows, err := r.client.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []*ArchivedTrade
	for rows.Next() {
		trade := &ArchivedTrade{}
		err := rows.Scan(&trade.Timestamp, &trade.TradeID, &trade.Symbol, &trade.Price,
			&trade.Quantity, &trade.Buyer, &trade.Seller, &trade.TakerSide)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return trades, nil
}

// GetLatestBySymbol retrieves the most recent archived trade for a symbol.
func (r *Repository) GetLatestBySymbol(ctx context.Context, symbol string) (*ArchivedTrade, error) {
	query := `SELECT timestamp, trade_id, symbol, price, quantity, buyer, seller, taker_side
			  FROM trades
			  WHERE symbol = $1
			  ORDER BY timestamp DESC
			  LIMIT 1`

	trade := &ArchivedTrade{}
	err := r.client.QueryRow(ctx, query, symbol).Scan(
		&trade.Timestamp, &trade.TradeID, &trade.Symbol, &trade.Price,
		&trade.Quantity, &trade.Buyer, &trade.Seller, &trade.TakerSide)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest trade: %w", err)
	}

	return trade, nil
}

// GetVolumeBySymbol retrieves total traded quantity for a symbol in a window.
func (r *Repository) GetVolumeBySymbol(ctx context.Context, symbol string, from, to time.Time) (int64, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM trades
			  WHERE symbol = $1 AND timestamp >= $2 AND timestamp <= $3`

	var totalVolume int64
	err := r.client.QueryRow(ctx, query, symbol, from, to).Scan(&totalVolume)
	if err != nil {
		return 0, fmt.Errorf("failed to get volume: %w", err)
	}

	return totalVolume, nil
}
