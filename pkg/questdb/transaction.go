package questdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type contextKey string

const txKey contextKey = "questdb_tx"

// Begin starts a transaction on the client and returns a context carrying
// it. Repositories route their statements through the carried transaction
// when one is present.
func Begin(ctx context.Context, client QuestDBClient) (context.Context, error) {
	tx, err := client.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return context.WithValue(ctx, txKey, tx), nil
}

// Commit commits the transaction carried by the context.
func Commit(ctx context.Context) error {
	tx, ok := TxFromContext(ctx)
	if !ok {
		return fmt.Errorf("no transaction in context")
	}
	return tx.Commit(ctx)
}

// Rollback rolls back the transaction carried by the context.
func Rollback(ctx context.Context) error {
	tx, ok := TxFromContext(ctx)
	if !ok {
		return fmt.Errorf("no transaction in context")
	}
	return tx.Rollback(ctx)
}

// TxFromContext extracts the transaction carried by the context, if any.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok
}

// WithinTx runs fn with a context carrying a fresh transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func WithinTx(ctx context.Context, client QuestDBClient, fn func(ctx context.Context) error) error {
	txCtx, err := Begin(ctx, client)
	if err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		if rbErr := Rollback(txCtx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v, after: %w", rbErr, err)
		}
		return err
	}

	return Commit(txCtx)
}
